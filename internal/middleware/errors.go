package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thereayou/streamhub/pkg/apperrors"
)

// ErrorHandler renders the last error pushed with c.Error as
// {"error": message, "code": CODE}. Errors outside the taxonomy are reported
// as internal without detail.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperrors.From(c.Errors.Last().Err)
		fields := []zap.Field{
			zap.String("code", string(appErr.Code)),
			zap.Int("status", appErr.HTTPStatus),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		}
		if appErr.Cause != nil {
			fields = append(fields, zap.Error(appErr.Cause))
		}
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Debug("request rejected", append(fields, zap.String("message", appErr.Message))...)
		}

		c.JSON(appErr.HTTPStatus, gin.H{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
	}
}

func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"))

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": apperrors.ErrInternal.Message,
					"code":  apperrors.CodeInternal,
				})
			}
		}()

		c.Next()
	}
}
