package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thereayou/streamhub/internal/config"
	"github.com/thereayou/streamhub/internal/database"
	"github.com/thereayou/streamhub/internal/handlers"
	"github.com/thereayou/streamhub/internal/middleware"
	"github.com/thereayou/streamhub/internal/services"
	"github.com/thereayou/streamhub/internal/storage"
	"github.com/thereayou/streamhub/internal/websocket"
	"github.com/thereayou/streamhub/pkg/auth"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	Hub        *websocket.Hub
	JWTManager *auth.JWTManager
	Identity   *services.IdentityService

	cfg   *config.Config
	log   *zap.Logger
	relay *websocket.RedisRelay
}

// Connect opens Postgres and, when configured, Redis.
func Connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*database.Database, *redis.Client, error) {
	db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DBConnectAttempts, cfg.DBConnectDelay, log)
	if err != nil {
		return nil, nil, err
	}

	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set: token revocation and cross-instance relay disabled")
		return db, nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis connect failed: %w", err)
	}
	return db, rdb, nil
}

// NewServer wires handlers over already-open stores. rdb may be nil.
// ctx bounds the lifetime of websocket connections.
func NewServer(ctx context.Context, cfg *config.Config, log *zap.Logger, db *database.Database, rdb *redis.Client) *Server {
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	var blacklist auth.Blacklist = auth.NopBlacklist{}
	if rdb != nil {
		blacklist = auth.NewRedisBlacklist(rdb)
	}
	identity := services.NewIdentityService(db, jwtMgr, blacklist, log)

	hub := websocket.NewHub(log.Named("hub"))
	var relay *websocket.RedisRelay
	if rdb != nil {
		relay = websocket.NewRedisRelay(rdb, hub, uuid.NewString(), log.Named("relay"))
		hub.SetRelay(relay)
	}

	var uploader handlers.Uploader
	if cfg.StorageEnabled() {
		uploader = storage.NewS3Uploads(storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UploadTTL: cfg.S3UploadTTL,
		})
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(log),
		middleware.RequestLogger(log),
		middleware.Metrics(),
	)
	if cfg.RateLimitEnabled {
		router.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	router.Use(middleware.ErrorHandler(log))

	APIEndpoints(router, Handlers{
		Auth:      handlers.NewAuthHandler(identity),
		Video:     handlers.NewVideoHandler(db, uploader),
		Comment:   handlers.NewCommentHandler(db),
		Room:      handlers.NewRoomHandler(db, hub),
		Message:   handlers.NewHTTPMessageHandler(db, hub, log),
		WebSocket: handlers.NewWebSocketHandler(ctx, hub, handlers.NewSocketMessageHandler(db, hub, log), cfg.AllowedOrigins, log),
		Health:    handlers.NewHealthHandler(db),
	}, identity)

	return &Server{
		Router:     router,
		DB:         db,
		Redis:      rdb,
		Hub:        hub,
		JWTManager: jwtMgr,
		Identity:   identity,
		cfg:        cfg,
		log:        log,
		relay:      relay,
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.relay != nil {
		if err := s.relay.Start(ctx); err != nil {
			return err
		}
	}
	go s.Hub.Run(ctx)

	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) Close() {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if err := s.DB.Close(); err != nil {
		s.log.Warn("database close failed", zap.Error(err))
	}
}
