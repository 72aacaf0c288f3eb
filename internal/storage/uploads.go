package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/thereayou/streamhub/pkg/apperrors"
)

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	UploadTTL time.Duration
}

// UploadTarget is where a client PUTs a file directly.
type UploadTarget struct {
	URL       string
	Method    string
	Key       string
	Headers   map[string]string
	ExpiresAt time.Time
}

// S3Uploads issues presigned PUT URLs. The service never proxies file bytes.
type S3Uploads struct {
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
	now     func() time.Time
}

func NewS3Uploads(cfg S3Config) *S3Uploads {
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}
	if cfg.Endpoint != "" {
		// S3-compatible stores (MinIO and friends) want path-style addressing.
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	return &S3Uploads{
		presign: s3.NewPresignClient(s3.New(opts)),
		bucket:  cfg.Bucket,
		ttl:     cfg.UploadTTL,
		now:     time.Now,
	}
}

// ObjectKey lays uploads out as <owner>/<unix millis>-<file name>.
func ObjectKey(owner uuid.UUID, fileName string, at time.Time) (string, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "", apperrors.Validation("file_name is required")
	}
	return fmt.Sprintf("%s/%d-%s", owner, at.UnixMilli(), name), nil
}

func (u *S3Uploads) PresignUpload(ctx context.Context, owner uuid.UUID, fileName, contentType string) (*UploadTarget, error) {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return nil, apperrors.Validation("content_type is required")
	}

	now := u.now()
	key, err := ObjectKey(owner, fileName, now)
	if err != nil {
		return nil, err
	}

	req, err := u.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(u.ttl))
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("presign upload: %w", err))
	}

	return &UploadTarget{
		URL:       req.URL,
		Method:    req.Method,
		Key:       key,
		Headers:   map[string]string{"Content-Type": contentType},
		ExpiresAt: now.Add(u.ttl),
	}, nil
}
