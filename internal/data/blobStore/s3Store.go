package blobStore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/metrics"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

var (
	instance *S3Store
	once     sync.Once
)

// S3Store keeps oversized embedding payloads and rendered podcast audio in
// an S3 compatible bucket. Objects are addressed by key, Upload returns the
// public URL callers persist alongside the record.
type S3Store struct {
	client *s3.Client
	bucket string
	logger *logger_i.Logger
}

func GetS3Store(ctx context.Context) *S3Store {
	once.Do(func() {
		log := logger_i.NewLogger("BlobStore")

		endpoint := config.S3Endpoint()
		if endpoint == "" {
			log.Error("blob storage endpoint is not configured")
			return
		}

		client := s3.NewFromConfig(aws.Config{
			Region: config.S3Region(),
			Credentials: credentials.NewStaticCredentialsProvider(
				config.S3AccessKey(), config.S3SecretKey(), ""),
		}, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})

		log.Info("Blob store init successfully", "bucket", config.S3Bucket())
		instance = &S3Store{
			client: client,
			bucket: config.S3Bucket(),
			logger: log,
		}
	})
	return instance
}

func (s *S3Store) Upload(ctx context.Context, key string, payload []byte, contentType string) (string, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "key", key)

	start := time.Now()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(contentType),
	})
	metrics.CaptureExecutionMetrics("s3_put", time.Since(start))
	if err != nil {
		log.Error("upload failed", "err", err)
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}

	log.Debug("uploaded object", "bytes", len(payload))
	return s.ObjectURL(key), nil
}

func (s *S3Store) Download(ctx context.Context, key string) ([]byte, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "key", key)

	start := time.Now()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	metrics.CaptureExecutionMetrics("s3_get", time.Since(start))
	if err != nil {
		log.Error("download failed", "err", err)
		return nil, fmt.Errorf("downloading %s: %w", key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ObjectURL builds the path style public URL for a stored object.
func (s *S3Store) ObjectURL(key string) string {
	return strings.TrimSuffix(config.S3Endpoint(), "/") + "/" + s.bucket + "/" + key
}
