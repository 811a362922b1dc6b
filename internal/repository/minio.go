package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

var (
	ErrDocumentNotFound = errors.New("document not found")

	ErrDocumentTooLarge = errors.New("document exceeds size limit")
)

// DocumentStorage reads uploaded documents from the object store. Keys are opaque.
type DocumentStorage interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
	Ping(ctx context.Context) error
}

type minioStorage struct {
	client         *minio.Client
	bucket         string
	requestTimeout time.Duration
	maxObjectSize  int64
	logger         zerolog.Logger

	readyMu sync.Mutex
	ready   bool
}

func NewMinIOStorage(cfg config.MinIOConfig, logger zerolog.Logger) (DocumentStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	s := &minioStorage{
		client:         client,
		bucket:         cfg.Bucket,
		requestTimeout: cfg.RequestTimeout,
		maxObjectSize:  cfg.MaxObjectSize,
		logger:         logger,
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = 60 * time.Second
	}

	// Startup is not blocked on an unready store; Fetch checks again on demand.
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := s.waitReady(ctx); err != nil {
		logger.Error().Err(err).
			Str("endpoint", cfg.Endpoint).
			Str("bucket", cfg.Bucket).
			Msg("MinIO not ready during startup, will retry on demand")
	}

	logger.Info().
		Str("endpoint", cfg.Endpoint).
		Str("bucket", cfg.Bucket).
		Bool("ssl", cfg.UseSSL).
		Msg("Connected to MinIO")

	return s, nil
}

// waitReady polls until the bucket is reachable or ctx ends. The bucket is owned
// by the upload service and is never created here.
func (s *minioStorage) waitReady(ctx context.Context) error {
	s.readyMu.Lock()
	defer s.readyMu.Unlock()
	if s.ready {
		return nil
	}

	backoff := 500 * time.Millisecond
	for {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err == nil && exists {
			s.ready = true
			return nil
		}
		if err == nil {
			err = fmt.Errorf("bucket %s does not exist", s.bucket)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("minio not ready: %w", err)
		case <-time.After(backoff):
		}
		if backoff < 4*time.Second {
			backoff *= 2
		}
	}
}

func (s *minioStorage) Fetch(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	if err := s.waitReady(ctx); err != nil {
		return nil, err
	}

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, key)
		}
		return nil, fmt.Errorf("failed to stat document: %w", err)
	}
	if s.maxObjectSize > 0 && info.Size > s.maxObjectSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrDocumentTooLarge, info.Size, s.maxObjectSize)
	}

	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	s.logger.Debug().
		Str("bucket", s.bucket).
		Str("key", key).
		Int("size", len(data)).
		Msg("Document fetched from MinIO")

	return data, nil
}

func (s *minioStorage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("minio ping failed: %w", err)
	}
	return nil
}
