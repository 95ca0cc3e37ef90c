package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/learntrack/backend/internal/config"
	"github.com/learntrack/backend/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the object storage collaborator used for document notes.
type ObjectStore interface {
	Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, objectName string) error
	PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

type MinIOClient struct {
	client         *minio.Client
	bucket         string
	publicEndpoint string
	useSSL         bool
}

func NewMinIOClient(cfg config.MinIOConfig) (*MinIOClient, error) {
	creds := credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	if cfg.UseIAM {
		creds = credentials.NewIAM("")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &MinIOClient{
		client:         client,
		bucket:         cfg.Bucket,
		publicEndpoint: cfg.PublicEndpoint,
		useSSL:         cfg.UseSSL,
	}, nil
}

// Put uploads the object and returns its stable URL on the public endpoint.
func (m *MinIOClient) Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("minio_upload_failed", err, map[string]interface{}{
			"object_name":  objectName,
			"size":         size,
			"content_type": contentType,
			"bucket":       m.bucket,
		})
		return "", err
	}

	logger.Info("minio_upload_success", map[string]interface{}{
		"object_name":  objectName,
		"size":         size,
		"content_type": contentType,
		"bucket":       m.bucket,
	})
	return ObjectURL(m.publicEndpoint, m.useSSL, m.bucket, objectName), nil
}

func (m *MinIOClient) Delete(ctx context.Context, objectName string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		logger.Error("minio_delete_failed", err, map[string]interface{}{
			"object_name": objectName,
			"bucket":      m.bucket,
		})
	} else {
		logger.Info("minio_delete_success", map[string]interface{}{
			"object_name": objectName,
			"bucket":      m.bucket,
		})
	}
	return err
}

func (m *MinIOClient) PresignedGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	urlValue, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, expiry, nil)
	if err != nil {
		return "", err
	}
	return urlValue.String(), nil
}

func (m *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", m.bucket, err)
	}
	return nil
}

// ObjectURL builds the path-style URL of an object.
func ObjectURL(endpoint string, useSSL bool, bucket, objectName string) string {
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   strings.TrimRight(endpoint, "/"),
		Path:   "/" + bucket + "/" + strings.TrimLeft(objectName, "/"),
	}
	return u.String()
}
