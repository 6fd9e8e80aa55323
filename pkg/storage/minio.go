// Package storage provides the content-addressed raw-bytes store on MinIO.
package storage

import (
	"bytes"
	"context"
	"fmt"

	"doc-chat-go/internal/config"
	"doc-chat-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client wraps a MinIO connection scoped to one bucket. Objects are keyed by
// content hash, so a write for bytes that already exist is a harmless
// overwrite with identical content.
type Client struct {
	mc     *minio.Client
	bucket string
}

// NewClient connects to MinIO and ensures the configured bucket exists.
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := mc.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check minio bucket: %w", err)
	}
	if !exists {
		if err := mc.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create minio bucket: %w", err)
		}
		log.Infof("[Storage] bucket '%s' created", cfg.BucketName)
	}

	return &Client{mc: mc, bucket: cfg.BucketName}, nil
}

func objectName(contentHash string) string {
	return fmt.Sprintf("documents/%s", contentHash)
}

// PutDocument stores the raw document bytes under documents/<hash>.
func (c *Client) PutDocument(ctx context.Context, contentHash string, raw []byte) error {
	_, err := c.mc.PutObject(ctx, c.bucket, objectName(contentHash),
		bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to store document object: %w", err)
	}
	return nil
}

// RemoveDocument deletes the raw bytes for a content hash. Used to undo the
// object write when the database insert fails, so no orphaned blob remains.
func (c *Client) RemoveDocument(ctx context.Context, contentHash string) error {
	return c.mc.RemoveObject(ctx, c.bucket, objectName(contentHash), minio.RemoveObjectOptions{})
}
