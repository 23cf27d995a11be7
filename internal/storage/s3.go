// Package storage mirrors exported document archives to an S3-compatible
// bucket.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const exportsRoot = "exports"

// Config holds S3/MinIO client configuration.
type Config struct {
	Endpoint        string // "localhost:9000" for MinIO
	Bucket          string // "smart-organizer"
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Client wraps the MinIO/S3 client for archive mirroring.
type Client struct {
	mc     *minio.Client
	bucket string
	now    func() time.Time
}

// New creates a new S3/MinIO client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Client{
		mc:     mc,
		bucket: cfg.Bucket,
		now:    time.Now,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", c.bucket, err)
	}
	if exists {
		return nil
	}

	err = c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ExportMetadata is written next to every mirrored archive.
type ExportMetadata struct {
	Username   string `json:"username"`
	Filename   string `json:"filename"`
	Bytes      int    `json:"bytes"`
	ExportedAt string `json:"exported_at"`
}

// ExportObject is one mirrored archive.
type ExportObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ExportPrefix returns the prefix holding username's archives.
func ExportPrefix(username string) string {
	return path.Join(exportsRoot, username) + "/"
}

// exportPrefix returns a per-run prefix, e.g. "exports/alice/2025-12-04T17-30-00".
func (c *Client) exportPrefix(username string) string {
	stamp := c.now().UTC().Format("2006-01-02T15-04-05")
	return path.Join(exportsRoot, username, stamp)
}

// PutExport uploads an archive and its metadata and returns the archive key.
func (c *Client) PutExport(ctx context.Context, username, name string, data []byte) (string, error) {
	if username == "" || strings.Contains(username, "/") {
		return "", fmt.Errorf("invalid username %q", username)
	}
	prefix := c.exportPrefix(username)
	objectName := path.Join(prefix, name)

	_, err := c.mc.PutObject(ctx, c.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return "", fmt.Errorf("failed to put archive: %w", err)
	}

	meta := ExportMetadata{
		Username:   username,
		Filename:   name,
		Bytes:      len(data),
		ExportedAt: c.now().UTC().Format(time.RFC3339),
	}
	if err := c.putMetadata(ctx, prefix, meta); err != nil {
		return "", err
	}
	return objectName, nil
}

func (c *Client) putMetadata(ctx context.Context, prefix string, meta ExportMetadata) error {
	objectName := path.Join(prefix, "metadata.json")

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = c.mc.PutObject(ctx, c.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to put metadata: %w", err)
	}
	return nil
}

// ListExports returns username's mirrored archives, newest first.
func (c *Client) ListExports(ctx context.Context, username string) ([]ExportObject, error) {
	var exports []ExportObject

	objects := c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    ExportPrefix(username),
		Recursive: true,
	})

	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		if strings.HasSuffix(obj.Key, ".zip") {
			exports = append(exports, ExportObject{
				Key:          obj.Key,
				Size:         obj.Size,
				LastModified: obj.LastModified,
			})
		}
	}

	sort.Slice(exports, func(i, j int) bool { return exports[i].Key > exports[j].Key })
	return exports, nil
}

// GetExport downloads a mirrored archive by key.
func (c *Client) GetExport(ctx context.Context, key string) ([]byte, error) {
	object, err := c.mc.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get archive: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return data, nil
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}
