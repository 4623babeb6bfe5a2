package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	minioCreds "github.com/minio/minio-go/v7/pkg/credentials"

	"wanlens/internal/config"
)

// ObjectStoreClient reads snapshot documents from an S3-compatible bucket
type ObjectStoreClient struct {
	client  *minio.Client
	bucket  string
	timeout time.Duration
}

// NewObjectStoreClient creates a client for the configured bucket
func NewObjectStoreClient(cfg config.ObjectStoreConfig) (*ObjectStoreClient, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("object storage endpoint is not configured")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("object storage bucket is not configured")
	}

	opts := &minio.Options{
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if strings.TrimSpace(cfg.AccessKey) != "" || strings.TrimSpace(cfg.SecretKey) != "" {
		opts.Creds = minioCreds.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), "")
	} else {
		opts.Creds = minioCreds.NewEnvAWS()
	}

	client, err := minio.New(endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}

	timeout := cfg.Timeout.Duration()
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ObjectStoreClient{client: client, bucket: cfg.Bucket, timeout: timeout}, nil
}

// GetObject downloads one object
func (c *ObjectStoreClient) GetObject(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	obj, err := c.client.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Object returns a source bound to one key
func (c *ObjectStoreClient) Object(key string) *Object {
	return &Object{client: c, key: key}
}

// Object is a document stored under a key in the bucket
type Object struct {
	client *ObjectStoreClient
	key    string
}

func (o *Object) Kind() string     { return config.SourceObjectStore }
func (o *Object) Describe() string { return "s3://" + o.client.bucket + "/" + o.key }

func (o *Object) Fetch(ctx context.Context) ([]byte, error) {
	return o.client.GetObject(ctx, o.key)
}
