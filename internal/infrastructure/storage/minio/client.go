// Package minio stores serialized adjacency graphs and exported reports in
// S3-compatible object storage.
package minio

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/LegisGraph/internal/config"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

const (
	defaultRegion  = "us-east-1"
	defaultBucket  = "legisgraph-graphs"
	connectTimeout = 10 * time.Second
)

// ObjectAPI is the subset of the MinIO SDK used here.  GetObject returns a
// plain ReadCloser so it can be faked.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// sdkAPI adapts *minio.Client to ObjectAPI.
type sdkAPI struct {
	c *minio.Client
}

func (a *sdkAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return a.c.BucketExists(ctx, bucket)
}

func (a *sdkAPI) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return a.c.MakeBucket(ctx, bucket, opts)
}

func (a *sdkAPI) PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return a.c.PutObject(ctx, bucket, object, r, size, opts)
}

func (a *sdkAPI) GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return a.c.GetObject(ctx, bucket, object, opts)
}

func (a *sdkAPI) StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	return a.c.StatObject(ctx, bucket, object, opts)
}

func (a *sdkAPI) RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error {
	return a.c.RemoveObject(ctx, bucket, object, opts)
}

func (a *sdkAPI) ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return a.c.ListObjects(ctx, bucket, opts)
}

func (a *sdkAPI) PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, params url.Values) (*url.URL, error) {
	return a.c.PresignedGetObject(ctx, bucket, object, expiry, params)
}

// Client is a bucket-scoped MinIO client.
type Client struct {
	api    ObjectAPI
	bucket string
	region string
	logger logging.Logger
}

// NewClient connects to MinIO and creates the configured bucket when it is
// missing.
func NewClient(cfg config.MinIOConfig, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	sdk, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create minio client")
	}

	c := NewClientWithAPI(&sdkAPI{c: sdk}, cfg.Bucket, region, log)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := c.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	log.Info("MinIO client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", c.bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// NewClientWithAPI builds a Client over an existing API (for testing).
func NewClientWithAPI(api ObjectAPI, bucket, region string, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if bucket == "" {
		bucket = defaultBucket
	}
	if region == "" {
		region = defaultRegion
	}
	return &Client{api: api, bucket: bucket, region: region, logger: log}
}

// Bucket returns the bucket every object is written to.
func (c *Client) Bucket() string { return c.bucket }

func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to check bucket existence")
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
		return errors.Wrapf(err, errors.ErrCodeStorageError, "failed to create bucket %s", c.bucket)
	}
	c.logger.Info("Created bucket", logging.String("bucket", c.bucket))
	return nil
}

// HealthCheck reports whether the bucket is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "minio health check failed")
	}
	if !exists {
		return errors.New(errors.ErrCodeStorageError, "bucket missing").WithDetail(c.bucket)
	}
	return nil
}

//Personal.AI order the ending
