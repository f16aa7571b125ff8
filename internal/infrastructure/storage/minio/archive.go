package minio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/LegisGraph/internal/domain/legislation"
	"github.com/turtacn/LegisGraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/LegisGraph/pkg/errors"
)

const (
	adjacencyContentType = "application/json"
	defaultPresignExpiry = time.Hour
	noSuchKey            = "NoSuchKey"
)

var ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the object repository behind the graph archive and report
// uploads.
type Store struct {
	client *Client
	logger logging.Logger
}

var _ legislation.GraphArchive = (*Store)(nil)

func NewStore(client *Client, log logging.Logger) *Store {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Store{client: client, logger: log}
}

// Upload writes data under key.  An empty contentType is sniffed from the
// payload.
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string, meta map[string]string) error {
	if key == "" {
		return errors.InvalidParam("object key is required")
	}
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(512, len(data))])
	}
	_, err := s.client.api.PutObject(ctx, s.client.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: meta,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "upload failed").WithDetail(key)
	}
	s.logger.Debug("object uploaded", logging.String("key", key), logging.Int("bytes", len(data)))
	return nil
}

// Download reads the object under key, or fails with ErrObjectNotFound.
func (s *Store) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.api.GetObject(ctx, s.client.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.readError(err, key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.readError(err, key)
	}
	return data, nil
}

func (s *Store) readError(err error, key string) error {
	if minio.ToErrorResponse(err).Code == noSuchKey {
		return ErrObjectNotFound.WithDetail(key)
	}
	return errors.Wrap(err, errors.ErrCodeStorageError, "download failed").WithDetail(key)
}

// PutAdjacency archives the adjacency JSON of one analyzed unit.
func (s *Store) PutAdjacency(ctx context.Context, key string, data []byte) error {
	return s.Upload(ctx, key, data, adjacencyContentType, map[string]string{"kind": "adjacency"})
}

// GetAdjacency returns the archived adjacency JSON stored under key.
func (s *Store) GetAdjacency(ctx context.Context, key string) ([]byte, error) {
	return s.Download(ctx, key)
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.api.StatObject(ctx, s.client.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == noSuchKey {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "stat failed").WithDetail(key)
	}
	return true, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.api.RemoveObject(ctx, s.client.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "delete failed").WithDetail(key)
	}
	return nil
}

// List returns every object under prefix in key order.
func (s *Store) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range s.client.api.ListObjects(ctx, s.client.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeStorageError, "list failed").WithDetail(prefix)
		}
		out = append(out, ObjectInfo{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	return out, nil
}

// PresignedURL returns a time-limited download URL for key.
func (s *Store) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}
	u, err := s.client.api.PresignedGetObject(ctx, s.client.bucket, key, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "presign failed").WithDetail(key)
	}
	return u.String(), nil
}

//Personal.AI order the ending
