package documents

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
)

var (
	// ErrUnavailable is returned by Noop when no object storage is configured.
	ErrUnavailable = errors.New("media storage is not configured")
	ErrNotFound    = errors.New("object not found")
)

type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// MediaStore keeps lesson media files. Lessons only hold the object key.
type MediaStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
}

type Noop struct{}

func (Noop) Put(context.Context, string, io.Reader, int64, string) error { return ErrUnavailable }
func (Noop) Get(context.Context, string) (*Object, error)                { return nil, ErrUnavailable }

type Minio struct {
	client *minio.Client
	bucket string
}

// NewMinio makes sure the bucket exists before returning.
func NewMinio(ctx context.Context, client *minio.Client, bucket string) (*Minio, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errors.Wrap(err, "check bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "create bucket %s", bucket)
		}
	}
	return &Minio{client: client, bucket: bucket}, nil
}

func (m *Minio) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	return errors.Wrapf(err, "upload %s", key)
}

func (m *Minio) Get(ctx context.Context, key string) (*Object, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "download %s", key)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "stat %s", key)
	}
	return &Object{Body: obj, ContentType: info.ContentType, Size: info.Size}, nil
}
