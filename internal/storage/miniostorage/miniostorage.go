// Package miniostorage provides structure to work with minio-storage
package miniostorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultChunkSize - размер одного range-запроса при чтении блоба целиком
const DefaultChunkSize int64 = 1 << 20

type Options struct {
	Endpoint  string
	User      string
	Pass      string
	Bucket    string
	Secure    bool
	ChunkSize int64
}

type MinioBlobStorage struct {
	bucket string
	chunk  int64
	client *minio.Client
}

func NewMinioClient(opts Options) (*MinioBlobStorage, error) {
	bucket := opts.Bucket
	if bucket == "" {
		bucket = "photos"
		log.Printf("Bucket name is empty. Using default value %q...", bucket)
	}
	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	// подключаемся к минио - создаем клиента
	strg, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.User, opts.Pass, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, err
	}

	// создаем бакет если его нет
	if err := ensureBucket(context.Background(), strg, bucket); err != nil {
		log.Println("Failed to create bucket in MinIO:", err)
		return nil, err
	}

	return &MinioBlobStorage{bucket: bucket, chunk: chunk, client: strg}, nil
}

func (s *MinioBlobStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return err
	}

	return nil
}

func (s *MinioBlobStorage) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// Get streams the object. Missing keys come back as model.ErrBlobNotFound.
func (s *MinioBlobStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	res, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", translate(err)
	}

	resStat, err := res.Stat()
	if err != nil {
		_ = res.Close()
		return nil, "", translate(err)
	}

	return res, resStat.ContentType, nil
}

func (s *MinioBlobStorage) Size(ctx context.Context, key string) (int64, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, translate(err)
	}
	return info.Size, nil
}

// Fetch reads the whole object using ranged requests of at most chunk bytes.
func (s *MinioBlobStorage) Fetch(ctx context.Context, key string) ([]byte, error) {
	size, err := s.Size(ctx, key)
	if err != nil {
		return nil, err
	}

	return readChunked(ctx, size, s.chunk, func(ctx context.Context, off, n int64) ([]byte, error) {
		opts := minio.GetObjectOptions{}
		if err := opts.SetRange(off, off+n-1); err != nil {
			return nil, err
		}
		obj, err := s.client.GetObject(ctx, s.bucket, key, opts)
		if err != nil {
			return nil, translate(err)
		}
		defer obj.Close()

		part, err := io.ReadAll(obj)
		if err != nil {
			return nil, translate(err)
		}
		return part, nil
	})
}

func translate(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %v", model.ErrBlobNotFound, err)
	}
	return err
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}
