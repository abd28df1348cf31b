package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string // 空ならエンドポイントから作る
}

// MinioStore は商品画像の保存先
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	//バケットが無ければ作る
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		base = client.EndpointURL().String()
	}

	return &MinioStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: base,
	}, nil
}

// Upload は公開URLを返す
func (s *MinioStore) Upload(ctx context.Context, objectName string, contentType string, r io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return ObjectURL(s.publicURL, s.bucket, objectName), nil
}

func ObjectURL(base, bucket, objectName string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + objectName
}
