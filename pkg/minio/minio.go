package minio

import (
	"context"
	"net/url"
	"time"

	"chamber122/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Client = fx.Module("minio.client", fx.Provide(registerClient, NewStorage))

// Storage hands out presigned upload URLs for the media bucket.
type Storage interface {
	PresignPut(ctx context.Context, objectKey string) (*url.URL, error)
	PublicURL(objectKey string) string
	Bucket() string
	RemovePrefix(ctx context.Context, prefix string) (int, error)
}

type ClientParams struct {
	fx.In
	Config *config.Config
}

// registerClient returns a nil client when MINIO.ENDPOINT is unset so media
// uploads can be disabled without failing startup.
func registerClient(p ClientParams) *minio.Client {
	c := p.Config
	if c.Minio.Endpoint == "" {
		zap.L().Info("MinIO endpoint not configured, media uploads disabled")
		return nil
	}

	client, err := minio.New(c.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Minio.AccessKey, c.Minio.SecretKey, ""),
		Secure: c.Minio.Secure,
	})
	if err != nil {
		zap.L().Fatal("failed to create MinIO client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, c.Minio.BucketName)
	if err != nil {
		zap.L().Error("failed to check if bucket exists", zap.String("bucket", c.Minio.BucketName), zap.Error(err))
	} else if !exists {
		if err := client.MakeBucket(ctx, c.Minio.BucketName, minio.MakeBucketOptions{}); err != nil {
			zap.L().Error("failed to create bucket", zap.String("bucket", c.Minio.BucketName), zap.Error(err))
		}
	}
	zap.L().Info("MinIO client initialized", zap.String("endpoint", c.Minio.Endpoint), zap.Bool("bucketExists", exists))
	return client
}

type StorageParams struct {
	fx.In
	Config *config.Config
	Client *minio.Client `optional:"true"`
}

type storage struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
	prefix string
}

// NewStorage returns nil when there is no client.
func NewStorage(p StorageParams) Storage {
	if p.Client == nil {
		return nil
	}
	ttl := p.Config.Minio.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &storage{
		client: p.Client,
		bucket: p.Config.Minio.BucketName,
		ttl:    ttl,
		prefix: p.Config.Minio.PublicPrefix,
	}
}

func (s *storage) Bucket() string { return s.bucket }

func (s *storage) PresignPut(ctx context.Context, objectKey string) (*url.URL, error) {
	return s.client.PresignedPutObject(ctx, s.bucket, objectKey, s.ttl)
}

// PublicURL is where the object is served after upload. PUBLIC_PREFIX wins
// over the endpoint so a CDN can sit in front of the bucket.
func (s *storage) PublicURL(objectKey string) string {
	if s.prefix != "" {
		return s.prefix + "/" + objectKey
	}
	return s.client.EndpointURL().String() + "/" + s.bucket + "/" + objectKey
}

// RemovePrefix deletes every object under prefix and reports how many went.
// It stops at the first failure.
func (s *storage) RemovePrefix(ctx context.Context, prefix string) (int, error) {
	removed := 0
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return removed, obj.Err
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
