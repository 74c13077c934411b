package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"careercraft/internal/config"
	"careercraft/internal/domain"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/rs/zerolog"
)

// ErrObjectNotFound is returned by object storage for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// OSSClient is the Aliyun OSS implementation of domain.ObjectStorage.
type OSSClient struct {
	bucket     *oss.Bucket
	endpoint   string
	bucketName string
	publicBase string
}

func NewOSSClient(cfg config.RemoteConfig, logger *zerolog.Logger) (*OSSClient, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bkt, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	// Проверяем бакет, но не падаем на AccessDenied у ограниченных ключей
	if loc, err := client.GetBucketLocation(cfg.Bucket); err != nil {
		var se oss.ServiceError
		if errors.As(err, &se) && se.StatusCode == 403 {
			logger.Warn().Str("bucket", cfg.Bucket).Msg("Skipping OSS bucket location check, access denied")
		} else {
			return nil, fmt.Errorf("verify bucket: %w", err)
		}
	} else {
		logger.Info().Str("bucket", cfg.Bucket).Str("location", loc).Msg("OSS bucket ready")
	}

	return &OSSClient{
		bucket:     bkt,
		endpoint:   cfg.Endpoint,
		bucketName: cfg.Bucket,
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (c *OSSClient) Upload(ctx context.Context, folder, name, mimeType string, body []byte) (domain.RemoteObject, error) {
	key := path.Join(folder, name)
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(mimeType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	}
	if err := c.bucket.PutObject(key, bytes.NewReader(body), opts...); err != nil {
		return domain.RemoteObject{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return domain.RemoteObject{URL: c.PublicURL(key), Key: key}, nil
}

func (c *OSSClient) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	body, err := c.bucket.GetObject(key, oss.WithContext(ctx))
	if isOSSNotFound(err) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return body, nil
}

func (c *OSSClient) Delete(ctx context.Context, key string) error {
	err := c.bucket.DeleteObject(key, oss.WithContext(ctx))
	if isOSSNotFound(err) {
		return ErrObjectNotFound
	}
	return err
}

// PublicURL prefers the configured CDN base over the bucket endpoint.
func (c *OSSClient) PublicURL(key string) string {
	if c.publicBase != "" {
		return c.publicBase + "/" + key
	}
	end := strings.TrimPrefix(strings.TrimPrefix(c.endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", c.bucketName, end, key)
}

func isOSSNotFound(err error) bool {
	var se oss.ServiceError
	if errors.As(err, &se) {
		return se.StatusCode == 404
	}
	return false
}
