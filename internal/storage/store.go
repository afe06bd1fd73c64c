package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"studentengagement/api/internal/config"
)

const (
	DriverMinio = "minio"
	DriverS3    = "s3"
)

// ObjectStore holds publicly readable objects such as the venue QR images.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	// Upload stores data under key and returns its public URL.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case DriverMinio, "":
		return NewMinioStore(cfg)
	case DriverS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// buildPublicURL prefers the configured public base, then the endpoint in
// path style, then the virtual-hosted AWS address.
func buildPublicURL(cfg config.StorageConfig, key string) string {
	escaped := escapeKey(key)

	if cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(cfg.PublicBaseURL, "/") + "/" + escaped
	}

	if cfg.Endpoint != "" {
		base := strings.TrimSuffix(cfg.Endpoint, "/")
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			if cfg.UseSSL {
				base = "https://" + base
			} else {
				base = "http://" + base
			}
		}
		return fmt.Sprintf("%s/%s/%s", base, cfg.Bucket, escaped)
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, region, escaped)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
