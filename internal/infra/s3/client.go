package s3

import (
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ivankudzin/tgapp/guardian/internal/config"
)

// NewAuditArchiveFromConfig connects to the configured S3 endpoint and
// returns an archive writing under prefix. The bucket is not touched until
// the first EnsureBucket or Archive call.
func NewAuditArchiveFromConfig(cfg config.S3Config, prefix string) (*AuditArchive, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required for the audit archive")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client for %s: %w", endpoint, err)
	}

	return NewAuditArchive(client, bucket, prefix), nil
}
