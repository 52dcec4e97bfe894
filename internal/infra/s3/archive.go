package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/ivankudzin/tgapp/guardian/internal/domain/model"
)

const bucketOwnedCode = "BucketAlreadyOwnedByYou"

// ObjectStore is the part of *minio.Client the archive needs.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// AuditArchive writes batches of audit entries as JSON Lines objects.
type AuditArchive struct {
	client ObjectStore
	bucket string
	prefix string

	mu    sync.Mutex
	ready bool
}

func NewAuditArchive(client ObjectStore, bucket, prefix string) *AuditArchive {
	return &AuditArchive{
		client: client,
		bucket: strings.TrimSpace(bucket),
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
	}
}

func (a *AuditArchive) EnsureBucket(ctx context.Context) error {
	if a.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if a.bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ready {
		return nil
	}

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check s3 bucket %q: %w", a.bucket, err)
	}
	if !exists {
		err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{})
		if err != nil && minio.ToErrorResponse(err).Code != bucketOwnedCode {
			return fmt.Errorf("create s3 bucket %q: %w", a.bucket, err)
		}
	}

	// Only a successful check is remembered; failures are retried by the
	// next call.
	a.ready = true
	return nil
}

// Archive uploads entries and returns the object key.
func (a *AuditArchive) Archive(ctx context.Context, at time.Time, entries []model.Audit) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	if err := a.EnsureBucket(ctx); err != nil {
		return "", err
	}

	body, err := EncodeJSONLines(entries)
	if err != nil {
		return "", err
	}

	key := ObjectKey(a.prefix, at, uuid.NewString())
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/x-ndjson",
	})
	if err != nil {
		return "", fmt.Errorf("put audit archive %s: %w", key, err)
	}
	return key, nil
}

func ObjectKey(prefix string, at time.Time, id string) string {
	return path.Join(prefix, at.UTC().Format("2006-01-02"), id+".jsonl")
}

func EncodeJSONLines(entries []model.Audit) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return nil, fmt.Errorf("encode audit entry %s: %w", entry.ID, err)
		}
	}
	return buf.Bytes(), nil
}
