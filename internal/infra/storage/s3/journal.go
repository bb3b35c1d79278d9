package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"staylane/internal/app/policies"
)

// Journal writes reconciliation incidents as JSON objects to a private bucket,
// one object per incident.
type Journal struct {
	bucket string
	client *minio.Client
	logger *slog.Logger

	mu          sync.Mutex
	bucketReady bool
}

// NewJournal configures a journal using the provided endpoint and credentials.
func NewJournal(endpoint string, useSSL bool, accessKey, secretKey, bucket string, logger *slog.Logger) (*Journal, error) {
	cleanEndpoint := strings.TrimSpace(endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(accessKey), strings.TrimSpace(secretKey), ""),
		Secure: useSSL,
	}
	minioClient, err := minio.New(parseEndpoint(cleanEndpoint), opts)
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	return &Journal{bucket: bucket, client: minioClient, logger: logger}, nil
}

func (j *Journal) Record(ctx context.Context, incident policies.Incident) error {
	if err := j.ensureBucket(ctx); err != nil {
		return err
	}
	body, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("s3: encode incident: %w", err)
	}
	key := objectKey(incident)
	_, err = j.client.PutObject(ctx, j.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
		UserMetadata: map[string]string{
			"reason":     incident.Reason,
			"session-id": incident.SessionID,
		},
	})
	if err != nil {
		return fmt.Errorf("s3: put object: %w", err)
	}
	if j.logger != nil {
		j.logger.Info("reconciliation incident stored", "bucket", j.bucket, "key", key, "reason", incident.Reason)
	}
	return nil
}

// Ping checks that the bucket is reachable.
func (j *Journal) Ping(ctx context.Context) error {
	_, err := j.client.BucketExists(ctx, j.bucket)
	return err
}

// ensureBucket creates the bucket on first use. A failure is retried on the
// next call.
func (j *Journal) ensureBucket(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.bucketReady {
		return nil
	}
	exists, err := j.client.BucketExists(ctx, j.bucket)
	if err != nil {
		return fmt.Errorf("s3: check bucket: %w", err)
	}
	if !exists {
		if err := j.client.MakeBucket(ctx, j.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("s3: create bucket: %w", err)
		}
	}
	j.bucketReady = true
	return nil
}

func objectKey(incident policies.Incident) string {
	at := incident.OccurredAt.UTC()
	session := strings.Trim(strings.TrimSpace(incident.SessionID), "/")
	if session == "" {
		session = "unknown-session"
	}
	return fmt.Sprintf("incidents/%s/%s-%s.json", at.Format("2006/01/02"), session, incident.ID)
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

var _ policies.ReconciliationJournal = (*Journal)(nil)
