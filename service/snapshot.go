package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/JairPrada/radarcol-tfm/config"
	"github.com/JairPrada/radarcol-tfm/model"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Report is a point-in-time export of one dashboard view
type Report struct {
	ID          string                      `json:"id"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Source      string                      `json:"source"`
	Filters     model.FilterCriteria        `json:"filters"`
	Query       string                      `json:"query"`
	Stats       DashboardStats              `json:"stats"`
	Summary     model.ApiSummary            `json:"summary"`
	Page        *PageResult[model.Contract] `json:"page"`
}

// NewReport stamps a view with an ID and generation time
func NewReport(view *DashboardView, filters model.FilterCriteria, source string) *Report {
	return &Report{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Source:      source,
		Filters:     filters,
		Query:       BuildQuery(&filters, nil).Encode(),
		Stats:       view.Stats,
		Summary:     view.Summary,
		Page:        view.Page,
	}
}

// ObjectName is where the report is stored: reports/{date}/{id}.json
func (r *Report) ObjectName() string {
	return fmt.Sprintf("reports/%s/%s.json", r.GeneratedAt.Format("2006-01-02"), r.ID)
}

// SnapshotService archives reports in an S3-compatible bucket
type SnapshotService struct {
	client *minio.Client
	bucket string
	config *config.StorageConfig
}

func NewSnapshotService(cfg *config.StorageConfig) (*SnapshotService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &SnapshotService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *SnapshotService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		slog.Info("report bucket created", "bucket", s.bucket)
	}

	return nil
}

// SaveReport uploads the report and returns a presigned download URL
func (s *SnapshotService) SaveReport(ctx context.Context, report *Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	objectName := report.ObjectName()
	_, err = s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	slog.Info("report uploaded", "bucket", s.bucket, "object", objectName, "bytes", len(data))

	return s.GetPresignedURL(ctx, objectName)
}

// GetPresignedURL generates a presigned URL for the object with expiration
func (s *SnapshotService) GetPresignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// DeleteReport removes a stored report
func (s *SnapshotService) DeleteReport(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	return nil
}
