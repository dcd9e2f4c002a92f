package report

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"techdebt_export/internal/models"

	"github.com/minio/minio-go/v7"
)

type S3Client interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Sink uploads run workbooks to <bucket>/<prefix>/<yyyy-mm-dd>/<run-id>.xlsx.
type S3Sink struct {
	Client S3Client
	Bucket string
	Prefix string
}

func NewS3Sink(cli S3Client, bucket, prefix string) *S3Sink {
	if prefix == "" {
		prefix = "reports"
	}
	return &S3Sink{Client: cli, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}
}

func (s *S3Sink) Key(run models.RunSummary) string {
	return path.Join(s.Prefix, run.StartedAt.UTC().Format("2006-01-02"), run.RunID+".xlsx")
}

func (s *S3Sink) Store(ctx context.Context, run models.RunSummary) (string, error) {
	buf, err := RenderXLSX(run)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	key := s.Key(run)
	size := int64(buf.Len())
	log.Printf("[REPORT][S3][START] bucket=%q key=%q size=%d", s.Bucket, key, size)

	info, err := s.Client.PutObject(ctx, s.Bucket, key, buf, size, minio.PutObjectOptions{
		ContentType: ContentType,
		UserMetadata: map[string]string{
			"run-id": run.RunID,
			"status": string(run.Status),
		},
	})
	if err != nil {
		log.Printf("[REPORT][S3][ERR] put: %v", err)
		return "", fmt.Errorf("s3 put: %w", err)
	}

	log.Printf("[REPORT][S3][OK] key=%q etag=%q size=%d", key, info.ETag, info.Size)
	return key, nil
}
