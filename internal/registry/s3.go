// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Registry uploads reports to an S3 compatible bucket under
// <case>/<run id>/<relative path>.
type S3Registry struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Registry(cfg S3Config) (*S3Registry, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Registry{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

func (s *S3Registry) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3Registry) Register(ctx context.Context, artifact Artifact) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("registry is nil")
	}
	if strings.TrimSpace(artifact.Path) == "" {
		return fmt.Errorf("report path is required")
	}
	if artifact.RunID == "" {
		artifact.RunID = uuid.NewString()
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	f, err := os.Open(artifact.Path)
	if err != nil {
		return fmt.Errorf("open report: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat report: %w", err)
	}

	key := ObjectKey(artifact)
	_, err = s.client.PutObject(ctx, s.bucketName, key, f, info.Size(), minio.PutObjectOptions{
		ContentType: docxContentType,
		UserMetadata: map[string]string{
			"display-name": artifact.DisplayName,
			"case":         artifact.Case,
		},
	})
	if err != nil {
		return fmt.Errorf("upload report: %w", err)
	}
	return nil
}

// ObjectKey returns the object name an artifact is uploaded under.
func ObjectKey(artifact Artifact) string {
	caseName := strings.Trim(strings.TrimSpace(artifact.Case), "/")
	if caseName == "" {
		caseName = "default"
	}
	rel := strings.TrimLeft(strings.TrimSpace(artifact.RelativePath), "/")
	if rel == "" {
		rel = "report.docx"
	}
	return caseName + "/" + strings.TrimSpace(artifact.RunID) + "/" + rel
}
