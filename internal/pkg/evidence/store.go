package evidence

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/abogadai/abogadai/internal/pkg/constants"
	"github.com/abogadai/abogadai/internal/pkg/env"
)

// Store persists refund evidence files. When S3 credentials are configured it
// writes to the bucket; otherwise it falls back to local disk so development
// setups work without object storage.
type Store struct {
	s3Client *s3.Client
	bucket   string
	localDir string
}

// NewStore builds an evidence store from environment configuration.
func NewStore() (*Store, error) {
	store := &Store{
		bucket:   env.GetEnv("EVIDENCE_S3_BUCKET", ""),
		localDir: env.GetEnv("EVIDENCE_LOCAL_DIR", constants.EvidencePath),
	}

	accessKey := env.GetEnv("EVIDENCE_S3_ACCESS_KEY", "")
	secretKey := env.GetEnv("EVIDENCE_S3_SECRET_KEY", "")
	if store.bucket == "" || accessKey == "" || secretKey == "" {
		log.Info("[Evidence] S3 not configured, storing evidence on local disk")
		return store, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(env.GetEnv("EVIDENCE_S3_REGION", "us-east-1")),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := env.GetEnv("EVIDENCE_S3_ENDPOINT", "")
	store.s3Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	log.Infof("[Evidence] Using S3 bucket %s for evidence uploads", store.bucket)
	return store, nil
}

// Save stores one evidence file and returns the URL to reference from a
// refund request. Object keys are date-partitioned with a random name so
// uploads never collide.
func (s *Store) Save(filename string, data []byte) (string, error) {
	key := objectKey(filename)

	if s.s3Client != nil {
		_, err := s.s3Client.PutObject(context.TODO(), &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		if err != nil {
			return "", fmt.Errorf("evidence upload failed: %w", err)
		}
		return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
	}

	path := filepath.Join(s.localDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(path), nil
}

func objectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", time.Now().Format("2006/01/02"), uuid.New().String(), ext)
}
