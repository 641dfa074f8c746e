// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pmdq/biodiversity-backend/internal/config"
)

// StorageService stores uploaded documents, inspection reports and signature
// images in S3, with a local-disk fallback for development environments
// without AWS credentials.
type StorageService struct {
	config   *config.Config
	s3Client *s3.S3
	bucket   string
	local    bool
}

// Upload folders by document kind.
const (
	FolderRequirements = "requirements"
	FolderReceipts     = "receipts"
	FolderReports      = "reports"
	FolderSignatures   = "signatures"
)

func NewStorageService(cfg *config.Config) *StorageService {
	svc := &StorageService{
		config: cfg,
		bucket: cfg.AWS.S3Bucket,
	}

	if cfg.AWS.AccessKeyID == "" {
		logrus.Warn("AWS credentials not configured, falling back to local storage")
		svc.local = true
		return svc
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		logrus.Errorf("Failed to create AWS session, falling back to local storage: %v", err)
		svc.local = true
		return svc
	}

	svc.s3Client = s3.New(sess)
	return svc
}

var allowedExtensions = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true, ".doc": true, ".docx": true,
}

// UploadFile stores an uploaded file under the given folder and returns the
// storage key.
func (s *StorageService) UploadFile(file *multipart.FileHeader, folder string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("file type %s is not allowed", ext)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read uploaded file: %w", err)
	}

	key := fmt.Sprintf("%s/%s_%d%s", folder, uuid.New().String()[:8], time.Now().Unix(), ext)

	if s.local {
		return key, s.saveLocal(key, data)
	}

	_, err = s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(file.Header.Get("Content-Type")),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return key, nil
}

// GetFileURL returns a presigned URL for downloading the stored object.
func (s *StorageService) GetFileURL(key string) (string, error) {
	if key == "" {
		return "", nil
	}

	if s.local {
		return "/uploads/" + key, nil
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(15 * time.Minute)
	if err != nil {
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}
	return url, nil
}

// DeleteFile removes a stored object.
func (s *StorageService) DeleteFile(key string) error {
	if key == "" {
		return nil
	}

	if s.local {
		return os.Remove(filepath.Join("uploads", key))
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (s *StorageService) saveLocal(key string, data []byte) error {
	path := filepath.Join("uploads", key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
