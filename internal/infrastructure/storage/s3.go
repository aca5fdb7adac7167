// Package storage archives label photos in S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labelscan/backend/internal/domain"
)

// putObjectAPI is the part of the S3 client used here
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures an S3Store
type Options struct {
	Bucket    string
	Region    string
	Prefix    string
	PublicURL string
}

// S3Store uploads label photos to one bucket
type S3Store struct {
	client    putObjectAPI
	bucket    string
	region    string
	prefix    string
	publicURL string
	now       func() time.Time
}

// NewS3Store loads the default AWS credential chain for the configured region
func NewS3Store(ctx context.Context, opts Options) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return newS3Store(s3.NewFromConfig(cfg), opts), nil
}

func newS3Store(client putObjectAPI, opts Options) *S3Store {
	return &S3Store{
		client:    client,
		bucket:    opts.Bucket,
		region:    opts.Region,
		prefix:    opts.Prefix,
		publicURL: strings.TrimSuffix(opts.PublicURL, "/"),
		now:       time.Now,
	}
}

// Put uploads the image for jobID and returns its URL
func (s *S3Store) Put(ctx context.Context, jobID string, image *domain.LabelImage) (string, error) {
	if image == nil || len(image.Data) == 0 || jobID == "" {
		return "", domain.ErrInvalidRequest
	}

	key := ObjectKey(s.prefix, jobID, image.ContentType, s.now())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(image.Data),
		ContentType: aws.String(image.ContentType),
	})
	if err != nil {
		log.Printf("[S3] Upload %s failed: %v", key, err)
		return "", fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
	}

	return s.objectURL(key), nil
}

func (s *S3Store) objectURL(key string) string {
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s", s.publicURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// ObjectKey builds "<prefix>/<yyyy>/<mm>/<jobID><ext>" for an upload
func ObjectKey(prefix, jobID, contentType string, at time.Time) string {
	return path.Join(prefix, at.UTC().Format("2006/01"), jobID+extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "":
		return ""
	}
	exts, _ := mime.ExtensionsByType(contentType)
	if len(exts) > 0 {
		return exts[0]
	}
	if parts := strings.SplitN(contentType, "/", 2); len(parts) == 2 {
		return "." + parts[1]
	}
	return ""
}
