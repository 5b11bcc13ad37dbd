package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfmanager/internal/artifact"
)

// ErrNotConfigured is returned by a nil or bucketless client.
var ErrNotConfigured = errors.New("s3 export not configured")

// Options configures the S3 client. Empty credentials fall back to the
// default AWS credential chain.
type Options struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Client exports stored artifacts to a bucket.
type S3Client struct {
	client     *s3.Client
	uploader   *manager.Uploader
	bucketName string
	prefix     string
}

// FileMetadata is attached to every exported object.
type FileMetadata struct {
	OriginalName string
	ContentType  string
	Metadata     map[string]string
}

// NewS3Client creates a new S3 client
func NewS3Client(ctx context.Context, opts Options) (*S3Client, error) {
	if opts.Bucket == "" {
		return nil, ErrNotConfigured
	}
	var loadOpts []func(*awscfg.LoadOptions) error
	region := opts.Region
	if region == "" && opts.Endpoint != "" {
		region = "us-east-1"
	}
	if region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		client:     cli,
		uploader:   manager.NewUploader(cli),
		bucketName: opts.Bucket,
		prefix:     strings.Trim(opts.Prefix, "/"),
	}, nil
}

// Bucket returns the configured bucket name.
func (s *S3Client) Bucket() string { return s.bucketName }

// Key builds the object key for an artifact: prefix/kind/id/name.
func (s *S3Client) Key(a artifact.Artifact) string {
	kind := a.Kind
	if kind == "" {
		kind = "misc"
	}
	name := path.Base(strings.ReplaceAll(a.Name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "document.pdf"
	}
	return path.Join(s.prefix, kind, a.ID, name)
}

// Export uploads the artifact and returns its s3:// URL.
func (s *S3Client) Export(ctx context.Context, a artifact.Artifact) (string, error) {
	if s == nil {
		return "", ErrNotConfigured
	}
	key := s.Key(a)
	meta := &FileMetadata{
		OriginalName: a.Name,
		ContentType:  "application/pdf",
		Metadata: map[string]string{
			"artifact-id": a.ID,
			"kind":        a.Kind,
			"page-count":  fmt.Sprint(a.PageCount),
		},
	}
	if err := s.UploadFile(ctx, key, a.Data, meta); err != nil {
		return "", err
	}
	return fmt.Sprintf("s3://%s/%s", s.bucketName, key), nil
}

// UploadFile uploads data under key using the multipart-aware upload manager.
func (s *S3Client) UploadFile(ctx context.Context, key string, data []byte, metadata *FileMetadata) error {
	s3Metadata := make(map[string]string)
	contentType := "application/octet-stream"
	if metadata != nil {
		if metadata.OriginalName != "" {
			s3Metadata["name"] = metadata.OriginalName
		}
		if metadata.ContentType != "" {
			contentType = metadata.ContentType
		}
		for k, v := range metadata.Metadata {
			s3Metadata[k] = v
		}
	}

	log.Debug().
		Str("key", key).
		Int("size", len(data)).
		Interface("metadata", s3Metadata).
		Msg("UploadFile: calling upload manager")

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    s3Metadata,
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("UploadFile: upload failed")
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Info().Str("bucket", s.bucketName).Str("key", key).Int("size", len(data)).Msg("uploaded file to S3")
	return nil
}

// HeadBucket verifies the bucket is reachable with the configured credentials.
func (s *S3Client) HeadBucket(ctx context.Context) error {
	if s == nil {
		return ErrNotConfigured
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	return err
}
