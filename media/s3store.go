package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/camden-git/portfoliobackend/config"
)

// objectAPI is the subset of the S3 client used by S3Storage.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage implements the Store interface on an S3 compatible bucket.
type S3Storage struct {
	client  objectAPI
	bucket  string
	baseURL string
	log     *zap.Logger
}

// NewS3Storage builds a client from static credentials. An empty endpoint uses
// the AWS regional endpoint.
func NewS3Storage(opts config.S3Options, mediaURL string, log *zap.Logger) (*S3Storage, error) {
	if opts.Bucket == "" || opts.Region == "" || opts.AccessKeyID == "" || opts.SecretAccessKey == "" {
		return nil, fmt.Errorf("incomplete s3 config: bucket/region/access_key_id/secret_access_key are required")
	}

	s3Opts := s3.Options{
		Region:       opts.Region,
		Credentials:  aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")),
		UsePathStyle: opts.PathStyle,
	}
	if opts.Endpoint != "" {
		s3Opts.BaseEndpoint = aws.String(opts.Endpoint)
	}

	baseURL := opts.PublicBaseURL
	if baseURL == "" {
		baseURL = mediaURL
	}
	return newS3StorageWithClient(s3.New(s3Opts), opts.Bucket, baseURL, log), nil
}

func newS3StorageWithClient(client objectAPI, bucket, baseURL string, log *zap.Logger) *S3Storage {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	log = log.Named("media.s3")
	log.Info("initialized s3 storage", zap.String("bucket", bucket))
	return &S3Storage{client: client, bucket: bucket, baseURL: baseURL, log: log}
}

func (s *S3Storage) key(relPath string) (string, error) {
	key := strings.TrimPrefix(relPath, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid s3 object key '%s'", relPath)
	}
	return key, nil
}

// Save uses a conditional put so a concurrent writer can never overwrite an
// object that already exists.
func (s *S3Storage) Save(ctx context.Context, relPath string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = ContentTypeFor(relPath)
	}
	candidate := relPath
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		key, err := s.key(candidate)
		if err != nil {
			return "", err
		}
		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
			ContentType:   aws.String(contentType),
			IfNoneMatch:   aws.String("*"),
		})
		if isPreconditionFailed(err) {
			candidate = availableName(relPath)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("s3 upload of '%s' failed: %w", key, err)
		}
		s.log.Debug("saved asset", zap.String("key", key), zap.Int("bytes", len(data)))
		return candidate, nil
	}
	return "", fmt.Errorf("no available name for '%s' after %d attempts", relPath, maxNameAttempts)
}

func (s *S3Storage) Open(ctx context.Context, relPath string) (io.ReadCloser, error) {
	key, err := s.key(relPath)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("'%s': %w", relPath, ErrAssetNotFound)
		}
		return nil, fmt.Errorf("s3 get of '%s' failed: %w", key, err)
	}
	return out.Body, nil
}

func (s *S3Storage) Delete(ctx context.Context, relPath string) error {
	if relPath == "" {
		return nil
	}
	key, err := s.key(relPath)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err != nil {
		return fmt.Errorf("s3 delete of '%s' failed: %w", key, err)
	}
	return nil
}

func (s *S3Storage) Exists(ctx context.Context, relPath string) (bool, error) {
	key, err := s.key(relPath)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("s3 head of '%s' failed: %w", key, err)
}

func (s *S3Storage) URL(relPath string) string {
	if relPath == "" {
		return ""
	}
	return s.baseURL + strings.TrimPrefix(relPath, "/")
}

func isPreconditionFailed(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == http.StatusPreconditionFailed
	}
	return false
}
