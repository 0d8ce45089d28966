// Package storage wraps the S3-compatible bucket that holds lesson and
// workflow files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"coursehub/internal/config"
)

// maxDeleteBatch is the S3 DeleteObjects limit.
const maxDeleteBatch = 1000

// sniffBytes is how much of an object is read to detect its content type.
const sniffBytes = 3072

var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo is what HEAD and content sniffing tell us about an object.
type ObjectInfo struct {
	Key         string
	SizeBytes   int64
	ContentType string
}

// ObjectStore is the subset of bucket operations the services need.
type ObjectStore interface {
	PresignGet(ctx context.Context, key, downloadName string) (string, error)
	PresignPut(ctx context.Context, key string) (string, error)
	Inspect(ctx context.Context, key string) (*ObjectInfo, error)
	DeleteKeys(ctx context.Context, keys []string) error
}

type S3Store struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	expiry        time.Duration
	logger        zerolog.Logger
}

// NewS3Client builds a path-style client for the configured endpoint.
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		return nil, fmt.Errorf("loading S3 config: %w", err)
	}
	return s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	}), nil
}

func NewS3Store(client *s3.Client, bucket string, expiry time.Duration, logger zerolog.Logger) *S3Store {
	return &S3Store{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        bucket,
		expiry:        expiry,
		logger:        logger.With().Str("component", "S3Store").Logger(),
	}
}

// PresignGet returns a time-limited download URL. When downloadName is set
// the browser is told to save the object under that name.
func (s *S3Store) PresignGet(ctx context.Context, key, downloadName string) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if downloadName != "" {
		input.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", downloadName))
	}
	resp, err := s.presignClient.PresignGetObject(ctx, input, s3.WithPresignExpires(s.expiry))
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to presign GET")
		return "", fmt.Errorf("presigning GET for %s: %w", key, err)
	}
	return resp.URL, nil
}

// PresignPut returns a time-limited upload URL.
func (s *S3Store) PresignPut(ctx context.Context, key string) (string, error) {
	resp, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to presign PUT")
		return "", fmt.Errorf("presigning PUT for %s: %w", key, err)
	}
	return resp.URL, nil
}

// Inspect verifies the object exists and detects its content type from the
// leading bytes rather than trusting the uploader's header.
func (s *S3Store) Inspect(ctx context.Context, key string) (*ObjectInfo, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("head object %s: %w", key, err)
	}

	info := &ObjectInfo{Key: key, SizeBytes: aws.ToInt64(head.ContentLength)}
	if info.SizeBytes == 0 {
		info.ContentType = "application/octet-stream"
		return info, nil
	}

	obj, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=0-%d", sniffBytes-1)),
	})
	if err != nil {
		return nil, fmt.Errorf("reading head of object %s: %w", key, err)
	}
	defer obj.Body.Close()

	head3k, err := io.ReadAll(io.LimitReader(obj.Body, sniffBytes))
	if err != nil {
		return nil, fmt.Errorf("reading head of object %s: %w", key, err)
	}
	info.ContentType = DetectContentType(head3k, key)
	return info, nil
}

// DetectContentType sniffs data, falling back to the file extension for
// formats that are plain text on the wire (csv, markdown).
func DetectContentType(data []byte, name string) string {
	detected := mimetype.Detect(data)
	if detected.Is("text/plain") || detected.Is("application/octet-stream") {
		if byExt := mimetype.Lookup(extensionMIME(name)); byExt != nil {
			return byExt.String()
		}
	}
	return detected.String()
}

func extensionMIME(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".md", ".markdown":
		return "text/markdown"
	}
	return ""
}

// DeleteKeys removes objects in batches. Missing keys are not an error.
func (s *S3Store) DeleteKeys(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(keys))
		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(k)})
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("deleting %d objects: %w", len(objects), err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("deleting objects: %d failed, first %s: %s",
				len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}
	return nil
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
