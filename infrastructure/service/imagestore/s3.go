package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/glucon/glucon-api/application/port/outbound"
)

type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	KeyPrefix    string
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3ImageStore keeps images in an S3 compatible bucket (AWS, MinIO).
type S3ImageStore struct {
	client    s3API
	bucket    string
	keyPrefix string
}

func NewS3ImageStore(ctx context.Context, cfg S3Config) (*S3ImageStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3ImageStore(client, cfg.Bucket, cfg.KeyPrefix), nil
}

func newS3ImageStore(client s3API, bucket, keyPrefix string) *S3ImageStore {
	if keyPrefix == "" {
		keyPrefix = "images/"
	}
	return &S3ImageStore{client: client, bucket: bucket, keyPrefix: keyPrefix}
}

func (s *S3ImageStore) Save(ctx context.Context, filename string, contentType string, body io.Reader) (string, error) {
	name := storedName(filename)
	if contentType == "" {
		contentType = contentTypeFor(name)
	}

	// the SDK needs a seekable body to sign the payload
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.keyPrefix + name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return name, nil
}

func (s *S3ImageStore) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	if !validStoredName(name) {
		return nil, "", outbound.ErrImageNotFound
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyPrefix + name),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, "", outbound.ErrImageNotFound
		}
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}

	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = contentTypeFor(name)
	}
	return out.Body, contentType, nil
}
