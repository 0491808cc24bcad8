package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mandalnilabja/pixelrelay/internal/config"
)

// putObjectAPI is the subset of *s3.Client the uploader needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader writes public-read objects to an S3-compatible bucket.
type S3Uploader struct {
	client        putObjectAPI
	bucket        string
	region        string
	prefix        string
	publicBaseURL string
}

// NewS3Uploader builds an uploader from blob settings. Static credentials
// are used when both keys are set; otherwise the default AWS chain applies.
// A custom endpoint switches to path-style addressing.
func NewS3Uploader(ctx context.Context, cfg config.BlobConfig) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Uploader(client, cfg), nil
}

func newS3Uploader(client putObjectAPI, cfg config.BlobConfig) *S3Uploader {
	return &S3Uploader{
		client:        client,
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		prefix:        strings.Trim(cfg.Prefix, "/"),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// Upload puts data under the configured prefix with a public-read ACL.
func (u *S3Uploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	objectKey := u.objectKey(key)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", objectKey, err)
	}

	return u.publicURL(objectKey), nil
}

func (u *S3Uploader) objectKey(key string) string {
	if u.prefix == "" {
		return key
	}
	return u.prefix + "/" + key
}

// publicURL prefers the configured base URL (CDN or S3-compatible host),
// then the virtual-hosted AWS form.
func (u *S3Uploader) publicURL(objectKey string) string {
	escaped := escapeKey(objectKey)
	if u.publicBaseURL != "" {
		return u.publicBaseURL + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, escaped)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
