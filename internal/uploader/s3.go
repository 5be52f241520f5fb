package uploader

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config points at an S3-compatible bucket (AWS, MinIO).
type S3Config struct {
	Region    string
	Bucket    string
	Endpoint  string // empty for AWS
	AccessKey string
	SecretKey string
	// PublicBaseURL prefixes object keys in returned URLs. Defaults to Endpoint/Bucket.
	PublicBaseURL string
	Prefix        string
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores files as objects in a single bucket.
type S3Uploader struct {
	client  objectPutter
	bucket  string
	baseURL string
	prefix  string
	now     func() time.Time
}

var _ Uploader = (*S3Uploader)(nil)

// NewS3 builds the SDK client from cfg. Static credentials are used when
// given, otherwise the default AWS credential chain applies.
func NewS3(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Uploader(client, cfg), nil
}

func newS3Uploader(client objectPutter, cfg S3Config) *S3Uploader {
	base := cfg.PublicBaseURL
	if base == "" {
		if cfg.Endpoint != "" {
			base = joinURL(cfg.Endpoint, cfg.Bucket)
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return &S3Uploader{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: base,
		prefix:  cfg.Prefix,
		now:     time.Now,
	}
}

func (u *S3Uploader) Upload(ctx context.Context, localPath string) (*Result, error) {
	if localPath == "" {
		return nil, nil
	}
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	key := objectKey(u.prefix, u.now().UTC(), localPath)
	in := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(localPath))); ct != "" {
		in.ContentType = aws.String(ct)
	}
	if _, err := u.client.PutObject(ctx, in); err != nil {
		return nil, fmt.Errorf("put object %q: %w", key, err)
	}
	return &Result{URL: joinURL(u.baseURL, key)}, nil
}
