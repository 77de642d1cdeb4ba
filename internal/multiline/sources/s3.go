// SPDX-License-Identifier: Apache-2.0

package sources

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/gemaraproj/multiline-loader/internal/config"
)

const s3Scheme = "s3://"

// ObjectGetter is the part of the S3 API the source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source streams objects addressed as s3://bucket/key.
type S3Source struct {
	connect func(ctx context.Context) (ObjectGetter, error)

	once   sync.Once
	client ObjectGetter
	err    error
}

func NewS3Source(client ObjectGetter) *S3Source {
	return &S3Source{connect: func(context.Context) (ObjectGetter, error) { return client, nil }}
}

// NewS3SourceFromSettings defers building the S3 client until the first
// object is opened, so runs that never touch S3 do not need AWS settings.
func NewS3SourceFromSettings(settings config.S3Settings) *S3Source {
	return &S3Source{connect: func(ctx context.Context) (ObjectGetter, error) {
		client, err := NewS3Client(ctx, settings)
		if err != nil {
			return nil, err
		}
		return client, nil
	}}
}

// NewS3Client builds an S3 client from the environment settings. Static
// credentials are used when both keys are set, otherwise the default AWS
// credential chain applies.
func NewS3Client(ctx context.Context, settings config.S3Settings) (*s3.Client, error) {
	if settings.Region == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(settings.Region)}
	if settings.AccessKey != "" && settings.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKey, settings.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

func (s *S3Source) Name() string {
	return "s3"
}

func (s *S3Source) CanHandle(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

func (s *S3Source) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3URI(location)
	if err != nil {
		return nil, err
	}
	s.once.Do(func() {
		s.client, s.err = s.connect(ctx)
	})
	if s.err != nil {
		return nil, fmt.Errorf("s3 source: %w", s.err)
	}
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get failed: %w", err)
	}
	return maybeGunzip(resp.Body)
}

// ParseS3URI splits s3://bucket/key into its bucket and key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri %q needs both bucket and key", uri)
	}
	return bucket, key, nil
}
