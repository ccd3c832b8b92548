package files

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

const s3Scheme = "s3://"

// Opener resolves a caller supplied path into a readable stream.
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// ObjectGetter is the subset of the S3 client used to read objects.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ObjectGetterFactory creates the S3 client on first use, so local-only
// callers never need AWS credentials.
type ObjectGetterFactory func(ctx context.Context) (ObjectGetter, error)

type opener struct {
	newS3 ObjectGetterFactory

	once  sync.Once
	s3    ObjectGetter
	s3Err error
}

// NewOpener returns an Opener for local paths and s3://bucket/key URLs.
// A nil factory uses the default AWS credential chain.
func NewOpener(newS3 ObjectGetterFactory) Opener {
	if newS3 == nil {
		newS3 = DefaultS3Client
	}
	return &opener{newS3: newS3}
}

func DefaultS3Client(ctx context.Context) (ObjectGetter, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

func (o *opener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if strings.HasPrefix(path, s3Scheme) {
		return o.openS3(ctx, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("opened local file")
	return f, nil
}

func (o *opener) openS3(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3URL(path)
	if err != nil {
		return nil, err
	}

	o.once.Do(func() {
		o.s3, o.s3Err = o.newS3(ctx)
	})
	if o.s3Err != nil {
		return nil, o.s3Err
	}

	out, err := o.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3 object %s: %w", path, err)
	}
	zerolog.Ctx(ctx).Debug().Str("bucket", bucket).Str("key", key).Msg("opened s3 object")
	return out.Body, nil
}

// ParseS3URL splits s3://bucket/key into its parts.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse s3 url %q: %w", raw, err)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 url %q must name a bucket and a key", raw)
	}
	return bucket, key, nil
}
