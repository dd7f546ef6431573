package publish

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
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"previewhub/internal/config"
	"previewhub/internal/hub"
)

// requestTimeout bounds every individual S3 call.
const requestTimeout = 2 * time.Minute

// s3API is the subset of *s3.Client the publisher uses.
type s3API interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Publisher uploads the site to a bucket, optionally below a key prefix.
type S3Publisher struct {
	name     string
	bucket   string
	prefix   string
	client   s3API
	uploader *manager.Uploader
}

// NewS3Publisher builds a client from the default AWS configuration chain.
// Static credentials in cfg take precedence over the environment.
func NewS3Publisher(ctx context.Context, cfg config.PublisherConfig) (*S3Publisher, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("s3 publisher requires s3_bucket to be set")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return newS3Publisher(cfg.Name, cfg.S3Bucket, cfg.S3Prefix, s3.NewFromConfig(awsCfg)), nil
}

func newS3Publisher(name, bucket, prefix string, client s3API) *S3Publisher {
	return &S3Publisher{
		name:     name,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		client:   client,
		uploader: manager.NewUploader(client),
	}
}

func (p *S3Publisher) Name() string { return p.name }

func (p *S3Publisher) objectKey(key string) string {
	if p.prefix == "" {
		return key
	}
	return path.Join(p.prefix, key)
}

func (p *S3Publisher) PutFile(key string, r io.Reader, size int64, contentType string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	counter := &countingReader{r: r}
	_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(p.objectKey(key)),
		Body:        counter,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", p.bucket, p.objectKey(key), err)
	}
	if counter.n != size {
		return fmt.Errorf("size mismatch for %s: expected %d bytes, got %d", key, size, counter.n)
	}
	return nil
}

// DeletePrefix lists and deletes every object below prefix, one page at a time.
func (p *S3Publisher) DeletePrefix(prefix string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	full := p.objectKey(prefix)
	if strings.HasSuffix(prefix, "/") && !strings.HasSuffix(full, "/") {
		full += "/"
	}

	pages := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.bucket),
		Prefix: aws.String(full),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("listing s3://%s/%s: %w", p.bucket, full, err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		ids := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
		}
		out, err := p.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(p.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("deleting below s3://%s/%s: %w", p.bucket, full, err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("deleting %s: %s", aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}
	return nil
}

// ValidateSetup checks that the bucket exists and the credentials can reach it.
func (p *S3Publisher) ValidateSetup() error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if _, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)}); err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", p.bucket, err)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	c.n += int64(n)
	return n, err
}

// Compile-time check that S3Publisher implements hub.Publisher
var _ hub.Publisher = (*S3Publisher)(nil)
