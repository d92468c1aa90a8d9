package s3infra

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/centry-onboarding/internal/config"
	"github.com/centry-onboarding/internal/infrastructure/awsx"
)

// maxTemplateSize bounds a single template object.
const maxTemplateSize = 256 << 10

// ErrTemplateMissing is returned when no object exists for a template name.
var ErrTemplateMissing = errors.New("template object not found")

// GetObjectAPI is the subset of the S3 client TemplateStore uses.
type GetObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// TemplateStore reads email templates stored as objects under bucket/prefix.
type TemplateStore struct {
	client GetObjectAPI
	bucket string
	prefix string
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsx.Load(ctx, cfg, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}

	clientOpts := []func(*s3.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, clientOpts...), nil
}

func NewTemplateStore(client GetObjectAPI, bucket, prefix string) *TemplateStore {
	return &TemplateStore{client: client, bucket: bucket, prefix: prefix}
}

// Load returns the body of the object at prefix+name.
func (s *TemplateStore) Load(ctx context.Context, name string) (string, error) {
	key := s.prefix + name
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return "", fmt.Errorf("%s: %w", key, ErrTemplateMissing)
		}
		return "", fmt.Errorf("s3 get object %s: %w", key, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(io.LimitReader(out.Body, maxTemplateSize+1))
	if err != nil {
		return "", fmt.Errorf("read object %s: %w", key, err)
	}
	if len(b) > maxTemplateSize {
		return "", fmt.Errorf("template %s exceeds %d bytes", key, maxTemplateSize)
	}
	return string(b), nil
}
