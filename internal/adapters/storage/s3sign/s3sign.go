// Package s3sign produces time limited download links for uploaded documents
package s3sign

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"bemanning/internal/platform/config"
)

// MaxTTL is the longest expiry SigV4 accepts
const MaxTTL = 7 * 24 * time.Hour

// ErrNoBucket is returned when signing without a configured bucket
var ErrNoBucket = errors.New("s3sign: bucket not configured")

// Presigner is the subset of *s3.PresignClient used here
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Config selects the bucket and optional S3 compatible endpoint
type Config struct {
	Region   string
	Bucket   string
	Endpoint string
	TTL      time.Duration
}

// ConfigFromEnv reads SERVICE_S3_*
func ConfigFromEnv(root config.Conf) Config {
	c := root.Prefix("SERVICE_S3_")
	return Config{
		Region:   c.MayString("REGION", "eu-north-1"),
		Bucket:   c.MayString("BUCKET", ""),
		Endpoint: c.MayString("ENDPOINT", ""),
		TTL:      c.MayDuration("LINK_TTL", 365*24*time.Hour),
	}
}

// Signer signs GET requests for keys in one bucket
type Signer struct {
	p      Presigner
	bucket string
	ttl    time.Duration
}

// New loads the default AWS credential chain and builds a presign client
func New(ctx context.Context, cfg Config) (*Signer, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("s3sign: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithPresigner(s3.NewPresignClient(client), cfg), nil
}

// NewWithPresigner wraps an existing presigner
func NewWithPresigner(p Presigner, cfg Config) *Signer {
	return &Signer{p: p, bucket: cfg.Bucket, ttl: cfg.TTL}
}

// TTL is the default link lifetime
func (s *Signer) TTL() time.Duration { return s.ttl }

// Sign returns a download URL for key valid for ttl, clamped to MaxTTL
// an empty key yields an empty URL and no error
func (s *Signer) Sign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "", nil
	}
	if s.bucket == "" {
		return "", ErrNoBucket
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	ttl = min(ttl, MaxTTL)

	req, err := s.p.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) { o.Expires = ttl })
	if err != nil {
		return "", fmt.Errorf("s3sign: presign %s: %w", key, err)
	}
	return req.URL, nil
}
