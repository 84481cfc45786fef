package s3sign

import (
	"context"
	"errors"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"bemanning/internal/platform/config"
)

type fakePresigner struct {
	err     error
	bucket  string
	key     string
	expires time.Duration
	calls   int
}

func (f *fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.calls++
	var o s3.PresignOptions
	for _, fn := range optFns {
		fn(&o)
	}
	f.bucket, f.key, f.expires = *in.Bucket, *in.Key, o.Expires
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://s3.example/" + *in.Bucket + "/" + *in.Key + "?X-Amz-Signature=abc"}, nil
}

func TestSignClampsTTL(t *testing.T) {
	p := &fakePresigner{}
	s := NewWithPresigner(p, Config{Bucket: "docs", TTL: 365 * 24 * time.Hour})

	url, err := s.Sign(context.Background(), "/cv/kari.pdf", 0)
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://s3.example/docs/cv/kari.pdf?X-Amz-Signature=abc" {
		t.Fatalf("url = %q", url)
	}
	if p.expires != MaxTTL {
		t.Fatalf("expires = %v, want %v", p.expires, MaxTTL)
	}

	if _, err := s.Sign(context.Background(), "cv/kari.pdf", time.Hour); err != nil {
		t.Fatal(err)
	}
	if p.expires != time.Hour {
		t.Fatalf("short ttl not preserved: %v", p.expires)
	}
}

func TestSignEmptyKeyIsNoop(t *testing.T) {
	p := &fakePresigner{}
	s := NewWithPresigner(p, Config{Bucket: "docs"})
	url, err := s.Sign(context.Background(), "  ", time.Hour)
	if err != nil || url != "" || p.calls != 0 {
		t.Fatalf("url=%q err=%v calls=%d", url, err, p.calls)
	}
}

func TestSignErrors(t *testing.T) {
	boom := errors.New("access denied")
	s := NewWithPresigner(&fakePresigner{err: boom}, Config{Bucket: "docs"})
	if _, err := s.Sign(context.Background(), "cv.pdf", time.Hour); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped presign error", err)
	}

	s = NewWithPresigner(&fakePresigner{}, Config{})
	if _, err := s.Sign(context.Background(), "cv.pdf", time.Hour); !errors.Is(err, ErrNoBucket) {
		t.Fatalf("err = %v, want ErrNoBucket", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{Region: "eu-north-1"}); !errors.Is(err, ErrNoBucket) {
		t.Fatalf("err = %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SERVICE_S3_BUCKET", "bemanning-docs")
	t.Setenv("SERVICE_S3_LINK_TTL", "48h")
	cfg := ConfigFromEnv(config.New())
	if cfg.Bucket != "bemanning-docs" || cfg.TTL != 48*time.Hour || cfg.Region != "eu-north-1" {
		t.Fatalf("cfg = %+v", cfg)
	}
}
