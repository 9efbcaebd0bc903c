// Package s3docs produces presigned download links for documents stored in S3
// or an S3-compatible service (MinIO, LocalStack).
package s3docs

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/target/prestataires-ui/internal/ports"
)

var _ ports.DocumentLinker = (*Linker)(nil)

// Config holds the bucket location and link lifetime.
type Config struct {
	Bucket   string
	Region   string
	Endpoint string // Optional custom endpoint (MinIO, LocalStack)
	Prefix   string // Optional key prefix
	// PathStyle forces path-style addressing. Always on when Endpoint is set.
	PathStyle  bool
	PresignTTL time.Duration
}

// Linker presigns GetObject requests.
type Linker struct {
	presign *s3.PresignClient
	bucket  string
	prefix  string
	ttl     time.Duration
}

// New loads the default AWS credential chain and builds a Linker.
func New(ctx context.Context, cfg Config) (*Linker, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewWithConfig(awsCfg, cfg)
}

// NewWithConfig builds a Linker from an already loaded AWS config.
func NewWithConfig(awsCfg aws.Config, cfg Config) (*Linker, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("bucket is required")
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Region != "" {
			o.Region = cfg.Region
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
	})

	return &Linker{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		ttl:     cfg.PresignTTL,
	}, nil
}

// Link returns a presigned URL that downloads storageKey as filename.
func (l *Linker) Link(ctx context.Context, storageKey, filename string) (string, error) {
	storageKey = strings.TrimLeft(strings.TrimSpace(storageKey), "/")
	if storageKey == "" {
		return "", errors.New("storage key is required")
	}

	in := &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.prefix + storageKey),
	}
	if filename != "" {
		if disp := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); disp != "" {
			in.ResponseContentDisposition = aws.String(disp)
		}
	}

	req, err := l.presign.PresignGetObject(ctx, in, s3.WithPresignExpires(l.ttl))
	if err != nil {
		return "", fmt.Errorf("s3 presign failed for %s: %w", storageKey, err)
	}
	return req.URL, nil
}
