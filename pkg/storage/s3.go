package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Provider is the S3-compatible storage provider
type Provider string

const (
	ProviderAWS    Provider = "aws"
	ProviderWasabi Provider = "wasabi"
)

const defaultURLTTL = 15 * time.Minute

// Config holds configuration for the asset bucket
type Config struct {
	Provider        Provider
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	// Endpoint overrides the Wasabi endpoint derived from Region.
	Endpoint string
	URLTTL   time.Duration
}

// wasabiEndpoints maps regions to Wasabi endpoints
var wasabiEndpoints = map[string]string{
	"us-east-1":      "s3.us-east-1.wasabisys.com",
	"us-east-2":      "s3.us-east-2.wasabisys.com",
	"us-west-1":      "s3.us-west-1.wasabisys.com",
	"eu-central-1":   "s3.eu-central-1.wasabisys.com",
	"eu-central-2":   "s3.eu-central-2.wasabisys.com",
	"eu-west-1":      "s3.eu-west-1.wasabisys.com",
	"eu-west-2":      "s3.eu-west-2.wasabisys.com",
	"ap-northeast-1": "s3.ap-northeast-1.wasabisys.com",
	"ap-southeast-1": "s3.ap-southeast-1.wasabisys.com",
}

// wasabiEndpoint picks the explicit endpoint, then the region's, then eu-central-1.
func wasabiEndpoint(cfg Config) string {
	if cfg.Endpoint != "" {
		return strings.TrimPrefix(cfg.Endpoint, "https://")
	}
	if endpoint, ok := wasabiEndpoints[cfg.Region]; ok {
		return endpoint
	}
	return wasabiEndpoints["eu-central-1"]
}

// NewS3Client creates an S3 client for AWS or Wasabi with static credentials.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("storage: credentials not configured")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.Provider == ProviderWasabi {
		endpoint := wasabiEndpoint(cfg)
		// Wasabi requires path-style addressing
		return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String("https://" + endpoint)
			o.UsePathStyle = true
		}), nil
	}
	return s3.NewFromConfig(awsCfg), nil
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// URLSigner presigns GET URLs for objects of one bucket.
type URLSigner struct {
	presigner objectPresigner
	bucket    string
	ttl       time.Duration
}

func NewURLSigner(client *s3.Client, bucket string, ttl time.Duration) *URLSigner {
	if ttl <= 0 {
		ttl = defaultURLTTL
	}
	return &URLSigner{presigner: s3.NewPresignClient(client), bucket: bucket, ttl: ttl}
}

// NewURLSignerFromConfig builds the client and the signer in one step.
func NewURLSignerFromConfig(ctx context.Context, cfg Config) (*URLSigner, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: bucket not configured")
	}
	client, err := NewS3Client(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewURLSigner(client, cfg.Bucket, cfg.URLTTL), nil
}

// SignURL returns a time-limited download URL for storageKey. Presigning
// happens locally and does not contact the bucket.
func (s *URLSigner) SignURL(ctx context.Context, storageKey string) (string, error) {
	if storageKey == "" {
		return "", errors.New("storage: empty storage key")
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storageKey),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", storageKey, err)
	}
	return req.URL, nil
}

// BucketCheck returns a health probe that verifies the bucket is reachable.
func BucketCheck(client *s3.Client, bucket string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
			return fmt.Errorf("failed to access bucket %s: %w", bucket, err)
		}
		return nil
	}
}
