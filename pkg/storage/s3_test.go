package storage

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(provider Provider) Config {
	return Config{
		Provider:        provider,
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Region:          "eu-central-1",
		Bucket:          "portraits",
		URLTTL:          10 * time.Minute,
	}
}

func TestWasabiEndpoint(t *testing.T) {
	t.Run("explicit endpoint wins", func(t *testing.T) {
		cfg := testConfig(ProviderWasabi)
		cfg.Endpoint = "https://s3.custom.wasabisys.com"
		assert.Equal(t, "s3.custom.wasabisys.com", wasabiEndpoint(cfg))
	})

	t.Run("region endpoint is used", func(t *testing.T) {
		cfg := testConfig(ProviderWasabi)
		cfg.Region = "us-west-1"
		assert.Equal(t, "s3.us-west-1.wasabisys.com", wasabiEndpoint(cfg))
	})

	t.Run("unknown region falls back", func(t *testing.T) {
		cfg := testConfig(ProviderWasabi)
		cfg.Region = "mars-1"
		assert.Equal(t, "s3.eu-central-1.wasabisys.com", wasabiEndpoint(cfg))
	})
}

func TestURLSigner_SignURL(t *testing.T) {
	ctx := context.Background()

	t.Run("aws url carries expiry and key", func(t *testing.T) {
		signer, err := NewURLSignerFromConfig(ctx, testConfig(ProviderAWS))
		require.NoError(t, err)

		raw, err := signer.SignURL(ctx, "merchandisers/7/portrait.jpg")
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "portraits.s3.eu-central-1.amazonaws.com", u.Host)
		assert.Equal(t, "/merchandisers/7/portrait.jpg", u.Path)
		assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
		assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	})

	t.Run("wasabi url is path style", func(t *testing.T) {
		signer, err := NewURLSignerFromConfig(ctx, testConfig(ProviderWasabi))
		require.NoError(t, err)

		raw, err := signer.SignURL(ctx, "a.png")
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "s3.eu-central-1.wasabisys.com", u.Host)
		assert.Equal(t, "/portraits/a.png", u.Path)
	})

	t.Run("empty key is rejected", func(t *testing.T) {
		signer, err := NewURLSignerFromConfig(ctx, testConfig(ProviderAWS))
		require.NoError(t, err)

		_, err = signer.SignURL(ctx, "")
		assert.Error(t, err)
	})

	t.Run("presign failure is wrapped", func(t *testing.T) {
		signer := &URLSigner{presigner: failingPresigner{}, bucket: "b", ttl: time.Minute}

		_, err := signer.SignURL(ctx, "k")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to presign k")
	})
}

func TestNewURLSignerFromConfig(t *testing.T) {
	t.Run("missing bucket", func(t *testing.T) {
		cfg := testConfig(ProviderAWS)
		cfg.Bucket = ""
		_, err := NewURLSignerFromConfig(context.Background(), cfg)
		assert.Error(t, err)
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := testConfig(ProviderAWS)
		cfg.SecretAccessKey = ""
		_, err := NewURLSignerFromConfig(context.Background(), cfg)
		assert.Error(t, err)
	})

	t.Run("zero ttl uses default", func(t *testing.T) {
		cfg := testConfig(ProviderAWS)
		cfg.URLTTL = 0
		signer, err := NewURLSignerFromConfig(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, defaultURLTTL, signer.ttl)
	})
}

type failingPresigner struct{}

func (failingPresigner) PresignGetObject(context.Context, *s3.GetObjectInput, ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return nil, errors.New("boom")
}
