package s3docs

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticConfig() aws.Config {
	return aws.Config{
		Region: "eu-west-3",
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"}, nil
		}),
	}
}

func TestNewWithConfig_RequiresBucket(t *testing.T) {
	_, err := NewWithConfig(staticConfig(), Config{})
	require.Error(t, err)
}

func TestLinker_LinkCustomEndpoint(t *testing.T) {
	l, err := NewWithConfig(staticConfig(), Config{
		Bucket:     "docs",
		Region:     "eu-west-3",
		Endpoint:   "http://localhost:9000",
		Prefix:     "documents/",
		PresignTTL: 10 * time.Minute,
	})
	require.NoError(t, err)

	raw, err := l.Link(context.Background(), "p-001/contrat-cadre-2024.pdf", "Contrat cadre 2024")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/docs/documents/p-001/contrat-cadre-2024.pdf", u.Path)

	q := u.Query()
	assert.Equal(t, "600", q.Get("X-Amz-Expires"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.Contains(t, q.Get("response-content-disposition"), "attachment")
	assert.Contains(t, q.Get("X-Amz-Credential"), "AKIDEXAMPLE")
}

func TestLinker_LinkVirtualHosted(t *testing.T) {
	l, err := NewWithConfig(staticConfig(), Config{Bucket: "docs", Region: "eu-west-3"})
	require.NoError(t, err)

	raw, err := l.Link(context.Background(), "/p-001/a.pdf", "")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "docs.s3.eu-west-3.amazonaws.com", u.Host)
	assert.Equal(t, "/p-001/a.pdf", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.Empty(t, u.Query().Get("response-content-disposition"))
}

func TestLinker_LinkRequiresKey(t *testing.T) {
	l, err := NewWithConfig(staticConfig(), Config{Bucket: "docs", Region: "eu-west-3"})
	require.NoError(t, err)
	_, err = l.Link(context.Background(), "  ", "x")
	require.Error(t, err)
}
