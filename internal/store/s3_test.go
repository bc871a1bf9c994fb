package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Backend(t *testing.T) {
	endpoint := os.Getenv("THEMEFORGE_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("THEMEFORGE_TEST_S3_ENDPOINT not set")
	}

	b, err := NewS3Backend(context.Background(), S3Options{
		Endpoint:  endpoint,
		Bucket:    "themeforge-test",
		AccessKey: os.Getenv("THEMEFORGE_TEST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("THEMEFORGE_TEST_S3_SECRET_KEY"),
	})
	require.NoError(t, err)
	defer b.Close()

	backendContract(t, b)
}

func TestS3BackendRequiresBucket(t *testing.T) {
	_, err := NewS3Backend(context.Background(), S3Options{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

func TestS3ObjectName(t *testing.T) {
	b := &S3Backend{prefix: "themeforge/"}
	assert.Equal(t, "themeforge/design-document.json", b.object("design-document"))
}
