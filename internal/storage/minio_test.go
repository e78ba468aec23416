package storage

import (
	"testing"

	"github.com/andresuchdata/stocksense/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		endpoint   string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://minio:9000", true, "minio:9000", false},
		{"minio:9000", false, "minio:9000", false},
		{"//minio:9000", true, "minio:9000", true},
	}

	for _, tt := range tests {
		host, secure := normalizeEndpoint(tt.endpoint, tt.useSSL)
		assert.Equal(t, tt.wantHost, host, tt.endpoint)
		assert.Equal(t, tt.wantSecure, secure, tt.endpoint)
	}
}

func TestNewMinioClient_Validation(t *testing.T) {
	_, err := NewMinioClient(config.StorageConfig{})
	assert.Error(t, err)

	_, err = NewMinioClient(config.StorageConfig{Endpoint: "minio:9000", Bucket: "exports"})
	assert.Error(t, err)

	_, err = NewMinioClient(config.StorageConfig{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)

	c, err := NewMinioClient(config.StorageConfig{
		Endpoint: "http://minio:9000", AccessKey: "a", SecretKey: "b", Bucket: "exports",
	})
	require.NoError(t, err)
	assert.Equal(t, "exports", c.bucket)
}
