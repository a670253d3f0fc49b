package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{Region: "us-east-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty bucket")
}

func TestS3KeyPrefixing(t *testing.T) {
	bare := &S3{bucket: "b"}
	assert.Equal(t, "snapshots/run/day_00001.json", bare.key("snapshots/run/day_00001.json"))

	prefixed := &S3{bucket: "b", prefix: "deploy-a"}
	assert.Equal(t, "deploy-a/snapshots/run/day_00001.json",
		prefixed.key("snapshots/run/day_00001.json"))
}
