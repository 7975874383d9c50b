package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/space-reservation/internal/config"
)

func TestOpenStoreUnknownBackend(t *testing.T) {
	_, err := OpenStore(context.Background(), config.BackendConfig{Backend: "sqlite"}, false)
	assert.ErrorIs(t, err, config.ErrUnknownBackend)
}

func TestOpenStoreDynamoWithoutInit(t *testing.T) {
	cfg := config.BackendConfig{Backend: "dynamodb"}
	cfg.DynamoDB.Region = "us-east-1"
	cfg.DynamoDB.Endpoint = "http://127.0.0.1:1"
	cfg.DynamoDB.AccessKeyID = "local"
	cfg.DynamoDB.SecretAccessKey = "local"

	store, err := OpenStore(context.Background(), cfg, false)
	require.NoError(t, err)
	assert.Equal(t, "dynamodb", store.Backend())
	assert.NoError(t, store.Close())
}

func TestNewLoggerLevel(t *testing.T) {
	assert.True(t, NewLogger("dev").Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, NewLogger("prod").Enabled(context.Background(), slog.LevelDebug))
}
