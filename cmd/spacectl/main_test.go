package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBackendSetAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	out, err := execute(t, "--config", path, "backend", "show")
	require.NoError(t, err)
	assert.Equal(t, "mysql", strings.TrimSpace(out))

	_, err = execute(t, "--config", path, "backend", "set", "dynamodb")
	require.NoError(t, err)

	out, err = execute(t, "--config", path, "backend", "show")
	require.NoError(t, err)
	assert.Equal(t, "dynamodb", strings.TrimSpace(out))

	_, err = execute(t, "--config", path, "backend", "set", "oracle")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	out, err := execute(t, "token", "12345678-9", "--role", "VIEWER", "--ttl", "5")
	require.NoError(t, err)

	tok, err := jwt.Parse(strings.TrimSpace(out), func(*jwt.Token) (interface{}, error) { return []byte("cli-secret"), nil })
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, "12345678-9", claims["sub"])
	assert.Equal(t, "VIEWER", claims["role"])

	_, err = execute(t, "token", "x", "--role", "ROOT")
	assert.Error(t, err)
}

func TestTokenRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := execute(t, "token", "x")
	assert.Error(t, err)
}
