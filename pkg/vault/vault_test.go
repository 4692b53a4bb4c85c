package vault

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

type fakeBackend struct {
	secrets map[string]string
	err     error
}

func (f *fakeBackend) GetSecret(ctx context.Context, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.secrets[name], nil
}

const testKeyHex = "0x1111111111111111111111111111111111111111111111111111111111111111"

func TestGetPrivateKeyPrefersEnvOverride(t *testing.T) {
	backend := &fakeBackend{secrets: map[string]string{"alice": testKeyHex}}
	c := New(backend, withGetenv(func(k string) string {
		if k == PrivateKeyEnvVar {
			return testKeyHex
		}
		return ""
	}))

	key, err := c.GetPrivateKey(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, key, 32)
}

func TestGetPrivateKeyWhitespaceOnlyEnvIsAbsent(t *testing.T) {
	backend := &fakeBackend{secrets: map[string]string{"alice": testKeyHex}}
	c := New(backend, withGetenv(func(k string) string {
		if k == PrivateKeyEnvVar {
			return "   \t\n  "
		}
		return ""
	}))

	key, err := c.GetPrivateKey(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, key, 32)
}

func TestGetPrivateKeyFallsBackToBackend(t *testing.T) {
	backend := &fakeBackend{secrets: map[string]string{"alice": testKeyHex}}
	c := New(backend, withGetenv(func(string) string { return "" }))

	key, err := c.GetPrivateKey(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, key, 32)
}

func TestGetPrivateKeyBackendWhitespaceOnlyIsAbsent(t *testing.T) {
	backend := &fakeBackend{secrets: map[string]string{"alice": "   "}}
	c := New(backend, withGetenv(func(string) string { return "" }))

	_, err := c.GetPrivateKey(context.Background(), "alice")
	require.Error(t, err)
	require.ErrorIs(t, err, x402.ErrKeyNotFound)
}

func TestGetPrivateKeyNotFound(t *testing.T) {
	backend := &fakeBackend{secrets: map[string]string{}}
	c := New(backend, withGetenv(func(string) string { return "" }))

	_, err := c.GetPrivateKey(context.Background(), "bob")
	require.Error(t, err)
	require.ErrorIs(t, err, x402.ErrKeyNotFound)
}

func TestGetPrivateKeyBackendErrorIsVaultUnavailable(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused")}
	c := New(backend, withGetenv(func(string) string { return "" }))

	_, err := c.GetPrivateKey(context.Background(), "alice")
	require.Error(t, err)
	require.ErrorIs(t, err, x402.ErrVaultUnavailable)
}
