// Package vault implements the Key Vault Client: resolving an agent's
// signing key from a process-local environment override or a shared
// secret store, grounded on the teacher-adjacent
// yv-was-taken-stronghold/internal/wallet/wallet.go OS-keyring wallet and
// generalized to a pluggable Backend so the same client code serves both a
// local/dev keyring and a production AWS Secrets Manager deployment.
package vault

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// Backend resolves one named secret record. A record lives under a nested
// path for user agents ("user-agents/<name>") or at the top level for
// system agents ("<name>"); a Backend implementation is responsible for
// trying both transparently.
type Backend interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// PrivateKeyEnvVar is the process-local override checked before any
// backend call. A value that is empty or whitespace-only after trimming is
// treated as absent — this is a deliberate, load-bearing rule, not an
// oversight: the distinction has repeatedly broken agents in the field.
const PrivateKeyEnvVar = "PRIVATE_KEY"

// Client is the Key Vault Client.
type Client struct {
	backend Backend
	timeout time.Duration
	getenv  func(string) string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default vault-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// withGetenv overrides the environment lookup, for tests only.
func withGetenv(f func(string) string) Option {
	return func(c *Client) { c.getenv = f }
}

const defaultTimeout = 5 * time.Second

// New builds a Client backed by backend.
func New(backend Backend, opts ...Option) *Client {
	c := &Client{backend: backend, timeout: defaultTimeout, getenv: osGetenv}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPrivateKey resolves agentName's signing key. Resolution order: (1) the
// PRIVATE_KEY environment variable, if non-whitespace; (2) the backend's
// secret named agentName. Fails with x402.ErrKeyNotFound if neither source
// yields a key, or x402.ErrVaultUnavailable if the backend call times out
// or errors.
func (c *Client) GetPrivateKey(ctx context.Context, agentName string) ([]byte, error) {
	if v := strings.TrimSpace(c.getenv(PrivateKeyEnvVar)); v != "" {
		return decodeKey(v)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	secret, err := c.backend.GetSecret(callCtx, agentName)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, x402.Wrap(x402.KindVaultUnavailable, "vault call timed out", err)
		}
		return nil, x402.Wrap(x402.KindVaultUnavailable, "vault call failed", err)
	}

	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, x402.Wrap(x402.KindKeyNotFound, "no key for agent "+agentName, x402.ErrKeyNotFound)
	}

	return decodeKey(secret)
}

func decodeKey(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, x402.Wrap(x402.KindDataMalformed, "private key is not valid hex", err)
	}
	if len(b) != 32 {
		return nil, x402.New(x402.KindDataMalformed, "private key must be 32 bytes")
	}
	return b, nil
}
