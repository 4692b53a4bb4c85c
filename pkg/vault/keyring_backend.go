package vault

import (
	"context"
	"fmt"
	"runtime"

	"github.com/99designs/keyring"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// KeyringBackend resolves secrets from the local OS keyring, grounded on
// yv-was-taken-stronghold/internal/wallet/wallet.go's openKeyring/
// openLinuxKeyring platform-backend selection. Intended for local
// development; production deployments use SecretsManagerBackend instead.
type KeyringBackend struct {
	ring        keyring.Keyring
	serviceName string
}

// NewKeyringBackend opens the OS-appropriate keyring backend for
// serviceName, trying Secret Service, then KWallet, then pass on Linux, and
// the native keychain on macOS/Windows.
func NewKeyringBackend(serviceName string) (*KeyringBackend, error) {
	ring, err := openKeyring(serviceName)
	if err != nil {
		return nil, x402.Wrap(x402.KindVaultUnavailable, "open OS keyring", err)
	}
	return &KeyringBackend{ring: ring, serviceName: serviceName}, nil
}

// GetSecret looks up name under the nested user-agents path first, falling
// back to the top-level path, so the client tolerates either location for
// both user and system agents transparently.
func (b *KeyringBackend) GetSecret(ctx context.Context, name string) (string, error) {
	for _, key := range []string{"user-agents/" + name, name} {
		item, err := b.ring.Get(key)
		if err == nil {
			return string(item.Data), nil
		}
		if err != keyring.ErrKeyNotFound {
			return "", err
		}
	}
	return "", x402.ErrKeyNotFound
}

func openKeyring(serviceName string) (keyring.Keyring, error) {
	if runtime.GOOS == "linux" {
		return keyring.Open(keyring.Config{
			ServiceName:              serviceName,
			KeychainName:             serviceName,
			KeychainTrustApplication: true,
			AllowedBackends: []keyring.BackendType{
				keyring.SecretServiceBackend,
				keyring.KWalletBackend,
				keyring.PassBackend,
			},
		})
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		KeychainName:             serviceName,
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open system keyring: %w", err)
	}
	return ring, nil
}
