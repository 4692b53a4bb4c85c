package evm

import (
	"crypto/rand"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// randRead is the single point of entropy for nonce generation, so tests can
// supply a fixed nonce via SignParams.Nonce instead of stubbing crypto/rand.
func randRead(b []byte) (int, error) {
	return rand.Read(b)
}

// NewNonce returns a fresh, cryptographically random authorization nonce.
func NewNonce() (x402.AuthorizationNonce, error) {
	var n x402.AuthorizationNonce
	if _, err := randRead(n[:]); err != nil {
		return n, x402.Wrap(x402.KindInternal, "generate nonce", err)
	}
	return n, nil
}
