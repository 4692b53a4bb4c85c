package evm

import (
	"crypto/ecdsa"

	gcrypto "github.com/ethereum/go-ethereum/crypto"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// ClientSigner signs TransferWithAuthorization messages on behalf of a
// payer, grounded on the teacher's signers/evm/client.go ClientSigner.
type ClientSigner struct {
	key     *ecdsa.PrivateKey
	address x402.Address
}

// NewClientSigner derives the signer's address from the private key, the
// way the teacher's signers/evm/client.go constructor does via
// crypto.PubkeyToAddress.
func NewClientSigner(key *ecdsa.PrivateKey) (*ClientSigner, error) {
	if key == nil {
		return nil, x402.New(x402.KindInvalidArgument, "private key must not be nil")
	}
	addr := gcrypto.PubkeyToAddress(key.PublicKey)
	var a x402.Address
	copy(a[:], addr[:])
	return &ClientSigner{key: key, address: a}, nil
}

// Address returns the signer's on-chain address.
func (s *ClientSigner) Address() x402.Address { return s.address }

// ParsePrivateKey decodes a raw 32-byte secp256k1 scalar, as returned by
// the Key Vault Client, into an ECDSA private key.
func ParsePrivateKey(raw []byte) (*ecdsa.PrivateKey, error) {
	key, err := gcrypto.ToECDSA(raw)
	if err != nil {
		return nil, x402.Wrap(x402.KindDataMalformed, "parse private key bytes", err)
	}
	return key, nil
}

// Authorize signs a TransferWithAuthorization message for the given
// recipient, amount, and validity window, filling From from the signer's
// own address.
func (s *ClientSigner) Authorize(domain Domain, to x402.Address, value x402.TokenAmount, now uint64, validFor uint64) (x402.TransferAuthorization, error) {
	validBefore := now + validFor
	return Sign(SignParams{
		Domain:      domain,
		From:        s.address,
		To:          to,
		Value:       value,
		ValidBefore: &validBefore,
		Now:         now,
	}, s.key)
}
