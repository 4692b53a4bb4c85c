// Package evm implements the Payment Signer component: EIP-712 typed-data
// signing and verification over the EIP-3009 TransferWithAuthorization
// message, grounded on the teacher's mechanisms/evm/eip712.go and
// signers/evm/client.go.
package evm

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	gcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// Domain is the EIP-712 domain for the TransferWithAuthorization type:
// name and version come from the token's "extra" metadata block.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract x402.Address
}

var transferWithAuthorizationTypes = map[string][]apitypes.Type{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"TransferWithAuthorization": {
		{Name: "from", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "validAfter", Type: "uint256"},
		{Name: "validBefore", Type: "uint256"},
		{Name: "nonce", Type: "bytes32"},
	},
}

// Digest computes the EIP-712 digest for a TransferWithAuthorization
// message: keccak256("\x19\x01" || domainSeparator || structHash).
func Digest(domain Domain, auth x402.TransferAuthorization) ([]byte, error) {
	value, ok := new(big.Int).SetString(string(auth.Value), 10)
	if !ok {
		return nil, x402.New(x402.KindInvalidArgument, fmt.Sprintf("invalid value %q", auth.Value))
	}

	td := apitypes.TypedData{
		Types:       apitypes.Types(transferWithAuthorizationTypes),
		PrimaryType: "TransferWithAuthorization",
		Domain: apitypes.TypedDataDomain{
			Name:              domain.Name,
			Version:           domain.Version,
			ChainId:           (*math.HexOrDecimal256)(domain.ChainID),
			VerifyingContract: domain.VerifyingContract.Hex(),
		},
		Message: map[string]interface{}{
			"from":        common.BytesToAddress(auth.From[:]).Hex(),
			"to":          common.BytesToAddress(auth.To[:]).Hex(),
			"value":       value,
			"validAfter":  new(big.Int).SetUint64(auth.ValidAfter),
			"validBefore": new(big.Int).SetUint64(auth.ValidBefore),
			"nonce":       auth.Nonce[:],
		},
	}

	dataHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, x402.Wrap(x402.KindInternal, "hash struct", err)
	}
	domainSeparator, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return nil, x402.Wrap(x402.KindInternal, "hash domain", err)
	}

	raw := []byte{0x19, 0x01}
	raw = append(raw, domainSeparator...)
	raw = append(raw, dataHash...)
	return gcrypto.Keccak256(raw), nil
}

// SignParams are the caller-supplied inputs to Sign; unset ValidAfter
// defaults to 0, unset ValidBefore defaults to now+3600s, unset Nonce
// defaults to 32 fresh random bytes.
type SignParams struct {
	Domain      Domain
	From        x402.Address
	To          x402.Address
	Value       x402.TokenAmount
	ValidAfter  *uint64
	ValidBefore *uint64
	Nonce       *x402.AuthorizationNonce
	Now         uint64 // seconds since epoch; required, no wall-clock reads here
}

// Sign produces a signed TransferAuthorization for the given params using
// privateKey. value must be a positive integer string; payer/payee must be
// valid 20-byte addresses; validAfter < validBefore.
func Sign(p SignParams, privateKey *ecdsa.PrivateKey) (x402.TransferAuthorization, error) {
	value, ok := new(big.Int).SetString(string(p.Value), 10)
	if !ok || value.Sign() <= 0 {
		return x402.TransferAuthorization{}, x402.New(x402.KindInvalidArgument, "value must be a positive integer")
	}

	validAfter := uint64(0)
	if p.ValidAfter != nil {
		validAfter = *p.ValidAfter
	}
	validBefore := p.Now + 3600
	if p.ValidBefore != nil {
		validBefore = *p.ValidBefore
	}
	if validAfter >= validBefore {
		return x402.TransferAuthorization{}, x402.New(x402.KindInvalidArgument, "validAfter must be before validBefore")
	}

	var nonce x402.AuthorizationNonce
	if p.Nonce != nil {
		nonce = *p.Nonce
	} else {
		if _, err := randRead(nonce[:]); err != nil {
			return x402.TransferAuthorization{}, x402.Wrap(x402.KindInternal, "generate nonce", err)
		}
	}

	auth := x402.TransferAuthorization{
		From:        p.From,
		To:          p.To,
		Value:       p.Value,
		ValidAfter:  validAfter,
		ValidBefore: validBefore,
		Nonce:       nonce,
	}

	digest, err := Digest(p.Domain, auth)
	if err != nil {
		return x402.TransferAuthorization{}, err
	}

	sig, err := gcrypto.Sign(digest, privateKey)
	if err != nil {
		return x402.TransferAuthorization{}, x402.Wrap(x402.KindInternal, "sign digest", err)
	}

	copy(auth.R[:], sig[0:32])
	copy(auth.S[:], sig[32:64])
	auth.V = sig[64] + 27

	return auth, nil
}

// Verify recomputes the EIP-712 digest and recovers the signer address,
// returning true iff the recovered address equals auth.From.
func Verify(domain Domain, auth x402.TransferAuthorization) (bool, error) {
	digest, err := Digest(domain, auth)
	if err != nil {
		return false, err
	}

	sig := make([]byte, 65)
	copy(sig[0:32], auth.R[:])
	copy(sig[32:64], auth.S[:])
	if auth.V != 27 && auth.V != 28 {
		return false, nil
	}
	sig[64] = auth.V - 27

	pubKey, err := gcrypto.SigToPub(digest, sig)
	if err != nil {
		return false, nil
	}
	recovered := gcrypto.PubkeyToAddress(*pubKey)
	return common.BytesToAddress(auth.From[:]) == recovered, nil
}
