package x402

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address is the 20-byte binary identifier of an on-chain party, grounded
// on the teacher's hex-string address handling in mechanisms/evm but kept
// as a fixed-size byte array here since the data model calls it binary.
type Address [20]byte

// ParseAddress parses a "0x"-prefixed (or bare) 40-hex-digit address.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s) != 40 {
		return a, New(KindInvalidArgument, fmt.Sprintf("address %q must be 20 bytes", s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, Wrap(KindInvalidArgument, "invalid address hex", err)
	}
	copy(a[:], b)
	return a, nil
}

// Hex renders the address with a 0x prefix, lowercase.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string { return a.Hex() }

// IsZero reports whether the address is the zero address.
func (a Address) IsZero() bool { return a == Address{} }

// AgentId is the dense, monotonically increasing identifier assigned by the
// identity registry at first registration. Zero means "not yet registered".
type AgentId uint64

// AgentRecord is the identity registry's record for one agent.
type AgentRecord struct {
	AgentId AgentId
	Domain  string
	Address Address
}

// TokenAmount is a non-negative integer amount in a token's smallest unit.
// Represented as a decimal string at the protocol surface (matching the
// teacher's PaymentRequirements.Amount) and as *big.Int internally by
// callers that need arithmetic; kept as a string here so JSON round-trips
// byte-for-byte the way the teacher's types.go does.
type TokenAmount string

// AuthorizationNonce is 32 bytes of cryptographically random data, unique
// per (signer, nonce) pair forever.
type AuthorizationNonce [32]byte

func (n AuthorizationNonce) Hex() string { return "0x" + hex.EncodeToString(n[:]) }

// ParseNonce parses a "0x"-prefixed 64-hex-digit nonce.
func ParseNonce(s string) (AuthorizationNonce, error) {
	var n AuthorizationNonce
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s) != 64 {
		return n, New(KindInvalidArgument, "nonce must be 32 bytes")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return n, Wrap(KindInvalidArgument, "invalid nonce hex", err)
	}
	copy(n[:], b)
	return n, nil
}

// TransferAuthorization is the complete content of a signed payment intent:
// an EIP-3009 transferWithAuthorization message plus its ECDSA signature.
type TransferAuthorization struct {
	From        Address            `json:"from"`
	To          Address            `json:"to"`
	Value       TokenAmount        `json:"value"`
	ValidAfter  uint64             `json:"validAfter"`
	ValidBefore uint64             `json:"validBefore"`
	Nonce       AuthorizationNonce `json:"nonce"`
	V           uint8              `json:"v"`
	R           [32]byte           `json:"r"`
	S           [32]byte           `json:"s"`
}

// PaymentRequirement is a seller's declaration of what it will accept for a
// given resource.
type PaymentRequirement struct {
	Scheme      string                 `json:"scheme"`
	Network     string                 `json:"network"`
	Asset       Address                `json:"asset"`
	PayTo       Address                `json:"payTo"`
	MaxAmount   TokenAmount            `json:"maxAmount"`
	MaxTimeoutS uint64                 `json:"maxTimeoutS"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// PaymentRequiredResponse is the body of an HTTP 402 response.
type PaymentRequiredResponse struct {
	X402Version int                  `json:"x402Version"`
	Accepts     []PaymentRequirement `json:"accepts"`
	Error       string               `json:"error,omitempty"`
}

// VerifyRequest / VerifyResponse mirror the facilitator's /verify contract.
type VerifyRequest struct {
	PaymentPayload      TransferAuthorization `json:"paymentPayload"`
	PaymentRequirements PaymentRequirement    `json:"paymentRequirements"`
}

type VerifyResponse struct {
	IsValid bool   `json:"isValid"`
	Reason  string `json:"reason,omitempty"`
}

// SettleRequest / SettleResponse mirror the facilitator's /settle contract.
type SettleRequest struct {
	PaymentPayload      TransferAuthorization `json:"paymentPayload"`
	PaymentRequirements PaymentRequirement    `json:"paymentRequirements"`
}

type SettleResponse struct {
	Success     bool   `json:"success"`
	Transaction string `json:"transaction,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// SupportedKind is one entry of the facilitator's /supported response: a
// scheme, network and asset triple. It carries no "evm-eip3009-<symbol>"
// kind string.
type SupportedKind struct {
	Scheme  string  `json:"scheme"`
	Network string  `json:"network"`
	Asset   Address `json:"asset"`
}

type SupportedResponse struct {
	Kinds []SupportedKind `json:"kinds"`
}

// HealthResponse is the facilitator's GET /health body.
type HealthResponse struct {
	Status  string `json:"status"`
	ChainID uint64 `json:"chainId"`
}
