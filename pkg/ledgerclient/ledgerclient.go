// Package ledgerclient implements the Ledger Client: a typed facade over
// the identity, reputation, and validation registry contracts plus the
// EIP-3009 token contract, grounded on the SAGE project's
// pkg/agent/did/ethereum/client.go (ethclient.Client + bind.BoundContract
// over a parsed ABI, sign-submit-await-receipt write path).
package ledgerclient

import (
	"context"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// ValidationRequest is the on-chain record created by RequestValidation.
type ValidationRequest struct {
	ValidatorId x402.AgentId
	SellerId    x402.AgentId
	DataHash    [32]byte
	Expiry      uint64
	Responded   bool
}

// LedgerClient is the typed facade every Agent Base depends on. One
// implementation is EVMClient; tests use a fake satisfying this interface.
type LedgerClient interface {
	RegisterAgent(ctx context.Context, domain string) (x402.AgentId, error)
	ResolveByAddress(ctx context.Context, addr x402.Address) (x402.AgentRecord, bool, error)
	ResolveByDomain(ctx context.Context, domain string) (x402.AgentRecord, bool, error)

	SubmitRating(ctx context.Context, counterpartId x402.AgentId, rating uint8) (string, error)
	GetRating(ctx context.Context, raterId, rateeId x402.AgentId) (uint8, bool, error)

	RequestValidation(ctx context.Context, validatorId, sellerId x402.AgentId, dataHash [32]byte) error
	RespondValidation(ctx context.Context, dataHash [32]byte, score uint8) error
	GetValidationResponse(ctx context.Context, dataHash [32]byte) (uint8, bool, error)
	GetValidationRequest(ctx context.Context, dataHash [32]byte) (ValidationRequest, bool, error)

	TokenBalance(ctx context.Context, addr x402.Address) (x402.TokenAmount, error)
}

// RateAsClient and RateAsServer both funnel through the one
// LedgerClient.SubmitRating call so the on-chain write shape does not depend on which
// side of a transaction is doing the rating — an explicit resolution of
// the rating-direction open question.
func RateAsClient(ctx context.Context, l LedgerClient, serverId x402.AgentId, rating uint8) (string, error) {
	return l.SubmitRating(ctx, serverId, rating)
}

func RateAsServer(ctx context.Context, l LedgerClient, clientId x402.AgentId, rating uint8) (string, error) {
	return l.SubmitRating(ctx, clientId, rating)
}
