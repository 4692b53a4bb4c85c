// Package facilitator implements the stateless Facilitator: a verify/settle
// HTTP service over EIP-3009 transferWithAuthorization, grounded on the
// teacher's mechanisms/evm/facilitator.go predicate chain and
// settlement_cache.go idempotence. /supported is built from the configured
// token list on each call; it is not cached.
package facilitator

import (
	"context"
	"math/big"
	"strings"
	"time"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
	"github.com/ultravioletadao/karmakadabra-core/pkg/x402/evm"
)

// TokenInfo names one settleable asset: its EIP-712 domain metadata and
// decimals.
type TokenInfo struct {
	Network  string
	Asset    x402.Address
	Name     string
	Version  string
	Decimals uint8
}

// Chain is the on-chain surface the facilitator needs: balance and nonce
// reads, and the single write operation (settlement). Implemented by
// EthChain (chain_adapter.go) in production; faked in tests.
type Chain interface {
	ChainID(ctx context.Context) (uint64, error)
	BalanceOf(ctx context.Context, asset, account x402.Address) (*big.Int, error)
	NonceUsed(ctx context.Context, asset, authorizer x402.Address, nonce x402.AuthorizationNonce) (bool, error)
	TransferWithAuthorization(ctx context.Context, asset x402.Address, auth x402.TransferAuthorization) (txHash string, err error)
}

// Facilitator implements the verify/settle predicate chain.
type Facilitator struct {
	chain   Chain
	tokens  map[string]TokenInfo // keyed by network+"|"+asset hex
	cache   *SettlementCache
	now     func() time.Time
}

// New builds a Facilitator that settles the given tokens via chain.
func New(chain Chain, tokens []TokenInfo) *Facilitator {
	m := make(map[string]TokenInfo, len(tokens))
	for _, t := range tokens {
		m[tokenKey(t.Network, t.Asset)] = t
	}
	return &Facilitator{
		chain:  chain,
		tokens: m,
		cache:  NewSettlementCache(10 * time.Minute),
		now:    time.Now,
	}
}

func tokenKey(network string, asset x402.Address) string {
	return network + "|" + strings.ToLower(asset.Hex())
}

// Supported enumerates the kinds this instance can settle.
func (f *Facilitator) Supported() []x402.SupportedKind {
	kinds := make([]x402.SupportedKind, 0, len(f.tokens))
	for _, t := range f.tokens {
		kinds = append(kinds, x402.SupportedKind{
			Scheme:  evm.SchemeExact,
			Network: t.Network,
			Asset:   t.Asset,
		})
	}
	return kinds
}

// Verify runs the full predicate chain from the spec, in order: (a)
// scheme/network/asset supported; (b) value <= maxAmount; (c) timing
// window; (d) signature validity; (e) payer balance; (f) nonce unused.
// Every predicate failure is reported as isValid:false with a reason —
// never an error — so callers can always inspect why.
func (f *Facilitator) Verify(ctx context.Context, payload x402.TransferAuthorization, req x402.PaymentRequirement) x402.VerifyResponse {
	token, ok := f.tokens[tokenKey(req.Network, req.Asset)]
	if !ok {
		return x402.VerifyResponse{IsValid: false, Reason: "unsupported scheme/network/asset"}
	}

	value, ok := parseBigInt(string(payload.Value))
	if !ok {
		return x402.VerifyResponse{IsValid: false, Reason: "invalid value"}
	}
	maxAmount, ok := parseBigInt(string(req.MaxAmount))
	if !ok {
		return x402.VerifyResponse{IsValid: false, Reason: "invalid max amount"}
	}
	if value.Cmp(maxAmount) > 0 {
		return x402.VerifyResponse{IsValid: false, Reason: "value exceeds maxAmount"}
	}

	now := uint64(f.now().Unix())
	if payload.ValidBefore <= now {
		return x402.VerifyResponse{IsValid: false, Reason: "authorization expired"}
	}
	if payload.ValidBefore-now > req.MaxTimeoutS {
		return x402.VerifyResponse{IsValid: false, Reason: "timeout window too large"}
	}
	if now < payload.ValidAfter {
		return x402.VerifyResponse{IsValid: false, Reason: "authorization not yet valid"}
	}

	domain := evm.Domain{
		Name:              token.Name,
		Version:           token.Version,
		ChainID:           chainIDFor(token.Network),
		VerifyingContract: token.Asset,
	}
	valid, err := evm.Verify(domain, payload)
	if err != nil || !valid {
		return x402.VerifyResponse{IsValid: false, Reason: "invalid signature"}
	}

	balance, err := f.chain.BalanceOf(ctx, token.Asset, payload.From)
	if err != nil {
		return x402.VerifyResponse{IsValid: false, Reason: "rpc-unavailable"}
	}
	if balance.Cmp(value) < 0 {
		return x402.VerifyResponse{IsValid: false, Reason: "insufficient balance"}
	}

	used, err := f.chain.NonceUsed(ctx, token.Asset, payload.From, payload.Nonce)
	if err != nil {
		return x402.VerifyResponse{IsValid: false, Reason: "rpc-unavailable"}
	}
	if used {
		return x402.VerifyResponse{IsValid: false, Reason: "nonce-used"}
	}

	return x402.VerifyResponse{IsValid: true}
}

// Settle re-verifies payload, then submits transferWithAuthorization. A
// repeated (from, nonce) within the cache TTL is rejected outright as
// nonce-used rather than replayed, so a caller can never observe a second
// success for an already-settled authorization; concurrent callers racing
// the same in-flight settlement instead coalesce onto its single result.
func (f *Facilitator) Settle(ctx context.Context, payload x402.TransferAuthorization, req x402.PaymentRequirement) x402.SettleResponse {
	key := SettlementKey(payload)

	status, _, done := f.cache.CheckAndMark(key)
	switch status {
	case StatusCached:
		return x402.SettleResponse{Success: false, Reason: "nonce-used"}
	case StatusInFlight:
		result, err := f.cache.WaitForResult(ctx, key, done)
		if err != nil || result == nil {
			return x402.SettleResponse{Success: false, Reason: "settlement-failed: in-flight request did not complete"}
		}
		return *result
	}

	verifyResp := f.Verify(ctx, payload, req)
	if !verifyResp.IsValid {
		resp := x402.SettleResponse{Success: false, Reason: verifyResp.Reason}
		f.cache.Fail(key, done)
		return resp
	}

	token := f.tokens[tokenKey(req.Network, req.Asset)]
	txHash, err := f.chain.TransferWithAuthorization(ctx, token.Asset, payload)
	if err != nil {
		resp := x402.SettleResponse{Success: false, Reason: "settlement-failed: " + err.Error()}
		f.cache.Fail(key, done)
		return resp
	}

	resp := x402.SettleResponse{Success: true, Transaction: txHash}
	f.cache.Complete(key, &resp, done)
	return resp
}

func chainIDFor(network string) *big.Int {
	if cfg, ok := evm.NetworkConfigs[network]; ok {
		return cfg.ChainID
	}
	return nil
}

func parseBigInt(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}
