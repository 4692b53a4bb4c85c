package facilitator

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
	"github.com/ultravioletadao/karmakadabra-core/pkg/x402/evm"
)

type fakeChain struct {
	mu        sync.Mutex
	balances  map[x402.Address]*big.Int
	used      map[string]bool
	settleErr error
	settles   int32
}

func (f *fakeChain) ChainID(ctx context.Context) (uint64, error) { return 84532, nil }

func (f *fakeChain) BalanceOf(ctx context.Context, asset, account x402.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.balances[account]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeChain) NonceUsed(ctx context.Context, asset, authorizer x402.Address, nonce x402.AuthorizationNonce) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.used[authorizer.Hex()+nonce.Hex()], nil
}

func (f *fakeChain) TransferWithAuthorization(ctx context.Context, asset x402.Address, auth x402.TransferAuthorization) (string, error) {
	atomic.AddInt32(&f.settles, 1)
	if f.settleErr != nil {
		return "", f.settleErr
	}
	f.mu.Lock()
	f.used[auth.From.Hex()+auth.Nonce.Hex()] = true
	f.mu.Unlock()
	return "0xsettled", nil
}

func testToken(t *testing.T) (TokenInfo, *ecdsa.PrivateKey, x402.Address) {
	t.Helper()
	asset, err := x402.ParseAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	require.NoError(t, err)
	return TokenInfo{
		Network:  evm.NetworkBaseSepolia,
		Asset:    asset,
		Name:     "USD Coin",
		Version:  "2",
		Decimals: 6,
	}, mustKey(t), asset
}

func mustKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := gcrypto.GenerateKey()
	require.NoError(t, err)
	return key
}

func signedAuth(t *testing.T, token TokenInfo, key *ecdsa.PrivateKey, to x402.Address, value string, now uint64) x402.TransferAuthorization {
	t.Helper()
	signer, err := evm.NewClientSigner(key)
	require.NoError(t, err)
	domain := evm.Domain{Name: token.Name, Version: token.Version, ChainID: big.NewInt(84532), VerifyingContract: token.Asset}
	auth, err := signer.Authorize(domain, to, x402.TokenAmount(value), now, 3600)
	require.NoError(t, err)
	return auth
}

func TestVerifyAcceptsValidPayment(t *testing.T) {
	token, key, _ := testToken(t)
	to, _ := x402.ParseAddress("0x00000000000000000000000000000000000000aa")
	signer, _ := evm.NewClientSigner(key)
	now := uint64(time.Now().Unix())
	auth := signedAuth(t, token, key, to, "1000000", now)

	chain := &fakeChain{balances: map[x402.Address]*big.Int{signer.Address(): big.NewInt(2_000_000)}, used: map[string]bool{}}
	f := New(chain, []TokenInfo{token})
	f.now = func() time.Time { return time.Unix(int64(now), 0) }

	req := x402.PaymentRequirement{Scheme: evm.SchemeExact, Network: token.Network, Asset: token.Asset, PayTo: to, MaxAmount: "1000000", MaxTimeoutS: 3600}
	resp := f.Verify(context.Background(), auth, req)
	require.True(t, resp.IsValid, resp.Reason)
}

func TestVerifyRejectsInsufficientBalance(t *testing.T) {
	token, key, _ := testToken(t)
	to, _ := x402.ParseAddress("0x00000000000000000000000000000000000000aa")
	now := uint64(time.Now().Unix())
	auth := signedAuth(t, token, key, to, "1000000", now)

	chain := &fakeChain{balances: map[x402.Address]*big.Int{}, used: map[string]bool{}}
	f := New(chain, []TokenInfo{token})
	f.now = func() time.Time { return time.Unix(int64(now), 0) }

	req := x402.PaymentRequirement{Scheme: evm.SchemeExact, Network: token.Network, Asset: token.Asset, PayTo: to, MaxAmount: "1000000", MaxTimeoutS: 3600}
	resp := f.Verify(context.Background(), auth, req)
	require.False(t, resp.IsValid)
	require.Equal(t, "insufficient balance", resp.Reason)
}

func TestVerifyRejectsAmountAboveMax(t *testing.T) {
	token, key, _ := testToken(t)
	to, _ := x402.ParseAddress("0x00000000000000000000000000000000000000aa")
	signer, _ := evm.NewClientSigner(key)
	now := uint64(time.Now().Unix())
	auth := signedAuth(t, token, key, to, "2000000", now)

	chain := &fakeChain{balances: map[x402.Address]*big.Int{signer.Address(): big.NewInt(5_000_000)}, used: map[string]bool{}}
	f := New(chain, []TokenInfo{token})
	f.now = func() time.Time { return time.Unix(int64(now), 0) }

	req := x402.PaymentRequirement{Scheme: evm.SchemeExact, Network: token.Network, Asset: token.Asset, PayTo: to, MaxAmount: "1000000", MaxTimeoutS: 3600}
	resp := f.Verify(context.Background(), auth, req)
	require.False(t, resp.IsValid)
	require.Equal(t, "value exceeds maxAmount", resp.Reason)
}

func TestSettleRejectsRepeatedNonceAsNonceUsed(t *testing.T) {
	token, key, _ := testToken(t)
	to, _ := x402.ParseAddress("0x00000000000000000000000000000000000000aa")
	signer, _ := evm.NewClientSigner(key)
	now := uint64(time.Now().Unix())
	auth := signedAuth(t, token, key, to, "1000000", now)

	chain := &fakeChain{balances: map[x402.Address]*big.Int{signer.Address(): big.NewInt(2_000_000)}, used: map[string]bool{}}
	f := New(chain, []TokenInfo{token})
	f.now = func() time.Time { return time.Unix(int64(now), 0) }

	req := x402.PaymentRequirement{Scheme: evm.SchemeExact, Network: token.Network, Asset: token.Asset, PayTo: to, MaxAmount: "1000000", MaxTimeoutS: 3600}

	first := f.Settle(context.Background(), auth, req)
	require.True(t, first.Success)

	second := f.Settle(context.Background(), auth, req)
	require.False(t, second.Success)
	require.Contains(t, second.Reason, "nonce")

	require.EqualValues(t, 1, atomic.LoadInt32(&chain.settles))
}

func TestSettleConcurrentCallsCoalesce(t *testing.T) {
	token, key, _ := testToken(t)
	to, _ := x402.ParseAddress("0x00000000000000000000000000000000000000aa")
	signer, _ := evm.NewClientSigner(key)
	now := uint64(time.Now().Unix())
	auth := signedAuth(t, token, key, to, "1000000", now)

	chain := &fakeChain{balances: map[x402.Address]*big.Int{signer.Address(): big.NewInt(2_000_000)}, used: map[string]bool{}}
	f := New(chain, []TokenInfo{token})
	f.now = func() time.Time { return time.Unix(int64(now), 0) }

	req := x402.PaymentRequirement{Scheme: evm.SchemeExact, Network: token.Network, Asset: token.Asset, PayTo: to, MaxAmount: "1000000", MaxTimeoutS: 3600}

	var wg sync.WaitGroup
	results := make([]x402.SettleResponse, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.Settle(context.Background(), auth, req)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.True(t, r.Success)
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&chain.settles))
}
