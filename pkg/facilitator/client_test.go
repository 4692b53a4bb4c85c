package facilitator

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
	"github.com/ultravioletadao/karmakadabra-core/pkg/x402/evm"
)

func TestLocalClientVerifyAndSettleDelegateToFacilitator(t *testing.T) {
	token, key, _ := testToken(t)
	to, _ := x402.ParseAddress("0x00000000000000000000000000000000000000aa")
	signer, _ := evm.NewClientSigner(key)
	now := uint64(time.Now().Unix())
	auth := signedAuth(t, token, key, to, "1000000", now)

	chain := &fakeChain{balances: map[x402.Address]*big.Int{signer.Address(): big.NewInt(2_000_000)}, used: map[string]bool{}}
	f := New(chain, []TokenInfo{token})
	f.now = func() time.Time { return time.Unix(int64(now), 0) }
	client := LocalClient{F: f}

	req := x402.PaymentRequirement{Scheme: evm.SchemeExact, Network: token.Network, Asset: token.Asset, PayTo: to, MaxAmount: "1000000", MaxTimeoutS: 3600}

	verifyResp, err := client.Verify(context.Background(), x402.VerifyRequest{PaymentPayload: auth, PaymentRequirements: req})
	require.NoError(t, err)
	require.True(t, verifyResp.IsValid)

	settleResp, err := client.Settle(context.Background(), x402.SettleRequest{PaymentPayload: auth, PaymentRequirements: req})
	require.NoError(t, err)
	require.True(t, settleResp.Success)
}
