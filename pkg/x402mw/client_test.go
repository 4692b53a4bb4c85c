package x402mw

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
	"github.com/ultravioletadao/karmakadabra-core/pkg/x402/evm"
)

func testEIP712Domain() evm.Domain {
	asset, _ := x402.ParseAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	return evm.Domain{Name: "USD Coin", Version: "2", ChainID: big.NewInt(84532), VerifyingContract: asset}
}

func testClientSigner(t *testing.T) *evm.ClientSigner {
	t.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = 0x11
	}
	key, err := evm.ParsePrivateKey(raw)
	require.NoError(t, err)
	signer, err := evm.NewClientSigner(key)
	require.NoError(t, err)
	return signer
}

func TestBuySucceedsWithoutRetryWhenFirstAttemptAccepted(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("X-Payment"))
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	signer := testClientSigner(t)
	client := &Client{HTTP: server.Client(), Signer: signer, Now: func() uint64 { return 1000 }}

	to, err := x402.ParseAddress("0x00000000000000000000000000000000000000aa")
	require.NoError(t, err)

	purchase, err := client.Buy(context.Background(), server.URL, testEIP712Domain(), to, "1000", 60, map[string]string{"key": "value"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, purchase.StatusCode)
	require.Equal(t, "value", received["key"])
}

func TestBuyRetriesOnceWhenSellerDemandsMore(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusPaymentRequired)
			_ = json.NewEncoder(w).Encode(x402.PaymentRequiredResponse{
				X402Version: 1,
				Accepts: []x402.PaymentRequirement{
					{Asset: testEIP712Domain().VerifyingContract, MaxAmount: "2000", MaxTimeoutS: 120},
				},
			})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	signer := testClientSigner(t)
	client := &Client{HTTP: server.Client(), Signer: signer, Now: func() uint64 { return 1000 }}

	to, err := x402.ParseAddress("0x00000000000000000000000000000000000000aa")
	require.NoError(t, err)

	purchase, err := client.Buy(context.Background(), server.URL, testEIP712Domain(), to, "1000", 60, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, purchase.StatusCode)
	require.Equal(t, 2, attempts)
}

func TestBuyFailsWhenSellerDemandsDifferentAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		otherAsset, _ := x402.ParseAddress("0x0000000000000000000000000000000000000bbb")
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(x402.PaymentRequiredResponse{
			X402Version: 1,
			Accepts:     []x402.PaymentRequirement{{Asset: otherAsset, MaxAmount: "1000"}},
		})
	}))
	defer server.Close()

	signer := testClientSigner(t)
	client := &Client{HTTP: server.Client(), Signer: signer, Now: func() uint64 { return 1000 }}

	to, err := x402.ParseAddress("0x00000000000000000000000000000000000000aa")
	require.NoError(t, err)

	_, err = client.Buy(context.Background(), server.URL, testEIP712Domain(), to, "1000", 60, nil)
	require.Error(t, err)
	require.True(t, x402.IsKind(err, x402.KindPaymentNotAccepted))
}
