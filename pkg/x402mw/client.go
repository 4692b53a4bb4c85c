package x402mw

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"io"
	"math/big"
	"net/http"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
	"github.com/ultravioletadao/karmakadabra-core/pkg/x402/evm"
)

// Client is the x402 client side: Buy signs a payment authorization,
// attaches it to the request, and retries at most once against an
// adjusted accepts entry, grounded on the teacher's http/client.go
// PaymentRoundTripper one-retry-on-402 behavior.
type Client struct {
	HTTP   *http.Client
	Signer *evm.ClientSigner
	Key    *ecdsa.PrivateKey
	Now    func() uint64
}

// Purchase is what a successful Buy returns: the seller's response body
// and the settlement receipt that paid for it.
type Purchase struct {
	Body       []byte
	StatusCode int
	Settlement *x402.SettleResponse
}

// Buy performs the full x402 purchase flow against a seller endpoint,
// signing a TransferAuthorization for amount, POSTing params as the
// request body, and retrying once on a 402 whose accepts entry can be
// satisfied with an adjusted authorization.
func (c *Client) Buy(ctx context.Context, sellerURL string, domain evm.Domain, sellerAddress x402.Address, amount x402.TokenAmount, maxTimeoutS uint64, params interface{}) (*Purchase, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, x402.Wrap(x402.KindDataMalformed, "marshal skill params", err)
	}

	resp, err := c.attempt(ctx, sellerURL, domain, sellerAddress, amount, maxTimeoutS, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}

	var required x402.PaymentRequiredResponse
	if err := json.Unmarshal(resp.Body, &required); err != nil || len(required.Accepts) == 0 {
		return nil, x402.Wrap(x402.KindDataMalformed, "parse 402 accepts body", err)
	}

	accepted := required.Accepts[0]
	acceptedValue, ok1 := new(big.Int).SetString(string(accepted.MaxAmount), 10)
	ourValue, ok2 := new(big.Int).SetString(string(amount), 10)
	if !ok1 || !ok2 || accepted.Asset != domain.VerifyingContract || acceptedValue.Cmp(ourValue) < 0 {
		return nil, x402.Wrap(x402.KindPaymentNotAccepted, "seller's accepts cannot be satisfied", x402.ErrPaymentNotAccepted)
	}

	retryTimeout := maxTimeoutS
	if accepted.MaxTimeoutS < retryTimeout {
		retryTimeout = accepted.MaxTimeoutS
	}
	return c.attempt(ctx, sellerURL, domain, sellerAddress, x402.TokenAmount(acceptedValue.String()), retryTimeout, body)
}

func (c *Client) attempt(ctx context.Context, sellerURL string, domain evm.Domain, sellerAddress x402.Address, amount x402.TokenAmount, maxTimeoutS uint64, body []byte) (*Purchase, error) {
	now := c.Now()
	validFor := maxTimeoutS
	if validFor == 0 || validFor > 3600 {
		validFor = 3600
	}
	auth, err := c.Signer.Authorize(domain, sellerAddress, amount, now, validFor)
	if err != nil {
		return nil, err
	}

	encoded, err := EncodeAuthorization(auth)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, sellerURL, bytes.NewReader(body))
	if err != nil {
		return nil, x402.Wrap(x402.KindInternal, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Payment", encoded)

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, x402.Wrap(x402.KindNetworkUnavailable, "send request", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, x402.Wrap(x402.KindNetworkUnavailable, "read response body", err)
	}

	purchase := &Purchase{Body: body, StatusCode: httpResp.StatusCode}
	if enc := httpResp.Header.Get("X-Payment-Response"); enc != "" {
		if settle, err := DecodeSettleResponse(enc); err == nil {
			purchase.Settlement = &settle
		}
	}
	return purchase, nil
}
