package x402mw

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// HTTPFacilitatorClient calls a remote Facilitator's /verify and /settle
// endpoints, grounded on the teacher's http/facilitator_client.go
// HTTPFacilitatorClient and generalized from its multi-version byte-slice
// surface down to this module's single-scheme VerifyRequest/SettleRequest
// wire types.
type HTTPFacilitatorClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTPFacilitatorClient builds a client against a facilitator running at
// baseURL (no trailing slash). A nil hc falls back to http.DefaultClient.
func NewHTTPFacilitatorClient(baseURL string, hc *http.Client) *HTTPFacilitatorClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPFacilitatorClient{BaseURL: baseURL, HTTP: hc}
}

// Verify posts req to the facilitator's /verify endpoint.
func (c *HTTPFacilitatorClient) Verify(ctx context.Context, req x402.VerifyRequest) (x402.VerifyResponse, error) {
	var resp x402.VerifyResponse
	if err := c.post(ctx, "/verify", req, &resp); err != nil {
		return x402.VerifyResponse{}, err
	}
	return resp, nil
}

// Settle posts req to the facilitator's /settle endpoint.
func (c *HTTPFacilitatorClient) Settle(ctx context.Context, req x402.SettleRequest) (x402.SettleResponse, error) {
	var resp x402.SettleResponse
	if err := c.post(ctx, "/settle", req, &resp); err != nil {
		return x402.SettleResponse{}, err
	}
	return resp, nil
}

func (c *HTTPFacilitatorClient) post(ctx context.Context, path string, body, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return x402.Wrap(x402.KindDataMalformed, "marshal facilitator request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return x402.Wrap(x402.KindInternal, "build facilitator request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return x402.Wrap(x402.KindNetworkUnavailable, "call facilitator", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusServiceUnavailable {
		return x402.New(x402.KindRpcUnavailable, "facilitator rpc unavailable")
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return x402.Wrap(x402.KindNetworkUnavailable, "read facilitator response", err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return x402.Wrap(x402.KindDataMalformed, "parse facilitator response", err)
	}
	return nil
}
