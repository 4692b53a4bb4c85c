// Package x402mw implements the x402 HTTP middleware: the server side that
// enforces verify-before-work/settle-after-work around a priced skill
// handler, and the client side's Buy operation, grounded on the teacher's
// http/service.go and http/client.go.
package x402mw

import (
	"encoding/base64"
	"encoding/json"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// EncodeAuthorization base64(JSON)-encodes a TransferAuthorization for the
// X-Payment header.
func EncodeAuthorization(auth x402.TransferAuthorization) (string, error) {
	b, err := json.Marshal(auth)
	if err != nil {
		return "", x402.Wrap(x402.KindDataMalformed, "encode authorization", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeAuthorization reverses EncodeAuthorization.
func DecodeAuthorization(encoded string) (x402.TransferAuthorization, error) {
	var auth x402.TransferAuthorization
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return auth, x402.Wrap(x402.KindDataMalformed, "base64-decode X-Payment header", err)
	}
	if err := json.Unmarshal(raw, &auth); err != nil {
		return auth, x402.Wrap(x402.KindDataMalformed, "parse X-Payment header", err)
	}
	return auth, nil
}

// EncodeSettleResponse base64(JSON)-encodes a SettleResponse for the
// X-Payment-Response header.
func EncodeSettleResponse(resp x402.SettleResponse) (string, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return "", x402.Wrap(x402.KindDataMalformed, "encode settle response", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeSettleResponse reverses EncodeSettleResponse.
func DecodeSettleResponse(encoded string) (x402.SettleResponse, error) {
	var resp x402.SettleResponse
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return resp, x402.Wrap(x402.KindDataMalformed, "base64-decode X-Payment-Response header", err)
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return resp, x402.Wrap(x402.KindDataMalformed, "parse X-Payment-Response header", err)
	}
	return resp, nil
}
