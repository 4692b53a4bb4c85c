package x402mw

import (
	"bytes"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// FacilitatorClient is the subset of the Facilitator's HTTP surface the
// middleware needs, so it can be satisfied by an in-process Facilitator or
// an HTTP-calling client.
type FacilitatorClient interface {
	Verify(ctx context.Context, req x402.VerifyRequest) (x402.VerifyResponse, error)
	Settle(ctx context.Context, req x402.SettleRequest) (x402.SettleResponse, error)
}

// PriceDeclaration is a skill endpoint's price, from which a
// PaymentRequirement is built on every request.
type PriceDeclaration struct {
	Amount      x402.TokenAmount
	Asset       x402.Address
	Network     string
	PayTo       x402.Address
	MaxTimeoutS uint64
}

func (p PriceDeclaration) requirement() x402.PaymentRequirement {
	return x402.PaymentRequirement{
		Scheme:      "exact",
		Network:     p.Network,
		Asset:       p.Asset,
		PayTo:       p.PayTo,
		MaxAmount:   p.Amount,
		MaxTimeoutS: p.MaxTimeoutS,
	}
}

// bufferedWriter captures the inner handler's response instead of writing
// it straight to the client, so the middleware can still turn a successful
// handler response into a 402 if settlement subsequently fails — the
// "settle-after-work" half of the ordering guarantee requires holding the
// response until settlement is known to have succeeded.
type bufferedWriter struct {
	gin.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *bufferedWriter) Write(b []byte) (int, error)     { return w.body.Write(b) }
func (w *bufferedWriter) WriteString(s string) (int, error) { return w.body.WriteString(s) }
func (w *bufferedWriter) WriteHeader(status int)           { w.status = status }

// WithPayment wraps a priced skill handler with verify-before-work and
// settle-after-work, per the ordering guarantee: discover ≺ sign ≺ verify
// ≺ handler ≺ settle ≺ respond.
func WithPayment(price PriceDeclaration, facilitator FacilitatorClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := price.requirement()

		header := c.GetHeader("X-Payment")
		if header == "" {
			respondPaymentRequired(c, req, "Payment required")
			c.Abort()
			return
		}

		auth, err := DecodeAuthorization(header)
		if err != nil {
			respondPaymentRequired(c, req, "malformed X-Payment header")
			c.Abort()
			return
		}

		verifyResp, err := facilitator.Verify(c.Request.Context(), x402.VerifyRequest{PaymentPayload: auth, PaymentRequirements: req})
		if err != nil {
			respondPaymentRequired(c, req, "rpc-unavailable")
			c.Abort()
			return
		}
		if !verifyResp.IsValid {
			respondPaymentRequired(c, req, verifyResp.Reason)
			c.Abort()
			return
		}

		buf := &bufferedWriter{ResponseWriter: c.Writer, status: http.StatusOK}
		c.Writer = buf
		c.Next()

		if buf.status >= 500 {
			buf.ResponseWriter.WriteHeader(buf.status)
			_, _ = buf.ResponseWriter.Write(buf.body.Bytes())
			return
		}

		settleResp, err := facilitator.Settle(c.Request.Context(), x402.SettleRequest{PaymentPayload: auth, PaymentRequirements: req})
		if err != nil || !settleResp.Success {
			reason := settleResp.Reason
			if err != nil {
				reason = "rpc-unavailable"
			}
			c.Writer = buf.ResponseWriter
			respondPaymentRequired(c, req, "settlement-failed: "+reason)
			return
		}

		encoded, err := EncodeSettleResponse(settleResp)
		if err == nil {
			buf.ResponseWriter.Header().Set("X-Payment-Response", encoded)
		}
		buf.ResponseWriter.WriteHeader(buf.status)
		_, _ = buf.ResponseWriter.Write(buf.body.Bytes())
	}
}

func respondPaymentRequired(c *gin.Context, req x402.PaymentRequirement, reason string) {
	c.JSON(http.StatusPaymentRequired, x402.PaymentRequiredResponse{
		X402Version: 1,
		Accepts:     []x402.PaymentRequirement{req},
		Error:       reason,
	})
}
