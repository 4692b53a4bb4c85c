package facilitator

import (
	"context"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// LocalClient adapts a same-process Facilitator into the (ctx, req)
// (resp, error) shape pkg/x402mw's middleware expects, for an agent that
// runs its own facilitator instead of calling a remote one over HTTP.
// Facilitator.Verify/Settle never themselves fail — they report every
// predicate failure as a false/false response with a reason — so the error
// return here is always nil.
type LocalClient struct {
	F *Facilitator
}

func (c LocalClient) Verify(ctx context.Context, req x402.VerifyRequest) (x402.VerifyResponse, error) {
	return c.F.Verify(ctx, req.PaymentPayload, req.PaymentRequirements), nil
}

func (c LocalClient) Settle(ctx context.Context, req x402.SettleRequest) (x402.SettleResponse, error) {
	return c.F.Settle(ctx, req.PaymentPayload, req.PaymentRequirements), nil
}
