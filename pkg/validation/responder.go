package validation

import (
	"context"

	ledgerclient "github.com/ultravioletadao/karmakadabra-core/pkg/ledgerclient"
	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// ScoreAndRespond scores artifact and, if an on-chain ValidationRequest
// exists for its dataHash addressed to validatorId and has not already been
// responded to, responds with the overall score — the system's sole
// gas-paying write on the critical path, per the spec's validation engine
// section.
func ScoreAndRespond(ctx context.Context, engine *Engine, ledger ledgerclient.LedgerClient, validatorId x402.AgentId, artifact []byte, dataType string, declaredPrice float64) (Result, error) {
	result, err := engine.Score(artifact, dataType, declaredPrice)
	if err != nil {
		return Result{}, err
	}

	dataHash := DataHash(artifact)

	req, exists, err := ledger.GetValidationRequest(ctx, dataHash)
	if err != nil {
		return result, err
	}
	if !exists || req.ValidatorId != validatorId || req.Responded {
		return result, nil
	}

	if err := ledger.RespondValidation(ctx, dataHash, result.Overall); err != nil {
		return result, err
	}
	return result, nil
}
