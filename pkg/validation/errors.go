package validation

import x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"

// ErrNotJSON is returned by Engine.Score when the artifact neither parses
// as a JSON object or array nor begins with '{' or '[' — the one input the engine refuses rather
// than scoring low, per the tolerance contract.
var ErrNotJSON = x402.New(x402.KindDataMalformed, "artifact is not JSON")
