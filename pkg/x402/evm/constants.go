package evm

import "math/big"

// SchemeExact is the only payment scheme this module implements: an
// EIP-3009 transferWithAuthorization settled in a single on-chain call,
// grounded on the teacher's mechanisms/evm/constants.go SchemeExact.
const SchemeExact = "exact"

// DefaultDecimals is used when an asset's decimals are not otherwise known.
const DefaultDecimals = 6

// TransferWithAuthorizationFunction is the EIP-3009 function name invoked
// at settlement time.
const TransferWithAuthorizationFunction = "transferWithAuthorization"

// AuthorizationStateFunction reads whether a (signer, nonce) pair has
// already been consumed.
const AuthorizationStateFunction = "authorizationState"

// NetworkConfig names the chain ID and default settlement asset for one
// CAIP-2 network identifier.
type NetworkConfig struct {
	ChainID      *big.Int
	DefaultAsset string
	Decimals     uint8
}

// Well-known CAIP-2 network identifiers this module targets.
const (
	NetworkBase        = "eip155:8453"
	NetworkBaseSepolia = "eip155:84532"
)

// NetworkConfigs maps a CAIP-2 network identifier to its chain metadata,
// mirroring the teacher's NetworkConfigs table but trimmed to the networks
// and single default asset (USDC) this module actually settles against.
var NetworkConfigs = map[string]NetworkConfig{
	NetworkBase: {
		ChainID:      big.NewInt(8453),
		DefaultAsset: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		Decimals:     6,
	},
	NetworkBaseSepolia: {
		ChainID:      big.NewInt(84532),
		DefaultAsset: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		Decimals:     6,
	},
}
