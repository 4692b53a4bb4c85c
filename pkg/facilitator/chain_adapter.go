package facilitator

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

const tokenReadABI = `[
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"balance","type":"uint256"}]},
  {"type":"function","name":"authorizationState","stateMutability":"view",
   "inputs":[{"name":"authorizer","type":"address"},{"name":"nonce","type":"bytes32"}],
   "outputs":[{"name":"used","type":"bool"}]},
  {"type":"function","name":"transferWithAuthorization","stateMutability":"nonpayable",
   "inputs":[
     {"name":"from","type":"address"},
     {"name":"to","type":"address"},
     {"name":"value","type":"uint256"},
     {"name":"validAfter","type":"uint256"},
     {"name":"validBefore","type":"uint256"},
     {"name":"nonce","type":"bytes32"},
     {"name":"v","type":"uint8"},
     {"name":"r","type":"bytes32"},
     {"name":"s","type":"bytes32"}
   ],
   "outputs":[]}
]`

// EthChain adapts an ethclient.Client plus a HotWallet into the
// facilitator's Chain interface, grounded on the teacher's
// mechanisms/evm/facilitator.go checkNonceUsed/settle flow (read
// authorizationState before settling, submit transferWithAuthorization as
// the facilitator's own transaction).
type EthChain struct {
	eth    *ethclient.Client
	wallet *HotWallet
	abi    abi.ABI
}

// NewEthChain parses the token read/write ABI once and binds it to eth.
func NewEthChain(eth *ethclient.Client, wallet *HotWallet) (*EthChain, error) {
	parsed, err := abi.JSON(strings.NewReader(tokenReadABI))
	if err != nil {
		return nil, x402.Wrap(x402.KindInternal, "parse token ABI", err)
	}
	return &EthChain{eth: eth, wallet: wallet, abi: parsed}, nil
}

func (c *EthChain) bound(asset x402.Address) *bind.BoundContract {
	return bind.NewBoundContract(common.BytesToAddress(asset[:]), c.abi, c.eth, c.eth, c.eth)
}

func (c *EthChain) ChainID(ctx context.Context) (uint64, error) {
	id, err := c.eth.NetworkID(ctx)
	if err != nil {
		return 0, x402.Wrap(x402.KindRpcUnavailable, "get chain ID", err)
	}
	return id.Uint64(), nil
}

func (c *EthChain) BalanceOf(ctx context.Context, asset, account x402.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.bound(asset).Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", common.BytesToAddress(account[:])); err != nil {
		return nil, x402.Wrap(x402.KindRpcUnavailable, "balanceOf", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (c *EthChain) NonceUsed(ctx context.Context, asset, authorizer x402.Address, nonce x402.AuthorizationNonce) (bool, error) {
	var out []interface{}
	if err := c.bound(asset).Call(&bind.CallOpts{Context: ctx}, &out, "authorizationState", common.BytesToAddress(authorizer[:]), [32]byte(nonce)); err != nil {
		return false, x402.Wrap(x402.KindRpcUnavailable, "authorizationState", err)
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (c *EthChain) TransferWithAuthorization(ctx context.Context, asset x402.Address, auth x402.TransferAuthorization) (string, error) {
	return c.wallet.Send(ctx, func(opts *bind.TransactOpts) (*gtypes.Transaction, error) {
		value, ok := new(big.Int).SetString(string(auth.Value), 10)
		if !ok {
			return nil, x402.New(x402.KindInvalidArgument, "invalid value")
		}
		return c.bound(asset).Transact(opts, "transferWithAuthorization",
			common.BytesToAddress(auth.From[:]),
			common.BytesToAddress(auth.To[:]),
			value,
			new(big.Int).SetUint64(auth.ValidAfter),
			new(big.Int).SetUint64(auth.ValidBefore),
			[32]byte(auth.Nonce),
			auth.V,
			[32]byte(auth.R),
			[32]byte(auth.S),
		)
	})
}
