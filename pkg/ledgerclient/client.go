package ledgerclient

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	gcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// retryDelays are the fixed backoff steps applied between attempts: 1s, 2s,
// 4s, so a failing call is tried four times in all (one first attempt plus
// three retries). A reverted transaction is never retried — it is surfaced
// as-is.
var retryDelays = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// EVMClient is the go-ethereum-backed LedgerClient, grounded on SAGE's
// EthereumClient: one ethclient.Client, one bind.BoundContract per
// registry, a single signing key, and a sign-submit-await-receipt write
// path.
type EVMClient struct {
	eth        *ethclient.Client
	chainID    *big.Int
	key        *ecdsa.PrivateKey
	address    common.Address
	identity   *bind.BoundContract
	reputation *bind.BoundContract
	validation *bind.BoundContract
	token      *bind.BoundContract
}

// Addresses groups the four contract addresses the client talks to.
type Addresses struct {
	Identity   x402.Address
	Reputation x402.Address
	Validation x402.Address
	Token      x402.Address
}

// Dial connects to rpcURL and binds all four contracts using key for
// signing writes.
func Dial(ctx context.Context, rpcURL string, addrs Addresses, key *ecdsa.PrivateKey) (*EVMClient, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, x402.Wrap(x402.KindNetworkUnavailable, "dial RPC endpoint", err)
	}

	chainID, err := eth.NetworkID(ctx)
	if err != nil {
		return nil, x402.Wrap(x402.KindNetworkUnavailable, "get chain ID", err)
	}

	identityABI, err := abi.JSON(strings.NewReader(identityRegistryABI))
	if err != nil {
		return nil, x402.Wrap(x402.KindInternal, "parse identity ABI", err)
	}
	reputationABI, err := abi.JSON(strings.NewReader(reputationRegistryABI))
	if err != nil {
		return nil, x402.Wrap(x402.KindInternal, "parse reputation ABI", err)
	}
	validationABI, err := abi.JSON(strings.NewReader(validationRegistryABI))
	if err != nil {
		return nil, x402.Wrap(x402.KindInternal, "parse validation ABI", err)
	}
	tokenABIParsed, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		return nil, x402.Wrap(x402.KindInternal, "parse token ABI", err)
	}

	return &EVMClient{
		eth:        eth,
		chainID:    chainID,
		key:        key,
		address:    gcrypto.PubkeyToAddress(key.PublicKey),
		identity:   bind.NewBoundContract(common.BytesToAddress(addrs.Identity[:]), identityABI, eth, eth, eth),
		reputation: bind.NewBoundContract(common.BytesToAddress(addrs.Reputation[:]), reputationABI, eth, eth, eth),
		validation: bind.NewBoundContract(common.BytesToAddress(addrs.Validation[:]), validationABI, eth, eth, eth),
		token:      bind.NewBoundContract(common.BytesToAddress(addrs.Token[:]), tokenABIParsed, eth, eth, eth),
	}, nil
}

func (c *EVMClient) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, x402.Wrap(x402.KindInternal, "build transactor", err)
	}
	auth.Context = ctx
	return auth, nil
}

var errReverted = errors.New("transaction reverted")

// withRetry calls fn up to len(retryDelays)+1 times, using the fixed
// backoff schedule. Every error other than a revert is retried; errors are
// not classified as transport or otherwise. A revert (errReverted) is never
// retried — it is surfaced to the caller on the first attempt.
func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil || errors.Is(lastErr, errReverted) {
			return lastErr
		}
		if attempt >= len(retryDelays) {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelays[attempt]):
		}
	}
}

func (c *EVMClient) call(ctx context.Context, contract *bind.BoundContract, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	err := withRetry(ctx, func() error {
		return contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...)
	})
	return out, err
}

func (c *EVMClient) sendAndWait(ctx context.Context, contract *bind.BoundContract, method string, args ...interface{}) (*gtypes.Receipt, error) {
	var receipt *gtypes.Receipt
	err := withRetry(ctx, func() error {
		auth, err := c.transactOpts(ctx)
		if err != nil {
			return err
		}
		tx, err := contract.Transact(auth, method, args...)
		if err != nil {
			return x402.Wrap(x402.KindNetworkUnavailable, "submit transaction", err)
		}
		r, err := bind.WaitMined(ctx, c.eth, tx)
		if err != nil {
			return x402.Wrap(x402.KindNetworkUnavailable, "await confirmation", err)
		}
		if r.Status == gtypes.ReceiptStatusFailed {
			return errReverted
		}
		receipt = r
		return nil
	})
	return receipt, err
}

func (c *EVMClient) RegisterAgent(ctx context.Context, domain string) (x402.AgentId, error) {
	receipt, err := c.sendAndWait(ctx, c.identity, "registerAgent", domain)
	if errors.Is(err, errReverted) {
		return 0, x402.Wrap(x402.KindAlreadyRegistered, "address already registered", x402.ErrAlreadyRegistered)
	}
	if err != nil {
		return 0, err
	}

	rec, exists, err := c.ResolveByAddress(ctx, addressFromCommon(c.address))
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, x402.New(x402.KindInternal, "register succeeded but address not resolvable: tx "+receipt.TxHash.Hex())
	}
	return rec.AgentId, nil
}

func (c *EVMClient) ResolveByAddress(ctx context.Context, addr x402.Address) (x402.AgentRecord, bool, error) {
	out, err := c.call(ctx, c.identity, "resolveByAddress", common.BytesToAddress(addr[:]))
	if err != nil {
		return x402.AgentRecord{}, false, x402.Wrap(x402.KindRpcUnavailable, "resolve by address", err)
	}
	agentId := *abi.ConvertType(out[0], new(uint64)).(*uint64)
	domain := *abi.ConvertType(out[1], new(string)).(*string)
	exists := *abi.ConvertType(out[2], new(bool)).(*bool)
	if !exists {
		return x402.AgentRecord{}, false, nil
	}
	return x402.AgentRecord{AgentId: x402.AgentId(agentId), Domain: domain, Address: addr}, true, nil
}

func (c *EVMClient) ResolveByDomain(ctx context.Context, domain string) (x402.AgentRecord, bool, error) {
	out, err := c.call(ctx, c.identity, "resolveByDomain", domain)
	if err != nil {
		return x402.AgentRecord{}, false, x402.Wrap(x402.KindRpcUnavailable, "resolve by domain", err)
	}
	agentId := *abi.ConvertType(out[0], new(uint64)).(*uint64)
	addr := *abi.ConvertType(out[1], new(common.Address)).(*common.Address)
	exists := *abi.ConvertType(out[2], new(bool)).(*bool)
	if !exists {
		return x402.AgentRecord{}, false, nil
	}
	return x402.AgentRecord{AgentId: x402.AgentId(agentId), Domain: domain, Address: addressFromCommon(addr)}, true, nil
}

func (c *EVMClient) SubmitRating(ctx context.Context, counterpartId x402.AgentId, rating uint8) (string, error) {
	if rating > 100 {
		return "", x402.Wrap(x402.KindInvalidArgument, "rating must be <= 100", x402.ErrInvalidRating)
	}
	receipt, err := c.sendAndWait(ctx, c.reputation, "submitRating", uint64(counterpartId), rating)
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

func (c *EVMClient) GetRating(ctx context.Context, raterId, rateeId x402.AgentId) (uint8, bool, error) {
	out, err := c.call(ctx, c.reputation, "getRating", uint64(raterId), uint64(rateeId))
	if err != nil {
		return 0, false, x402.Wrap(x402.KindRpcUnavailable, "get rating", err)
	}
	rating := *abi.ConvertType(out[0], new(uint8)).(*uint8)
	exists := *abi.ConvertType(out[1], new(bool)).(*bool)
	return rating, exists, nil
}

func (c *EVMClient) RequestValidation(ctx context.Context, validatorId, sellerId x402.AgentId, dataHash [32]byte) error {
	_, err := c.sendAndWait(ctx, c.validation, "requestValidation", uint64(validatorId), uint64(sellerId), dataHash)
	return err
}

func (c *EVMClient) RespondValidation(ctx context.Context, dataHash [32]byte, score uint8) error {
	_, err := c.sendAndWait(ctx, c.validation, "respondValidation", dataHash, score)
	if errors.Is(err, errReverted) {
		return x402.New(x402.KindUnauthorizedValidator, "respond validation reverted: unauthorized, already responded, or expired")
	}
	return err
}

func (c *EVMClient) GetValidationResponse(ctx context.Context, dataHash [32]byte) (uint8, bool, error) {
	out, err := c.call(ctx, c.validation, "getValidationResponse", dataHash)
	if err != nil {
		return 0, false, x402.Wrap(x402.KindRpcUnavailable, "get validation response", err)
	}
	score := *abi.ConvertType(out[0], new(uint8)).(*uint8)
	exists := *abi.ConvertType(out[1], new(bool)).(*bool)
	return score, exists, nil
}

func (c *EVMClient) GetValidationRequest(ctx context.Context, dataHash [32]byte) (ValidationRequest, bool, error) {
	out, err := c.call(ctx, c.validation, "getValidationRequest", dataHash)
	if err != nil {
		return ValidationRequest{}, false, x402.Wrap(x402.KindRpcUnavailable, "get validation request", err)
	}
	validatorId := *abi.ConvertType(out[0], new(uint64)).(*uint64)
	sellerId := *abi.ConvertType(out[1], new(uint64)).(*uint64)
	expiry := *abi.ConvertType(out[2], new(uint64)).(*uint64)
	responded := *abi.ConvertType(out[3], new(bool)).(*bool)
	if expiry == 0 && validatorId == 0 && sellerId == 0 {
		return ValidationRequest{}, false, nil
	}
	return ValidationRequest{
		ValidatorId: x402.AgentId(validatorId),
		SellerId:    x402.AgentId(sellerId),
		DataHash:    dataHash,
		Expiry:      expiry,
		Responded:   responded,
	}, true, nil
}

func (c *EVMClient) TokenBalance(ctx context.Context, addr x402.Address) (x402.TokenAmount, error) {
	out, err := c.call(ctx, c.token, "balanceOf", common.BytesToAddress(addr[:]))
	if err != nil {
		return "", x402.Wrap(x402.KindRpcUnavailable, "get token balance", err)
	}
	balance := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return x402.TokenAmount(balance.String()), nil
}

func addressFromCommon(a common.Address) x402.Address {
	var out x402.Address
	copy(out[:], a[:])
	return out
}
