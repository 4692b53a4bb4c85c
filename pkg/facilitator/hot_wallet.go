package facilitator

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	gcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// HotWallet serializes the facilitator's own outbound transactions through
// a single goroutine, so nonce assignment and gas-price discovery are
// local, uncontended concerns rather than a source of races between
// concurrent /settle requests — grounded on the teacher's request-queue
// shape in server.go and the single-writer discipline spec.md's
// concurrency model calls for on the hot wallet.
type HotWallet struct {
	eth     *ethclient.Client
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	jobs    chan walletJob
}

type walletJob struct {
	build  func(*bind.TransactOpts) (*gtypes.Transaction, error)
	result chan walletResult
}

type walletResult struct {
	txHash string
	err    error
}

// NewHotWallet starts the wallet's single writer goroutine. ctx bounds the
// goroutine's lifetime; callers stop the wallet by cancelling ctx.
func NewHotWallet(ctx context.Context, eth *ethclient.Client, key *ecdsa.PrivateKey, chainID *big.Int) *HotWallet {
	w := &HotWallet{
		eth:     eth,
		key:     key,
		address: gcrypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		jobs:    make(chan walletJob),
	}
	go w.run(ctx)
	return w
}

func (w *HotWallet) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			txHash, err := w.submit(ctx, job.build)
			job.result <- walletResult{txHash: txHash, err: err}
		}
	}
}

// Send enqueues build to run on the wallet's single writer and blocks until
// it is submitted and confirmed, returning the transaction hash.
func (w *HotWallet) Send(ctx context.Context, build func(*bind.TransactOpts) (*gtypes.Transaction, error)) (string, error) {
	result := make(chan walletResult, 1)
	select {
	case w.jobs <- walletJob{build: build, result: result}:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case r := <-result:
		return r.txHash, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (w *HotWallet) submit(ctx context.Context, build func(*bind.TransactOpts) (*gtypes.Transaction, error)) (string, error) {
	nonce, err := w.eth.PendingNonceAt(ctx, w.address)
	if err != nil {
		return "", x402.Wrap(x402.KindRpcUnavailable, "get pending nonce", err)
	}

	tip, err := w.eth.SuggestGasTipCap(ctx)
	if err != nil {
		return "", x402.Wrap(x402.KindRpcUnavailable, "suggest gas tip", err)
	}
	head, err := w.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", x402.Wrap(x402.KindRpcUnavailable, "get latest head", err)
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))

	auth, err := bind.NewKeyedTransactorWithChainID(w.key, w.chainID)
	if err != nil {
		return "", x402.Wrap(x402.KindInternal, "build transactor", err)
	}
	auth.Context = ctx
	auth.Nonce = new(big.Int).SetUint64(nonce)
	auth.GasTipCap = tip
	auth.GasFeeCap = feeCap

	tx, err := build(auth)
	if err != nil {
		return "", err
	}

	receipt, err := bind.WaitMined(ctx, w.eth, tx)
	if err != nil {
		return "", x402.Wrap(x402.KindRpcUnavailable, "await confirmation", err)
	}
	if receipt.Status == gtypes.ReceiptStatusFailed {
		return "", x402.New(x402.KindSettlementFailed, "transaction reverted")
	}

	return tx.Hash().Hex(), nil
}
