package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ZeroAddress is the null address; factories return it for missing pairs.
var ZeroAddress = common.HexToAddress("0x0000000000000000000000000000000000000000")

// receiptPollInterval is how often WaitForReceipt re-queries a pending hash.
const receiptPollInterval = 2 * time.Second

// Client wraps the go-ethereum client with the read-only surface the
// services consume: code lookup, contract calls, and receipt queries.
type Client struct {
	client  *ethclient.Client
	rpcURL  string
	chainID *big.Int
	mu      sync.RWMutex
}

// NewClient creates a new Ethereum client
func NewClient(rpcURL string) (*Client, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}

	return &Client{
		client:  client,
		rpcURL:  rpcURL,
		chainID: chainID,
	}, nil
}

// Close closes the underlying client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client.Close()
}

// ChainID returns the chain ID
func (c *Client) ChainID() *big.Int {
	return c.chainID
}

// CodeAt returns the deployed code at the given address, at the latest block.
func (c *Client) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.CodeAt(ctx, addr, nil)
}

// CallContract executes a read-only contract call at the latest block.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.CallContract(ctx, msg, nil)
}

// TransactionReceipt returns the receipt for a mined transaction, or
// ethereum.NotFound while it is still pending.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client.TransactionReceipt(ctx, hash)
}

// WaitForReceipt blocks until the transaction is mined or the context is
// done. A broadcast transaction cannot be cancelled, so there is no
// client-side give-up beyond the context; the on-chain deadline parameter
// bounds how late a stuck call can execute.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// LogSubscription is an active log watch. Unsubscribe releases it and
// must be called on teardown; a leaked subscription keeps its forwarding
// goroutine alive.
type LogSubscription interface {
	Unsubscribe()
}

type logSubscription struct {
	sub  ethereum.Subscription
	done chan struct{}
	once sync.Once
}

func (s *logSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.sub.Unsubscribe()
		close(s.done)
	})
}

// WatchLogs subscribes to logs emitted by the given contract for the
// given event signature and invokes handler for each. Requires a
// subscription-capable transport; over plain HTTP the subscribe fails
// and the caller degrades to on-demand reads.
func (c *Client) WatchLogs(ctx context.Context, addr common.Address, eventSig string, handler func(types.Log)) (LogSubscription, error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{addr},
		Topics:    [][]common.Hash{{crypto.Keccak256Hash([]byte(eventSig))}},
	}

	logs := make(chan types.Log)
	sub, err := c.client.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return nil, err
	}

	ls := &logSubscription{sub: sub, done: make(chan struct{})}
	go func() {
		for {
			select {
			case l := <-logs:
				handler(l)
			case <-sub.Err():
				return
			case <-ls.done:
				return
			}
		}
	}()
	return ls, nil
}

// Signer signs transactions on behalf of an account. Wallet integration
// lives behind this boundary; the core never touches key material.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction) (*types.Transaction, error)
}

// SubmittingClient extends Client with transaction submission through an
// injected Signer.
type SubmittingClient struct {
	*Client
	signer Signer
}

// NewSubmittingClient wraps a read client with a signer.
func NewSubmittingClient(client *Client, signer Signer) *SubmittingClient {
	return &SubmittingClient{Client: client, signer: signer}
}

// From returns the submitting account.
func (c *SubmittingClient) From() common.Address {
	return c.signer.Address()
}

// SubmitCall signs and broadcasts a contract call, returning its hash.
func (c *SubmittingClient) SubmitCall(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	from := c.signer.Address()

	nonce, err := c.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, err
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	gasLimit, err := c.client.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return common.Hash{}, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Value:    big.NewInt(0),
		Data:     data,
	})

	signed, err := c.signer.SignTx(tx)
	if err != nil {
		return common.Hash{}, err
	}

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}

	return signed.Hash(), nil
}
