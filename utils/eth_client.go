package utils

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"net/http"
	"time"

	ethcmn "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	_ Client = (*EthClient)(nil)
)

// Client defines the ledger operations the orchestration core depends on.
// It is satisfied by EthClient and by test fakes.
type Client interface {
	BalanceAt(ctx context.Context, account ethcmn.Address, blockNumber *big.Int) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account ethcmn.Address) (uint64, error)
	SendEthereumTx(ctx context.Context, privateKey *ecdsa.PrivateKey, nonce uint64, to ethcmn.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) (ethcmn.Hash, error)
	TransactionReceipt(ctx context.Context, txHash ethcmn.Hash) (*types.Receipt, error)
}

// EthClient wraps the ethereum client with signing support
type EthClient struct {
	*ethclient.Client
	signer types.Signer
}

// createOptimizedHTTPClient creates an HTTP client optimized for connection pooling
func createOptimizedHTTPClient() *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        300,
		MaxIdleConnsPerHost: 300,
		IdleConnTimeout:     30 * time.Second,
		DisableKeepAlives:   false,
		MaxConnsPerHost:     300,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   10 * time.Second,
	}
}

// NewEthClient dials the given RPC endpoint and prepares a signer for its chain ID.
func NewEthClient(rpcURL string) (*EthClient, error) {
	httpClient := createOptimizedHTTPClient()
	rpcClient, err := rpc.DialOptions(context.Background(), rpcURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rpc client: %w", err)
	}

	cli := ethclient.NewClient(rpcClient)

	chainId, err := cli.ChainID(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to query chain id: %w", err)
	}

	return &EthClient{
		cli,
		types.NewLondonSigner(chainId),
	}, nil
}

// SendEthereumTx builds, signs and broadcasts a plain value transfer.
// The returned hash identifies the transaction from the moment the node
// accepts it; callers must not resubmit an accepted hash.
func (e *EthClient) SendEthereumTx(ctx context.Context, privateKey *ecdsa.PrivateKey, nonce uint64, to ethcmn.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) (ethcmn.Hash, error) {
	unsignedTx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    amount,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signedTx, err := types.SignTx(unsignedTx, e.signer, privateKey)
	if err != nil {
		return ethcmn.Hash{}, err
	}

	if err := e.SendTransaction(ctx, signedTx); err != nil {
		return ethcmn.Hash{}, err
	}

	return signedTx.Hash(), nil
}
