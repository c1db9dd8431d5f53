package cycle

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	ethcmn "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/okx/boomerang/utils"
)

var _ utils.Client = (*fakeClient)(nil)

type sentTx struct {
	from     ethcmn.Address
	to       ethcmn.Address
	nonce    uint64
	value    *big.Int
	gasLimit uint64
	gasPrice *big.Int
	hash     ethcmn.Hash
}

// fakeClient is an in-memory utils.Client. Submission hashes are the
// 1-based submission index; per-index maps steer rejections, reverts and
// stalled confirmations.
type fakeClient struct {
	mu sync.Mutex

	balance      *big.Int
	gasPrice     *big.Int
	pendingNonce uint64
	nonceErr     error

	rejectSends map[int]bool // submission index -> node rejects the send
	revertSends map[int]bool // submission index -> receipt reports revert
	stallSends  map[int]bool // submission index -> receipt never appears
	readErrs    int          // transient errors before the first real poll answer, per tx

	sent  []sentTx
	polls map[ethcmn.Hash]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		balance:     new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18)),
		gasPrice:    big.NewInt(1e9),
		rejectSends: map[int]bool{},
		revertSends: map[int]bool{},
		stallSends:  map[int]bool{},
		polls:       map[ethcmn.Hash]int{},
	}
}

func (f *fakeClient) BalanceAt(ctx context.Context, account ethcmn.Address, blockNumber *big.Int) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).Set(f.gasPrice), nil
}

func (f *fakeClient) PendingNonceAt(ctx context.Context, account ethcmn.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nonceErr != nil {
		return 0, f.nonceErr
	}
	return f.pendingNonce, nil
}

func (f *fakeClient) SendEthereumTx(ctx context.Context, privateKey *ecdsa.PrivateKey, nonce uint64, to ethcmn.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) (ethcmn.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	index := len(f.sent)
	if f.rejectSends[index] {
		f.sent = append(f.sent, sentTx{}) // keep index accounting stable
		return ethcmn.Hash{}, fmt.Errorf("node rejected transaction %d", index)
	}

	hash := ethcmn.BigToHash(big.NewInt(int64(index + 1)))
	f.sent = append(f.sent, sentTx{
		from:     crypto.PubkeyToAddress(privateKey.PublicKey),
		to:       to,
		nonce:    nonce,
		value:    new(big.Int).Set(amount),
		gasLimit: gasLimit,
		gasPrice: new(big.Int).Set(gasPrice),
		hash:     hash,
	})
	return hash, nil
}

func (f *fakeClient) TransactionReceipt(ctx context.Context, txHash ethcmn.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.polls[txHash]++
	if f.polls[txHash] <= f.readErrs {
		return nil, fmt.Errorf("transient read failure")
	}

	index := int(txHash.Big().Int64()) - 1
	if index < 0 || index >= len(f.sent) {
		return nil, ethereum.NotFound
	}
	if f.stallSends[index] {
		return nil, ethereum.NotFound
	}

	status := types.ReceiptStatusSuccessful
	if f.revertSends[index] {
		status = types.ReceiptStatusFailed
	}
	return &types.Receipt{Status: status, TxHash: txHash}, nil
}

// sentTo returns the recorded submissions addressed to addr.
func (f *fakeClient) sentTo(addr ethcmn.Address) []sentTx {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentTx
	for _, tx := range f.sent {
		if tx.to == addr {
			out = append(out, tx)
		}
	}
	return out
}

func (f *fakeClient) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeClient) pollCount(txHash ethcmn.Hash) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls[txHash]
}
