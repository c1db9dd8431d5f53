package cycle

import (
	"context"
	"fmt"
	"sync"

	ethcmn "github.com/ethereum/go-ethereum/common"

	"github.com/okx/boomerang/utils"
)

// NonceSequencer hands out strictly increasing nonces for a single source
// account under concurrent use. The baseline is fetched from the ledger's
// pending count once, on first use; after that nonces are issued from an
// in-memory counter under the mutex. An issued nonce is never reissued,
// even when its transaction ultimately fails.
type NonceSequencer struct {
	client utils.Client
	addr   ethcmn.Address

	mu     sync.Mutex
	next   uint64
	primed bool
}

func NewNonceSequencer(client utils.Client, addr ethcmn.Address) *NonceSequencer {
	return &NonceSequencer{
		client: client,
		addr:   addr,
	}
}

// Prime fetches the nonce baseline if it has not been fetched yet. A
// failure here is fatal for the whole run: without a reliable baseline no
// funding transaction can be sequenced.
func (s *NonceSequencer) Prime(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.primeLocked(ctx)
}

func (s *NonceSequencer) primeLocked(ctx context.Context) error {
	if s.primed {
		return nil
	}
	n, err := s.client.PendingNonceAt(ctx, s.addr)
	if err != nil {
		return fmt.Errorf("failed to fetch nonce baseline for %s: %w", s.addr, err)
	}
	s.next = n
	s.primed = true
	return nil
}

// Next issues the next nonce, seeding the baseline lazily if Prime was
// never called.
func (s *NonceSequencer) Next(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.primeLocked(ctx); err != nil {
		return 0, err
	}

	n := s.next
	s.next++
	return n, nil
}

// NewWalletNonce is the nonce for an account that has never transacted.
func NewWalletNonce() uint64 {
	return 0
}
