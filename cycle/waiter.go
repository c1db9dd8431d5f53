package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	ethcmn "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/okx/boomerang/utils"
)

var (
	// ErrReverted means the transaction was included but failed on-chain.
	// Resubmission is meaningless; the caller decides how to record it.
	ErrReverted = errors.New("transaction reverted on-chain")
	// ErrConfirmTimeout means every poll round was exhausted without the
	// transaction being confirmed.
	ErrConfirmTimeout = errors.New("confirmation timed out")
)

// Waiter polls the ledger for a submitted transaction's receipt until it
// is confirmed, reverts, or the poll budget runs out. An exhausted poll
// round is restarted from scratch up to maxRetryRounds-1 additional times,
// with a pause between rounds longer than the per-poll interval.
type Waiter struct {
	client          utils.Client
	pollInterval    time.Duration
	maxPollAttempts int
	maxRetryRounds  int
	roundPause      time.Duration
	log             log.Logger
}

func NewWaiter(client utils.Client, cfg *utils.Config, logger log.Logger) *Waiter {
	return &Waiter{
		client:          client,
		pollInterval:    cfg.PollInterval,
		maxPollAttempts: cfg.MaxPollAttempts,
		maxRetryRounds:  cfg.MaxRetryRounds,
		roundPause:      3 * cfg.PollInterval,
		log:             logger,
	}
}

// Await blocks until txHash is confirmed or the whole retry budget is
// spent. Transient read failures during a poll are swallowed and treated
// as "not yet confirmed"; only an exhausted budget or an on-chain revert
// escalates.
func (w *Waiter) Await(ctx context.Context, txHash ethcmn.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt

	round := func() error {
		for attempt := 0; attempt < w.maxPollAttempts; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return backoff.Permanent(ctx.Err())
				case <-time.After(w.pollInterval):
				}
			}

			rcpt, err := w.client.TransactionReceipt(ctx, txHash)
			if err != nil {
				// Missing receipts and transient RPC read errors look the
				// same from here: keep polling.
				w.log.Debug("receipt not available yet", "tx", txHash, "attempt", attempt+1, "err", err)
				continue
			}
			if rcpt == nil {
				continue
			}

			if rcpt.Status == types.ReceiptStatusFailed {
				return backoff.Permanent(fmt.Errorf("%w: tx %s", ErrReverted, txHash))
			}

			receipt = rcpt
			return nil
		}
		return fmt.Errorf("%w: tx %s unconfirmed after %d polls", ErrConfirmTimeout, txHash, w.maxPollAttempts)
	}

	retries := uint64(w.maxRetryRounds - 1)
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(w.roundPause), retries), ctx)
	if err := backoff.Retry(round, bo); err != nil {
		return nil, err
	}
	return receipt, nil
}
