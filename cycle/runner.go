package cycle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/okx/boomerang/utils"
)

// ErrInsufficientFunds means the source balance cannot cover the
// conservative upper-bound cost of the whole run.
var ErrInsufficientFunds = errors.New("insufficient source balance")

// Runner slices a total account count into fixed-size batches, delegates
// each to the orchestrator, paces between batches, and accumulates the
// final report.
type Runner struct {
	client utils.Client
	source *utils.EthAccount
	cfg    *utils.Config
	orch   *Orchestrator
	log    log.Logger
}

func NewRunner(client utils.Client, source *utils.EthAccount, cfg *utils.Config, logger log.Logger) *Runner {
	return &Runner{
		client: client,
		source: source,
		cfg:    cfg,
		orch:   NewOrchestrator(client, source, cfg, logger),
		log:    logger,
	}
}

// Preflight computes the conservative upper-bound cost of funding count
// accounts (fund amount plus a full gas reserve each) and checks the
// source balance against it. It returns the required and available
// balances so callers can report both.
func (r *Runner) Preflight(ctx context.Context, count int, fundAmount *big.Int) (required, available *big.Int, err error) {
	if count <= 0 {
		return nil, nil, fmt.Errorf("account count must be positive, got %d", count)
	}
	if fundAmount == nil || fundAmount.Sign() <= 0 {
		return nil, nil, fmt.Errorf("fund amount must be positive")
	}

	gasPrice, err := r.orch.gasPrice(ctx)
	if err != nil {
		return nil, nil, err
	}
	gasReserve := new(big.Int).Mul(new(big.Int).SetUint64(r.cfg.GasLimit), gasPrice)

	perAccount := new(big.Int).Add(fundAmount, gasReserve)
	required = new(big.Int).Mul(perAccount, big.NewInt(int64(count)))

	available, err = r.client.BalanceAt(ctx, r.source.Address, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch source balance: %w", err)
	}

	if available.Cmp(required) < 0 {
		return required, available, fmt.Errorf("%w: need %s wei, have %s wei", ErrInsufficientFunds, required, available)
	}
	return required, available, nil
}

// Run executes the whole protocol: pre-flight, then fund-and-return for
// count accounts in batches of the configured size with a pause between
// batches. Stage failures are folded into the report; only pre-flight and
// batch-fatal errors unwind to the caller.
func (r *Runner) Run(ctx context.Context, count int, fundAmount *big.Int) (*BatchReport, error) {
	if _, _, err := r.Preflight(ctx, count, fundAmount); err != nil {
		return nil, err
	}

	// A broken nonce baseline poisons every funding submission, so fetch
	// it before creating any account.
	if err := r.orch.Sequencer().Prime(ctx); err != nil {
		return nil, err
	}

	report := NewBatchReport()
	r.log.Info("starting run",
		"runId", report.RunID,
		"accounts", count,
		"fundWei", fundAmount,
		"batchSize", r.cfg.BatchSize,
	)

	for start := 0; start < count; start += r.cfg.BatchSize {
		size := r.cfg.BatchSize
		if start+size > count {
			size = count - start
		}

		accounts, err := utils.NewAccounts(size)
		if err != nil {
			return nil, err
		}

		funding, returning, err := r.orch.ProcessBatch(ctx, accounts, fundAmount)
		if err != nil {
			return nil, err
		}
		report.Fold(len(accounts), funding, returning)

		r.log.Info("batch complete",
			"progress", fmt.Sprintf("%d/%d", start+size, count),
			"successful", len(report.Successful),
			"failed", len(report.Failed),
		)

		if start+r.cfg.BatchSize < count {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(r.cfg.BatchPause):
			}
		}
	}

	return report, nil
}
