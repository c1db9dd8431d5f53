package cycle

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/time/rate"

	"github.com/okx/boomerang/utils"
)

// Orchestrator executes the fund-then-return protocol for one batch of
// ephemeral accounts: fund each from the source under sequenced nonces,
// await confirmation, then return the configured fraction from every
// successfully funded account back to the source.
type Orchestrator struct {
	client  utils.Client
	source  *utils.EthAccount
	nonces  *NonceSequencer
	waiter  *Waiter
	limiter *rate.Limiter // nil when targetTPS is 0

	gasLimit       uint64
	gasPriceGwei   float64
	returnFraction int64
	concurrency    int

	log log.Logger
}

func NewOrchestrator(client utils.Client, source *utils.EthAccount, cfg *utils.Config, logger log.Logger) *Orchestrator {
	var limiter *rate.Limiter
	if cfg.TargetTPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.TargetTPS), 1)
	}

	return &Orchestrator{
		client:         client,
		source:         source,
		nonces:         NewNonceSequencer(client, source.Address),
		waiter:         NewWaiter(client, cfg, logger),
		limiter:        limiter,
		gasLimit:       cfg.GasLimit,
		gasPriceGwei:   cfg.GasPriceGwei,
		returnFraction: cfg.ReturnFractionPercent,
		concurrency:    cfg.Concurrency,
		log:            logger,
	}
}

// Sequencer exposes the source-account nonce sequencer so the run
// controller can prime the baseline during pre-flight.
func (o *Orchestrator) Sequencer() *NonceSequencer {
	return o.nonces
}

// gasPrice resolves the price used for every transaction in one batch:
// the configured override when set, otherwise one fetch from the node.
func (o *Orchestrator) gasPrice(ctx context.Context) (*big.Int, error) {
	if o.gasPriceGwei > 0 {
		return utils.GweiToWei(o.gasPriceGwei), nil
	}
	price, err := o.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch gas price: %w", err)
	}
	return price, nil
}

// returnValue computes how much a funded account sends back: the nominal
// fraction of the fund amount minus the gas reserved for the return
// transaction itself. Without that adjustment the return submission is
// rejected for insufficient funds.
func returnValue(fundAmount *big.Int, fractionPercent int64, gasCost *big.Int) (*big.Int, error) {
	nominal := new(big.Int).Mul(fundAmount, big.NewInt(fractionPercent))
	nominal.Div(nominal, big.NewInt(100))

	adjusted := new(big.Int).Sub(nominal, gasCost)
	if adjusted.Sign() <= 0 {
		return nil, fmt.Errorf("return value %s does not cover the %s gas reserve", nominal, gasCost)
	}
	return adjusted, nil
}

// ProcessBatch funds every account, then returns funds from those whose
// funding confirmed. One Outcome is recorded per (account, stage); a
// stage failure never aborts sibling accounts. The error return is
// reserved for batch-fatal conditions (gas price fetch, misconfigured
// return value).
func (o *Orchestrator) ProcessBatch(ctx context.Context, accounts []*utils.EthAccount, fundAmount *big.Int) (funding, returning []Outcome, err error) {
	gasPrice, err := o.gasPrice(ctx)
	if err != nil {
		return nil, nil, err
	}
	gasCost := new(big.Int).Mul(new(big.Int).SetUint64(o.gasLimit), gasPrice)

	retValue, err := returnValue(fundAmount, o.returnFraction, gasCost)
	if err != nil {
		return nil, nil, err
	}

	o.log.Info("processing batch",
		"accounts", len(accounts),
		"fundWei", fundAmount,
		"returnWei", retValue,
		"gasPrice", gasPrice,
	)

	fundTasks := make([]func() Outcome, len(accounts))
	for i, acc := range accounts {
		fundTasks[i] = func() Outcome {
			return o.fundAccount(ctx, acc, fundAmount, gasPrice)
		}
	}
	funding = RunBounded(o.concurrency, fundTasks)

	var funded []*utils.EthAccount
	for _, outcome := range funding {
		if outcome.Success {
			funded = append(funded, outcome.Account)
		}
	}

	returnTasks := make([]func() Outcome, len(funded))
	for i, acc := range funded {
		returnTasks[i] = func() Outcome {
			return o.returnFunds(ctx, acc, retValue, gasPrice)
		}
	}
	returning = RunBounded(o.concurrency, returnTasks)

	return funding, returning, nil
}

// fundAccount sends fundAmount from the source to acc and waits for
// confirmation. The source nonce is consumed even when the transaction
// later fails; reissuing it would collide with in-flight submissions.
func (o *Orchestrator) fundAccount(ctx context.Context, acc *utils.EthAccount, fundAmount, gasPrice *big.Int) Outcome {
	outcome := Outcome{Account: acc, Stage: StageFunding}

	nonce, err := o.nonces.Next(ctx)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	if err := o.pace(ctx); err != nil {
		outcome.Err = err
		return outcome
	}

	txHash, err := o.client.SendEthereumTx(ctx, o.source.PrivateKey, nonce, acc.Address, fundAmount, o.gasLimit, gasPrice, nil)
	if err != nil {
		outcome.Err = fmt.Errorf("funding submission failed: %w", err)
		return outcome
	}
	outcome.TxHash = txHash

	if _, err := o.waiter.Await(ctx, txHash); err != nil {
		outcome.Err = err
		return outcome
	}

	o.log.Debug("account funded", "address", acc.Address, "nonce", nonce, "tx", txHash)
	outcome.Success = true
	return outcome
}

// returnFunds sends retValue from acc back to the source, signed with the
// account's own key. Ephemeral accounts have never transacted, so the
// nonce is always the new-wallet nonce.
func (o *Orchestrator) returnFunds(ctx context.Context, acc *utils.EthAccount, retValue, gasPrice *big.Int) Outcome {
	outcome := Outcome{Account: acc, Stage: StageReturning}

	if err := o.pace(ctx); err != nil {
		outcome.Err = err
		return outcome
	}

	txHash, err := o.client.SendEthereumTx(ctx, acc.PrivateKey, NewWalletNonce(), o.source.Address, retValue, o.gasLimit, gasPrice, nil)
	if err != nil {
		outcome.Err = fmt.Errorf("return submission failed: %w", err)
		return outcome
	}
	outcome.TxHash = txHash

	if _, err := o.waiter.Await(ctx, txHash); err != nil {
		outcome.Err = err
		return outcome
	}

	o.log.Debug("funds returned", "address", acc.Address, "tx", txHash)
	outcome.Success = true
	return outcome
}

func (o *Orchestrator) pace(ctx context.Context) error {
	if o.limiter == nil {
		return nil
	}
	return o.limiter.Wait(ctx)
}
