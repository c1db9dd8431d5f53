package cycle

import (
	ethcmn "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/okx/boomerang/utils"
)

// Stage names one of the two legs of the transfer protocol.
type Stage string

const (
	StageFunding   Stage = "funding"
	StageReturning Stage = "returning"
)

// Outcome records the result of one (account, stage) submission. It is
// produced exactly once per pair and never mutated afterwards.
type Outcome struct {
	Account *utils.EthAccount
	Stage   Stage
	Success bool
	TxHash  ethcmn.Hash
	Err     error
}

// FailedOp is the report entry for a stage failure.
type FailedOp struct {
	Address string `json:"address"`
	Stage   Stage  `json:"stage"`
	Error   string `json:"error"`
}

// BatchReport accumulates the final run result. It is append-only: the
// run controller folds outcomes in, nothing is ever removed.
type BatchReport struct {
	RunID      string     `json:"runId"`
	Successful []string   `json:"successfulAddresses"`
	Failed     []FailedOp `json:"failedOperations"`
	Created    int        `json:"createdCount"`
}

func NewBatchReport() *BatchReport {
	return &BatchReport{
		RunID: uuid.NewString(),
	}
}

// Fold appends one chunk's outcomes. An account lands in Successful only
// when its return leg confirmed; every failed leg lands in Failed with
// stage attribution. Accounts whose funding failed never reach the return
// leg, so the two slices partition the return-stage attempts.
func (r *BatchReport) Fold(created int, funding, returning []Outcome) {
	r.Created += created

	for _, o := range funding {
		if !o.Success {
			r.Failed = append(r.Failed, FailedOp{
				Address: o.Account.Address.Hex(),
				Stage:   o.Stage,
				Error:   o.Err.Error(),
			})
		}
	}

	for _, o := range returning {
		if o.Success {
			r.Successful = append(r.Successful, o.Account.Address.Hex())
			continue
		}
		r.Failed = append(r.Failed, FailedOp{
			Address: o.Account.Address.Hex(),
			Stage:   o.Stage,
			Error:   o.Err.Error(),
		})
	}
}

// Log emits the run summary.
func (r *BatchReport) Log(l log.Logger) {
	l.Info("run complete",
		"runId", r.RunID,
		"created", r.Created,
		"successful", len(r.Successful),
		"failed", len(r.Failed),
	)
	for _, f := range r.Failed {
		l.Warn("failed operation", "address", f.Address, "stage", f.Stage, "err", f.Error)
	}
}
