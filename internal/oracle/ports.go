package oracle

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sergiovriv/bc-p2/internal/auditlog"
	"github.com/sergiovriv/bc-p2/internal/ledger"
	"github.com/sergiovriv/bc-p2/internal/models"
	"github.com/sergiovriv/bc-p2/internal/pricefeed"
)

// StakeLedger is the part of the ledger the betting simulator writes to.
type StakeLedger interface {
	FeeRateBps(ctx context.Context) (uint64, error)
	PlaceStake(ctx context.Context, roundID uint64, side ledger.Side, amount *big.Int, p ledger.Participant) (common.Hash, error)
}

type TransferLedger interface {
	Transfer(ctx context.Context, from ledger.Participant, to common.Address, amount *big.Int) (common.Hash, error)
}

// Ledger is everything the orchestrator does on chain. *ledger.Gateway satisfies it.
type Ledger interface {
	StakeLedger
	TransferLedger
	StartRound(ctx context.Context) (ledger.Round, error)
	EndRound(ctx context.Context, roundID uint64, outcomeYes bool) (ledger.Round, error)
	RecordReportPointer(ctx context.Context, roundID uint64, cid string) (common.Hash, error)
	Contracts() ledger.Contracts
	Owner() common.Address
}

type Clock interface {
	Now(ctx context.Context) (int64, error)
}

type PriceSource interface {
	Sample(ctx context.Context) pricefeed.Sample
}

type ContentStore interface {
	Add(ctx context.Context, name string, data []byte) (string, error)
	Mkdir(ctx context.Context, path string) error
	Copy(ctx context.Context, src, dst string) error
}

// Journal mirrors round progress locally. Failures are logged and ignored.
type Journal interface {
	UpsertRound(ctx context.Context, item *models.OracleRound) error
	UpsertRoundBets(ctx context.Context, items []models.RoundBet) error
}

// AuditSink receives round lifecycle events. Emit must not block the round on failure.
type AuditSink interface {
	Emit(ctx context.Context, ev auditlog.RoundEvent)
}

var (
	_ AuditSink   = (*auditlog.Sink)(nil)
	_ Ledger      = (*ledger.Gateway)(nil)
	_ Clock       = (*ledger.Clock)(nil)
	_ PriceSource = (*pricefeed.Feed)(nil)
)
