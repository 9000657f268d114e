package oracle

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/sergiovriv/bc-p2/internal/ledger"
	"github.com/sergiovriv/bc-p2/internal/models"
	"github.com/sergiovriv/bc-p2/internal/pricefeed"
	"github.com/sergiovriv/bc-p2/internal/report"
)

type journalEntry struct {
	row models.OracleRound
}

func newJournalEntry(betHouse common.Address, session string, round ledger.Round, start pricefeed.Sample) *journalEntry {
	price := start.Price
	return &journalEntry{row: models.OracleRound{
		BetHouse:         strings.ToLower(betHouse.Hex()),
		RoundID:          round.ID,
		SessionID:        session,
		Status:           models.RoundStatusBetting,
		StartTime:        round.StartTime,
		EndTime:          round.EndTime,
		PriceStart:       &price,
		PriceStartSource: string(start.Source),
	}}
}

func (e *journalEntry) markResolving() {
	e.row.Status = models.RoundStatusResolving
}

func (e *journalEntry) markPublishing(rep report.Report, resolved ledger.Round, end pricefeed.Sample) {
	price := end.Price
	outcome := rep.OutcomeYes
	reconciled := rep.Reconciled
	resolvedAt := rep.ResolvedAt
	e.row.Status = models.RoundStatusPublishing
	e.row.PriceEnd = &price
	e.row.PriceEndSource = string(end.Source)
	e.row.OutcomeYes = &outcome
	e.row.RefundMode = resolved.RefundMode
	e.row.ResolvedAt = &resolvedAt
	e.row.TotalYesNet = rep.TotalYesNet
	e.row.TotalNoNet = rep.TotalNoNet
	e.row.FeeAccrued = rep.Totals.FeeAccrued
	e.row.BetCount = len(rep.Bets)
	e.row.Reconciled = &reconciled
}

func (e *journalEntry) markDone(cid string, tx common.Hash, raw []byte) {
	e.row.Status = models.RoundStatusDone
	e.row.ContentID = cid
	e.row.PointerTx = tx.Hex()
	e.row.Report = datatypes.JSON(raw)
}

func (e *journalEntry) markFailed(err error) {
	msg := err.Error()
	e.row.Status = models.RoundStatusFailed
	e.row.Error = &msg
}

func (o *Orchestrator) record(ctx context.Context, log *zap.Logger, e *journalEntry) {
	if o.journal == nil || e == nil {
		return
	}
	row := e.row
	if err := o.journal.UpsertRound(ctx, &row); err != nil {
		log.Warn("journal round upsert failed", zap.String("status", e.row.Status), zap.Error(err))
	}
}

func (o *Orchestrator) recordBets(ctx context.Context, log *zap.Logger, e *journalEntry, rep report.Report) {
	if o.journal == nil || len(rep.Bets) == 0 {
		return
	}
	items := make([]models.RoundBet, 0, len(rep.Bets))
	for _, b := range rep.Bets {
		items = append(items, models.RoundBet{
			BetHouse: e.row.BetHouse,
			RoundID:  e.row.RoundID,
			Address:  strings.ToLower(b.Address),
			Side:     string(b.Side),
			Gross:    b.Gross,
			Fee:      b.Fee,
			Net:      b.Net,
			TxHash:   strings.ToLower(b.TxHash),
			Winner:   b.Winner,
		})
	}
	if err := o.journal.UpsertRoundBets(ctx, items); err != nil {
		log.Warn("journal bets upsert failed", zap.Int("bets", len(items)), zap.Error(err))
	}
}
