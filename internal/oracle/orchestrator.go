package oracle

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/sergiovriv/bc-p2/internal/auditlog"
	"github.com/sergiovriv/bc-p2/internal/ledger"
	"github.com/sergiovriv/bc-p2/internal/report"
)

type Settings struct {
	RoundSeconds  int64
	WindowSeconds int64
	TickInterval  time.Duration
	// ReportDir is the content store directory reports are also linked under.
	ReportDir string
}

type Deps struct {
	Ledger    Ledger
	Clock     Clock
	Prices    PriceSource
	Store     ContentStore
	Simulator *BettingSimulator
	Heartbeat *Heartbeat
	Journal   Journal
	Audit     AuditSink
	Logger    *zap.Logger
	SessionID string
}

// Result describes a round that reached Done.
type Result struct {
	Index     int
	RoundID   uint64
	ContentID string
	PointerTx common.Hash
	Report    report.Report
}

// Orchestrator drives rounds one at a time: start, poll the ledger clock while
// betting, resolve from the price feed, publish the report and record its pointer.
type Orchestrator struct {
	ledger    Ledger
	clock     Clock
	prices    PriceSource
	store     ContentStore
	sim       *BettingSimulator
	heartbeat *Heartbeat
	journal   Journal
	audit     AuditSink
	logger    *zap.Logger
	session   string
	settings  Settings
	sleep     func(ctx context.Context, d time.Duration) error

	mu    sync.RWMutex
	state State
}

func New(d Deps, s Settings) (*Orchestrator, error) {
	switch {
	case d.Ledger == nil:
		return nil, errors.New("ledger is nil")
	case d.Clock == nil:
		return nil, errors.New("clock is nil")
	case d.Prices == nil:
		return nil, errors.New("price source is nil")
	case d.Store == nil:
		return nil, errors.New("content store is nil")
	case d.Simulator == nil:
		return nil, errors.New("betting simulator is nil")
	}
	if s.TickInterval <= 0 {
		return nil, errors.New("tick interval must be positive")
	}
	if s.WindowSeconds < 0 || s.WindowSeconds > s.RoundSeconds {
		return nil, fmt.Errorf("window %ds does not fit in round %ds", s.WindowSeconds, s.RoundSeconds)
	}
	if s.ReportDir == "" {
		s.ReportDir = "/round-reports"
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		ledger:    d.Ledger,
		clock:     d.Clock,
		prices:    d.Prices,
		store:     d.Store,
		sim:       d.Simulator,
		heartbeat: d.Heartbeat,
		journal:   d.Journal,
		audit:     d.Audit,
		logger:    logger,
		session:   d.SessionID,
		settings:  s,
		sleep:     sleepCtx,
	}, nil
}

func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Run plays n rounds in order and stops at the first failure.
func (o *Orchestrator) Run(ctx context.Context, n int) ([]Result, error) {
	results := make([]Result, 0, n)
	for i := 1; i <= n; i++ {
		res, err := o.RunRound(ctx, i)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	o.logger.Info("session complete", zap.Int("rounds", len(results)))
	return results, nil
}

// RunRound plays one round. index is the 1-based position in the session and
// only used for logs and errors.
func (o *Orchestrator) RunRound(ctx context.Context, index int) (Result, error) {
	log := o.logger.With(zap.Int("round", index))
	o.setState(StateStarting)

	round, err := o.ledger.StartRound(ctx)
	if err != nil {
		return Result{}, o.fail(ctx, log, nil, index, 0, StateStarting, err)
	}
	log = log.With(zap.Uint64("round_id", round.ID))
	log.Info("round started", zap.Int64("start_time", round.StartTime), zap.Int64("end_time", round.EndTime))

	start := o.prices.Sample(ctx)
	log.Info("start price", zap.String("price", start.Price.String()), zap.String("source", string(start.Source)))

	entry := newJournalEntry(o.ledger.Contracts().BetHouse, o.session, round, start)
	o.record(ctx, log, entry)
	o.emit(ctx, auditlog.RoundEvent{
		Kind:        auditlog.KindStarted,
		RoundIndex:  index,
		RoundID:     round.ID,
		State:       StateStarting.String(),
		StartTime:   round.StartTime,
		EndTime:     round.EndTime,
		PriceStart:  start.Price.String(),
		PriceSource: string(start.Source),
	})

	if err := o.sim.Begin(ctx, round.ID); err != nil {
		return Result{}, o.fail(ctx, log, entry, index, round.ID, StateStarting, err)
	}

	o.setState(StatePolling)
	if err := o.poll(ctx, log, round); err != nil {
		return Result{}, o.fail(ctx, log, entry, index, round.ID, StatePolling, err)
	}

	o.setState(StateResolving)
	entry.markResolving()
	o.record(ctx, log, entry)

	end := o.prices.Sample(ctx)
	outcomeYes := report.WinnerSide(start.Price, end.Price) == ledger.SideYes
	log.Info("end price",
		zap.String("price", end.Price.String()),
		zap.String("source", string(end.Source)),
		zap.Bool("outcome_yes", outcomeYes),
	)

	resolved, err := o.ledger.EndRound(ctx, round.ID, outcomeYes)
	if err != nil {
		return Result{}, o.fail(ctx, log, entry, index, round.ID, StateResolving, err)
	}
	resolvedAt, err := o.clock.Now(ctx)
	if err != nil {
		return Result{}, o.fail(ctx, log, entry, index, round.ID, StateResolving, err)
	}
	log.Info("round resolved",
		zap.Bool("refund_mode", resolved.RefundMode),
		zap.String("total_yes_net", ledger.FormatUnits(resolved.TotalYesNet)),
		zap.String("total_no_net", ledger.FormatUnits(resolved.TotalNoNet)),
	)
	o.emit(ctx, auditlog.RoundEvent{
		Kind:        auditlog.KindResolved,
		RoundIndex:  index,
		RoundID:     round.ID,
		State:       StateResolving.String(),
		PriceStart:  start.Price.String(),
		PriceEnd:    end.Price.String(),
		PriceSource: string(end.Source),
		OutcomeYes:  &outcomeYes,
		RefundMode:  resolved.RefundMode,
	})

	o.setState(StatePublishing)
	rep := report.Build(report.Input{
		Round:      resolved,
		Stakes:     o.sim.Stakes(),
		Start:      start,
		End:        end,
		ResolvedAt: resolvedAt,
		Meta:       o.meta(),
	})
	if !rep.Reconciled {
		log.Warn("stake nets do not match ledger totals",
			zap.String("total_yes_net", rep.TotalYesNet),
			zap.String("total_no_net", rep.TotalNoNet),
			zap.Int("bets", len(rep.Bets)),
		)
	}
	entry.markPublishing(rep, resolved, end)
	o.record(ctx, log, entry)

	raw, err := report.Marshal(rep)
	if err != nil {
		return Result{}, o.fail(ctx, log, entry, index, round.ID, StatePublishing, fmt.Errorf("marshal report: %w", err))
	}
	name := reportName(round.ID)
	cid, err := o.store.Add(ctx, name, raw)
	if err != nil {
		return Result{}, o.fail(ctx, log, entry, index, round.ID, StatePublishing, fmt.Errorf("upload report: %w", err))
	}
	log.Info("report uploaded", zap.String("cid", cid), zap.Int("bytes", len(raw)))
	o.link(ctx, log, cid, name)

	tx, err := o.ledger.RecordReportPointer(ctx, round.ID, cid)
	if err != nil {
		return Result{}, o.fail(ctx, log, entry, index, round.ID, StatePublishing, err)
	}
	log.Info("report pointer recorded", zap.String("cid", cid), zap.String("tx", tx.Hex()))

	o.setState(StateDone)
	entry.markDone(cid, tx, raw)
	o.record(ctx, log, entry)
	o.recordBets(ctx, log, entry, rep)
	o.emit(ctx, auditlog.RoundEvent{
		Kind:       auditlog.KindDone,
		RoundIndex: index,
		RoundID:    round.ID,
		State:      StateDone.String(),
		OutcomeYes: &rep.OutcomeYes,
		RefundMode: rep.RefundMode,
		Bets:       len(rep.Bets),
		ContentID:  cid,
		PointerTx:  tx.Hex(),
	})

	return Result{Index: index, RoundID: round.ID, ContentID: cid, PointerTx: tx, Report: rep}, nil
}

// poll ticks until the ledger clock reaches the round's end time. Stakes are
// placed while the betting window is open.
func (o *Orchestrator) poll(ctx context.Context, log *zap.Logger, round ledger.Round) error {
	for {
		now, err := o.clock.Now(ctx)
		if err != nil {
			return err
		}
		elapsed := now - round.StartTime
		windowOpen := elapsed >= 0 && elapsed <= o.settings.WindowSeconds
		roundOver := now >= round.EndTime
		log.Debug("tick",
			zap.Int64("ledger_now", now),
			zap.Int64("elapsed", elapsed),
			zap.Int64("remaining", round.EndTime-now),
			zap.Bool("window_open", windowOpen),
		)

		if windowOpen {
			if _, err := o.sim.Tick(ctx); err != nil {
				return err
			}
		}
		if roundOver {
			return nil
		}
		o.heartbeat.Beat(ctx)
		if err := o.sleep(ctx, o.settings.TickInterval); err != nil {
			return err
		}
	}
}

// link puts the report under the reports directory. The upload already succeeded,
// so failures here are only logged.
func (o *Orchestrator) link(ctx context.Context, log *zap.Logger, cid, name string) {
	dir := o.settings.ReportDir
	if err := o.store.Mkdir(ctx, dir); err != nil {
		log.Warn("report dir create failed", zap.String("dir", dir), zap.Error(err))
	}
	dst := path.Join(dir, name)
	if err := o.store.Copy(ctx, "/ipfs/"+cid, dst); err != nil {
		log.Warn("report link failed", zap.String("path", dst), zap.Error(err))
	}
}

func (o *Orchestrator) meta() report.Meta {
	c := o.ledger.Contracts()
	return report.Meta{
		OracleAddress:     o.ledger.Owner().Hex(),
		BetHouseAddress:   c.BetHouse.Hex(),
		CollateralAddress: c.Collateral.Hex(),
		StorageAddress:    c.ReportStorage.Hex(),
		RoundSeconds:      o.settings.RoundSeconds,
		BetWindowSeconds:  o.settings.WindowSeconds,
	}
}

func (o *Orchestrator) fail(ctx context.Context, log *zap.Logger, entry *journalEntry, index int, roundID uint64, state State, err error) error {
	o.setState(StateFailed)
	log.Error("round failed", zap.String("state", state.String()), zap.Error(err))
	if entry != nil {
		entry.markFailed(err)
		o.record(context.WithoutCancel(ctx), log, entry)
	}
	o.emit(ctx, auditlog.RoundEvent{
		Kind:       auditlog.KindFailed,
		RoundIndex: index,
		RoundID:    roundID,
		State:      state.String(),
		Err:        err.Error(),
	})
	return &RoundError{RoundIndex: index, RoundID: roundID, State: state, Err: err}
}

func (o *Orchestrator) emit(ctx context.Context, ev auditlog.RoundEvent) {
	if o.audit == nil {
		return
	}
	o.audit.Emit(ctx, ev)
}

func reportName(roundID uint64) string {
	return fmt.Sprintf("round-%d.json", roundID)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
