package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/sergiovriv/bc-p2/internal/ledger"
	"github.com/sergiovriv/bc-p2/internal/report"
)

// BettingSimulator places stakes from two fixed pools while a round's window is open.
// Every participant stakes at most once per round.
type BettingSimulator struct {
	ledger StakeLedger
	logger *zap.Logger
	yes    []ledger.Participant
	no     []ledger.Participant
	amount *big.Int
	batch  int

	roundID uint64
	feeBps  uint64
	nextYes int
	nextNo  int
	stakes  []report.Stake
}

// NewBettingSimulator splits participants into YES (the first yesPool) and NO (the rest).
func NewBettingSimulator(l StakeLedger, participants []ledger.Participant, yesPool int, amount *big.Int, batchPerSide int, logger *zap.Logger) (*BettingSimulator, error) {
	if l == nil {
		return nil, errors.New("stake ledger is nil")
	}
	if yesPool < 0 || yesPool > len(participants) {
		return nil, fmt.Errorf("yes pool %d out of range for %d participants", yesPool, len(participants))
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, errors.New("stake amount must be positive")
	}
	if batchPerSide <= 0 {
		return nil, errors.New("batch per side must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BettingSimulator{
		ledger: l,
		logger: logger,
		yes:    participants[:yesPool:yesPool],
		no:     participants[yesPool:],
		amount: new(big.Int).Set(amount),
		batch:  batchPerSide,
	}, nil
}

// Begin resets the pool cursors for a new round and reads the ledger fee rate.
func (s *BettingSimulator) Begin(ctx context.Context, roundID uint64) error {
	bps, err := s.ledger.FeeRateBps(ctx)
	if err != nil {
		return err
	}
	s.roundID = roundID
	s.feeBps = bps
	s.nextYes = 0
	s.nextNo = 0
	s.stakes = nil
	return nil
}

// Tick places up to batch stakes on YES and then up to batch on NO, one after
// the other. A rejected stake aborts the tick and is returned.
func (s *BettingSimulator) Tick(ctx context.Context) (int, error) {
	placed := 0
	n, err := s.placeBatch(ctx, ledger.SideYes, s.yes, &s.nextYes)
	placed += n
	if err != nil {
		return placed, err
	}
	n, err = s.placeBatch(ctx, ledger.SideNo, s.no, &s.nextNo)
	placed += n
	if err != nil {
		return placed, err
	}
	if placed == 0 {
		s.logger.Debug("no participants left to stake", zap.Uint64("round_id", s.roundID))
	}
	return placed, nil
}

func (s *BettingSimulator) placeBatch(ctx context.Context, side ledger.Side, pool []ledger.Participant, cursor *int) (int, error) {
	placed := 0
	for placed < s.batch && *cursor < len(pool) {
		p := pool[*cursor]
		tx, err := s.ledger.PlaceStake(ctx, s.roundID, side, s.amount, p)
		if err != nil {
			return placed, fmt.Errorf("stake %s from %s: %w", side, p.Address.Hex(), err)
		}
		*cursor++
		placed++
		fee, net := ledger.SplitFee(s.amount, s.feeBps)
		s.stakes = append(s.stakes, report.Stake{
			Participant: p.Address,
			Side:        side,
			Gross:       new(big.Int).Set(s.amount),
			Fee:         fee,
			Net:         net,
			TxHash:      tx,
		})
		s.logger.Info("stake placed",
			zap.Uint64("round_id", s.roundID),
			zap.String("side", string(side)),
			zap.String("participant", p.Address.Hex()),
			zap.String("net", ledger.FormatUnits(net)),
			zap.String("tx", tx.Hex()),
		)
	}
	return placed, nil
}

// Stakes returns the stakes accepted in the current round, in placement order.
func (s *BettingSimulator) Stakes() []report.Stake {
	out := make([]report.Stake, len(s.stakes))
	copy(out, s.stakes)
	return out
}
