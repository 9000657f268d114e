package oracle

import (
	"context"
	"math/big"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/sergiovriv/bc-p2/internal/ledger"
)

// Heartbeat sends a small collateral transfer between two random participants so
// the ledger mines a block and its clock moves forward.
type Heartbeat struct {
	ledger       TransferLedger
	participants []ledger.Participant
	amount       *big.Int
	rng          *rand.Rand
	logger       *zap.Logger
}

func NewHeartbeat(l TransferLedger, participants []ledger.Participant, amount *big.Int, rng *rand.Rand, logger *zap.Logger) *Heartbeat {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Heartbeat{ledger: l, participants: participants, amount: amount, rng: rng, logger: logger}
}

// Beat reports whether the transfer went through. Failures are only logged.
func (h *Heartbeat) Beat(ctx context.Context) bool {
	if h == nil || h.ledger == nil || len(h.participants) < 2 {
		return false
	}
	from, to := h.pick()
	src, dst := h.participants[from], h.participants[to]
	if _, err := h.ledger.Transfer(ctx, src, dst.Address, h.amount); err != nil {
		h.logger.Warn("heartbeat transfer failed",
			zap.String("from", src.Address.Hex()),
			zap.String("to", dst.Address.Hex()),
			zap.Error(err),
		)
		return false
	}
	h.logger.Debug("heartbeat",
		zap.String("from", src.Address.Hex()),
		zap.String("to", dst.Address.Hex()),
	)
	return true
}

func (h *Heartbeat) pick() (int, int) {
	n := len(h.participants)
	from := h.rng.IntN(n)
	to := h.rng.IntN(n)
	if to == from {
		to = (to + 1) % n
	}
	return from, to
}
