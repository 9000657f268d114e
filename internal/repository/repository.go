package repository

import (
	"context"

	"github.com/sergiovriv/bc-p2/internal/models"
)

// RoundJournal persists the oracle's view of each round it drives.
type RoundJournal interface {
	UpsertRound(ctx context.Context, item *models.OracleRound) error
	UpsertRoundBets(ctx context.Context, items []models.RoundBet) error
	GetRound(ctx context.Context, betHouse string, roundID uint64) (*models.OracleRound, error)
	ListRounds(ctx context.Context, params ListRoundsParams) ([]models.OracleRound, error)
	CountRounds(ctx context.Context, params ListRoundsParams) (int64, error)
	ListRoundBets(ctx context.Context, betHouse string, roundID uint64) ([]models.RoundBet, error)
}

type ListRoundsParams struct {
	Limit     int
	Offset    int
	BetHouse  *string
	Status    *string
	SessionID *string
	OrderBy   string
	Asc       *bool
}
