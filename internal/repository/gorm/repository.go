package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sergiovriv/bc-p2/internal/models"
	"github.com/sergiovriv/bc-p2/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ repository.RoundJournal = (*Store)(nil)

func (s *Store) UpsertRound(ctx context.Context, item *models.OracleRound) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.BetHouse = strings.ToLower(strings.TrimSpace(item.BetHouse))
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "bet_house"}, {Name: "round_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"session_id",
			"status",
			"start_time",
			"end_time",
			"resolved_at",
			"price_start",
			"price_start_source",
			"price_end",
			"price_end_source",
			"outcome_yes",
			"refund_mode",
			"total_yes_net",
			"total_no_net",
			"fee_accrued",
			"bet_count",
			"reconciled",
			"content_id",
			"pointer_tx",
			"report",
			"error",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) UpsertRoundBets(ctx context.Context, items []models.RoundBet) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].BetHouse = strings.ToLower(strings.TrimSpace(items[i].BetHouse))
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"winner"}),
	}).CreateInBatches(items, 200).Error
}

func (s *Store) GetRound(ctx context.Context, betHouse string, roundID uint64) (*models.OracleRound, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.OracleRound
	err := s.db.WithContext(ctx).
		Where("bet_house = ? AND round_id = ?", strings.ToLower(strings.TrimSpace(betHouse)), roundID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListRounds(ctx context.Context, params repository.ListRoundsParams) ([]models.OracleRound, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyRoundFilters(s.db.WithContext(ctx).Model(&models.OracleRound{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "round_id")
	var items []models.OracleRound
	if err := query.Omit("report").Limit(normalizeLimit(params.Limit, 50)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountRounds(ctx context.Context, params repository.ListRoundsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var n int64
	err := applyRoundFilters(s.db.WithContext(ctx).Model(&models.OracleRound{}), params).Count(&n).Error
	return n, err
}

func (s *Store) ListRoundBets(ctx context.Context, betHouse string, roundID uint64) ([]models.RoundBet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.RoundBet
	err := s.db.WithContext(ctx).
		Where("bet_house = ? AND round_id = ?", strings.ToLower(strings.TrimSpace(betHouse)), roundID).
		Order("id asc").
		Find(&items).Error
	return items, err
}

func applyRoundFilters(query *gorm.DB, params repository.ListRoundsParams) *gorm.DB {
	if params.BetHouse != nil && strings.TrimSpace(*params.BetHouse) != "" {
		query = query.Where("bet_house = ?", strings.ToLower(strings.TrimSpace(*params.BetHouse)))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.SessionID != nil && strings.TrimSpace(*params.SessionID) != "" {
		query = query.Where("session_id = ?", strings.TrimSpace(*params.SessionID))
	}
	return query
}

var orderableColumns = map[string]struct{}{
	"round_id":   {},
	"start_time": {},
	"created_at": {},
	"updated_at": {},
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if _, ok := orderableColumns[column]; !ok {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
