package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	RoundStatusBetting    = "betting"
	RoundStatusResolving  = "resolving"
	RoundStatusPublishing = "publishing"
	RoundStatusDone       = "done"
	RoundStatusFailed     = "failed"
)

// OracleRound is the local journal entry for one ledger round driven by the oracle.
type OracleRound struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	BetHouse  string `gorm:"type:varchar(42);not null;uniqueIndex:idx_oracle_rounds_house_round"`
	RoundID   uint64 `gorm:"not null;uniqueIndex:idx_oracle_rounds_house_round"`
	SessionID string `gorm:"type:varchar(36);not null;index"`
	Status    string `gorm:"type:varchar(20);not null;index"`

	StartTime  int64
	EndTime    int64
	ResolvedAt *int64

	PriceStart       *decimal.Decimal `gorm:"type:numeric(30,10)"`
	PriceStartSource string           `gorm:"type:varchar(20)"`
	PriceEnd         *decimal.Decimal `gorm:"type:numeric(30,10)"`
	PriceEndSource   string           `gorm:"type:varchar(20)"`

	OutcomeYes  *bool
	RefundMode  bool
	TotalYesNet string `gorm:"type:varchar(80)"`
	TotalNoNet  string `gorm:"type:varchar(80)"`
	FeeAccrued  string `gorm:"type:varchar(80)"`
	BetCount    int
	Reconciled  *bool

	ContentID string         `gorm:"type:varchar(100);index"`
	PointerTx string         `gorm:"type:varchar(66)"`
	Report    datatypes.JSON `gorm:"type:jsonb"`
	Error     *string        `gorm:"type:text"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (OracleRound) TableName() string {
	return "oracle_rounds"
}
