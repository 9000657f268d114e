package models

import "time"

// RoundBet is one accepted stake placed by the betting simulator.
type RoundBet struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	BetHouse string `gorm:"type:varchar(42);not null;index:idx_round_bets_house_round"`
	RoundID  uint64 `gorm:"not null;index:idx_round_bets_house_round"`
	Address  string `gorm:"type:varchar(42);not null;index"`
	Side     string `gorm:"type:varchar(3);not null"`
	Gross    string `gorm:"type:varchar(80);not null"`
	Fee      string `gorm:"type:varchar(80);not null"`
	Net      string `gorm:"type:varchar(80);not null"`
	TxHash   string `gorm:"type:varchar(66);not null;uniqueIndex"`
	Winner   *bool

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (RoundBet) TableName() string {
	return "round_bets"
}
