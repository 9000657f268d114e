package report

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/sergiovriv/bc-p2/internal/ledger"
)

// Stake is an accepted on-ledger bet as recorded by the betting simulator.
type Stake struct {
	Participant common.Address
	Side        ledger.Side
	Gross       *big.Int
	Fee         *big.Int
	Net         *big.Int
	TxHash      common.Hash
}

// Bet is a stake as it appears in the published report. Winner is absent until
// the round is resolved.
type Bet struct {
	Address string      `json:"address"`
	Side    ledger.Side `json:"side"`
	Gross   string      `json:"gross"`
	Fee     string      `json:"fee"`
	Net     string      `json:"net"`
	TxHash  string      `json:"txHash"`
	Winner  *bool       `json:"winner,omitempty"`
}

type Price struct {
	Value     decimal.Decimal `json:"value"`
	Source    string          `json:"source"`
	SampledAt time.Time       `json:"sampledAt"`
}

type Totals struct {
	TotalYesNet string `json:"totalYesNet"`
	TotalNoNet  string `json:"totalNoNet"`
	FeeAccrued  string `json:"feeAccrued"`
}

// RoundSummary repeats the fields report readers look up under "round".
type RoundSummary struct {
	OutcomeYes    bool            `json:"outcomeYes"`
	RefundMode    bool            `json:"refundMode"`
	TotalYesNet   string          `json:"totalYesNet"`
	TotalNoNet    string          `json:"totalNoNet"`
	StartPriceUsd decimal.Decimal `json:"startPriceUsd"`
	EndPriceUsd   decimal.Decimal `json:"endPriceUsd"`
}

// Report is the auditable record of one resolved round. It is written to the
// content store exactly once.
type Report struct {
	RoundID           uint64 `json:"roundId,string"`
	OracleAddress     string `json:"oracleAddress"`
	BetHouseAddress   string `json:"betHouseAddress"`
	CollateralAddress string `json:"collateralAddress"`
	StorageAddress    string `json:"storageAddress"`

	StartTime        int64 `json:"startTime"`
	EndTime          int64 `json:"endTime"`
	ResolvedAt       int64 `json:"resolvedAt"`
	RoundSeconds     int64 `json:"roundSeconds"`
	BetWindowSeconds int64 `json:"betWindowSeconds"`

	PriceStart    Price           `json:"priceStart"`
	PriceEnd      Price           `json:"priceEnd"`
	StartPriceUsd decimal.Decimal `json:"startPriceUsd"`
	EndPriceUsd   decimal.Decimal `json:"endPriceUsd"`

	WinnerSide  ledger.Side `json:"winnerSide"`
	OutcomeYes  bool        `json:"outcomeYes"`
	RefundMode  bool        `json:"refundMode"`
	TotalYesNet string      `json:"totalYesNet"`
	TotalNoNet  string      `json:"totalNoNet"`
	Totals      Totals      `json:"totals"`
	Reconciled  bool        `json:"reconciled"`

	Round *RoundSummary `json:"round,omitempty"`
	Bets  []Bet         `json:"bets"`
}

// Marshal renders the report as indented JSON, the form uploaded to the content store.
func Marshal(r Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func Unmarshal(b []byte) (Report, error) {
	var r Report
	err := json.Unmarshal(b, &r)
	return r, err
}
