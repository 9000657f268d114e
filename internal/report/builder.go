package report

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/sergiovriv/bc-p2/internal/ledger"
	"github.com/sergiovriv/bc-p2/internal/pricefeed"
)

// Meta is the static context a report is stamped with.
type Meta struct {
	OracleAddress     string
	BetHouseAddress   string
	CollateralAddress string
	StorageAddress    string
	RoundSeconds      int64
	BetWindowSeconds  int64
}

type Input struct {
	Round      ledger.Round
	Stakes     []Stake
	Start      pricefeed.Sample
	End        pricefeed.Sample
	ResolvedAt int64
	Meta       Meta
}

// WinnerSide is YES only when the end price is strictly above the start price.
// An unchanged price resolves to NO.
func WinnerSide(start, end decimal.Decimal) ledger.Side {
	if end.GreaterThan(start) {
		return ledger.SideYes
	}
	return ledger.SideNo
}

// Build assembles the report for a resolved round. It does no I/O.
func Build(in Input) Report {
	winner := WinnerSide(in.Start.Price, in.End.Price)
	outcomeYes := winner == ledger.SideYes

	bets := make([]Bet, 0, len(in.Stakes))
	sumYes, sumNo := new(big.Int), new(big.Int)
	for _, s := range in.Stakes {
		won := s.Side == winner && !in.Round.RefundMode
		bets = append(bets, Bet{
			Address: s.Participant.Hex(),
			Side:    s.Side,
			Gross:   ledger.FormatUnits(s.Gross),
			Fee:     ledger.FormatUnits(s.Fee),
			Net:     ledger.FormatUnits(s.Net),
			TxHash:  s.TxHash.Hex(),
			Winner:  &won,
		})
		if s.Net == nil {
			continue
		}
		if s.Side == ledger.SideYes {
			sumYes.Add(sumYes, s.Net)
		} else {
			sumNo.Add(sumNo, s.Net)
		}
	}

	yesNet := ledger.FormatUnits(in.Round.TotalYesNet)
	noNet := ledger.FormatUnits(in.Round.TotalNoNet)

	return Report{
		RoundID:           in.Round.ID,
		OracleAddress:     in.Meta.OracleAddress,
		BetHouseAddress:   in.Meta.BetHouseAddress,
		CollateralAddress: in.Meta.CollateralAddress,
		StorageAddress:    in.Meta.StorageAddress,
		StartTime:         in.Round.StartTime,
		EndTime:           in.Round.EndTime,
		ResolvedAt:        in.ResolvedAt,
		RoundSeconds:      in.Meta.RoundSeconds,
		BetWindowSeconds:  in.Meta.BetWindowSeconds,
		PriceStart:        priceOf(in.Start),
		PriceEnd:          priceOf(in.End),
		StartPriceUsd:     in.Start.Price,
		EndPriceUsd:       in.End.Price,
		WinnerSide:        winner,
		OutcomeYes:        outcomeYes,
		RefundMode:        in.Round.RefundMode,
		TotalYesNet:       yesNet,
		TotalNoNet:        noNet,
		Totals: Totals{
			TotalYesNet: yesNet,
			TotalNoNet:  noNet,
			FeeAccrued:  ledger.FormatUnits(in.Round.FeeAccrued),
		},
		Reconciled: equalAmount(sumYes, in.Round.TotalYesNet) && equalAmount(sumNo, in.Round.TotalNoNet),
		Round: &RoundSummary{
			OutcomeYes:    outcomeYes,
			RefundMode:    in.Round.RefundMode,
			TotalYesNet:   yesNet,
			TotalNoNet:    noNet,
			StartPriceUsd: in.Start.Price,
			EndPriceUsd:   in.End.Price,
		},
		Bets: bets,
	}
}

func priceOf(s pricefeed.Sample) Price {
	return Price{Value: s.Price, Source: string(s.Source), SampledAt: s.SampledAt.UTC()}
}

func equalAmount(a, b *big.Int) bool {
	if b == nil {
		return a.Sign() == 0
	}
	return a.Cmp(b) == 0
}
