package ledger

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// Decimals is the fixed-point scale of collateral amounts.
	Decimals = 18
	// FeeDenominator is the basis-point denominator used by BetHouse.
	FeeDenominator = 10_000
)

// ParseUnits converts a human amount ("10", "0.5") into base units.
func ParseUnits(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %q is negative", s)
	}
	scaled := d.Shift(Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d fractional digits", s, Decimals)
	}
	return scaled.BigInt(), nil
}

// FormatUnits renders base units as a plain decimal string ("9.8").
func FormatUnits(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -Decimals).String()
}

// SplitFee returns fee = floor(gross*bps/10000) and net = gross-fee.
// Fee never exceeds gross, so net is never negative.
func SplitFee(gross *big.Int, bps uint64) (fee, net *big.Int) {
	if gross == nil || gross.Sign() <= 0 {
		return new(big.Int), new(big.Int)
	}
	fee = new(big.Int).Mul(gross, new(big.Int).SetUint64(bps))
	fee.Quo(fee, big.NewInt(FeeDenominator))
	if fee.Cmp(gross) > 0 {
		fee.Set(gross)
	}
	net = new(big.Int).Sub(gross, fee)
	return fee, net
}
