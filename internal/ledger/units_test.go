package ledger

import (
	"math/big"
	"testing"
)

func TestSplitFee_TenUnitsTwoPercent(t *testing.T) {
	gross, err := ParseUnits("10")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	fee, net := SplitFee(gross, 200)
	if got := FormatUnits(fee); got != "0.2" {
		t.Fatalf("fee=%s want 0.2", got)
	}
	if got := FormatUnits(net); got != "9.8" {
		t.Fatalf("net=%s want 9.8", got)
	}
}

func TestSplitFee_Floors(t *testing.T) {
	tests := []struct {
		gross int64
		bps   uint64
		fee   int64
	}{
		{gross: 0, bps: 200, fee: 0},
		{gross: 1, bps: 200, fee: 0},
		{gross: 49, bps: 200, fee: 0},
		{gross: 50, bps: 200, fee: 1},
		{gross: 9999, bps: 1, fee: 0},
		{gross: 10000, bps: 1, fee: 1},
		{gross: 123456789, bps: 250, fee: 3086419},
		{gross: 100, bps: 0, fee: 0},
		{gross: 100, bps: 10000, fee: 100},
		{gross: 100, bps: 20000, fee: 100},
	}
	for _, tt := range tests {
		fee, net := SplitFee(big.NewInt(tt.gross), tt.bps)
		if fee.Int64() != tt.fee {
			t.Fatalf("SplitFee(%d, %d) fee=%s want %d", tt.gross, tt.bps, fee, tt.fee)
		}
		if net.Sign() < 0 || fee.Sign() < 0 {
			t.Fatalf("SplitFee(%d, %d) negative fee=%s net=%s", tt.gross, tt.bps, fee, net)
		}
		if new(big.Int).Add(fee, net).Int64() != tt.gross {
			t.Fatalf("SplitFee(%d, %d) fee+net=%s", tt.gross, tt.bps, new(big.Int).Add(fee, net))
		}
	}
}

func TestParseUnits(t *testing.T) {
	v, err := ParseUnits("1.5")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	want, _ := new(big.Int).SetString("1500000000000000000", 10)
	if v.Cmp(want) != 0 {
		t.Fatalf("v=%s want %s", v, want)
	}
	if _, err := ParseUnits("-1"); err == nil {
		t.Fatalf("expected error for negative amount")
	}
	if _, err := ParseUnits("abc"); err == nil {
		t.Fatalf("expected error for garbage")
	}
	if _, err := ParseUnits("0.0000000000000000001"); err == nil {
		t.Fatalf("expected error for too many decimals")
	}
}

func TestFormatUnits(t *testing.T) {
	if got := FormatUnits(nil); got != "0" {
		t.Fatalf("got=%s want 0", got)
	}
	v, _ := ParseUnits("20")
	if got := FormatUnits(v); got != "20" {
		t.Fatalf("got=%s want 20", got)
	}
}
