package report

import (
	"math/big"
	"testing"

	"github.com/sergiovriv/bc-p2/internal/ledger"
	"github.com/sergiovriv/bc-p2/internal/pricefeed"
)

func TestSummarize_Flat(t *testing.T) {
	s, err := Summarize([]byte(`{"outcomeYes":false,"totalYesNet":"1","totalNoNet":"2","startPriceUsd":"10.5","endPriceUsd":"10.5"}`))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if s.OutcomeYes == nil || *s.OutcomeYes {
		t.Fatalf("outcome=%v", s.OutcomeYes)
	}
	if *s.TotalYesNet != "1" || *s.TotalNoNet != "2" || *s.StartPrice != "10.5" || *s.EndPrice != "10.5" {
		t.Fatalf("summary=%+v", s)
	}
}

func TestSummarize_Nested(t *testing.T) {
	s, err := Summarize([]byte(`{"round":{"outcomeYes":true,"totalYesNet":"3","totalNoNet":"4"},"btcStartPriceUsd":1,"btcEndPriceUsd":2}`))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if s.OutcomeYes == nil || !*s.OutcomeYes {
		t.Fatalf("outcome=%v", s.OutcomeYes)
	}
	if *s.TotalYesNet != "3" || *s.TotalNoNet != "4" || *s.StartPrice != "1" || *s.EndPrice != "2" {
		t.Fatalf("summary=%+v", s)
	}
}

func TestSummarize_Missing(t *testing.T) {
	s, err := Summarize([]byte(`{"roundId":"1"}`))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if s.OutcomeYes != nil || s.TotalYesNet != nil || s.StartPrice != nil {
		t.Fatalf("summary=%+v", s)
	}
	if _, err := Summarize([]byte(`not json`)); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := Summarize([]byte(`[1,2]`)); err == nil {
		t.Fatalf("expected error for array")
	}
}

func TestSummarize_BuiltReportBothShapes(t *testing.T) {
	r := Build(Input{
		Round: ledger.Round{ID: 1, TotalYesNet: new(big.Int), TotalNoNet: new(big.Int)},
		Start: sample("5", pricefeed.SourceExternal),
		End:   sample("6", pricefeed.SourceExternal),
	})
	b, err := Marshal(r)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	s, err := Summarize(b)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if s.OutcomeYes == nil || !*s.OutcomeYes || *s.StartPrice != "5" || *s.EndPrice != "6" {
		t.Fatalf("summary=%+v", s)
	}

	r.Round = nil
	b, _ = Marshal(r)
	s, _ = Summarize(b)
	if s.TotalYesNet == nil || *s.TotalYesNet != "0" {
		t.Fatalf("flat fallback failed: %+v", s)
	}
}
