package report

import (
	"errors"

	"github.com/tidwall/gjson"
)

// Summary is what a report viewer shows. Fields are nil when the report does not carry them.
type Summary struct {
	OutcomeYes  *bool   `json:"outcomeYes"`
	TotalYesNet *string `json:"totalYesNet,omitempty"`
	TotalNoNet  *string `json:"totalNoNet,omitempty"`
	StartPrice  *string `json:"startPrice,omitempty"`
	EndPrice    *string `json:"endPrice,omitempty"`
}

// Summarize reads the viewer fields from a stored report, accepting both the
// flat layout and the nested "round" layout used by older reports.
func Summarize(raw []byte) (Summary, error) {
	if !gjson.ValidBytes(raw) {
		return Summary{}, errors.New("report is not valid JSON")
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return Summary{}, errors.New("report is not a JSON object")
	}

	var s Summary
	if r := first(doc, "outcomeYes", "round.outcomeYes"); r.IsBool() {
		v := r.Bool()
		s.OutcomeYes = &v
	}
	s.TotalYesNet = str(first(doc, "round.totalYesNet", "totalYesNet", "totals.totalYesNet"))
	s.TotalNoNet = str(first(doc, "round.totalNoNet", "totalNoNet", "totals.totalNoNet"))
	s.StartPrice = str(first(doc, "btcStartPriceUsd", "startPriceUsd", "round.startPriceUsd", "btcPriceStart"))
	s.EndPrice = str(first(doc, "btcEndPriceUsd", "endPriceUsd", "round.endPriceUsd", "btcPriceEnd"))
	return s, nil
}

func first(doc gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := doc.Get(p); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

func str(r gjson.Result) *string {
	if !r.Exists() {
		return nil
	}
	v := r.String()
	return &v
}
