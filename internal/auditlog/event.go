package auditlog

import "strconv"

type Kind string

const (
	KindStarted  Kind = "round_started"
	KindResolved Kind = "round_resolved"
	KindDone     Kind = "round_done"
	KindFailed   Kind = "round_failed"
)

// RoundEvent is one step of a round's lifecycle as the oracle reports it.
// Zero fields are left out of the posted entry.
type RoundEvent struct {
	Kind       Kind
	RoundIndex int
	RoundID    uint64
	State      string

	StartTime   int64
	EndTime     int64
	PriceStart  string
	PriceEnd    string
	PriceSource string

	// OutcomeYes is nil until the round is resolved.
	OutcomeYes *bool
	RefundMode bool
	Bets       int

	ContentID string
	PointerTx string
	Err       string
}

func (e RoundEvent) Level() string {
	switch {
	case e.Kind == KindFailed:
		return "error"
	case e.Kind == KindDone && e.RefundMode:
		return "warn"
	default:
		return "info"
	}
}

func (e RoundEvent) details() map[string]any {
	d := map[string]any{
		"round":    e.RoundIndex,
		"round_id": e.RoundID,
	}
	put := func(k, v string) {
		if v != "" {
			d[k] = v
		}
	}
	put("state", e.State)
	put("price_start", e.PriceStart)
	put("price_end", e.PriceEnd)
	put("price_source", e.PriceSource)
	put("cid", e.ContentID)
	put("pointer_tx", e.PointerTx)
	put("error", e.Err)
	if e.StartTime != 0 {
		d["start_time"] = e.StartTime
	}
	if e.EndTime != 0 {
		d["end_time"] = e.EndTime
	}
	if e.OutcomeYes != nil {
		d["outcome_yes"] = *e.OutcomeYes
		d["refund_mode"] = e.RefundMode
	}
	if e.Bets > 0 {
		d["bets"] = e.Bets
	}
	return d
}

// metadata carries the fields the log service indexes on.
func (e RoundEvent) metadata(betHouse string) map[string]any {
	m := map[string]any{"round_id": strconv.FormatUint(e.RoundID, 10)}
	if betHouse != "" {
		m["bet_house"] = betHouse
	}
	if e.ContentID != "" {
		m["cid"] = e.ContentID
	}
	return m
}
