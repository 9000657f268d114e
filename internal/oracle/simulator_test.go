package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/sergiovriv/bc-p2/internal/ledger"
)

func TestSimulatorBatchesAndCursors(t *testing.T) {
	chain := newStubChain()
	round, _ := chain.StartRound(context.Background())
	ps := testParticipants(8)
	sim, err := NewBettingSimulator(chain, ps, 5, tenUnits(), 3, nil)
	if err != nil {
		t.Fatalf("NewBettingSimulator: %v", err)
	}
	if err := sim.Begin(context.Background(), round.ID); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	tests := []struct {
		wantPlaced int
		wantYes    int
		wantNo     int
	}{
		{6, 3, 3},
		{2, 5, 3},
		{0, 5, 3},
	}
	for i, tt := range tests {
		n, err := sim.Tick(context.Background())
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if n != tt.wantPlaced {
			t.Fatalf("tick %d placed=%d want %d", i, n, tt.wantPlaced)
		}
		yes, no := countSides(sim)
		if yes != tt.wantYes || no != tt.wantNo {
			t.Fatalf("tick %d yes=%d no=%d", i, yes, no)
		}
	}

	stakes := sim.Stakes()
	for i, s := range stakes {
		wantSide := ledger.SideYes
		if s.Participant == ps[5].Address || s.Participant == ps[6].Address || s.Participant == ps[7].Address {
			wantSide = ledger.SideNo
		}
		if s.Side != wantSide {
			t.Fatalf("stake %d from %s side=%s", i, s.Participant.Hex(), s.Side)
		}
	}
	if stakes[0].Participant != ps[0].Address || stakes[3].Participant != ps[5].Address {
		t.Fatalf("unexpected order: %s %s", stakes[0].Participant.Hex(), stakes[3].Participant.Hex())
	}

	next, _ := chain.StartRound(context.Background())
	if err := sim.Begin(context.Background(), next.ID); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if len(sim.Stakes()) != 0 {
		t.Fatalf("stakes not reset")
	}
	if n, _ := sim.Tick(context.Background()); n != 6 {
		t.Fatalf("placed=%d after reset", n)
	}
}

func countSides(sim *BettingSimulator) (int, int) {
	yes, no := 0, 0
	for _, s := range sim.Stakes() {
		if s.Side == ledger.SideYes {
			yes++
		} else {
			no++
		}
	}
	return yes, no
}

func TestSimulatorFeeSplit(t *testing.T) {
	chain := newStubChain()
	round, _ := chain.StartRound(context.Background())
	sim, _ := NewBettingSimulator(chain, testParticipants(2), 1, tenUnits(), 1, nil)
	if err := sim.Begin(context.Background(), round.ID); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := sim.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	for _, s := range sim.Stakes() {
		if ledger.FormatUnits(s.Gross) != "10" || ledger.FormatUnits(s.Fee) != "0.2" || ledger.FormatUnits(s.Net) != "9.8" {
			t.Fatalf("gross=%s fee=%s net=%s", s.Gross, s.Fee, s.Net)
		}
		if new(big.Int).Add(s.Fee, s.Net).Cmp(s.Gross) != 0 {
			t.Fatalf("fee+net != gross")
		}
	}
}

func TestSimulatorRejectionStopsTick(t *testing.T) {
	chain := newStubChain()
	round, _ := chain.StartRound(context.Background())
	chain.stakeErr = fmt.Errorf("betYes: %w", ledger.ErrLedgerRejected)
	sim, _ := NewBettingSimulator(chain, testParticipants(4), 2, tenUnits(), 3, nil)
	_ = sim.Begin(context.Background(), round.ID)

	n, err := sim.Tick(context.Background())
	if n != 0 || !errors.Is(err, ledger.ErrLedgerRejected) {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if len(chain.stakes) != 0 {
		t.Fatalf("no-side stakes placed after yes rejection")
	}
}

func TestNewBettingSimulatorValidates(t *testing.T) {
	chain := newStubChain()
	ps := testParticipants(3)
	if _, err := NewBettingSimulator(chain, ps, 4, tenUnits(), 1, nil); err == nil {
		t.Fatalf("expected pool error")
	}
	if _, err := NewBettingSimulator(chain, ps, 1, big.NewInt(0), 1, nil); err == nil {
		t.Fatalf("expected amount error")
	}
	if _, err := NewBettingSimulator(chain, ps, 1, tenUnits(), 0, nil); err == nil {
		t.Fatalf("expected batch error")
	}
	if _, err := NewBettingSimulator(nil, ps, 1, tenUnits(), 1, nil); err == nil {
		t.Fatalf("expected ledger error")
	}
}

func TestHeartbeatPicksDistinctPair(t *testing.T) {
	hb := NewHeartbeat(newStubChain(), testParticipants(2), big.NewInt(1), rand.New(rand.NewPCG(7, 7)), nil)
	for i := 0; i < 500; i++ {
		from, to := hb.pick()
		if from == to {
			t.Fatalf("iteration %d picked %d twice", i, from)
		}
	}
}

func TestHeartbeatBeat(t *testing.T) {
	chain := newStubChain()
	hb := NewHeartbeat(chain, testParticipants(3), big.NewInt(1), nil, nil)
	if !hb.Beat(context.Background()) {
		t.Fatalf("expected beat")
	}
	before := chain.now
	chain.transferErr = errors.New("insufficient balance")
	if hb.Beat(context.Background()) {
		t.Fatalf("expected failed beat")
	}
	if chain.now != before+1 {
		t.Fatalf("clock did not move")
	}

	if NewHeartbeat(chain, testParticipants(1), big.NewInt(1), nil, nil).Beat(context.Background()) {
		t.Fatalf("single participant cannot beat")
	}
	var nilBeat *Heartbeat
	if nilBeat.Beat(context.Background()) {
		t.Fatalf("nil heartbeat beat")
	}
}
