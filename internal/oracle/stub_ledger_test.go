package oracle

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"github.com/sergiovriv/bc-p2/internal/auditlog"
	"github.com/sergiovriv/bc-p2/internal/ledger"
	"github.com/sergiovriv/bc-p2/internal/models"
	"github.com/sergiovriv/bc-p2/internal/pricefeed"
)

// stubChain is an in-memory ledger whose clock moves one second per mined
// transfer and per sleep. Stakes do not move the clock.
type stubChain struct {
	mu sync.Mutex

	now          int64
	roundSeconds int64
	feeBps       uint64
	nextID       uint64
	rounds       map[uint64]*ledger.Round
	txCount      uint64

	stakes     []stubStake
	transfers  int
	transferAt []int64
	endCalls   []bool
	pointers   map[uint64]string
	startErrAt int

	stakeErr    error
	transferErr error
	endErr      error
	pointerErr  error
	clockErr    error
}

type stubStake struct {
	roundID uint64
	side    ledger.Side
	from    common.Address
	amount  *big.Int
	at      int64
}

func newStubChain() *stubChain {
	return &stubChain{
		now:          1_000,
		roundSeconds: 40,
		feeBps:       200,
		nextID:       1,
		rounds:       map[uint64]*ledger.Round{},
		pointers:     map[uint64]string{},
	}
}

func (c *stubChain) hash() common.Hash {
	c.txCount++
	return common.BigToHash(new(big.Int).SetUint64(c.txCount))
}

func (c *stubChain) advance(sec int64) {
	c.mu.Lock()
	c.now += sec
	c.mu.Unlock()
}

func (c *stubChain) Now(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clockErr != nil {
		return 0, c.clockErr
	}
	return c.now, nil
}

func (c *stubChain) StartRound(context.Context) (ledger.Round, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErrAt > 0 && int(c.nextID) == c.startErrAt {
		return ledger.Round{}, fmt.Errorf("start round: %w", ledger.ErrLedgerTransport)
	}
	c.now++
	r := &ledger.Round{
		ID:          c.nextID,
		StartTime:   c.now,
		EndTime:     c.now + c.roundSeconds,
		TotalYesNet: new(big.Int),
		TotalNoNet:  new(big.Int),
		FeeAccrued:  new(big.Int),
	}
	c.rounds[r.ID] = r
	c.nextID++
	return *r, nil
}

func (c *stubChain) FeeRateBps(context.Context) (uint64, error) {
	return c.feeBps, nil
}

func (c *stubChain) PlaceStake(_ context.Context, roundID uint64, side ledger.Side, amount *big.Int, p ledger.Participant) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stakeErr != nil {
		return common.Hash{}, c.stakeErr
	}
	r, ok := c.rounds[roundID]
	if !ok {
		return common.Hash{}, fmt.Errorf("unknown round: %w", ledger.ErrLedgerRejected)
	}
	if c.now-r.StartTime > 20 {
		return common.Hash{}, fmt.Errorf("betting closed: %w", ledger.ErrLedgerRejected)
	}
	fee, net := ledger.SplitFee(amount, c.feeBps)
	r.FeeAccrued.Add(r.FeeAccrued, fee)
	if side == ledger.SideYes {
		r.TotalYesNet.Add(r.TotalYesNet, net)
	} else {
		r.TotalNoNet.Add(r.TotalNoNet, net)
	}
	c.stakes = append(c.stakes, stubStake{roundID: roundID, side: side, from: p.Address, amount: new(big.Int).Set(amount), at: c.now})
	return c.hash(), nil
}

func (c *stubChain) Transfer(_ context.Context, from ledger.Participant, to common.Address, _ *big.Int) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if from.Address == to {
		return common.Hash{}, errors.New("self transfer")
	}
	sentAt := c.now
	c.now++
	if c.transferErr != nil {
		return common.Hash{}, c.transferErr
	}
	c.transfers++
	c.transferAt = append(c.transferAt, sentAt)
	return c.hash(), nil
}

func (c *stubChain) EndRound(_ context.Context, roundID uint64, outcomeYes bool) (ledger.Round, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endCalls = append(c.endCalls, outcomeYes)
	if c.endErr != nil {
		return ledger.Round{}, c.endErr
	}
	r := c.rounds[roundID]
	c.now++
	r.Outcome = ledger.OutcomeNo
	if outcomeYes {
		r.Outcome = ledger.OutcomeYes
	}
	r.RefundMode = r.TotalYesNet.Sign() == 0 || r.TotalNoNet.Sign() == 0
	return *r, nil
}

func (c *stubChain) RecordReportPointer(_ context.Context, roundID uint64, cid string) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pointerErr != nil {
		return common.Hash{}, c.pointerErr
	}
	c.pointers[roundID] = cid
	return c.hash(), nil
}

func (c *stubChain) Contracts() ledger.Contracts {
	return ledger.Contracts{
		BetHouse:      common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"),
		Collateral:    common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		ReportStorage: common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"),
	}
}

func (c *stubChain) Owner() common.Address {
	return common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
}

type stubPrices struct {
	prices []string
	calls  int
}

func (p *stubPrices) Sample(context.Context) pricefeed.Sample {
	v := p.prices[p.calls%len(p.prices)]
	p.calls++
	return pricefeed.Sample{
		Price:     decimal.RequireFromString(v),
		Source:    pricefeed.SourceSimulated,
		SampledAt: time.Unix(int64(p.calls), 0).UTC(),
	}
}

type stubStore struct {
	added    map[string][]byte
	dirs     []string
	copies   [][2]string
	addErr   error
	mkdirErr error
	copyErr  error
}

func newStubStore() *stubStore {
	return &stubStore{added: map[string][]byte{}}
}

func (s *stubStore) Add(_ context.Context, name string, data []byte) (string, error) {
	if s.addErr != nil {
		return "", s.addErr
	}
	s.added[name] = append([]byte(nil), data...)
	return "bafy-" + name, nil
}

func (s *stubStore) Mkdir(_ context.Context, path string) error {
	s.dirs = append(s.dirs, path)
	return s.mkdirErr
}

func (s *stubStore) Copy(_ context.Context, src, dst string) error {
	if s.copyErr != nil {
		return s.copyErr
	}
	s.copies = append(s.copies, [2]string{src, dst})
	return nil
}

type stubJournal struct {
	statuses []string
	last     models.OracleRound
	bets     []models.RoundBet
	err      error
}

func (j *stubJournal) UpsertRound(_ context.Context, item *models.OracleRound) error {
	j.statuses = append(j.statuses, item.Status)
	j.last = *item
	return j.err
}

func (j *stubJournal) UpsertRoundBets(_ context.Context, items []models.RoundBet) error {
	j.bets = append(j.bets, items...)
	return j.err
}

type stubAudit struct {
	actions []string
	events  []auditlog.RoundEvent
}

func (a *stubAudit) Emit(_ context.Context, ev auditlog.RoundEvent) {
	a.actions = append(a.actions, string(ev.Kind))
	a.events = append(a.events, ev)
}

func testParticipants(n int) []ledger.Participant {
	out := make([]ledger.Participant, 0, n)
	for i := 1; i <= n; i++ {
		d := new(big.Int).SetInt64(int64(i))
		key, err := crypto.ToECDSA(common.LeftPadBytes(d.Bytes(), 32))
		if err != nil {
			panic(err)
		}
		out = append(out, participantOf(key))
	}
	return out
}

func participantOf(key *ecdsa.PrivateKey) ledger.Participant {
	return ledger.Participant{Address: crypto.PubkeyToAddress(key.PublicKey), Key: key}
}

func tenUnits() *big.Int {
	v, err := ledger.ParseUnits("10")
	if err != nil {
		panic(err)
	}
	return v
}
