package pricefeed

import (
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"
)

type WalkConfig struct {
	Start    decimal.Decimal
	Step     decimal.Decimal
	Floor    decimal.Decimal
	Decimals int32
}

func DefaultWalkConfig() WalkConfig {
	return WalkConfig{
		Start:    decimal.NewFromInt(90000),
		Step:     decimal.NewFromInt(500),
		Floor:    decimal.NewFromInt(1000),
		Decimals: 2,
	}
}

// Walk is a bounded random walk used when the external feed is unavailable.
// Each step moves the last price by (u-0.5)*Step with u uniform in [0,1),
// clamps it at Floor and rounds to Decimals.
type Walk struct {
	mu   sync.Mutex
	cfg  WalkConfig
	last decimal.Decimal
	rng  *rand.Rand
}

func NewWalk(cfg WalkConfig, rng *rand.Rand) *Walk {
	def := DefaultWalkConfig()
	if !cfg.Step.IsPositive() {
		cfg.Step = def.Step
	}
	if !cfg.Floor.IsPositive() {
		cfg.Floor = def.Floor
	}
	if cfg.Decimals < 0 {
		cfg.Decimals = def.Decimals
	}
	if !cfg.Start.IsPositive() {
		cfg.Start = def.Start
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Walk{
		cfg:  cfg,
		last: decimal.Max(cfg.Floor, cfg.Start).Round(cfg.Decimals),
		rng:  rng,
	}
}

func (w *Walk) Next() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	delta := decimal.NewFromFloat(w.rng.Float64() - 0.5).Mul(w.cfg.Step)
	next := decimal.Max(w.cfg.Floor, w.last.Add(delta)).Round(w.cfg.Decimals)
	w.last = next
	return next
}

func (w *Walk) Last() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Seed moves the walk to price so the next simulated sample continues from it.
func (w *Walk) Seed(price decimal.Decimal) {
	if !price.IsPositive() {
		return
	}
	w.mu.Lock()
	w.last = decimal.Max(w.cfg.Floor, price).Round(w.cfg.Decimals)
	w.mu.Unlock()
}

func (w *Walk) Config() WalkConfig {
	return w.cfg
}
