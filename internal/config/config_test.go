package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const hardhatKey0 = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
const hardhatKey1 = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

func TestLoadDefaultsEnvOnly(t *testing.T) {
	cfg, err := Load("", true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Rounds.Count != 20 || cfg.Rounds.RoundSeconds != 40 || cfg.Rounds.WindowSeconds != 20 {
		t.Fatalf("rounds=%+v", cfg.Rounds)
	}
	if cfg.Rounds.TickInterval != time.Second {
		t.Fatalf("tick=%s", cfg.Rounds.TickInterval)
	}
	if cfg.Betting.StakeAmount != "10" || cfg.Betting.HeartbeatAmount != "1" || cfg.Betting.BatchPerSide != 3 {
		t.Fatalf("betting=%+v", cfg.Betting)
	}
	if cfg.PriceFeed.Timeout != 5*time.Second || cfg.PriceFeed.SeedFromExternal {
		t.Fatalf("price_feed=%+v", cfg.PriceFeed)
	}
}

func TestLoadFileAndLegacyEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oracle.yaml")
	body := `
rounds:
  count: 3
  tick_interval: 250ms
ledger:
  participant_keys:
    - "` + hardhatKey0 + `"
    - "` + hardhatKey1 + `"
contracts:
  collateral: "0x5FbDB2315678afecb367f032d93F642f64180aa3"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BET_HOUSE_ADDRESS", "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Rounds.Count != 3 || cfg.Rounds.TickInterval != 250*time.Millisecond {
		t.Fatalf("rounds=%+v", cfg.Rounds)
	}
	if len(cfg.Ledger.ParticipantKeys) != 2 {
		t.Fatalf("keys=%v", cfg.Ledger.ParticipantKeys)
	}
	if cfg.Contracts.BetHouse != "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512" {
		t.Fatalf("bet_house=%q", cfg.Contracts.BetHouse)
	}
	if cfg.Contracts.Collateral == "" {
		t.Fatalf("collateral not read from file")
	}
}

func TestValidate(t *testing.T) {
	base, err := Load("", true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"window_longer_than_round", func(c *Config) { c.Rounds.WindowSeconds = 41 }, "window_seconds"},
		{"zero_count", func(c *Config) { c.Rounds.Count = 0 }, "rounds.count"},
		{"yes_pool_too_big", func(c *Config) { c.Betting.YesPoolSize = 21 }, "yes_pool_size"},
		{"bad_stake", func(c *Config) { c.Betting.StakeAmount = "ten" }, "stake_amount"},
		{"zero_heartbeat", func(c *Config) { c.Betting.HeartbeatAmount = "0" }, "heartbeat_amount"},
		{"too_few_keys", func(c *Config) { c.Ledger.ParticipantKeys = []string{hardhatKey0} }, "participant_keys"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err=%v, want mention of %q", err, tt.want)
			}
		})
	}
}

type scriptedPrompter struct {
	answers []string
	asked   []string
	err     error
}

func (p *scriptedPrompter) Prompt(label string) (string, error) {
	p.asked = append(p.asked, label)
	if p.err != nil {
		return "", p.err
	}
	if len(p.answers) == 0 {
		return "", nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func TestResolveContracts(t *testing.T) {
	cfg := ContractsConfig{
		BetHouse:   "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512",
		Collateral: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
	}
	p := &scriptedPrompter{answers: []string{" 0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0 "}}
	got, err := ResolveContracts(cfg, p)
	if err != nil {
		t.Fatalf("ResolveContracts: %v", err)
	}
	if len(p.asked) != 1 {
		t.Fatalf("asked=%v", p.asked)
	}
	if got.ReportStorage.Hex() != "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0" {
		t.Fatalf("storage=%s", got.ReportStorage.Hex())
	}
	if got.BetHouse.Hex() != cfg.BetHouse {
		t.Fatalf("bet_house=%s", got.BetHouse.Hex())
	}
}

func TestResolveContractsRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		cfg  ContractsConfig
		p    Prompter
	}{
		{"short_hex", ContractsConfig{BetHouse: "0x1234", Collateral: "0x5FbDB2315678afecb367f032d93F642f64180aa3", ReportStorage: "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"}, nil},
		{"zero_address", ContractsConfig{BetHouse: "0x0000000000000000000000000000000000000000", Collateral: "0x5FbDB2315678afecb367f032d93F642f64180aa3", ReportStorage: "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0"}, nil},
		{"missing_no_prompter", ContractsConfig{}, nil},
		{"missing_no_terminal", ContractsConfig{}, &scriptedPrompter{err: ErrNoTerminal}},
		{"prompted_garbage", ContractsConfig{}, &scriptedPrompter{answers: []string{"bethouse"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ResolveContracts(tt.cfg, tt.p); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestMissingAddressWithoutTerminalWrapsSentinel(t *testing.T) {
	_, err := ResolveContracts(ContractsConfig{}, &scriptedPrompter{err: ErrNoTerminal})
	if !errors.Is(err, ErrNoTerminal) {
		t.Fatalf("err=%v", err)
	}
}

func TestParticipants(t *testing.T) {
	l := LedgerConfig{ParticipantKeys: []string{hardhatKey0, hardhatKey1}}
	ps, err := l.Participants(2)
	if err != nil {
		t.Fatalf("Participants: %v", err)
	}
	if ps[0].Address.Hex() != "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266" {
		t.Fatalf("addr0=%s", ps[0].Address.Hex())
	}
	if ps[1].Address.Hex() != "0x70997970C51812dc3A010C7d01b50e0d17dc79C8" {
		t.Fatalf("addr1=%s", ps[1].Address.Hex())
	}
	if _, err := l.Participants(3); err == nil {
		t.Fatalf("expected too few keys error")
	}
	dup := LedgerConfig{ParticipantKeys: []string{hardhatKey0, hardhatKey0}}
	if _, err := dup.Participants(2); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestSplitKeys(t *testing.T) {
	got := splitKeys([]string{"a, b", "", " c "})
	if strings.Join(got, "|") != "a|b|c" {
		t.Fatalf("got=%v", got)
	}
}
