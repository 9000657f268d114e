package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/term"

	"github.com/sergiovriv/bc-p2/internal/ledger"
)

// ErrNoTerminal is returned when an address is missing and nobody can be asked for it.
var ErrNoTerminal = errors.New("stdin is not a terminal")

// Prompter asks the operator for a value.
type Prompter interface {
	Prompt(label string) (string, error)
}

// TerminalPrompter reads answers line by line, but only when In is an interactive terminal.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer

	reader *bufio.Reader
}

func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

func (p *TerminalPrompter) Prompt(label string) (string, error) {
	if p == nil || p.In == nil || !term.IsTerminal(int(p.In.Fd())) {
		return "", ErrNoTerminal
	}
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	if p.Out != nil {
		fmt.Fprintf(p.Out, "%s: ", label)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ResolveContracts returns the three contract addresses, prompting for any that are
// not configured. A malformed address is an error.
func ResolveContracts(cfg ContractsConfig, prompter Prompter) (ledger.Contracts, error) {
	var out ledger.Contracts
	fields := []struct {
		name  string
		label string
		value string
		dst   *common.Address
	}{
		{"contracts.bet_house", "BetHouse address", cfg.BetHouse, &out.BetHouse},
		{"contracts.collateral", "Collateral token address", cfg.Collateral, &out.Collateral},
		{"contracts.report_storage", "Report storage address", cfg.ReportStorage, &out.ReportStorage},
	}

	for _, f := range fields {
		raw := strings.TrimSpace(f.value)
		if raw == "" {
			if prompter == nil {
				return ledger.Contracts{}, fmt.Errorf("%s is required", f.name)
			}
			answer, err := prompter.Prompt(f.label)
			if err != nil {
				return ledger.Contracts{}, fmt.Errorf("%s is required: %w", f.name, err)
			}
			raw = strings.TrimSpace(answer)
		}
		addr, err := ParseAddress(raw)
		if err != nil {
			return ledger.Contracts{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = addr
	}
	return out, nil
}

func ParseAddress(raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	addr := common.HexToAddress(raw)
	if addr == (common.Address{}) {
		return common.Address{}, errors.New("zero address")
	}
	return addr, nil
}

// Owner returns the signer for startRound, endRound and setRoundReport.
func (l LedgerConfig) Owner() (ledger.Participant, error) {
	if strings.TrimSpace(l.OwnerKey) == "" {
		return ledger.Participant{}, errors.New("ledger.owner_key is required")
	}
	p, err := ledger.ParticipantFromHex(l.OwnerKey)
	if err != nil {
		return ledger.Participant{}, fmt.Errorf("ledger.owner_key: %w", err)
	}
	return p, nil
}

// Participants returns the first n simulated bettors.
func (l LedgerConfig) Participants(n int) ([]ledger.Participant, error) {
	if len(l.ParticipantKeys) < n {
		return nil, fmt.Errorf("ledger.participant_keys has %d keys, need %d", len(l.ParticipantKeys), n)
	}
	out := make([]ledger.Participant, 0, n)
	seen := make(map[common.Address]struct{}, n)
	for i, raw := range l.ParticipantKeys[:n] {
		p, err := ledger.ParticipantFromHex(raw)
		if err != nil {
			return nil, fmt.Errorf("ledger.participant_keys[%d]: %w", i, err)
		}
		if _, dup := seen[p.Address]; dup {
			return nil, fmt.Errorf("ledger.participant_keys[%d]: duplicate participant %s", i, p.Address.Hex())
		}
		seen[p.Address] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}
