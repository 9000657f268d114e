package ledger

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Side is the binary outcome a stake backs.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Outcome is the tri-state resolution of a round as reported by the ledger.
type Outcome int8

const (
	OutcomeUnresolved Outcome = iota
	OutcomeYes
	OutcomeNo
)

func (o Outcome) String() string {
	switch o {
	case OutcomeYes:
		return "yes"
	case OutcomeNo:
		return "no"
	default:
		return "unresolved"
	}
}

// Round mirrors BetHouse.rounds(id). Amounts are 18-decimal fixed point.
type Round struct {
	ID          uint64
	StartTime   int64
	EndTime     int64
	Outcome     Outcome
	RefundMode  bool
	TotalYesNet *big.Int
	TotalNoNet  *big.Int
	FeeAccrued  *big.Int
}

func (r Round) Ended() bool {
	return r.Outcome != OutcomeUnresolved
}

// Participant is an account the oracle can sign for.
type Participant struct {
	Address common.Address
	Key     *ecdsa.PrivateKey
}

func ParticipantFromHex(raw string) (Participant, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if raw == "" {
		return Participant{}, errors.New("empty private key")
	}
	key, err := crypto.HexToECDSA(raw)
	if err != nil {
		return Participant{}, fmt.Errorf("parse private key: %w", err)
	}
	return Participant{Address: crypto.PubkeyToAddress(key.PublicKey), Key: key}, nil
}

// Contracts holds the three deployed contract addresses the oracle talks to.
type Contracts struct {
	BetHouse      common.Address
	Collateral    common.Address
	ReportStorage common.Address
}
