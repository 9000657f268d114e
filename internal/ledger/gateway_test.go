package ledger

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

func packRound(t *testing.T, resolved, outcomeYes, refund bool) []byte {
	t.Helper()
	parsed, err := parseABI(betHouseABI)
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	yes, _ := ParseUnits("19.6")
	no, _ := ParseUnits("9.8")
	fee, _ := ParseUnits("0.6")
	data, err := parsed.Methods["rounds"].Outputs.Pack(uint64(1000), uint64(1040), resolved, outcomeYes, refund, yes, no, fee)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	return data
}

func unpackRound(t *testing.T, data []byte) Round {
	t.Helper()
	parsed, err := parseABI(betHouseABI)
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	out, err := parsed.Unpack("rounds", data)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	r, err := decodeRound(7, out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return r
}

func TestDecodeRound(t *testing.T) {
	r := unpackRound(t, packRound(t, true, true, false))
	if r.ID != 7 || r.StartTime != 1000 || r.EndTime != 1040 {
		t.Fatalf("round=%+v", r)
	}
	if r.Outcome != OutcomeYes || r.RefundMode {
		t.Fatalf("outcome=%s refund=%v", r.Outcome, r.RefundMode)
	}
	if FormatUnits(r.TotalYesNet) != "19.6" || FormatUnits(r.TotalNoNet) != "9.8" || FormatUnits(r.FeeAccrued) != "0.6" {
		t.Fatalf("totals yes=%s no=%s fee=%s", r.TotalYesNet, r.TotalNoNet, r.FeeAccrued)
	}
}

func TestDecodeRound_UnresolvedIsTriState(t *testing.T) {
	r := unpackRound(t, packRound(t, false, false, false))
	if r.Outcome != OutcomeUnresolved || r.Ended() {
		t.Fatalf("outcome=%s ended=%v", r.Outcome, r.Ended())
	}
	r = unpackRound(t, packRound(t, true, false, true))
	if r.Outcome != OutcomeNo || !r.RefundMode {
		t.Fatalf("outcome=%s refund=%v", r.Outcome, r.RefundMode)
	}
}

func TestDecodeRound_SameBytesSameRound(t *testing.T) {
	data := packRound(t, true, false, false)
	a := unpackRound(t, data)
	b := unpackRound(t, data)
	if fmt.Sprintf("%+v", a) != fmt.Sprintf("%+v", b) {
		t.Fatalf("a=%+v b=%+v", a, b)
	}
	if !bytes.Equal(a.TotalYesNet.Bytes(), b.TotalYesNet.Bytes()) {
		t.Fatalf("totals differ")
	}
}

func TestDecodeRound_BadShape(t *testing.T) {
	if _, err := decodeRound(1, []interface{}{uint64(1)}); err == nil {
		t.Fatalf("expected error")
	}
	out := []interface{}{"x", uint64(1), true, true, true, big.NewInt(0), big.NewInt(0), big.NewInt(0)}
	if _, err := decodeRound(1, out); err == nil {
		t.Fatalf("expected error")
	}
}

type fakeRPCError struct{}

func (fakeRPCError) Error() string  { return "nonce too low" }
func (fakeRPCError) ErrorCode() int { return -32000 }

func TestClassify(t *testing.T) {
	if err := classify("op", errors.New("execution reverted: round active")); !errors.Is(err, ErrLedgerRejected) {
		t.Fatalf("err=%v want rejected", err)
	}
	if err := classify("op", fakeRPCError{}); !errors.Is(err, ErrLedgerRejected) {
		t.Fatalf("err=%v want rejected", err)
	}
	if err := classify("op", errors.New("dial tcp 127.0.0.1:8545: connection refused")); !errors.Is(err, ErrLedgerTransport) {
		t.Fatalf("err=%v want transport", err)
	}
	wrapped := classify("outer", classify("inner", errors.New("reverted")))
	if !errors.Is(wrapped, ErrLedgerRejected) || errors.Is(wrapped, ErrLedgerTransport) {
		t.Fatalf("wrapped=%v", wrapped)
	}
	if classify("op", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestParticipantFromHex(t *testing.T) {
	p, err := ParticipantFromHex("0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	want := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	if p.Address != want {
		t.Fatalf("address=%s want %s", p.Address.Hex(), want.Hex())
	}
	if _, err := ParticipantFromHex("  "); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := ParticipantFromHex("zz"); err == nil {
		t.Fatalf("expected error for bad key")
	}
}

func TestNewGateway_RequiresBackendAndChain(t *testing.T) {
	if _, err := NewGateway(nil, big.NewInt(1), Contracts{}, Participant{}); err == nil {
		t.Fatalf("expected error for nil backend")
	}
	client, _ := ethclient.Dial("http://127.0.0.1:1")
	if _, err := NewGateway(client, nil, Contracts{}, Participant{}); err == nil {
		t.Fatalf("expected error for missing chain id")
	}
	if _, err := NewGateway(client, big.NewInt(31337), Contracts{}, Participant{}); err != nil {
		t.Fatalf("read-only gateway: %v", err)
	}
}
