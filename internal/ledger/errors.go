package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrLedgerRejected means the node answered and refused the call (revert, failed receipt, RPC error).
	ErrLedgerRejected = errors.New("ledger rejected")
	// ErrLedgerTransport means the node could not be reached or the wait was interrupted.
	ErrLedgerTransport = errors.New("ledger transport")
)

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrLedgerRejected) || errors.Is(err, ErrLedgerTransport) {
		return err
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) || isRevert(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrLedgerRejected, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrLedgerTransport, err)
}

func isRevert(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert")
}
