package ledger

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Clock reads time from the latest block header, not the latest finalized one.
// Stakes are accepted against the head block's timestamp, so window decisions
// must read the same header; a finalized header lags the head and would let the
// oracle keep staking after the contract has closed betting.
type Clock struct {
	Headers HeaderReader
}

func (c *Clock) Now(ctx context.Context) (int64, error) {
	if c == nil || c.Headers == nil {
		return 0, errors.New("ledger clock not configured")
	}
	h, err := c.Headers.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, classify("read latest header", err)
	}
	return int64(h.Time), nil
}
