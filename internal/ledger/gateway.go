package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is what the gateway needs from a node connection. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Dial connects to a JSON-RPC endpoint and resolves the chain id when chainID is zero.
func Dial(ctx context.Context, url string, chainID int64) (*ethclient.Client, *big.Int, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, nil, classify("dial "+url, err)
	}
	if chainID > 0 {
		return client, big.NewInt(chainID), nil
	}
	id, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, classify("read chain id", err)
	}
	return client, id, nil
}

// Gateway is a typed facade over the BetHouse, collateral and report storage contracts.
// Every write waits for its receipt before returning. A gateway built without an
// owner key can only read.
type Gateway struct {
	backend   Backend
	chainID   *big.Int
	owner     Participant
	contracts Contracts

	betHouse   *bind.BoundContract
	collateral *bind.BoundContract
	storage    *bind.BoundContract

	mu      sync.Mutex
	signers map[common.Address]*bind.TransactOpts
	feeBps  *uint64
}

func NewGateway(backend Backend, chainID *big.Int, contracts Contracts, owner Participant) (*Gateway, error) {
	if backend == nil {
		return nil, errors.New("ledger backend is nil")
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, errors.New("chain id is required")
	}
	houseABI, err := parseABI(betHouseABI)
	if err != nil {
		return nil, fmt.Errorf("parse bet house abi: %w", err)
	}
	collABI, err := parseABI(collateralABI)
	if err != nil {
		return nil, fmt.Errorf("parse collateral abi: %w", err)
	}
	storageABI, err := parseABI(reportStorageABI)
	if err != nil {
		return nil, fmt.Errorf("parse report storage abi: %w", err)
	}
	return &Gateway{
		backend:    backend,
		chainID:    chainID,
		owner:      owner,
		contracts:  contracts,
		betHouse:   bind.NewBoundContract(contracts.BetHouse, houseABI, backend, backend, backend),
		collateral: bind.NewBoundContract(contracts.Collateral, collABI, backend, backend, backend),
		storage:    bind.NewBoundContract(contracts.ReportStorage, storageABI, backend, backend, backend),
		signers:    map[common.Address]*bind.TransactOpts{},
	}, nil
}

func (g *Gateway) Contracts() Contracts { return g.contracts }

func (g *Gateway) Owner() common.Address { return g.owner.Address }

// StartRound opens a new round and returns its freshly read state.
func (g *Gateway) StartRound(ctx context.Context) (Round, error) {
	if _, err := g.send(ctx, "start round", g.betHouse, g.owner, "startRound"); err != nil {
		return Round{}, err
	}
	id, err := g.CurrentRoundID(ctx)
	if err != nil {
		return Round{}, err
	}
	return g.RoundState(ctx, id)
}

func (g *Gateway) CurrentRoundID(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := g.betHouse.Call(&bind.CallOpts{Context: ctx}, &out, "currentRoundId"); err != nil {
		return 0, classify("read current round id", err)
	}
	v, err := uintOut(out, 0)
	if err != nil {
		return 0, fmt.Errorf("read current round id: %w", err)
	}
	return v, nil
}

func (g *Gateway) RoundState(ctx context.Context, id uint64) (Round, error) {
	var out []interface{}
	if err := g.betHouse.Call(&bind.CallOpts{Context: ctx}, &out, "rounds", new(big.Int).SetUint64(id)); err != nil {
		return Round{}, classify(fmt.Sprintf("read round %d", id), err)
	}
	r, err := decodeRound(id, out)
	if err != nil {
		return Round{}, fmt.Errorf("read round %d: %w", id, err)
	}
	return r, nil
}

// FeeRateBps reads FEE_BET_BPS once and caches it for the life of the gateway.
func (g *Gateway) FeeRateBps(ctx context.Context) (uint64, error) {
	g.mu.Lock()
	cached := g.feeBps
	g.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}
	var out []interface{}
	if err := g.betHouse.Call(&bind.CallOpts{Context: ctx}, &out, "FEE_BET_BPS"); err != nil {
		return 0, classify("read fee rate", err)
	}
	v, err := uintOut(out, 0)
	if err != nil {
		return 0, fmt.Errorf("read fee rate: %w", err)
	}
	g.mu.Lock()
	g.feeBps = &v
	g.mu.Unlock()
	return v, nil
}

// PlaceStake bets amount on side for the participant. The participant must have
// approved BetHouse to move its collateral beforehand.
func (g *Gateway) PlaceStake(ctx context.Context, roundID uint64, side Side, amount *big.Int, p Participant) (common.Hash, error) {
	method := "betYes"
	if side == SideNo {
		method = "betNo"
	}
	op := fmt.Sprintf("%s round %d from %s", method, roundID, p.Address.Hex())
	receipt, err := g.send(ctx, op, g.betHouse, p, method, new(big.Int).SetUint64(roundID), amount)
	if err != nil {
		return common.Hash{}, err
	}
	return receipt.TxHash, nil
}

// Transfer moves collateral between two participants.
func (g *Gateway) Transfer(ctx context.Context, from Participant, to common.Address, amount *big.Int) (common.Hash, error) {
	op := fmt.Sprintf("transfer %s -> %s", from.Address.Hex(), to.Hex())
	receipt, err := g.send(ctx, op, g.collateral, from, "transfer", to, amount)
	if err != nil {
		return common.Hash{}, err
	}
	return receipt.TxHash, nil
}

// EndRound resolves the round. The contract may put it in refund mode on its own.
func (g *Gateway) EndRound(ctx context.Context, roundID uint64, outcomeYes bool) (Round, error) {
	op := fmt.Sprintf("end round %d", roundID)
	if _, err := g.send(ctx, op, g.betHouse, g.owner, "endRound", new(big.Int).SetUint64(roundID), outcomeYes); err != nil {
		return Round{}, err
	}
	return g.RoundState(ctx, roundID)
}

func (g *Gateway) RecordReportPointer(ctx context.Context, roundID uint64, cid string) (common.Hash, error) {
	op := fmt.Sprintf("set report pointer round %d", roundID)
	receipt, err := g.send(ctx, op, g.storage, g.owner, "setRoundReport", new(big.Int).SetUint64(roundID), cid)
	if err != nil {
		return common.Hash{}, err
	}
	return receipt.TxHash, nil
}

// ReportPointer returns the content id stored for a round, or "" when none was recorded.
func (g *Gateway) ReportPointer(ctx context.Context, roundID uint64) (string, error) {
	var out []interface{}
	if err := g.storage.Call(&bind.CallOpts{Context: ctx}, &out, "roundReports", new(big.Int).SetUint64(roundID)); err != nil {
		return "", classify(fmt.Sprintf("read report pointer %d", roundID), err)
	}
	if len(out) != 1 {
		return "", fmt.Errorf("read report pointer %d: unexpected outputs %d", roundID, len(out))
	}
	s, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("read report pointer %d: unexpected type %T", roundID, out[0])
	}
	return s, nil
}

func (g *Gateway) send(ctx context.Context, op string, contract *bind.BoundContract, signer Participant, method string, args ...interface{}) (*types.Receipt, error) {
	opts, err := g.transactor(ctx, signer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tx, err := contract.Transact(opts, method, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	receipt, err := bind.WaitMined(ctx, g.backend, tx)
	if err != nil {
		return nil, classify(op, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%s: tx %s reverted: %w", op, tx.Hash().Hex(), ErrLedgerRejected)
	}
	return receipt, nil
}

func (g *Gateway) transactor(ctx context.Context, p Participant) (*bind.TransactOpts, error) {
	if p.Key == nil {
		return nil, fmt.Errorf("no key for %s", p.Address.Hex())
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	base, ok := g.signers[p.Address]
	if !ok {
		var err error
		base, err = bind.NewKeyedTransactorWithChainID(p.Key, g.chainID)
		if err != nil {
			return nil, err
		}
		g.signers[p.Address] = base
	}
	opts := *base
	opts.Context = ctx
	return &opts, nil
}

func decodeRound(id uint64, out []interface{}) (Round, error) {
	if len(out) != 8 {
		return Round{}, fmt.Errorf("unexpected outputs %d", len(out))
	}
	start, ok1 := out[0].(uint64)
	end, ok2 := out[1].(uint64)
	resolved, ok3 := out[2].(bool)
	outcomeYes, ok4 := out[3].(bool)
	refund, ok5 := out[4].(bool)
	yesNet, ok6 := out[5].(*big.Int)
	noNet, ok7 := out[6].(*big.Int)
	fee, ok8 := out[7].(*big.Int)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7 && ok8) {
		return Round{}, errors.New("unexpected output types")
	}
	r := Round{
		ID:          id,
		StartTime:   int64(start),
		EndTime:     int64(end),
		Outcome:     OutcomeUnresolved,
		RefundMode:  refund,
		TotalYesNet: new(big.Int).Set(yesNet),
		TotalNoNet:  new(big.Int).Set(noNet),
		FeeAccrued:  new(big.Int).Set(fee),
	}
	if resolved {
		r.Outcome = OutcomeNo
		if outcomeYes {
			r.Outcome = OutcomeYes
		}
	}
	return r, nil
}

func uintOut(out []interface{}, i int) (uint64, error) {
	if len(out) <= i {
		return 0, fmt.Errorf("missing output %d", i)
	}
	v, ok := out[i].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected type %T", out[i])
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("value %s overflows uint64", v)
	}
	return v.Uint64(), nil
}
