package ledger

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Subsets of the deployed contracts' ABIs; only the methods the oracle calls.
const (
	betHouseABI = `[
	{"type":"function","name":"startRound","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"betYes","inputs":[{"name":"roundId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"betNo","inputs":[{"name":"roundId","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"endRound","inputs":[{"name":"roundId","type":"uint256"},{"name":"outcomeYes","type":"bool"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"currentRoundId","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"FEE_BET_BPS","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"rounds","inputs":[{"name":"","type":"uint256"}],"outputs":[
		{"name":"startTime","type":"uint64"},
		{"name":"endTime","type":"uint64"},
		{"name":"resolved","type":"bool"},
		{"name":"outcomeYes","type":"bool"},
		{"name":"refundMode","type":"bool"},
		{"name":"totalYesNet","type":"uint256"},
		{"name":"totalNoNet","type":"uint256"},
		{"name":"feeAccrued","type":"uint256"}
	],"stateMutability":"view"}
]`

	collateralABI = `[
	{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable"},
	{"type":"function","name":"balanceOf","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"}
]`

	reportStorageABI = `[
	{"type":"function","name":"setRoundReport","inputs":[{"name":"roundId","type":"uint256"},{"name":"cid","type":"string"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"roundReports","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"string"}],"stateMutability":"view"}
]`
)

func parseABI(raw string) (abi.ABI, error) {
	return abi.JSON(strings.NewReader(raw))
}
