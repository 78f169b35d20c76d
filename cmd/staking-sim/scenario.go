package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	stakingtypes "github.com/evstack/ev-staking/modules/staking/types"
	"github.com/evstack/ev-staking/pkg/simapp"
)

// Scenario describes a simulation run: the genesis state and the txs to
// include at each height.
type Scenario struct {
	ChainID string         `json:"chain_id"`
	Blocks  int64          `json:"blocks"`
	Genesis simapp.Genesis `json:"genesis"`
	Txs     []ScenarioTx   `json:"txs"`
}

// ScenarioTx is a tx included in the block at Height.
type ScenarioTx struct {
	Height    int64    `json:"height"`
	Signer    string   `json:"signer"`
	Type      string   `json:"type"`
	Validator string   `json:"validator"`
	Amount    math.Int `json:"amount"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	// fields missing from the file keep their defaults
	s := Scenario{Genesis: simapp.DefaultGenesis()}
	if err := json.Unmarshal(bz, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &s, nil
}

// TxsByHeight groups the scenario txs by block height, keeping file order
// within a block.
func (s Scenario) TxsByHeight() (map[int64][]simapp.Tx, error) {
	out := make(map[int64][]simapp.Tx)
	txs := make([]ScenarioTx, len(s.Txs))
	copy(txs, s.Txs)
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Height < txs[j].Height })

	for i, tx := range txs {
		var signer sdk.AccAddress
		if tx.Signer != "" {
			addr, err := sdk.AccAddressFromBech32(tx.Signer)
			if err != nil {
				return nil, fmt.Errorf("tx %d: signer: %w", i, err)
			}
			signer = addr
		}
		var msg any
		switch tx.Type {
		case stakingtypes.TypeMsgDelegate:
			msg = &stakingtypes.MsgDelegate{ValidatorAddress: tx.Validator, Amount: tx.Amount}
		case stakingtypes.TypeMsgUndelegate:
			msg = &stakingtypes.MsgUndelegate{ValidatorAddress: tx.Validator, Amount: tx.Amount}
		default:
			return nil, fmt.Errorf("tx %d: unknown type %q", i, tx.Type)
		}
		out[tx.Height] = append(out[tx.Height], simapp.Tx{Signer: signer, Msg: msg})
	}
	return out, nil
}
