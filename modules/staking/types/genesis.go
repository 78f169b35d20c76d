package types

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Delegation is a delegator's stake with one validator.
type Delegation struct {
	DelegatorAddress sdk.AccAddress `json:"delegator_address"`
	ValidatorAddress sdk.ValAddress `json:"validator_address"`
	Amount           math.Int       `json:"amount"`
}

// GenesisState is the staking module state at genesis.
type GenesisState struct {
	Params          Params       `json:"params"`
	Height          uint64       `json:"height"`
	Delegations     []Delegation `json:"delegations"`
	UnbondingQueue  []Unbond     `json:"unbonding_queue"`
	RewardRemainder math.Int     `json:"reward_remainder"`
}

// NewGenesisState creates a new GenesisState instance
func NewGenesisState(params Params, delegations []Delegation, unbonds []Unbond) *GenesisState {
	return &GenesisState{
		Params:          params,
		Delegations:     delegations,
		UnbondingQueue:  unbonds,
		RewardRemainder: math.ZeroInt(),
	}
}

// DefaultGenesisState returns the default genesis state
func DefaultGenesisState() *GenesisState {
	return NewGenesisState(DefaultParams(), []Delegation{}, []Unbond{})
}

// Validate performs basic genesis state validation
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}

	seen := make(map[string]bool)
	for _, d := range gs.Delegations {
		if d.DelegatorAddress.Empty() || d.ValidatorAddress.Empty() {
			return fmt.Errorf("delegation with empty address")
		}
		if d.Amount.IsNil() || d.Amount.IsNegative() {
			return fmt.Errorf("invalid delegation amount %s of %s to %s", d.Amount, d.DelegatorAddress, d.ValidatorAddress)
		}
		key := string(d.ValidatorAddress) + "/" + string(d.DelegatorAddress)
		if seen[key] {
			return fmt.Errorf("duplicate delegation of %s to %s", d.DelegatorAddress, d.ValidatorAddress)
		}
		seen[key] = true
	}

	var lastMaturity uint64
	for i, u := range gs.UnbondingQueue {
		if err := u.Validate(); err != nil {
			return fmt.Errorf("invalid unbond %d: %w", i, err)
		}
		if u.Coin.Denom != gs.Params.BondDenom {
			return fmt.Errorf("unbond %d has denom %s, expected %s", i, u.Coin.Denom, gs.Params.BondDenom)
		}
		if u.MaturityHeight < lastMaturity {
			return fmt.Errorf("unbond %d matures at %d before previous entry at %d", i, u.MaturityHeight, lastMaturity)
		}
		lastMaturity = u.MaturityHeight
	}

	if !gs.RewardRemainder.IsNil() && gs.RewardRemainder.IsNegative() {
		return fmt.Errorf("negative reward remainder: %s", gs.RewardRemainder)
	}
	return nil
}

// ModuleBalance is the amount the module account must hold for this state:
// all delegations, all queued unbonds and the undistributed reward remainder.
func (gs GenesisState) ModuleBalance() math.Int {
	total := math.ZeroInt()
	for _, d := range gs.Delegations {
		total = total.Add(d.Amount)
	}
	for _, u := range gs.UnbondingQueue {
		total = total.Add(u.Coin.Amount)
	}
	if !gs.RewardRemainder.IsNil() {
		total = total.Add(gs.RewardRemainder)
	}
	return total
}
