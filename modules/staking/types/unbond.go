package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Unbond is a pending payout of unbonded stake. It is immutable once queued.
type Unbond struct {
	Coin             sdk.Coin       `json:"coin"`
	DelegatorAddress sdk.AccAddress `json:"delegator_address"`
	ValidatorAddress sdk.ValAddress `json:"validator_address"`
	MaturityHeight   uint64         `json:"maturity_height"`
}

// NewUnbond creates a new Unbond instance
func NewUnbond(coin sdk.Coin, delegator sdk.AccAddress, validator sdk.ValAddress, maturityHeight uint64) Unbond {
	return Unbond{
		Coin:             coin,
		DelegatorAddress: delegator,
		ValidatorAddress: validator,
		MaturityHeight:   maturityHeight,
	}
}

// IsMature reports whether the unbond can be paid out at the given height.
func (u Unbond) IsMature(height uint64) bool {
	return u.MaturityHeight <= height
}

// Validate performs stateless checks.
func (u Unbond) Validate() error {
	if err := u.Coin.Validate(); err != nil {
		return fmt.Errorf("invalid coin: %w", err)
	}
	if u.DelegatorAddress.Empty() {
		return fmt.Errorf("empty delegator address")
	}
	if u.ValidatorAddress.Empty() {
		return fmt.Errorf("empty validator address")
	}
	return nil
}

func (u Unbond) String() string {
	return fmt.Sprintf("%s from %s to %s at %d", u.Coin, u.ValidatorAddress, u.DelegatorAddress, u.MaturityHeight)
}

// VotingPowerUpdate is the voting power reported for a validator at the end of a block.
type VotingPowerUpdate struct {
	Validator sdk.ValAddress `json:"validator"`
	Power     uint64         `json:"power"`
}
