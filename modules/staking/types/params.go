package types

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Default parameter values
var (
	DefaultBondDenom          = sdk.DefaultBondDenom
	DefaultBlockReward        = math.NewInt(10)
	DefaultUnbondingPeriod    = uint64(10)
	DefaultMaxUnbondsPerBlock = uint32(0) // unlimited
)

// Params are fixed at genesis.
type Params struct {
	// BondDenom is the denomination of the staked token.
	BondDenom string `json:"bond_denom"`
	// BlockReward is minted at the beginning of every block.
	BlockReward math.Int `json:"block_reward"`
	// UnbondingPeriod is the number of blocks an unbond waits before payout.
	UnbondingPeriod uint64 `json:"unbonding_period"`
	// MaxUnbondsPerBlock caps the matured unbonds paid out in one block,
	// the rest carry over to the next block. Zero disables the cap.
	MaxUnbondsPerBlock uint32 `json:"max_unbonds_per_block"`
}

// NewParams creates a new Params instance
func NewParams(bondDenom string, blockReward math.Int, unbondingPeriod uint64, maxUnbondsPerBlock uint32) Params {
	return Params{
		BondDenom:          bondDenom,
		BlockReward:        blockReward,
		UnbondingPeriod:    unbondingPeriod,
		MaxUnbondsPerBlock: maxUnbondsPerBlock,
	}
}

// DefaultParams returns default parameters
func DefaultParams() Params {
	return NewParams(
		DefaultBondDenom,
		DefaultBlockReward,
		DefaultUnbondingPeriod,
		DefaultMaxUnbondsPerBlock,
	)
}

// Validate validates the parameter set
func (p Params) Validate() error {
	if err := sdk.ValidateDenom(p.BondDenom); err != nil {
		return fmt.Errorf("invalid bond denom: %w", err)
	}
	if p.BlockReward.IsNil() || p.BlockReward.IsNegative() {
		return fmt.Errorf("block reward must be non-negative: %s", p.BlockReward)
	}
	if p.UnbondingPeriod == 0 {
		return fmt.Errorf("unbonding period must be positive: %d", p.UnbondingPeriod)
	}
	return nil
}

// RewardCoin returns the coin minted at the beginning of every block.
func (p Params) RewardCoin() sdk.Coin {
	return sdk.NewCoin(p.BondDenom, p.BlockReward)
}
