package keeper

import (
	"context"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	sdkerr "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/evstack/ev-staking/modules/staking/types"
)

// ValidatorPool holds the staked balance of every delegator per validator.
// Missing entries read as zero and are created on the first write.
type ValidatorPool struct {
	// Delegations is the delegator pool of each validator.
	Delegations collections.Map[collections.Pair[sdk.ValAddress, sdk.AccAddress], math.Int]
	// Stake is the aggregate of a validator's delegator pool. It always equals
	// the sum of that validator's Delegations entries.
	Stake collections.Map[sdk.ValAddress, math.Int]
	// Remainder is minted reward not yet attributed to any delegator.
	Remainder collections.Item[math.Int]
}

// NewValidatorPool registers the pool collections on the schema.
func NewValidatorPool(sb *collections.SchemaBuilder) ValidatorPool {
	return ValidatorPool{
		Delegations: collections.NewMap(sb, types.DelegationsPrefix, "delegations",
			collections.PairKeyCodec(sdk.ValAddressKey, sdk.AccAddressKey), sdk.IntValue),
		Stake:     collections.NewMap(sb, types.ValidatorStakePrefix, "validator_stake", sdk.ValAddressKey, sdk.IntValue),
		Remainder: collections.NewItem(sb, types.RewardRemainderKey, "reward_remainder", sdk.IntValue),
	}
}

// Balance returns a delegator's stake with a validator.
func (p ValidatorPool) Balance(ctx context.Context, val sdk.ValAddress, del sdk.AccAddress) (math.Int, error) {
	return getOrZero(p.Delegations.Get(ctx, collections.Join(val, del)))
}

// ValidatorBalance returns the aggregate stake of a validator. An unknown
// validator is an empty pool.
func (p ValidatorPool) ValidatorBalance(ctx context.Context, val sdk.ValAddress) (math.Int, error) {
	return getOrZero(p.Stake.Get(ctx, val))
}

// HasValidator reports whether a validator ever received stake.
func (p ValidatorPool) HasValidator(ctx context.Context, val sdk.ValAddress) (bool, error) {
	return p.Stake.Has(ctx, val)
}

// RemainderAmount returns the reward carried over to the next Give.
func (p ValidatorPool) RemainderAmount(ctx context.Context) (math.Int, error) {
	return getOrZero(p.Remainder.Get(ctx))
}

// Add credits amt to a delegator balance, creating the validator and
// delegator entries when absent.
func (p ValidatorPool) Add(ctx context.Context, val sdk.ValAddress, del sdk.AccAddress, amt math.Int) error {
	if amt.IsNil() || amt.IsNegative() {
		return sdkerr.Wrapf(types.ErrInvalidAmount, "cannot add %s", amt)
	}
	bal, err := p.Balance(ctx, val, del)
	if err != nil {
		return err
	}
	stake, err := p.ValidatorBalance(ctx, val)
	if err != nil {
		return err
	}
	newBal, err := bal.SafeAdd(amt)
	if err != nil {
		return fmt.Errorf("delegation of %s to %s: %w", del, val, err)
	}
	newStake, err := stake.SafeAdd(amt)
	if err != nil {
		return fmt.Errorf("stake of %s: %w", val, err)
	}
	if !newStake.IsUint64() {
		return sdkerr.Wrapf(types.ErrVotingPowerOverflow, "stake of %s would be %s", val, newStake)
	}
	if err := p.Delegations.Set(ctx, collections.Join(val, del), newBal); err != nil {
		return err
	}
	return p.Stake.Set(ctx, val, newStake)
}

// Take removes amt from a delegator balance. The balance is left unchanged
// when it is smaller than amt.
func (p ValidatorPool) Take(ctx context.Context, val sdk.ValAddress, del sdk.AccAddress, amt math.Int) error {
	if amt.IsNil() || amt.IsNegative() {
		return sdkerr.Wrapf(types.ErrInvalidAmount, "cannot take %s", amt)
	}
	bal, err := p.Balance(ctx, val, del)
	if err != nil {
		return err
	}
	if bal.LT(amt) {
		return sdkerr.Wrapf(types.ErrInsufficientBalance, "delegation of %s to %s is %s, requested %s", del, val, bal, amt)
	}
	stake, err := p.ValidatorBalance(ctx, val)
	if err != nil {
		return err
	}
	if err := p.Delegations.Set(ctx, collections.Join(val, del), bal.Sub(amt)); err != nil {
		return err
	}
	return p.Stake.Set(ctx, val, stake.Sub(amt))
}

// Give deposits amt into the pool of all validators. The amount plus the
// carried remainder is attributed pro-rata: first across validators by
// aggregate stake, then across each validator's delegators by balance, using
// floor division in ascending key order. What floor division leaves over is
// carried to the next Give, as is the share of a validator whose stake would
// no longer fit a uint64. It returns the amount attributed to delegators.
func (p ValidatorPool) Give(ctx context.Context, amt math.Int) (math.Int, error) {
	if amt.IsNil() || amt.IsNegative() {
		return math.ZeroInt(), sdkerr.Wrapf(types.ErrInvalidAmount, "cannot give %s", amt)
	}
	carried, err := p.RemainderAmount(ctx)
	if err != nil {
		return math.ZeroInt(), err
	}
	total, err := carried.SafeAdd(amt)
	if err != nil {
		return math.ZeroInt(), fmt.Errorf("reward pool: %w", err)
	}

	stakes, err := p.Stake.Iterate(ctx, nil)
	if err != nil {
		return math.ZeroInt(), err
	}
	validators, err := stakes.KeyValues()
	if err != nil {
		return math.ZeroInt(), err
	}
	totalStake := math.ZeroInt()
	for _, v := range validators {
		if totalStake, err = totalStake.SafeAdd(v.Value); err != nil {
			return math.ZeroInt(), fmt.Errorf("total stake: %w", err)
		}
	}

	distributed := math.ZeroInt()
	if totalStake.IsPositive() {
		for _, v := range validators {
			valShare, err := proRata(total, v.Value, totalStake)
			if err != nil {
				return math.ZeroInt(), err
			}
			if valShare.IsZero() {
				continue
			}
			// stake must stay reportable as voting power, the share is carried
			if !v.Value.Add(valShare).IsUint64() {
				continue
			}
			given, err := p.giveToDelegators(ctx, v.Key, v.Value, valShare)
			if err != nil {
				return math.ZeroInt(), err
			}
			distributed = distributed.Add(given)
		}
	}

	if err := p.Remainder.Set(ctx, total.Sub(distributed)); err != nil {
		return math.ZeroInt(), err
	}
	return distributed, nil
}

// giveToDelegators splits share across the delegators of val by balance.
func (p ValidatorPool) giveToDelegators(ctx context.Context, val sdk.ValAddress, stake, share math.Int) (math.Int, error) {
	iter, err := p.Delegations.Iterate(ctx, collections.NewPrefixedPairRange[sdk.ValAddress, sdk.AccAddress](val))
	if err != nil {
		return math.ZeroInt(), err
	}
	delegations, err := iter.KeyValues()
	if err != nil {
		return math.ZeroInt(), err
	}

	given := math.ZeroInt()
	for _, d := range delegations {
		delShare, err := proRata(share, d.Value, stake)
		if err != nil {
			return math.ZeroInt(), err
		}
		if delShare.IsZero() {
			continue
		}
		if err := p.Delegations.Set(ctx, d.Key, d.Value.Add(delShare)); err != nil {
			return math.ZeroInt(), err
		}
		given = given.Add(delShare)
	}
	if given.IsZero() {
		return given, nil
	}
	return given, p.Stake.Set(ctx, val, stake.Add(given))
}

// TotalStake sums the aggregate stake of all validators.
func (p ValidatorPool) TotalStake(ctx context.Context) (math.Int, error) {
	total := math.ZeroInt()
	err := p.Stake.Walk(ctx, nil, func(_ sdk.ValAddress, stake math.Int) (bool, error) {
		total = total.Add(stake)
		return false, nil
	})
	return total, err
}

// proRata returns floor(amount * part / whole).
func proRata(amount, part, whole math.Int) (math.Int, error) {
	product, err := amount.SafeMul(part)
	if err != nil {
		return math.ZeroInt(), fmt.Errorf("pro-rata share: %w", err)
	}
	return product.Quo(whole), nil
}

func getOrZero(v math.Int, err error) (math.Int, error) {
	if errors.Is(err, collections.ErrNotFound) {
		return math.ZeroInt(), nil
	}
	if err != nil {
		return math.ZeroInt(), err
	}
	return v, nil
}
