package keeper

import (
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/evstack/ev-staking/modules/staking/types"
)

// RegisterInvariants registers all staking invariants
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "validator-aggregate", ValidatorAggregateInvariant(k))
	ir.RegisterRoute(types.ModuleName, "module-balance", ModuleBalanceInvariant(k))
	ir.RegisterRoute(types.ModuleName, "queue-order", QueueOrderInvariant(k))
}

// AllInvariants runs all invariants of the staking module.
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		for _, inv := range []sdk.Invariant{
			ValidatorAggregateInvariant(k),
			ModuleBalanceInvariant(k),
			QueueOrderInvariant(k),
		} {
			if msg, broken := inv(ctx); broken {
				return msg, broken
			}
		}
		return "", false
	}
}

// ValidatorAggregateInvariant checks that every validator's aggregate stake
// equals the sum of its delegations.
func ValidatorAggregateInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		sums := make(map[string]math.Int)
		err := k.Validators.Delegations.Walk(ctx, nil, func(key collections.Pair[sdk.ValAddress, sdk.AccAddress], amt math.Int) (bool, error) {
			val := string(key.K1())
			if s, ok := sums[val]; ok {
				sums[val] = s.Add(amt)
			} else {
				sums[val] = amt
			}
			return false, nil
		})
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "validator-aggregate", err.Error()), true
		}

		var (
			msg    string
			broken bool
		)
		err = k.Validators.Stake.Walk(ctx, nil, func(val sdk.ValAddress, stake math.Int) (bool, error) {
			sum, ok := sums[string(val)]
			if !ok {
				sum = math.ZeroInt()
			}
			delete(sums, string(val))
			if !sum.Equal(stake) {
				broken = true
				msg += fmt.Sprintf("\tvalidator %s stake %s, sum of delegations %s\n", val, stake, sum)
			}
			return false, nil
		})
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "validator-aggregate", err.Error()), true
		}
		for val, sum := range sums {
			broken = true
			msg += fmt.Sprintf("\tvalidator %s has delegations %s but no stake entry\n", sdk.ValAddress(val), sum)
		}

		return sdk.FormatInvariant(types.ModuleName, "validator-aggregate", msg), broken
	}
}

// ModuleBalanceInvariant checks that the module account holds exactly the
// staked, unbonding and undistributed coins.
func ModuleBalanceInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		expected, err := k.moduleLiabilities(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "module-balance", err.Error()), true
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "module-balance", err.Error()), true
		}
		held := k.bankKeeper.GetBalance(ctx, k.ModuleAddress(), params.BondDenom)
		broken := !held.Amount.Equal(expected)
		return sdk.FormatInvariant(types.ModuleName, "module-balance",
			fmt.Sprintf("\tmodule account holds %s, stake plus unbonds plus remainder is %s%s\n", held, expected, params.BondDenom)), broken
	}
}

// QueueOrderInvariant checks that the unbonding queue is ordered by
// non-decreasing maturity height.
func QueueOrderInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			last   uint64
			msg    string
			broken bool
		)
		err := k.UnbondingQueue.Walk(ctx, func(slot uint64, u types.Unbond) (bool, error) {
			if u.MaturityHeight < last {
				broken = true
				msg += fmt.Sprintf("\tslot %d matures at %d, before previous entry at %d\n", slot, u.MaturityHeight, last)
			}
			last = u.MaturityHeight
			return false, nil
		})
		if err != nil {
			return sdk.FormatInvariant(types.ModuleName, "queue-order", err.Error()), true
		}
		return sdk.FormatInvariant(types.ModuleName, "queue-order", msg), broken
	}
}

// moduleLiabilities sums everything the module account owes: stake, queued
// unbonds and the undistributed remainder.
func (k Keeper) moduleLiabilities(ctx sdk.Context) (math.Int, error) {
	total, err := k.Validators.TotalStake(ctx)
	if err != nil {
		return math.ZeroInt(), err
	}
	err = k.UnbondingQueue.Walk(ctx, func(_ uint64, u types.Unbond) (bool, error) {
		total = total.Add(u.Coin.Amount)
		return false, nil
	})
	if err != nil {
		return math.ZeroInt(), err
	}
	remainder, err := k.Validators.RemainderAmount(ctx)
	if err != nil {
		return math.ZeroInt(), err
	}
	return total.Add(remainder), nil
}
