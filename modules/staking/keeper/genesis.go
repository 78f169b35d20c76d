package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/collections"
	sdkerr "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/evstack/ev-staking/modules/staking/types"
)

// InitGenesis loads the staking state. The module account must already hold
// exactly the coins backing the delegations, queued unbonds and remainder.
func (k Keeper) InitGenesis(ctx context.Context, data *types.GenesisState) error {
	if err := data.Validate(); err != nil {
		return sdkerr.Wrap(types.ErrInvalidGenesis, err.Error())
	}
	if err := k.SetParams(ctx, data.Params); err != nil {
		return err
	}
	if err := k.Height.Set(ctx, data.Height); err != nil {
		return err
	}

	// creates the module account if it does not exist yet
	moduleAcc := k.authKeeper.GetModuleAccount(ctx, types.ModuleName)
	if moduleAcc == nil {
		return fmt.Errorf("%s module account has not been set", types.ModuleName)
	}

	for _, d := range data.Delegations {
		if err := k.Validators.Add(ctx, d.ValidatorAddress, d.DelegatorAddress, d.Amount); err != nil {
			return fmt.Errorf("delegation of %s to %s: %w", d.DelegatorAddress, d.ValidatorAddress, err)
		}
	}
	for _, u := range data.UnbondingQueue {
		if err := k.UnbondingQueue.PushBack(ctx, u); err != nil {
			return err
		}
	}
	remainder := data.RewardRemainder
	if remainder.IsNil() {
		remainder = math.ZeroInt()
	}
	if err := k.Validators.Remainder.Set(ctx, remainder); err != nil {
		return err
	}

	expected := data.ModuleBalance()
	held := k.bankKeeper.GetBalance(ctx, moduleAcc.GetAddress(), data.Params.BondDenom)
	if !held.Amount.Equal(expected) {
		return sdkerr.Wrapf(types.ErrInvalidGenesis, "module account holds %s, staking state requires %s%s", held, expected, data.Params.BondDenom)
	}

	k.Logger(ctx).Info("initialized staking genesis",
		"delegations", len(data.Delegations),
		"unbonds", len(data.UnbondingQueue),
		"module_balance", held.String(),
	)
	return nil
}

// ExportGenesis returns the current staking state.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}
	height, err := k.GetHeight(ctx)
	if err != nil {
		return nil, err
	}

	delegations := []types.Delegation{}
	err = k.Validators.Delegations.Walk(ctx, nil, func(key collections.Pair[sdk.ValAddress, sdk.AccAddress], amt math.Int) (bool, error) {
		delegations = append(delegations, types.Delegation{
			ValidatorAddress: key.K1(),
			DelegatorAddress: key.K2(),
			Amount:           amt,
		})
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	unbonds, err := k.UnbondingQueue.All(ctx)
	if err != nil {
		return nil, err
	}
	if unbonds == nil {
		unbonds = []types.Unbond{}
	}
	remainder, err := k.Validators.RemainderAmount(ctx)
	if err != nil {
		return nil, err
	}

	return &types.GenesisState{
		Params:          params,
		Height:          height,
		Delegations:     delegations,
		UnbondingQueue:  unbonds,
		RewardRemainder: remainder,
	}, nil
}
