package keeper

import (
	"context"
	"time"

	sdkerr "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/evstack/ev-staking/modules/staking/types"
)

// BeginBlocker records the block height, mints the block reward into the
// module account and gives it to the validator pool. It is the only place
// where token supply grows.
func (k Keeper) BeginBlocker(ctx context.Context) error {
	defer telemetry.ModuleMeasureSince(types.ModuleName, time.Now(), telemetry.MetricKeyBeginBlocker)

	sdkCtx := sdk.UnwrapSDKContext(ctx)
	height := sdkCtx.BlockHeight()
	if height < 0 {
		return sdkerr.Wrapf(types.ErrInvalidAmount, "negative block height %d", height)
	}
	if err := k.Height.Set(ctx, uint64(height)); err != nil {
		return err
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}
	reward := params.RewardCoin()
	if reward.IsZero() {
		return nil
	}
	if err := k.bankKeeper.MintCoins(ctx, types.ModuleName, sdk.NewCoins(reward)); err != nil {
		return sdkerr.Wrapf(err, "mint block reward %s", reward)
	}
	distributed, err := k.GiveToValidators(ctx, reward)
	if err != nil {
		return err
	}

	remainder, err := k.Validators.RemainderAmount(ctx)
	if err != nil {
		return err
	}
	k.metrics.RewardMintedTotal.Add(toFloat(reward.Amount))
	k.metrics.RewardRemainder.Set(toFloat(remainder))

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeMint,
			sdk.NewAttribute(types.AttributeKeyHeight, math.NewInt(height).String()),
			sdk.NewAttribute(types.AttributeKeyAmount, reward.String()),
			sdk.NewAttribute(types.AttributeKeyDistributed, distributed.String()),
			sdk.NewAttribute(types.AttributeKeyRemainder, remainder.String()),
		),
	)
	return nil
}

// GiveToValidators deposits coin into the validator pool, see ValidatorPool.Give.
// The coin must already be held by the module account.
func (k Keeper) GiveToValidators(ctx context.Context, coin sdk.Coin) (math.Int, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return math.ZeroInt(), err
	}
	if coin.Denom != params.BondDenom {
		return math.ZeroInt(), sdkerr.Wrapf(types.ErrInvalidDenom, "got %s, expected %s", coin.Denom, params.BondDenom)
	}
	return k.Validators.Give(ctx, coin.Amount)
}

// EndBlocker pays out every unbond at the front of the queue that matured at
// the current height. After each payout the affected validator's aggregate
// stake is reported as its voting power. Draining stops at the first
// immature entry, or after MaxUnbondsPerBlock payouts when a cap is set.
func (k Keeper) EndBlocker(ctx context.Context) ([]types.VotingPowerUpdate, error) {
	defer telemetry.ModuleMeasureSince(types.ModuleName, time.Now(), telemetry.MetricKeyEndBlocker)

	height, err := k.GetHeight(ctx)
	if err != nil {
		return nil, err
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}

	updates := []types.VotingPowerUpdate{}
	for {
		if params.MaxUnbondsPerBlock != 0 && len(updates) >= int(params.MaxUnbondsPerBlock) {
			if err := k.reportCarryOver(ctx, height); err != nil {
				return nil, err
			}
			break
		}

		front, ok, err := k.UnbondingQueue.Front(ctx)
		if err != nil {
			return nil, err
		}
		if !ok || !front.IsMature(height) {
			break
		}

		update, err := k.payUnbond(ctx)
		if err != nil {
			return nil, err
		}
		updates = append(updates, update)
	}

	if n, err := k.UnbondingQueue.Len(ctx); err == nil {
		k.metrics.UnbondingQueueSize.Set(float64(n))
	}
	return updates, nil
}

// payUnbond pops the queue front, returns its coin to the delegator and
// reports the validator's voting power.
func (k Keeper) payUnbond(ctx context.Context) (types.VotingPowerUpdate, error) {
	unbond, _, err := k.UnbondingQueue.PopFront(ctx)
	if err != nil {
		return types.VotingPowerUpdate{}, err
	}
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, unbond.DelegatorAddress, sdk.NewCoins(unbond.Coin)); err != nil {
		return types.VotingPowerUpdate{}, sdkerr.Wrapf(err, "pay out unbond %s", unbond)
	}

	stake, err := k.Validators.ValidatorBalance(ctx, unbond.ValidatorAddress)
	if err != nil {
		return types.VotingPowerUpdate{}, err
	}
	if !stake.IsUint64() {
		return types.VotingPowerUpdate{}, sdkerr.Wrapf(types.ErrVotingPowerOverflow, "validator %s stake %s", unbond.ValidatorAddress, stake)
	}
	update := types.VotingPowerUpdate{Validator: unbond.ValidatorAddress, Power: stake.Uint64()}
	if err := k.setVotingPower(ctx, update); err != nil {
		return types.VotingPowerUpdate{}, err
	}
	k.metrics.UnbondsPaidTotal.Add(1)

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeUnbondPaid,
			sdk.NewAttribute(types.AttributeKeyValidator, unbond.ValidatorAddress.String()),
			sdk.NewAttribute(types.AttributeKeyDelegator, unbond.DelegatorAddress.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, unbond.Coin.String()),
			sdk.NewAttribute(types.AttributeKeyMaturityHeight, math.NewIntFromUint64(unbond.MaturityHeight).String()),
		),
	)
	return update, nil
}

func (k Keeper) setVotingPower(ctx context.Context, update types.VotingPowerUpdate) error {
	if err := k.LastVotingPower.Set(ctx, update.Validator, update.Power); err != nil {
		return err
	}
	if k.sink != nil {
		if err := k.sink.SetVotingPower(ctx, update.Validator, update.Power); err != nil {
			return sdkerr.Wrapf(err, "report voting power of %s", update.Validator)
		}
	}
	k.metrics.VotingPowerUpdatesTotal.Add(1)

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeVotingPower,
			sdk.NewAttribute(types.AttributeKeyValidator, update.Validator.String()),
			sdk.NewAttribute(types.AttributeKeyPower, math.NewIntFromUint64(update.Power).String()),
		),
	)
	return nil
}

// reportCarryOver logs when the per-block cap left matured unbonds behind.
func (k Keeper) reportCarryOver(ctx context.Context, height uint64) error {
	front, ok, err := k.UnbondingQueue.Front(ctx)
	if err != nil {
		return err
	}
	if ok && front.IsMature(height) {
		k.metrics.UnbondDrainCappedTotal.Add(1)
		k.Logger(ctx).Info("unbond payouts capped, carrying over to next block", "height", height, "next_maturity", front.MaturityHeight)
	}
	return nil
}
