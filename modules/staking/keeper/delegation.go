package keeper

import (
	"context"
	"errors"
	"math/big"

	sdkerr "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"

	"github.com/evstack/ev-staking/modules/staking/types"
)

// Delegate moves amount of the signer's tokens from the ledger into the
// signer's delegation with validator. Both the validator and the delegator
// entries are created on first use.
func (k Keeper) Delegate(ctx context.Context, validator sdk.ValAddress, amount math.Int) error {
	signer, err := types.SignerFromContext(ctx)
	if err != nil {
		return err
	}
	if validator.Empty() {
		return sdkerr.Wrap(sdkerrors.ErrInvalidAddress, "empty validator address")
	}
	if amount.IsNil() || !amount.IsPositive() {
		return sdkerr.Wrapf(types.ErrInvalidAmount, "amount must be positive: %s", amount)
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return err
	}

	stake, err := k.Validators.ValidatorBalance(ctx, validator)
	if err != nil {
		return err
	}
	if newStake, err := stake.SafeAdd(amount); err != nil || !newStake.IsUint64() {
		return sdkerr.Wrapf(types.ErrVotingPowerOverflow, "stake of %s plus %s", validator, amount)
	}

	coins := sdk.NewCoins(sdk.NewCoin(params.BondDenom, amount))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, signer, types.ModuleName, coins); err != nil {
		if errors.Is(err, sdkerrors.ErrInsufficientFunds) {
			return sdkerr.Wrapf(types.ErrInsufficientBalance, "%s cannot delegate %s: %s", signer, coins, err)
		}
		return err
	}
	if err := k.Validators.Add(ctx, validator, signer, amount); err != nil {
		return err
	}

	k.metrics.DelegationsTotal.With("type", types.TypeMsgDelegate).Add(1)
	k.metrics.DelegatedAmount.With("type", types.TypeMsgDelegate).Add(toFloat(amount))

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeDelegate,
			sdk.NewAttribute(types.AttributeKeyValidator, validator.String()),
			sdk.NewAttribute(types.AttributeKeyDelegator, signer.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, coins.String()),
		),
	)
	return nil
}

// Undelegate removes amount from the signer's delegation with validator and
// queues its payout. The unbond matures UnbondingPeriod blocks after the
// current height, or with the last queued entry if that one matures later,
// so the queue stays ordered by maturity.
func (k Keeper) Undelegate(ctx context.Context, validator sdk.ValAddress, amount math.Int) (uint64, error) {
	signer, err := types.SignerFromContext(ctx)
	if err != nil {
		return 0, err
	}
	if validator.Empty() {
		return 0, sdkerr.Wrap(sdkerrors.ErrInvalidAddress, "empty validator address")
	}
	if amount.IsNil() || !amount.IsPositive() {
		return 0, sdkerr.Wrapf(types.ErrInvalidAmount, "amount must be positive: %s", amount)
	}
	params, err := k.GetParams(ctx)
	if err != nil {
		return 0, err
	}
	height, err := k.GetHeight(ctx)
	if err != nil {
		return 0, err
	}

	maturity := height + params.UnbondingPeriod
	back, ok, err := k.UnbondingQueue.Back(ctx)
	if err != nil {
		return 0, err
	}
	if ok && back.MaturityHeight > maturity {
		maturity = back.MaturityHeight
	}

	if err := k.Validators.Take(ctx, validator, signer, amount); err != nil {
		return 0, err
	}
	coin := sdk.NewCoin(params.BondDenom, amount)
	if err := k.UnbondingQueue.PushBack(ctx, types.NewUnbond(coin, signer, validator, maturity)); err != nil {
		return 0, err
	}

	k.metrics.DelegationsTotal.With("type", types.TypeMsgUndelegate).Add(1)
	k.metrics.DelegatedAmount.With("type", types.TypeMsgUndelegate).Add(toFloat(amount))
	if n, err := k.UnbondingQueue.Len(ctx); err == nil {
		k.metrics.UnbondingQueueSize.Set(float64(n))
	}

	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeUndelegate,
			sdk.NewAttribute(types.AttributeKeyValidator, validator.String()),
			sdk.NewAttribute(types.AttributeKeyDelegator, signer.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, coin.String()),
			sdk.NewAttribute(types.AttributeKeyMaturityHeight, math.NewIntFromUint64(maturity).String()),
		),
	)
	return maturity, nil
}

func toFloat(amt math.Int) float64 {
	f, _ := new(big.Float).SetInt(amt.BigInt()).Float64()
	return f
}
