package keeper

import (
	"context"

	sdkerr "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/telemetry"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	"github.com/hashicorp/go-metrics"

	"github.com/evstack/ev-staking/modules/staking/types"
)

// MsgServer is the transaction surface of the staking module. The signer of
// every call is read from the context, see types.WithSigner.
type MsgServer interface {
	Delegate(context.Context, *types.MsgDelegate) (*types.DelegateResponse, error)
	Undelegate(context.Context, *types.MsgUndelegate) (*types.UndelegateResponse, error)
}

type msgServer struct {
	Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper Keeper) MsgServer {
	return &msgServer{Keeper: keeper}
}

var _ MsgServer = msgServer{}

// Delegate handles MsgDelegate
func (k msgServer) Delegate(ctx context.Context, msg *types.MsgDelegate) (*types.DelegateResponse, error) {
	if msg == nil {
		return nil, sdkerr.Wrap(sdkerrors.ErrInvalidRequest, "empty request")
	}
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	valAddr, err := sdk.ValAddressFromBech32(msg.ValidatorAddress)
	if err != nil {
		return nil, sdkerr.Wrapf(sdkerrors.ErrInvalidAddress, "validator: %s", err)
	}

	if err := k.Keeper.Delegate(ctx, valAddr, msg.Amount); err != nil {
		return nil, err
	}

	defer telemetry.IncrCounterWithLabels(
		[]string{"tx", "msg", types.TypeMsgDelegate},
		1,
		[]metrics.Label{telemetry.NewLabel("validator", msg.ValidatorAddress)},
	)

	return &types.DelegateResponse{}, nil
}

// Undelegate handles MsgUndelegate
func (k msgServer) Undelegate(ctx context.Context, msg *types.MsgUndelegate) (*types.UndelegateResponse, error) {
	if msg == nil {
		return nil, sdkerr.Wrap(sdkerrors.ErrInvalidRequest, "empty request")
	}
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	valAddr, err := sdk.ValAddressFromBech32(msg.ValidatorAddress)
	if err != nil {
		return nil, sdkerr.Wrapf(sdkerrors.ErrInvalidAddress, "validator: %s", err)
	}

	maturity, err := k.Keeper.Undelegate(ctx, valAddr, msg.Amount)
	if err != nil {
		return nil, err
	}

	defer telemetry.IncrCounterWithLabels(
		[]string{"tx", "msg", types.TypeMsgUndelegate},
		1,
		[]metrics.Label{telemetry.NewLabel("validator", msg.ValidatorAddress)},
	)

	return &types.UndelegateResponse{MaturityHeight: maturity}, nil
}
