package simapp

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	stakingtypes "github.com/evstack/ev-staking/modules/staking/types"
)

// Tx is one signed message of a block.
type Tx struct {
	Signer sdk.AccAddress
	Msg    any
}

// DelegateTx builds a delegation signed by signer.
func DelegateTx(signer sdk.AccAddress, validator sdk.ValAddress, amount int64) Tx {
	return Tx{Signer: signer, Msg: stakingtypes.NewMsgDelegate(validator, math.NewInt(amount))}
}

// UndelegateTx builds an undelegation signed by signer.
func UndelegateTx(signer sdk.AccAddress, validator sdk.ValAddress, amount int64) Tx {
	return Tx{Signer: signer, Msg: stakingtypes.NewMsgUndelegate(validator, math.NewInt(amount))}
}
