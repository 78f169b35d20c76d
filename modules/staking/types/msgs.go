package types

import (
	sdkerr "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
)

const (
	TypeMsgDelegate   = "delegate"
	TypeMsgUndelegate = "undelegate"
)

// MsgDelegate locks Amount of the signer's tokens under a validator.
// The signer is taken from the call context, see WithSigner.
type MsgDelegate struct {
	ValidatorAddress string   `json:"validator_address"`
	Amount           math.Int `json:"amount"`
}

// MsgUndelegate removes Amount of the signer's stake from a validator and
// schedules its payout after the unbonding period.
type MsgUndelegate struct {
	ValidatorAddress string   `json:"validator_address"`
	Amount           math.Int `json:"amount"`
}

// NewMsgDelegate creates a new MsgDelegate instance
func NewMsgDelegate(validator sdk.ValAddress, amount math.Int) *MsgDelegate {
	return &MsgDelegate{
		ValidatorAddress: validator.String(),
		Amount:           amount,
	}
}

// NewMsgUndelegate creates a new MsgUndelegate instance
func NewMsgUndelegate(validator sdk.ValAddress, amount math.Int) *MsgUndelegate {
	return &MsgUndelegate{
		ValidatorAddress: validator.String(),
		Amount:           amount,
	}
}

// DelegateResponse is returned by a successful delegation.
type DelegateResponse struct{}

// UndelegateResponse carries the height at which the unbond matures.
type UndelegateResponse struct {
	MaturityHeight uint64 `json:"maturity_height"`
}

// ValidateBasic performs stateless checks.
func (m MsgDelegate) ValidateBasic() error {
	return validateStakeChange(m.ValidatorAddress, m.Amount)
}

// ValidateBasic performs stateless checks.
func (m MsgUndelegate) ValidateBasic() error {
	return validateStakeChange(m.ValidatorAddress, m.Amount)
}

func validateStakeChange(validator string, amount math.Int) error {
	if _, err := sdk.ValAddressFromBech32(validator); err != nil {
		return sdkerr.Wrapf(sdkerrors.ErrInvalidAddress, "validator %q: %s", validator, err)
	}
	if amount.IsNil() || !amount.IsPositive() {
		return sdkerr.Wrapf(ErrInvalidAmount, "amount must be positive: %s", amount)
	}
	return nil
}
