package types

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// ValidatorInfo is the query view of one validator.
type ValidatorInfo struct {
	Address sdk.ValAddress `json:"address"`
	Stake   math.Int       `json:"stake"`
	// Power is the voting power last reported at EndBlocker, nil when none
	// was reported yet.
	Power *uint64 `json:"power,omitempty"`
}
