package types

import (
	sdkerr "cosmossdk.io/errors"
)

// x/staking module sentinel errors
var (
	ErrUnauthenticated     = sdkerr.Register(Codespace, 2, "no signer context available")
	ErrUnsigned            = sdkerr.Register(Codespace, 3, "call must be signed")
	ErrInsufficientBalance = sdkerr.Register(Codespace, 4, "insufficient balance")
	ErrNotFound            = sdkerr.Register(Codespace, 5, "not found")
	ErrInvalidAmount       = sdkerr.Register(Codespace, 6, "invalid amount")
	ErrInvalidDenom        = sdkerr.Register(Codespace, 7, "invalid denom")
	ErrQueueOrder          = sdkerr.Register(Codespace, 8, "unbonding queue out of order")
	ErrVotingPowerOverflow = sdkerr.Register(Codespace, 9, "voting power overflows uint64")
	ErrInvalidGenesis      = sdkerr.Register(Codespace, 10, "invalid genesis state")
)
