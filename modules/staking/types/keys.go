package types

import "cosmossdk.io/collections"

const (
	// ModuleName defines the module name
	ModuleName = "staking"

	// StoreKey defines the primary module store key
	StoreKey = ModuleName

	// RouterKey defines the module's message routing key
	RouterKey = ModuleName

	// Codespace is the error codespace of the module. It differs from
	// ModuleName as the SDK staking module already registers "staking".
	Codespace = "evstaking"
)

// KVStore key prefixes
var (
	ParamsKey = collections.NewPrefix(0x01)
	HeightKey = collections.NewPrefix(0x02)

	DelegationsPrefix     = collections.NewPrefix(0x11) // (validator, delegator) -> staked amount
	ValidatorStakePrefix  = collections.NewPrefix(0x12) // validator -> sum of its delegations
	LastVotingPowerPrefix = collections.NewPrefix(0x13) // validator -> last reported voting power
	RewardRemainderKey    = collections.NewPrefix(0x14)
	UnbondingQueuePrefix  = collections.NewPrefix(0x21) // slot -> Unbond
	UnbondingQueueHeadKey = collections.NewPrefix(0x22)
	UnbondingQueueTailKey = collections.NewPrefix(0x23)
)
