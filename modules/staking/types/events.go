package types

// staking module event types
const (
	EventTypeDelegate    = "delegate"
	EventTypeUndelegate  = "undelegate"
	EventTypeMint        = "block_reward"
	EventTypeUnbondPaid  = "unbond_paid"
	EventTypeVotingPower = "voting_power"

	AttributeKeyValidator      = "validator"
	AttributeKeyDelegator      = "delegator"
	AttributeKeyAmount         = "amount"
	AttributeKeyPower          = "power"
	AttributeKeyMaturityHeight = "maturity_height"
	AttributeKeyHeight         = "height"
	AttributeKeyDistributed    = "distributed"
	AttributeKeyRemainder      = "remainder"
)
