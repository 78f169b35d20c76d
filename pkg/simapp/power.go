package simapp

import (
	"context"

	sdk "github.com/cosmos/cosmos-sdk/types"

	stakingtypes "github.com/evstack/ev-staking/modules/staking/types"
)

var _ stakingtypes.VotingPowerSink = &PowerRecorder{}

// PowerRecorder stands in for the consensus engine: it keeps the voting power
// reported during the last committed block and the latest power of every
// validator. Updates of a block only count once the block commits.
type PowerRecorder struct {
	pending []stakingtypes.VotingPowerUpdate
	block   []stakingtypes.VotingPowerUpdate
	latest  map[string]uint64
}

// NewPowerRecorder creates an empty PowerRecorder.
func NewPowerRecorder() *PowerRecorder {
	return &PowerRecorder{latest: make(map[string]uint64)}
}

// SetVotingPower implements stakingtypes.VotingPowerSink.
func (r *PowerRecorder) SetVotingPower(_ context.Context, validator sdk.ValAddress, power uint64) error {
	r.pending = append(r.pending, stakingtypes.VotingPowerUpdate{Validator: validator, Power: power})
	return nil
}

// Discard drops the updates of a block that did not commit.
func (r *PowerRecorder) Discard() {
	r.pending = nil
}

// Commit applies the pending updates.
func (r *PowerRecorder) Commit() {
	for _, u := range r.pending {
		r.latest[string(u.Validator)] = u.Power
	}
	r.block = r.pending
	r.pending = nil
}

// Updates returns the updates reported in the last committed block.
func (r *PowerRecorder) Updates() []stakingtypes.VotingPowerUpdate {
	return r.block
}

// Power returns the last committed power of a validator.
func (r *PowerRecorder) Power(validator sdk.ValAddress) (uint64, bool) {
	p, ok := r.latest[string(validator)]
	return p, ok
}
