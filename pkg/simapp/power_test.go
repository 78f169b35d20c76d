package simapp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stakingtypes "github.com/evstack/ev-staking/modules/staking/types"
	"github.com/evstack/ev-staking/pkg/simapp"
)

func TestPowerRecorderCountsOnlyCommittedBlocks(t *testing.T) {
	r := simapp.NewPowerRecorder()

	require.NoError(t, r.SetVotingPower(t.Context(), valV, 150))
	r.Commit()
	assert.Equal(t, []stakingtypes.VotingPowerUpdate{{Validator: valV, Power: 150}}, r.Updates())

	// aborted block
	require.NoError(t, r.SetVotingPower(t.Context(), valV, 10))
	require.NoError(t, r.SetVotingPower(t.Context(), valW, 5))
	r.Discard()

	got, ok := r.Power(valV)
	require.True(t, ok)
	assert.Equal(t, uint64(150), got)
	_, ok = r.Power(valW)
	assert.False(t, ok)
	assert.Equal(t, []stakingtypes.VotingPowerUpdate{{Validator: valV, Power: 150}}, r.Updates())

	require.NoError(t, r.SetVotingPower(t.Context(), valW, 5))
	r.Commit()
	got, ok = r.Power(valW)
	require.True(t, ok)
	assert.Equal(t, uint64(5), got)
	assert.Equal(t, []stakingtypes.VotingPowerUpdate{{Validator: valW, Power: 5}}, r.Updates())

	r.Commit()
	assert.Empty(t, r.Updates())
}
