package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/evstack/ev-staking/modules/staking/types"
)

func TestQuerier(t *testing.T) {
	f := initFixture(t, types.DefaultParams())
	f.delegate(t, delB, valV, 50)
	f.delegate(t, delA, valV, 100)

	params, err := f.querier.Params(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultParams().BondDenom, params.BondDenom)

	stake, err := f.querier.ValidatorStake(f.ctx, valV)
	require.NoError(t, err)
	assertAmount(t, 150, stake)

	_, err = f.querier.ValidatorStake(f.ctx, valW)
	require.ErrorIs(t, err, types.ErrNotFound)

	_, err = f.querier.ValidatorStake(f.ctx, sdk.ValAddress{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	amt, err := f.querier.Delegation(f.ctx, valV, delA)
	require.NoError(t, err)
	assertAmount(t, 100, amt)
	amt, err = f.querier.Delegation(f.ctx, valW, delA)
	require.NoError(t, err)
	assert.True(t, amt.IsZero())

	dels, err := f.querier.ValidatorDelegations(f.ctx, valV)
	require.NoError(t, err)
	require.Len(t, dels, 2)
	// address order, not insertion order
	assert.Equal(t, delA, dels[0].DelegatorAddress)
	assert.Equal(t, delB, dels[1].DelegatorAddress)

	_, found, err := f.querier.VotingPower(f.ctx, valV)
	require.NoError(t, err)
	assert.False(t, found, "nothing reported before the first payout")

	queue, err := f.querier.UnbondingQueue(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, queue)

	vals, err := f.querier.Validators(f.ctx)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, valV, vals[0].Address)
	assertAmount(t, 150, vals[0].Stake)
	assert.Nil(t, vals[0].Power)
}

func TestQuerierValidators(t *testing.T) {
	f := initFixture(t, noRewardParams())

	vals, err := f.querier.Validators(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, vals)

	f.beginBlock(t, 1)
	f.delegate(t, delA, valW, 40)
	f.delegate(t, delA, valV, 100)
	rsp, err := f.msgServer.Undelegate(f.signedBy(delA), types.NewMsgUndelegate(valV, math.NewInt(30)))
	require.NoError(t, err)
	f.beginBlock(t, int64(rsp.MaturityHeight))
	f.endBlock(t)

	vals, err = f.querier.Validators(f.ctx)
	require.NoError(t, err)
	require.Len(t, vals, 2)
	byAddr := map[string]types.ValidatorInfo{}
	for _, v := range vals {
		byAddr[v.Address.String()] = v
	}

	v := byAddr[valV.String()]
	assertAmount(t, 70, v.Stake)
	require.NotNil(t, v.Power)
	assert.Equal(t, uint64(70), *v.Power)

	w := byAddr[valW.String()]
	assertAmount(t, 40, w.Stake)
	assert.Nil(t, w.Power)
}
