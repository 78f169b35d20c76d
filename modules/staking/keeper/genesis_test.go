package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evstack/ev-staking/modules/staking/types"
)

func genesisFixture() *types.GenesisState {
	gs := types.NewGenesisState(
		types.DefaultParams(),
		[]types.Delegation{
			{DelegatorAddress: delA, ValidatorAddress: valV, Amount: math.NewInt(100)},
			{DelegatorAddress: delB, ValidatorAddress: valV, Amount: math.NewInt(50)},
			{DelegatorAddress: delC, ValidatorAddress: valW, Amount: math.NewInt(25)},
		},
		[]types.Unbond{
			types.NewUnbond(sdk.NewInt64Coin(sdk.DefaultBondDenom, 30), delA, valV, 10),
			types.NewUnbond(sdk.NewInt64Coin(sdk.DefaultBondDenom, 5), delC, valW, 12),
		},
	)
	gs.Height = 7
	gs.RewardRemainder = math.NewInt(3)
	return gs
}

func TestInitExportGenesis(t *testing.T) {
	f := initFixture(t, types.DefaultParams())
	gs := genesisFixture()
	f.bank.fund(f.keeper.ModuleAddress(), sdk.NewInt64Coin(sdk.DefaultBondDenom, 213))

	require.NoError(t, f.keeper.InitGenesis(f.ctx, gs))

	assertAmount(t, 150, f.stake(t, valV))
	assertAmount(t, 25, f.stake(t, valW))
	n, err := f.keeper.UnbondingQueue.Len(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
	f.requireInvariants(t)

	exported, err := f.keeper.ExportGenesis(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, gs.Params.BondDenom, exported.Params.BondDenom)
	assert.Equal(t, uint64(7), exported.Height)
	assertAmount(t, 3, exported.RewardRemainder)
	require.Len(t, exported.Delegations, 3)
	require.Len(t, exported.UnbondingQueue, 2)
	assert.Equal(t, uint64(10), exported.UnbondingQueue[0].MaturityHeight)
	assert.Equal(t, uint64(12), exported.UnbondingQueue[1].MaturityHeight)
	assert.True(t, gs.ModuleBalance().Equal(exported.ModuleBalance()))

	// exported state loads into a fresh store
	g := initFixture(t, types.DefaultParams())
	g.bank.fund(g.keeper.ModuleAddress(), sdk.NewInt64Coin(sdk.DefaultBondDenom, 213))
	require.NoError(t, g.keeper.InitGenesis(g.ctx, exported))
	g.requireInvariants(t)
}

func TestInitGenesisRejects(t *testing.T) {
	specs := map[string]struct {
		mutate func(gs *types.GenesisState)
		funded int64
	}{
		"module balance too low": {
			mutate: func(*types.GenesisState) {},
			funded: 212,
		},
		"module balance too high": {
			mutate: func(*types.GenesisState) {},
			funded: 214,
		},
		"duplicate delegation": {
			mutate: func(gs *types.GenesisState) {
				gs.Delegations = append(gs.Delegations, gs.Delegations[0])
			},
			funded: 313,
		},
		"unordered queue": {
			mutate: func(gs *types.GenesisState) {
				gs.UnbondingQueue[0], gs.UnbondingQueue[1] = gs.UnbondingQueue[1], gs.UnbondingQueue[0]
			},
			funded: 213,
		},
		"foreign unbond denom": {
			mutate: func(gs *types.GenesisState) {
				gs.UnbondingQueue[1].Coin = sdk.NewInt64Coin("other", 5)
			},
			funded: 208,
		},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			f := initFixture(t, types.DefaultParams())
			gs := genesisFixture()
			spec.mutate(gs)
			f.bank.fund(f.keeper.ModuleAddress(), sdk.NewInt64Coin(sdk.DefaultBondDenom, spec.funded))

			err := f.keeper.InitGenesis(f.ctx, gs)
			require.ErrorIs(t, err, types.ErrInvalidGenesis)
		})
	}
}

func TestExportDefaultGenesis(t *testing.T) {
	f := initFixture(t, types.DefaultParams())
	exported, err := f.keeper.ExportGenesis(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, exported.Delegations)
	assert.Empty(t, exported.UnbondingQueue)
	assert.True(t, exported.RewardRemainder.IsZero())
	require.NoError(t, exported.Validate())
}
