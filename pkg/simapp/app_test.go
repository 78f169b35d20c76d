package simapp_test

import (
	"testing"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stakingkeeper "github.com/evstack/ev-staking/modules/staking/keeper"
	stakingtypes "github.com/evstack/ev-staking/modules/staking/types"
	"github.com/evstack/ev-staking/pkg/simapp"
	"github.com/evstack/ev-staking/pkg/store"
)

var (
	valV = sdk.ValAddress("validator_v")
	valW = sdk.ValAddress("validator_w")
	delA = sdk.AccAddress("delegator_a")
	delB = sdk.AccAddress("delegator_b")
)

func stake(amt int64) sdk.Coins {
	return sdk.NewCoins(sdk.NewInt64Coin(sdk.DefaultBondDenom, amt))
}

func newApp(t *testing.T, genesis simapp.Genesis) *simapp.App {
	t.Helper()
	app, err := simapp.New(log.NewTestLogger(t))
	require.NoError(t, err)
	require.NoError(t, app.InitChain(genesis))
	return app
}

func balance(t *testing.T, app *simapp.App, addr sdk.AccAddress) int64 {
	t.Helper()
	return app.BankKeeper.GetBalance(app.Context(), addr, sdk.DefaultBondDenom).Amount.Int64()
}

func TestUnbondingScenario(t *testing.T) {
	genesis := simapp.DefaultGenesis(
		simapp.Account{Address: delA, Coins: stake(0)},
		simapp.Account{Address: delB, Coins: stake(100)},
	)
	genesis.Staking.Params.BlockReward = math.ZeroInt()
	genesis.Staking.Height = 8
	genesis.Staking.Delegations = []stakingtypes.Delegation{
		{DelegatorAddress: delA, ValidatorAddress: valV, Amount: math.NewInt(100)},
		{DelegatorAddress: delB, ValidatorAddress: valV, Amount: math.NewInt(50)},
	}
	genesis.Staking.UnbondingQueue = []stakingtypes.Unbond{
		stakingtypes.NewUnbond(sdk.NewInt64Coin(sdk.DefaultBondDenom, 30), delA, valV, 10),
	}
	app := newApp(t, genesis)

	// height 9, front not yet mature
	_, err := app.FinalizeBlock(nil)
	require.NoError(t, err)
	assert.Empty(t, app.VotingPowerUpdates())
	assert.Zero(t, balance(t, app, delA))

	// height 10
	_, err = app.FinalizeBlock(nil)
	require.NoError(t, err)
	assert.Equal(t, []stakingtypes.VotingPowerUpdate{{Validator: valV, Power: 150}}, app.VotingPowerUpdates())
	assert.Equal(t, int64(30), balance(t, app, delA))

	// height 11
	resp, err := app.FinalizeBlock([]simapp.Tx{simapp.DelegateTx(delB, valV, 20)})
	require.NoError(t, err)
	require.Len(t, resp.TxResults, 1)
	assert.Zero(t, resp.TxResults[0].Code)
	assert.Empty(t, app.VotingPowerUpdates())

	vStake, err := app.StakingKeeper.Validators.ValidatorBalance(app.Context(), valV)
	require.NoError(t, err)
	assert.Equal(t, "170", vStake.String())
	assert.Equal(t, int64(80), balance(t, app, delB))
	assert.Equal(t, int64(11), app.LastBlockHeight())

	report, err := app.Reports().GetBlockResponse(t.Context(), 10)
	require.NoError(t, err)
	power, err := store.VotingPower(report)
	require.NoError(t, err)
	assert.Equal(t, []store.PowerReport{{Validator: valV.String(), Power: 150}}, power)

	committed, ok := app.VotingPower(valV)
	require.True(t, ok)
	assert.Equal(t, uint64(150), committed)
}

func TestFailedTxLeavesNoTrace(t *testing.T) {
	app := newApp(t, simapp.DefaultGenesis(simapp.Account{Address: delA, Coins: stake(50)}))

	resp, err := app.FinalizeBlock([]simapp.Tx{
		simapp.DelegateTx(delA, valV, 60),
		{Signer: nil, Msg: stakingtypes.NewMsgDelegate(valV, math.NewInt(1))},
		simapp.UndelegateTx(delA, valV, 1),
		{Signer: delA, Msg: "not a message"},
		simapp.DelegateTx(delA, valV, 50),
	})
	require.NoError(t, err)
	require.Len(t, resp.TxResults, 5)
	assert.Equal(t, stakingtypes.ErrInsufficientBalance.ABCICode(), resp.TxResults[0].Code)
	assert.Equal(t, stakingtypes.Codespace, resp.TxResults[0].Codespace)
	assert.Equal(t, stakingtypes.ErrUnsigned.ABCICode(), resp.TxResults[1].Code)
	assert.Equal(t, stakingtypes.ErrInsufficientBalance.ABCICode(), resp.TxResults[2].Code)
	assert.NotZero(t, resp.TxResults[3].Code)
	assert.Zero(t, resp.TxResults[4].Code)
	assert.Empty(t, resp.TxResults[0].Events)
	assert.NotEmpty(t, resp.TxResults[4].Events)

	assert.Zero(t, balance(t, app, delA))
	got, err := app.StakingKeeper.Validators.Balance(app.Context(), valV, delA)
	require.NoError(t, err)
	assert.Equal(t, "50", got.String())
}

func TestSupplyGrowsOnlyByBlockReward(t *testing.T) {
	app := newApp(t, simapp.DefaultGenesis(
		simapp.Account{Address: delA, Coins: stake(1000)},
		simapp.Account{Address: delB, Coins: stake(1000)},
	))
	reward := stakingtypes.DefaultParams().BlockReward.Int64()
	supply := func() int64 {
		return app.BankKeeper.GetSupply(app.Context(), sdk.DefaultBondDenom).Amount.Int64()
	}
	initial := supply()
	require.Equal(t, int64(2000), initial)

	for i := int64(1); i <= 25; i++ {
		txs := []simapp.Tx{
			simapp.DelegateTx(delA, valV, i*3),
			simapp.DelegateTx(delB, valW, i*2),
		}
		if i%4 == 0 {
			txs = append(txs, simapp.UndelegateTx(delA, valV, i), simapp.UndelegateTx(delB, valV, 1))
		}
		_, err := app.FinalizeBlock(txs)
		require.NoError(t, err)
		assert.Equal(t, initial+reward*i, supply(), "height %d", i)

		msg, broken := stakingkeeper.AllInvariants(app.StakingKeeper)(app.Context())
		require.False(t, broken, msg)
	}

	heights, err := app.Reports().Heights(t.Context())
	require.NoError(t, err)
	assert.Len(t, heights, 25)
}

func TestResumeFromCommittedState(t *testing.T) {
	db := dbm.NewMemDB()
	genesis := simapp.DefaultGenesis(simapp.Account{Address: delA, Coins: stake(100)})
	genesis.Staking.Height = 4

	app, err := simapp.New(log.NewTestLogger(t), simapp.WithDB(db))
	require.NoError(t, err)
	assert.False(t, app.Initialized())
	require.NoError(t, app.InitChain(genesis))
	_, err = app.FinalizeBlock([]simapp.Tx{simapp.DelegateTx(delA, valV, 40)})
	require.NoError(t, err)

	resumed, err := simapp.New(log.NewTestLogger(t), simapp.WithDB(db))
	require.NoError(t, err)
	assert.True(t, resumed.Initialized())
	assert.Equal(t, int64(5), resumed.LastBlockHeight())
	require.Error(t, resumed.InitChain(genesis))

	_, err = resumed.FinalizeBlock(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(6), resumed.LastBlockHeight())
	assert.Equal(t, int64(60), balance(t, resumed, delA))

	height, err := resumed.Querier().Height(resumed.Context())
	require.NoError(t, err)
	assert.Equal(t, uint64(6), height)
	msg, broken := stakingkeeper.AllInvariants(resumed.StakingKeeper)(resumed.Context())
	require.False(t, broken, msg)
}
