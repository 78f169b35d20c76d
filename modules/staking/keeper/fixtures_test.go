package keeper_test

import (
	"context"
	"testing"
	"time"

	sdkerr "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	"github.com/cosmos/cosmos-sdk/runtime"
	"github.com/cosmos/cosmos-sdk/testutil/integration"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	moduletestutil "github.com/cosmos/cosmos-sdk/types/module/testutil"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evstack/ev-staking/modules/staking/keeper"
	"github.com/evstack/ev-staking/modules/staking/types"
)

var (
	valV = sdk.ValAddress("validator_v")
	valW = sdk.ValAddress("validator_w")
	delA = sdk.AccAddress("delegator_a")
	delB = sdk.AccAddress("delegator_b")
	delC = sdk.AccAddress("delegator_c")
)

var _ types.AccountKeeper = mockAccountKeeper{}

type mockAccountKeeper struct{}

func (mockAccountKeeper) GetModuleAddress(name string) sdk.AccAddress {
	return authtypes.NewModuleAddress(name)
}

func (mockAccountKeeper) GetModuleAccount(_ context.Context, name string) sdk.ModuleAccountI {
	return authtypes.NewEmptyModuleAccount(name, authtypes.Minter)
}

var _ types.BankKeeper = &mockBankKeeper{}

// mockBankKeeper is an in-memory ledger keyed by raw address bytes.
type mockBankKeeper struct {
	balances map[string]sdk.Coins
	minted   sdk.Coins
	err      error
}

func newMockBankKeeper() *mockBankKeeper {
	return &mockBankKeeper{balances: make(map[string]sdk.Coins)}
}

func (m *mockBankKeeper) fund(addr sdk.AccAddress, coins ...sdk.Coin) {
	m.balances[string(addr)] = m.balances[string(addr)].Add(coins...)
}

func (m *mockBankKeeper) amount(addr sdk.AccAddress) math.Int {
	return m.balances[string(addr)].AmountOf(sdk.DefaultBondDenom)
}

// total sums every ledger balance, including the module account.
func (m *mockBankKeeper) total() math.Int {
	sum := math.ZeroInt()
	for _, c := range m.balances {
		sum = sum.Add(c.AmountOf(sdk.DefaultBondDenom))
	}
	return sum
}

func (m *mockBankKeeper) GetBalance(_ context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	return sdk.NewCoin(denom, m.balances[string(addr)].AmountOf(denom))
}

func (m *mockBankKeeper) send(from, to sdk.AccAddress, amt sdk.Coins) error {
	if m.err != nil {
		return m.err
	}
	bal, hasNeg := m.balances[string(from)].SafeSub(amt...)
	if hasNeg {
		return sdkerr.Wrapf(sdkerrors.ErrInsufficientFunds, "%s is smaller than %s", m.balances[string(from)], amt)
	}
	m.balances[string(from)] = bal
	m.balances[string(to)] = m.balances[string(to)].Add(amt...)
	return nil
}

func (m *mockBankKeeper) SendCoinsFromAccountToModule(_ context.Context, sender sdk.AccAddress, module string, amt sdk.Coins) error {
	return m.send(sender, authtypes.NewModuleAddress(module), amt)
}

func (m *mockBankKeeper) SendCoinsFromModuleToAccount(_ context.Context, module string, recipient sdk.AccAddress, amt sdk.Coins) error {
	return m.send(authtypes.NewModuleAddress(module), recipient, amt)
}

func (m *mockBankKeeper) MintCoins(_ context.Context, module string, amt sdk.Coins) error {
	if m.err != nil {
		return m.err
	}
	m.minted = m.minted.Add(amt...)
	m.fund(authtypes.NewModuleAddress(module), amt...)
	return nil
}

var _ types.VotingPowerSink = &recordingSink{}

type recordingSink struct {
	updates []types.VotingPowerUpdate
}

func (s *recordingSink) SetVotingPower(_ context.Context, val sdk.ValAddress, power uint64) error {
	s.updates = append(s.updates, types.VotingPowerUpdate{Validator: val, Power: power})
	return nil
}

type fixture struct {
	ctx       sdk.Context
	keeper    keeper.Keeper
	bank      *mockBankKeeper
	sink      *recordingSink
	msgServer keeper.MsgServer
	querier   keeper.Querier
}

func initFixture(tb testing.TB, params types.Params) *fixture {
	tb.Helper()

	keys := storetypes.NewKVStoreKeys(types.StoreKey)
	logger := log.NewTestLogger(tb)
	cms := integration.CreateMultiStore(keys, logger)
	ctx := sdk.NewContext(cms, cmtproto.Header{ChainID: "test-chain", Time: time.Now().UTC()}, false, logger)

	bank := newMockBankKeeper()
	sink := &recordingSink{}
	encCfg := moduletestutil.MakeTestEncodingConfig()
	k := keeper.NewKeeper(
		encCfg.Codec,
		runtime.NewKVStoreService(keys[types.StoreKey]),
		mockAccountKeeper{},
		bank,
		keeper.WithVotingPowerSink(sink),
	)
	require.NoError(tb, k.SetParams(ctx, params))

	return &fixture{
		ctx:       ctx,
		keeper:    k,
		bank:      bank,
		sink:      sink,
		msgServer: keeper.NewMsgServerImpl(k),
		querier:   keeper.NewQuerier(k),
	}
}

func noRewardParams() types.Params {
	p := types.DefaultParams()
	p.BlockReward = math.ZeroInt()
	return p
}

func (f *fixture) signedBy(addr sdk.AccAddress) context.Context {
	return types.WithSigner(f.ctx, addr)
}

func (f *fixture) delegate(tb testing.TB, del sdk.AccAddress, val sdk.ValAddress, amt int64) {
	tb.Helper()
	f.bank.fund(del, sdk.NewInt64Coin(sdk.DefaultBondDenom, amt))
	require.NoError(tb, f.keeper.Delegate(f.signedBy(del), val, math.NewInt(amt)))
}

func (f *fixture) beginBlock(tb testing.TB, height int64) {
	tb.Helper()
	f.ctx = f.ctx.WithBlockHeight(height)
	require.NoError(tb, f.keeper.BeginBlocker(f.ctx))
}

func (f *fixture) endBlock(tb testing.TB) []types.VotingPowerUpdate {
	tb.Helper()
	updates, err := f.keeper.EndBlocker(f.ctx)
	require.NoError(tb, err)
	return updates
}

func (f *fixture) stake(tb testing.TB, val sdk.ValAddress) math.Int {
	tb.Helper()
	s, err := f.keeper.Validators.ValidatorBalance(f.ctx, val)
	require.NoError(tb, err)
	return s
}

func (f *fixture) balance(tb testing.TB, val sdk.ValAddress, del sdk.AccAddress) math.Int {
	tb.Helper()
	b, err := f.keeper.Validators.Balance(f.ctx, val, del)
	require.NoError(tb, err)
	return b
}

// supply is the ledger total outside the module plus every staked, queued and
// undistributed amount.
func (f *fixture) supply(tb testing.TB) math.Int {
	tb.Helper()
	moduleHeld := f.bank.amount(f.keeper.ModuleAddress())
	total, err := f.keeper.Validators.TotalStake(f.ctx)
	require.NoError(tb, err)
	unbonds, err := f.keeper.UnbondingQueue.All(f.ctx)
	require.NoError(tb, err)
	for _, u := range unbonds {
		total = total.Add(u.Coin.Amount)
	}
	remainder, err := f.keeper.Validators.RemainderAmount(f.ctx)
	require.NoError(tb, err)
	total = total.Add(remainder)
	require.True(tb, moduleHeld.Equal(total), "module holds %s, liabilities %s", moduleHeld, total)
	return f.bank.total().Sub(moduleHeld).Add(total)
}

func (f *fixture) requireInvariants(tb testing.TB) {
	tb.Helper()
	msg, broken := keeper.AllInvariants(f.keeper)(f.ctx)
	require.False(tb, broken, msg)
}

func assertAmount(tb testing.TB, exp int64, got math.Int, msgAndArgs ...any) {
	tb.Helper()
	assert.Equal(tb, math.NewInt(exp).String(), got.String(), msgAndArgs...)
}

func (f *fixture) requireAggregates(tb testing.TB) {
	tb.Helper()
	msg, broken := keeper.ValidatorAggregateInvariant(f.keeper)(f.ctx)
	require.False(tb, broken, msg)
}
