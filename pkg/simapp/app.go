package simapp

import (
	"context"
	"fmt"
	"time"

	sdkerr "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	addresscodec "github.com/cosmos/cosmos-sdk/codec/address"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	moduletestutil "github.com/cosmos/cosmos-sdk/types/module/testutil"
	"github.com/cosmos/cosmos-sdk/x/auth"
	authkeeper "github.com/cosmos/cosmos-sdk/x/auth/keeper"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/cosmos/cosmos-sdk/x/bank"
	bankkeeper "github.com/cosmos/cosmos-sdk/x/bank/keeper"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	ds "github.com/ipfs/go-datastore"

	"github.com/evstack/ev-staking/modules/staking"
	stakingkeeper "github.com/evstack/ev-staking/modules/staking/keeper"
	stakingtypes "github.com/evstack/ev-staking/modules/staking/types"
	reportstore "github.com/evstack/ev-staking/pkg/store"
)

// App runs the staking module on top of the real auth and bank keepers. It
// plays the block-processing harness: BeginBlock, then every tx of the block
// in order, then EndBlock and Commit.
type App struct {
	logger  log.Logger
	chainID string
	cms     storetypes.CommitMultiStore

	AccountKeeper authkeeper.AccountKeeper
	BankKeeper    bankkeeper.BaseKeeper
	StakingKeeper stakingkeeper.Keeper
	staking       staking.AppModule
	msgServer     stakingkeeper.MsgServer
	power         *PowerRecorder
	reports       *reportstore.Store

	checkInvariants bool
	lastHeader      cmtproto.Header
	blockTime       time.Duration
}

// Option configures an App.
type Option func(*appConfig)

type appConfig struct {
	chainID         string
	db              dbm.DB
	reports         ds.Batching
	metrics         *stakingkeeper.Metrics
	checkInvariants bool
	blockTime       time.Duration
}

// WithChainID sets the chain id put in block headers.
func WithChainID(id string) Option {
	return func(c *appConfig) { c.chainID = id }
}

// WithDB sets the database backing the app state. Defaults to an in-memory db.
func WithDB(db dbm.DB) Option {
	return func(c *appConfig) { c.db = db }
}

// WithReportStore sets the datastore block reports are written to.
func WithReportStore(reports ds.Batching) Option {
	return func(c *appConfig) { c.reports = reports }
}

// WithMetrics sets the staking keeper metrics.
func WithMetrics(m *stakingkeeper.Metrics) Option {
	return func(c *appConfig) { c.metrics = m }
}

// WithInvariantChecks makes every block fail when a staking invariant breaks.
func WithInvariantChecks(enabled bool) Option {
	return func(c *appConfig) { c.checkInvariants = enabled }
}

// WithBlockTime sets the header time increment between blocks.
func WithBlockTime(d time.Duration) Option {
	return func(c *appConfig) { c.blockTime = d }
}

// New creates a new App with empty state.
func New(logger log.Logger, opts ...Option) (*App, error) {
	cfg := appConfig{
		chainID:         "staking-sim",
		db:              dbm.NewMemDB(),
		reports:         ds.NewMapDatastore(),
		metrics:         stakingkeeper.NopMetrics(),
		checkInvariants: true,
		blockTime:       time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	keys := storetypes.NewKVStoreKeys(authtypes.StoreKey, banktypes.StoreKey, stakingtypes.StoreKey)
	cms := store.NewCommitMultiStore(cfg.db, logger, metrics.NewNoOpMetrics())
	for _, key := range keys {
		cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("load multistore: %w", err)
	}

	encCfg := moduletestutil.MakeTestEncodingConfig(auth.AppModuleBasic{}, bank.AppModuleBasic{})
	bech32Prefix := sdk.GetConfig().GetBech32AccountAddrPrefix()
	authority := authtypes.NewModuleAddress("gov").String()

	maccPerms := map[string][]string{
		stakingtypes.ModuleName: {authtypes.Minter},
	}
	blocked := make(map[string]bool, len(maccPerms))
	for name := range maccPerms {
		blocked[authtypes.NewModuleAddress(name).String()] = true
	}

	ak := authkeeper.NewAccountKeeper(
		encCfg.Codec,
		runtime.NewKVStoreService(keys[authtypes.StoreKey]),
		authtypes.ProtoBaseAccount,
		maccPerms,
		addresscodec.NewBech32Codec(bech32Prefix),
		bech32Prefix,
		authority,
	)
	bk := bankkeeper.NewBaseKeeper(
		encCfg.Codec,
		runtime.NewKVStoreService(keys[banktypes.StoreKey]),
		ak,
		blocked,
		authority,
		logger,
	)

	power := NewPowerRecorder()
	sk := stakingkeeper.NewKeeper(
		encCfg.Codec,
		runtime.NewKVStoreService(keys[stakingtypes.StoreKey]),
		ak,
		bk,
		stakingkeeper.WithMetrics(cfg.metrics),
		stakingkeeper.WithVotingPowerSink(power),
	)

	app := &App{
		logger:          logger.With("module", "simapp"),
		chainID:         cfg.chainID,
		cms:             cms,
		AccountKeeper:   ak,
		BankKeeper:      bk,
		StakingKeeper:   sk,
		staking:         staking.NewAppModule(sk),
		msgServer:       stakingkeeper.NewMsgServerImpl(sk),
		power:           power,
		reports:         reportstore.NewReportStore(cfg.reports),
		checkInvariants: cfg.checkInvariants,
		blockTime:       cfg.blockTime,
	}
	if err := app.loadLastHeader(); err != nil {
		return nil, err
	}
	return app, nil
}

// loadLastHeader resumes from the last committed block of a non-empty db.
// The staking height always equals the last committed block height, the
// genesis height right after InitChain.
func (a *App) loadLastHeader() error {
	if !a.Initialized() {
		return nil
	}
	ctx := sdk.NewContext(a.cms, cmtproto.Header{ChainID: a.chainID}, false, a.logger)
	height, err := a.StakingKeeper.GetHeight(ctx)
	if err != nil {
		return fmt.Errorf("load last height: %w", err)
	}
	a.lastHeader = cmtproto.Header{ChainID: a.chainID, Height: int64(height)}
	a.logger.Info("resuming from committed state", "height", height, "version", a.cms.LastCommitID().Version)
	return nil
}

// Initialized reports whether genesis was already committed to the db.
func (a *App) Initialized() bool {
	return a.cms.LastCommitID().Version > 0
}

// Reports returns the store holding the outcome of every finalized block.
func (a *App) Reports() *reportstore.Store {
	return a.reports
}

// LastBlockHeight returns the height of the last committed block.
func (a *App) LastBlockHeight() int64 {
	return a.lastHeader.Height
}

// Context returns a context over the committed state.
func (a *App) Context() sdk.Context {
	return sdk.NewContext(a.cms, a.lastHeader, false, a.logger)
}

// InitChain loads the genesis balances and staking state and commits them.
func (a *App) InitChain(genesis Genesis) error {
	if a.Initialized() {
		return fmt.Errorf("chain already initialized at height %d", a.LastBlockHeight())
	}
	if err := genesis.Validate(); err != nil {
		return err
	}
	a.lastHeader = cmtproto.Header{ChainID: a.chainID, Height: int64(genesis.Staking.Height), Time: genesis.Time.UTC()}
	ctx := a.Context()

	bankGenesis := banktypes.NewGenesisState(banktypes.DefaultParams(), genesis.bankBalances(), sdk.Coins{}, nil, nil)
	if err := bankGenesis.Validate(); err != nil {
		return fmt.Errorf("bank genesis: %w", err)
	}
	a.BankKeeper.InitGenesis(ctx, bankGenesis)

	if err := a.StakingKeeper.InitGenesis(ctx, genesis.Staking); err != nil {
		return err
	}

	commit := a.cms.Commit()
	a.logger.Info("initialized chain", "chain_id", a.chainID, "app_hash", fmt.Sprintf("%X", commit.Hash))
	return nil
}

// FinalizeBlock executes one block at the next height. A failing tx is
// recorded in the response and leaves no state change; a failing block hook
// aborts the block without committing.
func (a *App) FinalizeBlock(txs []Tx) (*abci.ResponseFinalizeBlock, error) {
	header := cmtproto.Header{
		ChainID: a.chainID,
		Height:  a.LastBlockHeight() + 1,
		Time:    a.lastHeader.Time.Add(a.blockTime),
	}
	cacheMS := a.cms.CacheMultiStore()
	ctx := sdk.NewContext(cacheMS, header, false, a.logger)
	blockCtx := ctx.WithEventManager(sdk.NewEventManager())
	a.power.Discard()
	defer a.power.Discard()

	if err := a.staking.BeginBlock(blockCtx); err != nil {
		return nil, fmt.Errorf("begin block %d: %w", header.Height, err)
	}

	results := make([]*abci.ExecTxResult, 0, len(txs))
	for _, tx := range txs {
		results = append(results, a.deliverTx(ctx, tx))
	}

	if err := a.staking.EndBlock(blockCtx); err != nil {
		return nil, fmt.Errorf("end block %d: %w", header.Height, err)
	}
	if a.checkInvariants {
		if msg, broken := stakingkeeper.AllInvariants(a.StakingKeeper)(ctx); broken {
			return nil, fmt.Errorf("invariant broken at height %d: %s", header.Height, msg)
		}
	}

	cacheMS.Write()
	commit := a.cms.Commit()
	a.lastHeader = header
	a.power.Commit()

	resp := &abci.ResponseFinalizeBlock{
		Events:    blockCtx.EventManager().ABCIEvents(),
		TxResults: results,
		AppHash:   commit.Hash,
	}
	if err := a.reports.SaveBlockResponse(context.Background(), uint64(header.Height), resp); err != nil {
		return nil, fmt.Errorf("save block report: %w", err)
	}
	a.logger.Debug("finalized block", "height", header.Height, "txs", len(txs), "power_updates", len(a.power.Updates()))
	return resp, nil
}

// VotingPowerUpdates returns what EndBlock reported for the last finalized block.
func (a *App) VotingPowerUpdates() []stakingtypes.VotingPowerUpdate {
	return a.power.Updates()
}

// Querier returns a read-only view over the staking state.
func (a *App) Querier() stakingkeeper.Querier {
	return stakingkeeper.NewQuerier(a.StakingKeeper)
}

// VotingPower returns the last committed voting power of a validator.
func (a *App) VotingPower(validator sdk.ValAddress) (uint64, bool) {
	return a.power.Power(validator)
}

func (a *App) deliverTx(ctx sdk.Context, tx Tx) *abci.ExecTxResult {
	txCtx := ctx.WithEventManager(sdk.NewEventManager())
	cacheCtx, write := txCtx.CacheContext()

	if err := a.routeMsg(stakingtypes.WithSigner(cacheCtx, tx.Signer), tx.Msg); err != nil {
		codespace, code, msg := sdkerr.ABCIInfo(err, false)
		a.logger.Debug("tx failed", "signer", tx.Signer, "error", err)
		return &abci.ExecTxResult{Codespace: codespace, Code: code, Log: msg}
	}
	write()
	return &abci.ExecTxResult{Events: txCtx.EventManager().ABCIEvents()}
}

func (a *App) routeMsg(ctx context.Context, msg any) error {
	switch m := msg.(type) {
	case *stakingtypes.MsgDelegate:
		_, err := a.msgServer.Delegate(ctx, m)
		return err
	case *stakingtypes.MsgUndelegate:
		_, err := a.msgServer.Undelegate(ctx, m)
		return err
	default:
		return sdkerr.Wrapf(sdkerrors.ErrUnknownRequest, "unrecognized message type: %T", msg)
	}
}
