package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	storetypes "cosmossdk.io/core/store"
	"cosmossdk.io/log"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/evstack/ev-staking/modules/staking/types"
)

// Keeper of the staking store
type Keeper struct {
	cdc          codec.BinaryCodec
	storeService storetypes.KVStoreService
	authKeeper   types.AccountKeeper
	bankKeeper   types.BankKeeper
	metrics      *Metrics
	sink         types.VotingPowerSink

	Schema collections.Schema
	Params collections.Item[types.Params]
	// Height is the last block height seen by BeginBlocker.
	Height          collections.Item[uint64]
	Validators      ValidatorPool
	UnbondingQueue  UnbondingQueue
	LastVotingPower collections.Map[sdk.ValAddress, uint64]
}

// Option configures optional keeper collaborators.
type Option func(*Keeper)

// WithMetrics sets the metrics the keeper reports to.
func WithMetrics(m *Metrics) Option {
	return func(k *Keeper) {
		k.metrics = m
	}
}

// WithVotingPowerSink sets the consensus engine sink voting power is pushed to
// at the end of every block.
func WithVotingPowerSink(s types.VotingPowerSink) Option {
	return func(k *Keeper) {
		k.sink = s
	}
}

// NewKeeper creates a new staking Keeper instance.
func NewKeeper(
	cdc codec.BinaryCodec,
	storeService storetypes.KVStoreService,
	ak types.AccountKeeper,
	bk types.BankKeeper,
	opts ...Option,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)
	k := Keeper{
		cdc:             cdc,
		storeService:    storeService,
		authKeeper:      ak,
		bankKeeper:      bk,
		metrics:         NopMetrics(),
		Params:          collections.NewItem(sb, types.ParamsKey, "params", codec.CollValue[types.Params](cdc)),
		Height:          collections.NewItem(sb, types.HeightKey, "height", collections.Uint64Value),
		Validators:      NewValidatorPool(sb),
		UnbondingQueue:  NewUnbondingQueue(sb, cdc),
		LastVotingPower: collections.NewMap(sb, types.LastVotingPowerPrefix, "last_voting_power", sdk.ValAddressKey, collections.Uint64Value),
	}
	for _, opt := range opts {
		opt(&k)
	}

	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}
	k.Schema = schema

	return k
}

// Logger returns a module-specific logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	return sdk.UnwrapSDKContext(ctx).Logger().With("module", "x/"+types.ModuleName)
}

// GetParams returns the module params, falling back to the defaults before genesis.
func (k Keeper) GetParams(ctx context.Context) (types.Params, error) {
	p, err := k.Params.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.DefaultParams(), nil
	}
	return p, err
}

// SetParams set the params
func (k Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	return k.Params.Set(ctx, params)
}

// GetHeight returns the last block height seen by BeginBlocker, zero before the first block.
func (k Keeper) GetHeight(ctx context.Context) (uint64, error) {
	h, err := k.Height.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return 0, nil
	}
	return h, err
}

// ModuleAddress is the account holding all staked, unbonding and undistributed coins.
func (k Keeper) ModuleAddress() sdk.AccAddress {
	return k.authKeeper.GetModuleAddress(types.ModuleName)
}
