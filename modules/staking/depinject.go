package staking

import (
	"cosmossdk.io/core/appmodule"
	"cosmossdk.io/core/store"
	"cosmossdk.io/depinject"
	"github.com/cosmos/cosmos-sdk/codec"

	"github.com/evstack/ev-staking/modules/staking/keeper"
	modulev1 "github.com/evstack/ev-staking/modules/staking/module/v1"
	"github.com/evstack/ev-staking/modules/staking/types"
)

// IsOnePerModuleType implements the depinject.OnePerModuleType interface.
func (am AppModule) IsOnePerModuleType() {}

func init() {
	appmodule.Register(
		&modulev1.Module{},
		appmodule.Provide(ProvideModule),
	)
}

type ModuleInputs struct {
	depinject.In

	Config        *modulev1.Module
	Cdc           codec.Codec
	StoreService  store.KVStoreService
	AccountKeeper types.AccountKeeper
	BankKeeper    types.BankKeeper

	// optional, consensus engine receiving voting power updates
	VotingPowerSink types.VotingPowerSink `optional:"true"`
	Metrics         *keeper.Metrics       `optional:"true"`
}

// Dependency Injection Outputs
type ModuleOutputs struct {
	depinject.Out

	StakingKeeper keeper.Keeper
	Module        appmodule.AppModule
}

func ProvideModule(in ModuleInputs) ModuleOutputs {
	var opts []keeper.Option
	if in.VotingPowerSink != nil {
		opts = append(opts, keeper.WithVotingPowerSink(in.VotingPowerSink))
	}
	switch {
	case in.Metrics != nil:
		opts = append(opts, keeper.WithMetrics(in.Metrics))
	case in.Config != nil && in.Config.MetricsNamespace != "":
		opts = append(opts, keeper.WithMetrics(keeper.PrometheusMetrics(in.Config.MetricsNamespace)))
	}

	k := keeper.NewKeeper(
		in.Cdc,
		in.StoreService,
		in.AccountKeeper,
		in.BankKeeper,
		opts...,
	)
	m := NewAppModule(k)

	return ModuleOutputs{StakingKeeper: k, Module: m}
}
