package keeper

import (
	"context"

	"cosmossdk.io/collections"
	sdkerr "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/evstack/ev-staking/modules/staking/types"
)

// Querier is a read-only view over the staking state.
type Querier struct {
	keeper Keeper
}

// NewQuerier creates a new Querier.
func NewQuerier(k Keeper) Querier {
	return Querier{keeper: k}
}

// Params queries the module parameters
func (q Querier) Params(ctx context.Context) (types.Params, error) {
	return q.keeper.GetParams(ctx)
}

// Height returns the last block height seen by BeginBlocker.
func (q Querier) Height(ctx context.Context) (uint64, error) {
	return q.keeper.GetHeight(ctx)
}

// Delegation returns a delegator's stake with a validator, zero when none.
func (q Querier) Delegation(ctx context.Context, validator sdk.ValAddress, delegator sdk.AccAddress) (math.Int, error) {
	if validator.Empty() || delegator.Empty() {
		return math.ZeroInt(), status.Error(codes.InvalidArgument, "empty address")
	}
	return q.keeper.Validators.Balance(ctx, validator, delegator)
}

// ValidatorStake returns a validator's aggregate stake. Unlike the pool
// lookup it fails for a validator that never received stake.
func (q Querier) ValidatorStake(ctx context.Context, validator sdk.ValAddress) (math.Int, error) {
	if validator.Empty() {
		return math.ZeroInt(), status.Error(codes.InvalidArgument, "empty address")
	}
	ok, err := q.keeper.Validators.HasValidator(ctx, validator)
	if err != nil {
		return math.ZeroInt(), err
	}
	if !ok {
		return math.ZeroInt(), sdkerr.Wrapf(types.ErrNotFound, "validator %s", validator)
	}
	return q.keeper.Validators.ValidatorBalance(ctx, validator)
}

// Validators lists every validator that ever received stake, in address order.
func (q Querier) Validators(ctx context.Context) ([]types.ValidatorInfo, error) {
	out := []types.ValidatorInfo{}
	err := q.keeper.Validators.Stake.Walk(ctx, nil, func(val sdk.ValAddress, stake math.Int) (bool, error) {
		info := types.ValidatorInfo{Address: val, Stake: stake}
		power, found, err := q.VotingPower(ctx, val)
		if err != nil {
			return true, err
		}
		if found {
			info.Power = &power
		}
		out = append(out, info)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ValidatorDelegations lists the delegator pool of a validator in address order.
func (q Querier) ValidatorDelegations(ctx context.Context, validator sdk.ValAddress) ([]types.Delegation, error) {
	iter, err := q.keeper.Validators.Delegations.Iterate(ctx, collections.NewPrefixedPairRange[sdk.ValAddress, sdk.AccAddress](validator))
	if err != nil {
		return nil, err
	}
	kvs, err := iter.KeyValues()
	if err != nil {
		return nil, err
	}
	out := make([]types.Delegation, 0, len(kvs))
	for _, kv := range kvs {
		out = append(out, types.Delegation{
			ValidatorAddress: kv.Key.K1(),
			DelegatorAddress: kv.Key.K2(),
			Amount:           kv.Value,
		})
	}
	return out, nil
}

// VotingPower returns the power last reported for a validator at EndBlocker
// and whether any was reported.
func (q Querier) VotingPower(ctx context.Context, validator sdk.ValAddress) (uint64, bool, error) {
	power, err := q.keeper.LastVotingPower.Get(ctx, validator)
	if err != nil {
		if sdkerr.IsOf(err, collections.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return power, true, nil
}

// UnbondingQueue returns the pending unbonds front to back.
func (q Querier) UnbondingQueue(ctx context.Context) ([]types.Unbond, error) {
	unbonds, err := q.keeper.UnbondingQueue.All(ctx)
	if err != nil {
		return nil, err
	}
	if unbonds == nil {
		unbonds = []types.Unbond{}
	}
	return unbonds, nil
}
