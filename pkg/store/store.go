package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"
	proto "github.com/cosmos/gogoproto/proto"
	ds "github.com/ipfs/go-datastore"
	kt "github.com/ipfs/go-datastore/keytransform"
	"github.com/ipfs/go-datastore/query"

	"github.com/evstack/ev-staking/modules/staking/types"
)

const (
	// keyPrefix is the prefix used for all block report keys in the datastore
	keyPrefix = "staking"
	// heightKey is the key used for storing the last reported height
	heightKey = "h"
	// blockResponseKey is the key used for storing block responses
	blockResponseKey = "br"
)

// ErrNotFound is returned when no report exists for a height.
var ErrNotFound = errors.New("block report not found")

// ErrMalformedReport is returned when a voting power event cannot be read.
var ErrMalformedReport = errors.New("malformed voting power event")

// Store keeps the outcome of every executed block outside of the app state:
// block and tx events, including the voting power reported at EndBlock.
type Store struct {
	prefixedStore ds.Batching
}

// NewReportStore creates a new Store under the staking prefix.
func NewReportStore(store ds.Batching) *Store {
	return &Store{
		prefixedStore: kt.Wrap(store, &kt.PrefixTransform{
			Prefix: ds.NewKey(keyPrefix),
		}),
	}
}

func responseKey(height uint64) ds.Key {
	return ds.NewKey(blockResponseKey).ChildString(strconv.FormatUint(height, 10))
}

// SaveBlockResponse saves the block response for a height and advances the
// last reported height in one batch.
func (s *Store) SaveBlockResponse(ctx context.Context, height uint64, resp *abci.ResponseFinalizeBlock) error {
	data, err := proto.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal block response: %w", err)
	}

	batch, err := s.prefixedStore.Batch(ctx)
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	if err := batch.Put(ctx, responseKey(height), data); err != nil {
		return err
	}
	heightBz := make([]byte, 8)
	binary.BigEndian.PutUint64(heightBz, height)
	if err := batch.Put(ctx, ds.NewKey(heightKey), heightBz); err != nil {
		return err
	}
	return batch.Commit(ctx)
}

// GetBlockResponse loads the block response for a specific height.
func (s *Store) GetBlockResponse(ctx context.Context, height uint64) (*abci.ResponseFinalizeBlock, error) {
	data, err := s.prefixedStore.Get(ctx, responseKey(height))
	if err != nil {
		if errors.Is(err, ds.ErrNotFound) {
			return nil, fmt.Errorf("height %d: %w", height, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get block response: %w", err)
	}

	resp := &abci.ResponseFinalizeBlock{}
	if err := proto.Unmarshal(data, resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block response: %w", err)
	}
	return resp, nil
}

// Height returns the last height a report was saved for, zero when empty.
func (s *Store) Height(ctx context.Context) (uint64, error) {
	data, err := s.prefixedStore.Get(ctx, ds.NewKey(heightKey))
	if errors.Is(err, ds.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get height: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid height length: %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// Heights lists every height with a saved report in ascending order.
func (s *Store) Heights(ctx context.Context) ([]uint64, error) {
	res, err := s.prefixedStore.Query(ctx, query.Query{
		Prefix:   ds.NewKey(blockResponseKey).String(),
		KeysOnly: true,
	})
	if err != nil {
		return nil, err
	}
	entries, err := res.Rest()
	if err != nil {
		return nil, err
	}

	heights := make([]uint64, 0, len(entries))
	for _, e := range entries {
		h, err := strconv.ParseUint(ds.RawKey(e.Key).BaseNamespace(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid report key %q: %w", e.Key, err)
		}
		heights = append(heights, h)
	}
	// keys sort lexically, not numerically
	slices.Sort(heights)
	return heights, nil
}

// VotingPower extracts the voting power events of a block, in emission order.
// An event without a validator or with a power that is not a uint64 is an
// error.
func VotingPower(resp *abci.ResponseFinalizeBlock) ([]PowerReport, error) {
	var out []PowerReport
	for i, ev := range resp.Events {
		if ev.Type != types.EventTypeVotingPower {
			continue
		}
		var (
			r        PowerReport
			hasPower bool
		)
		for _, attr := range ev.Attributes {
			switch attr.Key {
			case types.AttributeKeyValidator:
				r.Validator = attr.Value
			case types.AttributeKeyPower:
				power, err := strconv.ParseUint(attr.Value, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: event %d: power %q: %w", ErrMalformedReport, i, attr.Value, err)
				}
				r.Power, hasPower = power, true
			}
		}
		if r.Validator == "" || !hasPower {
			return nil, fmt.Errorf("%w: event %d: missing validator or power", ErrMalformedReport, i)
		}
		out = append(out, r)
	}
	return out, nil
}

// PowerReport is one validator's reported voting power.
type PowerReport struct {
	Validator string `json:"validator"`
	Power     uint64 `json:"power"`
}
