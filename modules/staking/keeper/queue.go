package keeper

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	sdkerr "cosmossdk.io/errors"
	"github.com/cosmos/cosmos-sdk/codec"

	"github.com/evstack/ev-staking/modules/staking/types"
)

// UnbondingQueue is a FIFO of pending unbonds ordered by non-decreasing
// maturity height. Entries live at monotonically assigned slots in
// [head, tail); popping advances head, pushing advances tail.
type UnbondingQueue struct {
	Entries collections.Map[uint64, types.Unbond]
	Head    collections.Item[uint64]
	Tail    collections.Sequence
}

// NewUnbondingQueue registers the queue collections on the schema.
func NewUnbondingQueue(sb *collections.SchemaBuilder, cdc codec.BinaryCodec) UnbondingQueue {
	return UnbondingQueue{
		Entries: collections.NewMap(sb, types.UnbondingQueuePrefix, "unbonding_queue", collections.Uint64Key, codec.CollValue[types.Unbond](cdc)),
		Head:    collections.NewItem(sb, types.UnbondingQueueHeadKey, "unbonding_queue_head", collections.Uint64Value),
		Tail:    collections.NewSequence(sb, types.UnbondingQueueTailKey, "unbonding_queue_tail"),
	}
}

func (q UnbondingQueue) bounds(ctx context.Context) (head, tail uint64, err error) {
	head, err = q.Head.Get(ctx)
	if err != nil && !errors.Is(err, collections.ErrNotFound) {
		return 0, 0, err
	}
	tail, err = q.Tail.Peek(ctx)
	return head, tail, err
}

// Len returns the number of queued unbonds.
func (q UnbondingQueue) Len(ctx context.Context) (uint64, error) {
	head, tail, err := q.bounds(ctx)
	if err != nil {
		return 0, err
	}
	return tail - head, nil
}

// Front returns the oldest entry without removing it.
func (q UnbondingQueue) Front(ctx context.Context) (types.Unbond, bool, error) {
	head, tail, err := q.bounds(ctx)
	if err != nil || head == tail {
		return types.Unbond{}, false, err
	}
	u, err := q.Entries.Get(ctx, head)
	if err != nil {
		return types.Unbond{}, false, err
	}
	return u, true, nil
}

// Back returns the newest entry without removing it.
func (q UnbondingQueue) Back(ctx context.Context) (types.Unbond, bool, error) {
	head, tail, err := q.bounds(ctx)
	if err != nil || head == tail {
		return types.Unbond{}, false, err
	}
	u, err := q.Entries.Get(ctx, tail-1)
	if err != nil {
		return types.Unbond{}, false, err
	}
	return u, true, nil
}

// PopFront removes and returns the oldest entry.
func (q UnbondingQueue) PopFront(ctx context.Context) (types.Unbond, bool, error) {
	head, tail, err := q.bounds(ctx)
	if err != nil || head == tail {
		return types.Unbond{}, false, err
	}
	u, err := q.Entries.Get(ctx, head)
	if err != nil {
		return types.Unbond{}, false, err
	}
	if err := q.Entries.Remove(ctx, head); err != nil {
		return types.Unbond{}, false, err
	}
	return u, true, q.Head.Set(ctx, head+1)
}

// PushBack appends an entry. It fails when the entry would mature before the
// current last entry.
func (q UnbondingQueue) PushBack(ctx context.Context, u types.Unbond) error {
	back, ok, err := q.Back(ctx)
	if err != nil {
		return err
	}
	if ok && u.MaturityHeight < back.MaturityHeight {
		return sdkerr.Wrapf(types.ErrQueueOrder, "maturity %d is before last entry maturity %d", u.MaturityHeight, back.MaturityHeight)
	}
	slot, err := q.Tail.Next(ctx)
	if err != nil {
		return err
	}
	return q.Entries.Set(ctx, slot, u)
}

// Walk visits the entries front to back until cb returns true.
func (q UnbondingQueue) Walk(ctx context.Context, cb func(slot uint64, u types.Unbond) (stop bool, err error)) error {
	return q.Entries.Walk(ctx, nil, cb)
}

// All returns the entries front to back.
func (q UnbondingQueue) All(ctx context.Context) ([]types.Unbond, error) {
	iter, err := q.Entries.Iterate(ctx, nil)
	if err != nil {
		return nil, err
	}
	return iter.Values()
}
