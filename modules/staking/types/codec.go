package types

import (
	"bytes"
	"fmt"

	"cosmossdk.io/math"
	"github.com/cosmos/gogoproto/proto"
	"google.golang.org/protobuf/encoding/protowire"
)

// Unbond and Params are stored through codec.CollValue. Their wire layout:
//
//	message Unbond {
//	  cosmos.base.v1beta1.Coin coin = 1;
//	  bytes delegator_address = 2;
//	  bytes validator_address = 3;
//	  uint64 maturity_height = 4;
//	}
//
//	message Params {
//	  string bond_denom = 1;
//	  string block_reward = 2;
//	  uint64 unbonding_period = 3;
//	  uint32 max_unbonds_per_block = 4;
//	}

var (
	_ proto.Message = (*Unbond)(nil)
	_ proto.Message = (*Params)(nil)
)

func (u *Unbond) Reset()                 { *u = Unbond{} }
func (*Unbond) ProtoMessage()            {}
func (*Unbond) XXX_MessageName() string { return "evstaking.v1.Unbond" }

// Marshal encodes the unbond in protobuf wire format.
func (u Unbond) Marshal() ([]byte, error) {
	coin, err := u.Coin.Marshal()
	if err != nil {
		return nil, fmt.Errorf("unbond coin: %w", err)
	}
	var b []byte
	b = appendBytesField(b, 1, coin)
	b = appendBytesField(b, 2, u.DelegatorAddress)
	b = appendBytesField(b, 3, u.ValidatorAddress)
	b = appendVarintField(b, 4, u.MaturityHeight)
	return b, nil
}

// Unmarshal decodes an unbond from protobuf wire format.
func (u *Unbond) Unmarshal(b []byte) error {
	*u = Unbond{}
	return consumeFields(b, func(num protowire.Number, v []byte, x uint64) error {
		switch num {
		case 1:
			return u.Coin.Unmarshal(v)
		case 2:
			u.DelegatorAddress = bytes.Clone(v)
		case 3:
			u.ValidatorAddress = bytes.Clone(v)
		case 4:
			u.MaturityHeight = x
		}
		return nil
	})
}

func (p *Params) Reset()                 { *p = Params{} }
func (*Params) ProtoMessage()            {}
func (*Params) XXX_MessageName() string { return "evstaking.v1.Params" }

func (p Params) String() string {
	return fmt.Sprintf("bond_denom:%s block_reward:%s unbonding_period:%d max_unbonds_per_block:%d",
		p.BondDenom, p.BlockReward, p.UnbondingPeriod, p.MaxUnbondsPerBlock)
}

// Marshal encodes the params in protobuf wire format.
func (p Params) Marshal() ([]byte, error) {
	reward := p.BlockReward
	if reward.IsNil() {
		reward = math.ZeroInt()
	}
	var b []byte
	b = appendBytesField(b, 1, []byte(p.BondDenom))
	b = appendBytesField(b, 2, []byte(reward.String()))
	b = appendVarintField(b, 3, p.UnbondingPeriod)
	b = appendVarintField(b, 4, uint64(p.MaxUnbondsPerBlock))
	return b, nil
}

// Unmarshal decodes params from protobuf wire format.
func (p *Params) Unmarshal(b []byte) error {
	*p = Params{BlockReward: math.ZeroInt()}
	return consumeFields(b, func(num protowire.Number, v []byte, x uint64) error {
		switch num {
		case 1:
			p.BondDenom = string(v)
		case 2:
			reward, ok := math.NewIntFromString(string(v))
			if !ok {
				return fmt.Errorf("invalid block reward %q", v)
			}
			p.BlockReward = reward
		case 3:
			p.UnbondingPeriod = x
		case 4:
			if x > uint64(^uint32(0)) {
				return fmt.Errorf("max unbonds per block overflows uint32: %d", x)
			}
			p.MaxUnbondsPerBlock = uint32(x)
		}
		return nil
	})
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// consumeFields calls fn for every length-delimited and varint field of b.
// Fields of other wire types are skipped.
func consumeFields(b []byte, fn func(num protowire.Number, v []byte, x uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		var (
			v []byte
			x uint64
		)
		switch typ {
		case protowire.BytesType:
			v, n = protowire.ConsumeBytes(b)
		case protowire.VarintType:
			x, n = protowire.ConsumeVarint(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.BytesType && typ != protowire.VarintType {
			continue
		}
		if err := fn(num, v, x); err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
	}
	return nil
}
