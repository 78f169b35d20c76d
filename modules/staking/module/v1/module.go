// Package modulev1 holds the app config object of the staking module.
package modulev1

import (
	"fmt"

	"github.com/cosmos/gogoproto/proto"
	"google.golang.org/protobuf/encoding/protowire"
)

var _ proto.Message = (*Module)(nil)

// Module is the config object of the staking module.
//
//	message Module {
//	  string metrics_namespace = 1;
//	}
type Module struct {
	// MetricsNamespace enables the Prometheus metrics of the module under the
	// given namespace when set and no metrics are provided.
	MetricsNamespace string `json:"metrics_namespace,omitempty"`
}

func (m *Module) Reset()                 { *m = Module{} }
func (m *Module) String() string         { return fmt.Sprintf("metrics_namespace:%q", m.MetricsNamespace) }
func (*Module) ProtoMessage()            {}
func (*Module) XXX_MessageName() string { return "evstaking.module.v1.Module" }

// Marshal encodes the config in protobuf wire format.
func (m *Module) Marshal() ([]byte, error) {
	if m.MetricsNamespace == "" {
		return nil, nil
	}
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	return protowire.AppendString(b, m.MetricsNamespace), nil
}

// Unmarshal decodes the config from protobuf wire format.
func (m *Module) Unmarshal(b []byte) error {
	*m = Module{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			m.MetricsNamespace = v
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}
