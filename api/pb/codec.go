package pb

import (
	"google.golang.org/grpc/encoding"

	"github.com/pkg/errors"
)

// CodecName is the content-subtype clients must request.
const CodecName = "orderflow"

func init() {
	encoding.RegisterCodec(codec{})
}

// codec bridges Message to the grpc encoding registry.
type codec struct{}

func (codec) Name() string { return CodecName }

func (codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, errors.Errorf("pb: cannot marshal %T", v)
	}
	return m.MarshalWire(), nil
}

func (codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return errors.Errorf("pb: cannot unmarshal into %T", v)
	}
	return m.UnmarshalWire(data)
}
