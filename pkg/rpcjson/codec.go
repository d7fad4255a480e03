// Package rpcjson lets connect handlers and clients exchange plain Go structs
// encoded with encoding/json.
package rpcjson

import (
	"bytes"
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Name replaces connect's protojson codec for the "json" content subtype.
const Name = "json"

type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string {
	return Name
}

func (Codec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal rejects unknown fields. An empty body decodes to the zero value.
func (Codec) Unmarshal(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return nil
}

// HandlerOption installs the codec on a connect handler.
func HandlerOption() connect.HandlerOption {
	return connect.WithCodec(Codec{})
}

// ClientOptions make a connect client speak this codec over the Connect protocol.
func ClientOptions() []connect.ClientOption {
	return []connect.ClientOption{connect.WithCodec(Codec{})}
}
