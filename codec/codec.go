// Package codec centralizes document encoding.
//
// Stored documents are JSON. The codec only decides how Go values are turned
// into JSON bytes and back; every built-in codec produces bytes any other
// JSON reader can consume, so switching codecs never invalidates stored data.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Indenter is implemented by codecs that can produce indented output natively.
type Indenter interface {
	MarshalIndent(v any, prefix, indent string) ([]byte, error)
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MarshalIndent encodes v with c and indents the result.
// If c is nil, Default is used.
func MarshalIndent(c Codec, v any, indent string) ([]byte, error) {
	if c == nil {
		c = Default
	}
	if in, ok := c.(Indenter); ok {
		return in.MarshalIndent(v, "", indent)
	}
	b, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
