package protocol

import "encoding/json"

// Serializer defines the contract for serializing and deserializing command payloads
// and execution reports. This allows consumers to choose their preferred format
// (JSON, Protobuf, SBE, etc.) without touching the book.
type Serializer interface {
	// Marshal serializes a Go struct (e.g. NewOrderCommand) into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal deserializes bytes into a Go struct.
	// v must be a pointer to the target struct.
	Unmarshal(data []byte, v any) error
}

// DefaultJSONSerializer implements Serializer with encoding/json.
type DefaultJSONSerializer struct{}

func (DefaultJSONSerializer) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (DefaultJSONSerializer) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
