package codec

import (
	"bytes"
	"encoding/gob"

	"github.com/bytedance/sonic"
)

// Codec encodes and decodes one record value. Implementations must be
// safe for concurrent use; stage runs share one codec across workers.
type Codec[T any] interface {
	// Name identifies the codec in logs and error details.
	Name() string
	// Encode converts a value to bytes.
	Encode(value T) ([]byte, error)
	// Decode converts bytes back to a value.
	Decode(data []byte) (T, error)
}

// --- JSON ---

// JSON returns a codec that stores values as JSON documents.
func JSON[T any]() Codec[T] {
	return jsonCodec[T]{}
}

type jsonCodec[T any] struct{}

func (jsonCodec[T]) Name() string { return "json" }

func (jsonCodec[T]) Encode(value T) ([]byte, error) {
	return sonic.Marshal(value)
}

func (jsonCodec[T]) Decode(data []byte) (T, error) {
	var value T
	err := sonic.Unmarshal(data, &value)
	return value, err
}

// --- Gob ---

// Gob returns a codec that stores values as gob-encoded blobs. Use it
// for values that do not round-trip cleanly through JSON; the resulting
// records are opaque outside Go.
func Gob[T any]() Codec[T] {
	return gobCodec[T]{}
}

type gobCodec[T any] struct{}

func (gobCodec[T]) Name() string { return "gob" }

func (gobCodec[T]) Encode(value T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec[T]) Decode(data []byte) (T, error) {
	var value T
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&value)
	return value, err
}

// --- Raw ---

// Bytes returns a codec that stores []byte values verbatim.
func Bytes() Codec[[]byte] {
	return bytesCodec{}
}

type bytesCodec struct{}

func (bytesCodec) Name() string { return "bytes" }

func (bytesCodec) Encode(value []byte) ([]byte, error) { return value, nil }

func (bytesCodec) Decode(data []byte) ([]byte, error) { return data, nil }

// Text returns a codec that stores string values verbatim.
func Text() Codec[string] {
	return textCodec{}
}

type textCodec struct{}

func (textCodec) Name() string { return "text" }

func (textCodec) Encode(value string) ([]byte, error) { return []byte(value), nil }

func (textCodec) Decode(data []byte) (string, error) { return string(data), nil }
