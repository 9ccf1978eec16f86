package cache

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec converts values to and from the byte representation kept in a Store.
// The same codec must be used for writing and reading a given key.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

type msgpackCodec[T any] struct{}

// NewMsgpackCodec returns the default codec, backed by msgpack.
func NewMsgpackCodec[T any]() Codec[T] {
	return msgpackCodec[T]{}
}

func (msgpackCodec[T]) Encode(v T) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (msgpackCodec[T]) Decode(data []byte) (T, error) {
	var v T
	if len(data) == 0 {
		return v, ErrCorruptPayload
	}
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	return v, nil
}

type jsonCodec[T any] struct{}

// NewJSONCodec returns a codec that stores JSON, handy when other services
// read the same cache entries.
func NewJSONCodec[T any]() Codec[T] {
	return jsonCodec[T]{}
}

func (jsonCodec[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec[T]) Decode(data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	return v, nil
}
