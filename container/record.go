package container

import (
	"fmt"

	"github.com/insurgentsworkshop/segpack/record"
)

// DecodeSection interprets the payload of slot index with schema.
func DecodeSection[T any](c *Container, index int, schema record.Schema[T]) (T, error) {
	var zero T

	s, err := c.Section(index)
	if err != nil {
		return zero, err
	}

	v, err := schema.Decode(s.Payload)
	if err != nil {
		return zero, fmt.Errorf("%s: section %d: %w", c.layout.name, index, err)
	}

	return v, nil
}

// EncodeSection encodes v with schema and stores it as the payload of slot index.
func EncodeSection[T any](c *Container, index int, schema record.Schema[T], v T) error {
	data, err := schema.Encode(v)
	if err != nil {
		return fmt.Errorf("%s: section %d: %w", c.layout.name, index, err)
	}

	return c.SetPayload(index, data)
}
