package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/venuegate/venuegate/internal/storage"
)

// Region prefixes partition the shared keyspace. Each entity kind owns one
// region; the allocator's counter lives in the meta region.
const (
	regionMeta    byte = 0x00
	regionUsers   byte = 0x01
	regionEvents  byte = 0x02
	regionTickets byte = 0x03
	regionLoyalty byte = 0x04
	regionSeating byte = 0x05
)

// entityKey is region prefix + big-endian id, so an ascending byte scan of
// one region yields ascending ids.
func entityKey(region byte, id uint64) []byte {
	key := make([]byte, 9)
	key[0] = region
	binary.BigEndian.PutUint64(key[1:], id)
	return key
}

// Table is a durable id-keyed mapping for one entity kind. Values are
// stored JSON-encoded.
type Table[T any] struct {
	kv     storage.KV
	region byte
}

func NewTable[T any](kv storage.KV, region byte) *Table[T] {
	return &Table[T]{kv: kv, region: region}
}

// Get returns the record for id, reporting whether it exists.
func (t *Table[T]) Get(ctx context.Context, id uint64) (T, bool, error) {
	var zero T

	b, ok, err := t.kv.Get(ctx, entityKey(t.region, id))
	if err != nil || !ok {
		return zero, ok, err
	}

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return zero, false, fmt.Errorf("decode record %d: %w", id, err)
	}

	return v, true, nil
}

// Put upserts the record for id.
func (t *Table[T]) Put(ctx context.Context, id uint64, v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record %d: %w", id, err)
	}

	return t.kv.Put(ctx, entityKey(t.region, id), b)
}

// Scan calls fn for every record in ascending id order.
func (t *Table[T]) Scan(ctx context.Context, fn func(id uint64, v T) error) error {
	return t.kv.Scan(ctx, []byte{t.region}, func(key, value []byte) error {
		if len(key) != 9 {
			return fmt.Errorf("malformed key in region %#x", t.region)
		}

		var v T
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}

		return fn(binary.BigEndian.Uint64(key[1:]), v)
	})
}
