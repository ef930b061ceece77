package repository

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/venuegate/venuegate/internal/storage"
)

var seqKey = []byte{regionMeta, 's', 'e', 'q'}

// Sequence is the durable identifier allocator. One instance feeds every
// entity kind, so no two entities of any kind ever share an id. Callers
// must hold the store's exclusive section while allocating.
type Sequence struct {
	kv      storage.KV
	current uint64
}

// loadSequence reads the persisted counter, treating absence as zero.
func loadSequence(ctx context.Context, kv storage.KV) (*Sequence, error) {
	const op = "repository.loadSequence"

	b, ok, err := kv.Get(ctx, seqKey)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s := &Sequence{kv: kv}
	if ok {
		if len(b) != 8 {
			return nil, fmt.Errorf("%s: malformed counter value", op)
		}
		s.current = binary.BigEndian.Uint64(b)
	}

	return s, nil
}

// Next returns the next identifier, persisting the counter before handing
// it out so a restart can never reissue an id. The first call returns 1.
func (s *Sequence) Next(ctx context.Context) (uint64, error) {
	const op = "repository.Sequence.Next"

	next := s.current + 1

	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, next)
	if err := s.kv.Put(ctx, seqKey, b); err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	s.current = next

	return next, nil
}

// Current returns the last allocated identifier.
func (s *Sequence) Current() uint64 {
	return s.current
}
