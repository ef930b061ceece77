package leveldb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	ldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Store is the default persistent backend, a LevelDB database on local disk.
type Store struct {
	db *leveldb.DB
}

// Open creates or opens a LevelDB database at the given path.
func Open(path string) (*Store, error) {
	const op = "storage.leveldb.Open"

	if path == "" {
		return nil, fmt.Errorf("%s: path required", op)
	}

	db, err := leveldb.OpenFile(filepath.Clean(path), nil)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &Store{db: db}, nil
}

// OpenMemory opens a store backed by volatile in-process storage. For tests.
func OpenMemory() (*Store, error) {
	const op = "storage.leveldb.OpenMemory"

	db, err := leveldb.Open(ldbstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	v, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return v, true, nil
}

func (s *Store) Put(_ context.Context, key, value []byte) error {
	return s.db.Put(key, value, nil)
}

func (s *Store) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error {
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		// The iterator reuses its buffers between Next calls.
		k := append([]byte(nil), iter.Key()...)
		v := append([]byte(nil), iter.Value()...)

		if err := fn(k, v); err != nil {
			return err
		}
	}

	return iter.Error()
}

func (s *Store) Close() error {
	return s.db.Close()
}
