package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides typed CRUD over one key prefix of the Badger store.
// Values are stored as JSON; secondary indexes are separate keys under
// "<prefix>idx:<name>:<value>" pointing back at the entity ID.
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []Index[T]
}

// Index is a unique secondary index. Two entities may never share an
// index value; keyGen returns the values one entity occupies.
type Index[T any] struct {
	name   string
	keyGen func(*T) []string
}

// NewEntity creates an Entity for type T under the given key prefix.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{store: s, prefix: prefix}
}

// WithIndex adds a unique secondary index.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{name: name, keyGen: keyGen})
	return e
}

func (e *Entity[T]) indexKey(indexName, value string) string {
	return e.prefix + "idx:" + indexName + ":" + value
}

// checkIndexConflicts fails with a wrapped ErrAlreadyExists when any of
// the entity's index values is already taken. skip holds values owned
// by the entity itself, so updates can keep their existing entries.
func (e *Entity[T]) checkIndexConflicts(txn *badger.Txn, entity *T, skip map[string]bool) error {
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(entity) {
			if skip != nil && skip[idx.name+":"+value] {
				continue
			}
			_, err := txn.Get([]byte(e.indexKey(idx.name, value)))
			if err == nil {
				return fmt.Errorf("index %s conflict on key %s: %w", idx.name, value, ErrAlreadyExists)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
		}
	}
	return nil
}

// writeIndexes points every index value of the entity at id.
func (e *Entity[T]) writeIndexes(txn *badger.Txn, entity *T, id string) error {
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(entity) {
			if err := txn.Set([]byte(e.indexKey(idx.name, value)), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
	}
	return nil
}

// dropIndexes removes every index entry the entity occupies.
func (e *Entity[T]) dropIndexes(txn *badger.Txn, entity *T) error {
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(entity) {
			if err := txn.Delete([]byte(e.indexKey(idx.name, value))); err != nil {
				return fmt.Errorf("failed to delete index key: %w", err)
			}
		}
	}
	return nil
}

// load reads and unmarshals the entity at key within txn.
func (e *Entity[T]) load(txn *badger.Txn, key []byte, dst *T) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get key: %w", err)
	}
	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, dst); err != nil {
			return fmt.Errorf("failed to unmarshal entity: %w", err)
		}
		return nil
	})
}

// Create stores a new entity under id. It returns ErrAlreadyExists when
// the ID or any unique index value is taken; check and write share one
// transaction, so concurrent creates cannot both win.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	key := []byte(e.prefix + id)
	return e.store.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		if err := e.checkIndexConflicts(txn, entity, nil); err != nil {
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return e.writeIndexes(txn, entity, id)
	})
}

// Get retrieves an entity by ID, ErrNotFound when absent.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := buildKey(e.prefix, id)
	defer releaseKey(key)

	var entity T
	err := e.store.db.View(func(txn *badger.Txn) error {
		return e.load(txn, key, &entity)
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// GetByIndex retrieves the entity occupying the given index value.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	indexKey := buildIndexKey(e.prefix, indexName, value)
	defer releaseKey(indexKey)

	var id string
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return e.Get(ctx, id)
}

// Update replaces an existing entity, moving its index entries to the
// new values. ErrNotFound when the ID does not exist; a wrapped
// ErrAlreadyExists when a new index value belongs to another entity.
func (e *Entity[T]) Update(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	key := []byte(e.prefix + id)
	return e.store.db.Update(func(txn *badger.Txn) error {
		var oldEntity T
		if err := e.load(txn, key, &oldEntity); err != nil {
			return err
		}

		// The old entries are the entity's own, so they are safe for the
		// new version to reuse.
		owned := make(map[string]bool)
		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(&oldEntity) {
				owned[idx.name+":"+value] = true
			}
		}
		if err := e.checkIndexConflicts(txn, entity, owned); err != nil {
			return err
		}

		if err := e.dropIndexes(txn, &oldEntity); err != nil {
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return e.writeIndexes(txn, entity, id)
	})
}

// Delete removes an entity and its index entries. Deleting a missing
// ID is not an error.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(e.prefix + id)
	return e.store.db.Update(func(txn *badger.Txn) error {
		var entity T
		err := e.load(txn, key, &entity)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := e.dropIndexes(txn, &entity); err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return fmt.Errorf("failed to delete key: %w", err)
		}
		return nil
	})
}

// List iterates all entities under the prefix, skipping index entries.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
				if ctx.Err() != nil {
					yield(nil, ctx.Err())
					return ctx.Err()
				}

				if strings.HasPrefix(string(it.Item().Key())[len(e.prefix):], "idx:") {
					continue
				}

				var entity T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				})
				if err != nil {
					yield(nil, err)
					return err
				}
				if !yield(&entity, nil) {
					return nil
				}
			}
			return nil
		})
	}
}
