package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// maxTransactAttempts bounds retries when concurrent writers keep
// invalidating the read snapshot. Badger resolves each conflict in a few
// microseconds, so this is generous.
const maxTransactAttempts = 32

// Transact runs an atomic read-modify-write on a single key.
//
// fn receives the current value (nil, found=false when the key is absent)
// and returns the replacement value. Returning nil deletes the key.
// Returning an error aborts without writing.
//
// Badger detects snapshot conflicts between concurrent transactions on the
// same key; Transact retries fn on conflict, so fn must be pure with
// respect to everything except its arguments. After maxTransactAttempts
// collisions it gives up with ErrTooManyConflicts.
func (s *Store) Transact(ctx context.Context, key string, fn func(current []byte, found bool) ([]byte, error)) error {
	k := []byte(key)

	for range maxTransactAttempts {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.db.Update(func(txn *badger.Txn) error {
			var current []byte
			found := false

			item, err := txn.Get(k)
			switch {
			case err == nil:
				current, err = item.ValueCopy(nil)
				if err != nil {
					return err
				}
				found = true
			case errors.Is(err, badger.ErrKeyNotFound):
				// Key absent; fn decides whether to create it.
			default:
				return err
			}

			next, err := fn(current, found)
			if err != nil {
				return err
			}

			if next == nil {
				if !found {
					return nil
				}
				return txn.Delete(k)
			}
			return txn.Set(k, next)
		})

		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}

	return ErrTooManyConflicts
}
