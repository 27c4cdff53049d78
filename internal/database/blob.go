package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bloops-games/biasbingo/internal/logging"
	bolt "go.etcd.io/bbolt"
)

// ModifyFn receives whether a valid value was decoded into the target and
// reports whether the (possibly changed) target must be written back.
type ModifyFn func(found bool) (bool, error)

// Load decodes the blob stored under bucket/key into v. A missing bucket,
// a missing key and an undecodable value all report false.
func (db *DB) Load(ctx context.Context, bucket, key string, v interface{}) (bool, error) {
	var raw []byte
	if err := db.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		if value := b.Get([]byte(key)); value != nil {
			raw = make([]byte, len(value))
			copy(raw, value)
		}
		return nil
	}); err != nil {
		return false, fmt.Errorf("view transaction error: %w", err)
	}

	return decode(ctx, bucket, key, raw, v), nil
}

func (db *DB) Save(bucket, key string, v interface{}) error {
	bytes, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := db.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		if err := b.Put([]byte(key), bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func (db *DB) Remove(bucket, key string) error {
	if err := db.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		if err := b.Delete([]byte(key)); err != nil {
			return fmt.Errorf("delete key: %w", err)
		}

		return nil
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

// Modify runs a read-modify-write of bucket/key inside one write transaction.
func (db *DB) Modify(ctx context.Context, bucket, key string, v interface{}, fn ModifyFn) error {
	tx, err := db.DB.Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer tx.Rollback() // nolint

	b, err := tx.CreateBucketIfNotExists([]byte(bucket))
	if err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}

	found := decode(ctx, bucket, key, b.Get([]byte(key)), v)
	write, err := fn(found)
	if err != nil {
		return fmt.Errorf("modify: %w", err)
	}

	if !write {
		return nil
	}

	bytes, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := b.Put([]byte(key), bytes); err != nil {
		return fmt.Errorf("put to bucket error: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Keys lists the keys of bucket in byte order.
func (db *DB) Keys(bucket string) ([]string, error) {
	var keys []string
	if err := db.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return keys, nil
}

func decode(ctx context.Context, bucket, key string, raw []byte, v interface{}) bool {
	if len(raw) == 0 {
		return false
	}

	if err := json.Unmarshal(raw, v); err != nil {
		logging.FromContext(ctx).Named("database.decode").Warnf(
			"corrupt value %s/%s treated as absent: %v", bucket, key, err,
		)
		return false
	}

	return true
}
