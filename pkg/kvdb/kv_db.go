package kvdb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.etcd.io/bbolt"
)

var (
	ErrorsKeyNotExists = errors.New("key not exists")
)

const (
	BBOLTDB_BUCKET = "osmGeocoder"
)

// Backend key-value store tempat shard blob disimpan.
type Backend interface {
	// Get returns ErrorsKeyNotExists kalau key tidak ada.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	PutBatch(ctx context.Context, kvs map[string][]byte) error
	Close() error
}

type KVDB struct {
	db *bbolt.DB
	sync.Mutex
}

// OpenBolt opens (or creates) a bbolt file with the shard bucket.
func OpenBolt(path string) (*KVDB, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bbolt %s: %w", path, err)
	}
	kv, err := NewKVDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

func NewKVDB(db *bbolt.DB) (*KVDB, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BBOLTDB_BUCKET))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &KVDB{db,
		sync.Mutex{}}, nil
}

// PutBatch save shard blobs ke boltDB. batching
func (db *KVDB) PutBatch(ctx context.Context, kvs map[string][]byte) error {
	db.Lock()
	defer db.Unlock()
	return db.db.Batch(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BBOLTDB_BUCKET))
		for key, value := range kvs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := b.Put([]byte(key), value); err != nil {
				return err
			}
		}
		return nil // harus return nil , kalau return err kena rollback txn-nya
	})
}

func (db *KVDB) Put(ctx context.Context, key string, value []byte) error {
	return db.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BBOLTDB_BUCKET))
		return b.Put([]byte(key), value)
	})
}

func (db *KVDB) Get(ctx context.Context, key string) (value []byte, err error) {
	err = db.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BBOLTDB_BUCKET))
		v := b.Get([]byte(key))
		if v == nil {
			return ErrorsKeyNotExists
		}
		// value dari bbolt hanya valid selama txn, harus di copy
		value = append(make([]byte, 0, len(v)), v...)
		return nil
	})
	return
}

func (db *KVDB) Close() error {
	return db.db.Close()
}
