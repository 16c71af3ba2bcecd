package shardstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/lintang-b-s/osm-geocoder/pkg/compress"
	"github.com/lintang-b-s/osm-geocoder/pkg/kvdb"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Kind string

const (
	KindGrid    Kind = "grid"
	KindDegen   Kind = "degen"
	KindFreq    Kind = "freq"
	KindFeature Kind = "feature"
)

// named blobs per layer
const (
	BlobBitcache = "bitcache"
	BlobDict     = "dict"
	BlobContexts = "contexts"
)

const metaKey = "meta"

// loadTimeout batas waktu satu load shard dari backend.
const loadTimeout = 30 * time.Second

var (
	ErrMetaNotFound = errors.New("index meta not found, index belum di build")
)

// Meta ditulis Writer.Flush, dibaca saat Open.
type Meta struct {
	ShardLevel int      `msgpack:"shard_level"`
	Codec      string   `msgpack:"codec"`
	Layers     []string `msgpack:"layers"`
}

// ShardOf shard = key mod 16^level. byte rendah key (metadata phrase) di fold dulu dengan bit hash.
func ShardOf(key uint64, level int) uint64 {
	mod := uint64(1) << (4 * uint(level))
	return (key ^ key>>8) % mod
}

func shardKey(layer string, kind Kind, shard uint64) string {
	return layer + "/" + string(kind) + "/" + strconv.FormatUint(shard, 10)
}

func blobKey(layer, name string) string {
	return layer + "/" + name
}

type Store struct {
	backend kvdb.Backend
	meta    Meta
	cache   *ristretto.Cache[string, map[uint64][]byte]
	group   singleflight.Group
	log     *zap.Logger
}

// Open reads index meta dari backend. cacheCost = max bytes shard yang di cache.
func Open(ctx context.Context, backend kvdb.Backend, cacheCost int64, log *zap.Logger) (*Store, error) {
	raw, err := backend.Get(ctx, metaKey)
	if errors.Is(err, kvdb.ErrorsKeyNotExists) {
		return nil, ErrMetaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read index meta: %w", err)
	}
	var meta Meta
	if err := msgpack.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode index meta: %w", err)
	}

	if cacheCost <= 0 {
		cacheCost = 1 << 28
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, map[uint64][]byte]{
		NumCounters: 1e6,
		MaxCost:     cacheCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("shard cache: %w", err)
	}
	return &Store{backend: backend, meta: meta, cache: cache, log: log}, nil
}

func (s *Store) Meta() Meta {
	return s.meta
}

// Get returns nil, nil kalau key tidak ada.
func (s *Store) Get(ctx context.Context, layer string, kind Kind, key uint64) ([]byte, error) {
	shard, err := s.loadShard(ctx, layer, kind, ShardOf(key, s.meta.ShardLevel))
	if err != nil {
		return nil, err
	}
	return shard[key], nil
}

// GetAll group keys per shard, sort, lalu load shard satu per satu. key yang tidak ada tidak masuk result.
func (s *Store) GetAll(ctx context.Context, layer string, kind Kind, keys []uint64) (map[uint64][]byte, error) {
	byShard := make(map[uint64][]uint64)
	for _, k := range keys {
		sh := ShardOf(k, s.meta.ShardLevel)
		byShard[sh] = append(byShard[sh], k)
	}
	shards := make([]uint64, 0, len(byShard))
	for sh := range byShard {
		shards = append(shards, sh)
	}
	sort.Slice(shards, func(i, j int) bool { return shards[i] < shards[j] })

	result := make(map[uint64][]byte, len(keys))
	for _, sh := range shards {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		shard, err := s.loadShard(ctx, layer, kind, sh)
		if err != nil {
			return nil, err
		}
		for _, k := range byShard[sh] {
			if v, ok := shard[k]; ok {
				result[k] = v
			}
		}
	}
	return result, nil
}

// GetBlob returns nil, nil kalau blob tidak ada.
func (s *Store) GetBlob(ctx context.Context, layer, name string) ([]byte, error) {
	raw, err := s.backend.Get(ctx, blobKey(layer, name))
	if errors.Is(err, kvdb.ErrorsKeyNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s/%s: %w", layer, name, err)
	}
	return compress.DecompressBlock(raw)
}

func (s *Store) loadShard(ctx context.Context, layer string, kind Kind, shard uint64) (map[uint64][]byte, error) {
	key := shardKey(layer, kind, shard)
	if m, ok := s.cache.Get(key); ok {
		return m, nil
	}

	// load di share semua caller key ini dan tidak ikut batal bersama caller mana pun.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		if m, ok := s.cache.Get(key); ok {
			return m, nil
		}
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		raw, err := s.backend.Get(lctx, key)
		if errors.Is(err, kvdb.ErrorsKeyNotExists) {
			empty := map[uint64][]byte{}
			s.cache.Set(key, empty, 1)
			return empty, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read shard %s: %w", key, err)
		}
		m, cost, err := decodeShard(raw)
		if err != nil {
			return nil, fmt.Errorf("decode shard %s: %w", key, err)
		}
		s.cache.Set(key, m, cost)
		return m, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(map[uint64][]byte), nil
	}
}

func decodeShard(raw []byte) (map[uint64][]byte, int64, error) {
	data, err := compress.DecompressBlock(raw)
	if err != nil {
		return nil, 0, err
	}
	m := make(map[uint64][]byte)
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, 0, err
	}
	return m, int64(len(data)) + 1, nil
}

func (s *Store) Close() error {
	s.cache.Close()
	return s.backend.Close()
}
