package shardstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/lintang-b-s/osm-geocoder/pkg/compress"
	"github.com/lintang-b-s/osm-geocoder/pkg/kvdb"
	"github.com/vmihailenco/msgpack/v5"
)

// Writer buffer value per shard, ditulis ke backend saat Flush.
type Writer struct {
	backend    kvdb.Backend
	codec      compress.Codec
	shardLevel int
	shards     map[string]map[uint64][]byte
	blobs      map[string][]byte
	layers     map[string]struct{}
}

func NewWriter(backend kvdb.Backend, codec compress.Codec, shardLevel int) *Writer {
	return &Writer{
		backend:    backend,
		codec:      codec,
		shardLevel: shardLevel,
		shards:     make(map[string]map[uint64][]byte),
		blobs:      make(map[string][]byte),
		layers:     make(map[string]struct{}),
	}
}

func (w *Writer) Put(layer string, kind Kind, key uint64, value []byte) {
	w.layers[layer] = struct{}{}
	sk := shardKey(layer, kind, ShardOf(key, w.shardLevel))
	shard, ok := w.shards[sk]
	if !ok {
		shard = make(map[uint64][]byte)
		w.shards[sk] = shard
	}
	shard[key] = value
}

func (w *Writer) PutBlob(layer, name string, value []byte) {
	w.layers[layer] = struct{}{}
	w.blobs[blobKey(layer, name)] = value
}

// Flush encode semua shard dan blob lalu tulis dalam satu batch, terakhir meta.
func (w *Writer) Flush(ctx context.Context) error {
	batch := make(map[string][]byte, len(w.shards)+len(w.blobs))
	for key, shard := range w.shards {
		data, err := msgpack.Marshal(shard)
		if err != nil {
			return fmt.Errorf("encode shard %s: %w", key, err)
		}
		block, err := compress.CompressBlock(data, w.codec)
		if err != nil {
			return fmt.Errorf("compress shard %s: %w", key, err)
		}
		batch[key] = block
	}
	for key, blob := range w.blobs {
		block, err := compress.CompressBlock(blob, w.codec)
		if err != nil {
			return fmt.Errorf("compress blob %s: %w", key, err)
		}
		batch[key] = block
	}
	if err := w.backend.PutBatch(ctx, batch); err != nil {
		return fmt.Errorf("write shards: %w", err)
	}

	layers := make([]string, 0, len(w.layers))
	for l := range w.layers {
		layers = append(layers, l)
	}
	sort.Strings(layers)
	meta, err := msgpack.Marshal(Meta{ShardLevel: w.shardLevel, Codec: w.codec.String(), Layers: layers})
	if err != nil {
		return err
	}
	return w.backend.Put(ctx, metaKey, meta)
}

// ShardCount jumlah shard yang sedang di buffer.
func (w *Writer) ShardCount() int {
	return len(w.shards)
}
