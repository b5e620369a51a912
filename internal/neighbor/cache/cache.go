// Package cache persists neighbor sets in a bbolt file so repeated runs over
// the same dataset and distance skip the k-NN queries.
package cache

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	xdr "github.com/davecgh/go-xdr/xdr2"
	bolt "go.etcd.io/bbolt"

	"github.com/go-sod/outlier/internal/byteutil"
	"github.com/go-sod/outlier/internal/database"
	"github.com/go-sod/outlier/internal/dataset"
	"github.com/go-sod/outlier/internal/geom"
	"github.com/go-sod/outlier/internal/logging"
	"github.com/go-sod/outlier/internal/neighbor"
	"github.com/go-sod/outlier/internal/util"
)

const bucketPrefix = "knn:"

var _ neighbor.Provider = (*cached)(nil)

// record is the stored form of one neighbor set, computed for K.
type record struct {
	K         int64
	IDs       []int64
	Distances []float64
}

// Provide wraps inner with a persistent cache. distKey must identify the
// distance function including its parameters.
func Provide(db *database.DB, distKey string, inner neighbor.ProvideFn) neighbor.ProvideFn {
	return func(ctx context.Context, ds *dataset.Dataset, distFn geom.DistanceFn) (neighbor.Provider, error) {
		p, err := inner(ctx, ds, distFn)
		if err != nil {
			return nil, err
		}
		bucket := []byte(bucketPrefix + util.HashDataset(ds) + ":" + distKey)
		logging.FromContext(ctx).Debugf("neighbor cache bucket %s", bucket)
		return &cached{db: db, bucket: bucket, inner: p}, nil
	}
}

type cached struct {
	db     *database.DB
	bucket []byte
	inner  neighbor.Provider

	hits   uint64
	misses uint64
}

func (c *cached) Len() int {
	return c.inner.Len()
}

// Stats returns the number of queries served from and missing in the cache.
func (c *cached) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

func (c *cached) KNN(ctx context.Context, id int, k int) (neighbor.Set, error) {
	set, ok, err := c.load(id, k)
	if err != nil {
		return nil, err
	}
	if ok {
		atomic.AddUint64(&c.hits, 1)
		return set, nil
	}
	atomic.AddUint64(&c.misses, 1)

	set, err = c.inner.KNN(ctx, id, k)
	if err != nil {
		return nil, err
	}
	if err := c.store(id, k, set); err != nil {
		return nil, err
	}
	return set, nil
}

func (c *cached) load(id int, k int) (neighbor.Set, bool, error) {
	var (
		rec   record
		found bool
	)
	if err := c.db.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(c.bucket)
		if b == nil {
			return nil
		}
		v := b.Get(key(id))
		if v == nil {
			return nil
		}
		if _, err := xdr.Unmarshal(bytes.NewReader(v), &rec); err != nil {
			return fmt.Errorf("unable to decode neighbors of %d: %w", id, err)
		}
		found = true
		return nil
	}); err != nil {
		return nil, false, err
	}
	if !found || int64(k) > rec.K || len(rec.IDs) != len(rec.Distances) {
		return nil, false, nil
	}

	n := len(rec.IDs)
	if k < n {
		n = k
	}
	set := make(neighbor.Set, n)
	for i := range set {
		set[i] = neighbor.Neighbor{ID: int(rec.IDs[i]), Distance: rec.Distances[i]}
	}
	return set, true, nil
}

func (c *cached) store(id int, k int, set neighbor.Set) error {
	rec := record{K: int64(k), IDs: make([]int64, len(set)), Distances: make([]float64, len(set))}
	for i := range set {
		rec.IDs[i] = int64(set[i].ID)
		rec.Distances[i] = set[i].Distance
	}
	buf := byteutil.GetBytesBuf()
	defer byteutil.PutBytesBuf(buf)
	if _, err := xdr.Marshal(buf, rec); err != nil {
		return fmt.Errorf("unable to encode neighbors of %d: %w", id, err)
	}
	value := append([]byte(nil), buf.Bytes()...)

	return c.db.DB.Batch(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(c.bucket)
		if err != nil {
			return fmt.Errorf("unable create bucket: %w", err)
		}
		if prev := b.Get(key(id)); prev != nil {
			var old record
			if _, err := xdr.Unmarshal(bytes.NewReader(prev), &old); err == nil && old.K >= rec.K {
				return nil
			}
		}
		if err := b.Put(key(id), value); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		return nil
	})
}

func key(id int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(int64(id)))
	return k
}
