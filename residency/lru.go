//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2025 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package residency

import (
	"container/list"

	"github.com/sirupsen/logrus"
)

// lruTier is one residency tier: a recency-ordered list of buffers plus a
// byte budget and a running total of accounted bytes. The front of the list
// is the least recently used buffer, the back the most recently used.
//
// All methods require the owning manager's lock; the tier itself does not
// lock, since eviction callbacks re-enter track/retire on the same tier.
type lruTier struct {
	name string
	// maxSize is the byte budget, negative means unlimited
	maxSize   int64
	totalSize int64
	members   *list.List

	logger  logrus.FieldLogger
	metrics *Metrics
}

func newLRUTier(name string, maxSize int64, logger logrus.FieldLogger,
	metrics *Metrics,
) *lruTier {
	return &lruTier{
		name:    name,
		maxSize: maxSize,
		members: list.New(),
		logger:  logger,
		metrics: metrics,
	}
}

// track inserts b at the most-recently-used position, accounting for its
// current physical size. A buffer already in this tier is just moved to the
// MRU position; one in another tier is retired from there first.
func (t *lruTier) track(b *Buffer) {
	if b.lruTier == t {
		t.members.MoveToBack(b.lruElem)
		return
	}
	if b.lruTier != nil {
		b.lruTier.retire(b)
	}

	b.lruTier = t
	b.lruElem = t.members.PushBack(b)
	t.totalSize += b.lruSize
	t.metrics.setTierBytes(t.name, t.totalSize)
}

// retire removes b from this tier. A no-op if b is tracked elsewhere.
func (t *lruTier) retire(b *Buffer) {
	if b.lruTier != t {
		return
	}

	t.members.Remove(b.lruElem)
	t.totalSize -= b.lruSize
	b.lruTier = nil
	b.lruElem = nil
	t.metrics.setTierBytes(t.name, t.totalSize)
}

// resize adjusts the accounted size of b without touching recency order.
func (t *lruTier) resize(b *Buffer, newSize int64) {
	t.totalSize += newSize - b.lruSize
	b.lruSize = newSize
	t.metrics.setTierBytes(t.name, t.totalSize)
}

// beginEpoch applies eviction pressure once. While the tier exceeds its
// budget, the least-recently-used buffers are asked to evict themselves. A
// buffer may migrate to another tier, refuse (it will be asked again next
// epoch), or requeue itself at the MRU position. Candidates are snapshotted
// up front because eviction callbacks re-enter the tier, possibly tracking
// other buffers into it.
func (t *lruTier) beginEpoch() {
	if t.maxSize < 0 || t.totalSize <= t.maxSize {
		return
	}

	candidates := make([]*Buffer, 0, t.members.Len())
	for e := t.members.Front(); e != nil; e = e.Next() {
		candidates = append(candidates, e.Value.(*Buffer))
	}

	for _, b := range candidates {
		if t.totalSize <= t.maxSize {
			break
		}
		if b.lruTier != t {
			// already migrated by a side effect of an earlier eviction
			continue
		}
		b.evictLRU()
	}

	if t.totalSize > t.maxSize {
		t.logger.WithField("action", "lru_epoch").
			WithField("tier", t.name).
			WithField("total_size", t.totalSize).
			WithField("max_size", t.maxSize).
			Debug("tier still over budget after epoch")
	}
}

func (t *lruTier) size() int64 {
	return t.totalSize
}
