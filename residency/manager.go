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

// Package residency manages where the payload bytes of large vertex buffers
// live: fully resident in memory, compressed in memory, or spilled to a
// disk-backed block store. Buffers migrate between these tiers under
// LRU-driven memory pressure, while per-stage copy-on-write snapshots keep
// concurrent pipeline stages isolated from writers.
package residency

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/weaviate/vertexdata/entities/cyclemanager"
	"github.com/weaviate/vertexdata/residency/diskstore"
)

const (
	// DefaultMinCompressSize is the smallest logical payload size worth
	// passing through the codec. Smaller buffers are assumed to have
	// minimal compression gains, or even end up larger.
	DefaultMinCompressSize = 64

	// DefaultCompressionLevel is the default zlib level.
	DefaultCompressionLevel = 1
)

// Manager owns the three residency tiers and the disk block store. All
// buffers created through a manager share its budgets and its eviction
// pressure. Managers are self-contained, so tests can run isolated
// instances side by side.
type Manager struct {
	// mu serializes residency transitions, tier lists and accounting.
	// Transitions were stage-0-only in the original pipelined design; one
	// lock keeps them safe from any goroutine.
	mu sync.Mutex

	resident   *lruTier
	compressed *lruTier
	disk       *lruTier

	store       *diskstore.Store
	storeDir    string
	storePrefix string
	useMmap     bool

	maxResidentBytes   int64
	maxCompressedBytes int64
	maxDiskBytes       int64
	compressionLevel   int
	minCompressSize    int
	stages             int

	epochs *cyclemanager.CycleManager

	logger  logrus.FieldLogger
	metrics *Metrics
}

func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		storeDir:           os.TempDir(),
		storePrefix:        "vertexdata",
		maxResidentBytes:   -1,
		maxCompressedBytes: -1,
		maxDiskBytes:       -1,
		compressionLevel:   DefaultCompressionLevel,
		minCompressSize:    DefaultMinCompressSize,
		stages:             1,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	if m.logger == nil {
		m.logger = logrus.New()
	}

	m.resident = newLRUTier("resident", m.maxResidentBytes, m.logger, m.metrics)
	m.compressed = newLRUTier("compressed", m.maxCompressedBytes, m.logger, m.metrics)
	m.disk = newLRUTier("disk", -1, m.logger, m.metrics)

	return m, nil
}

// LRUEpoch marks that an epoch has passed and applies eviction pressure to
// the resident and compressed tiers. The disk tier is exempt: once spilled,
// a buffer leaves disk only through explicit restoration.
func (m *Manager) LRUEpoch() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resident.beginEpoch()
	m.compressed.beginEpoch()
}

// StartEpochs runs LRUEpoch on the given interval until Shutdown.
func (m *Manager) StartEpochs(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epochs == nil {
		m.epochs = cyclemanager.New(interval, func(cyclemanager.ShouldBreakFunc) bool {
			m.LRUEpoch()
			return true
		})
	}
	m.epochs.Start()
}

// Shutdown stops the epoch ticker and closes the disk store, removing its
// backing file. Buffers still spilled to disk become unrestorable.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	epochs, store := m.epochs, m.store
	m.store = nil
	m.mu.Unlock()

	if epochs != nil {
		if err := epochs.Stop(ctx); err != nil {
			return err
		}
	}
	if store != nil {
		return store.Close()
	}
	return nil
}

// ResidentBytes is the accounted size of the resident tier.
func (m *Manager) ResidentBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.resident.size()
}

// CompressedBytes is the accounted size of the compressed tier.
func (m *Manager) CompressedBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.compressed.size()
}

// DiskBytes is the total byte size of all live blocks in the disk store.
func (m *Manager) DiskBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil {
		return 0
	}
	return m.store.Allocated()
}

// saveFile lazily creates the disk block store. Callers hold m.mu.
func (m *Manager) saveFile() *diskstore.Store {
	if m.store == nil {
		m.store = diskstore.New(m.storeDir, m.storePrefix, m.maxDiskBytes,
			m.useMmap, m.logger)
	}
	return m.store
}

// freeBlock returns a disk block to the store. Callers hold m.mu. A store
// that was already shut down has dropped all blocks with its backing file.
func (m *Manager) freeBlock(blk *diskstore.Block) error {
	if m.store == nil {
		return nil
	}
	return m.store.Free(blk)
}

func (m *Manager) tierFor(rc RamClass) *lruTier {
	switch rc {
	case RamClassResident:
		return m.resident
	case RamClassCompressed:
		return m.compressed
	default:
		// disk and compressed-disk share the disk tier
		return m.disk
	}
}
