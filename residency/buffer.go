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

	"github.com/pkg/errors"

	"github.com/weaviate/vertexdata/entities/vertexformat"
	"github.com/weaviate/vertexdata/residency/diskstore"
)

// Buffer is one vertex array's payload under residency management. Its
// logical full size only changes through explicit resizes; tier transitions
// compress, spill and restore the payload but always preserve it.
type Buffer struct {
	mgr    *Manager
	format *vertexformat.ArrayFormat
	cycler *snapshotCycler

	// the fields below are guarded by mgr.mu
	ramClass   RamClass
	savedBlock *diskstore.Block
	lruTier    *lruTier
	lruElem    *list.Element
	lruSize    int64

	// contexts maps each consumer to its derived resource handle. Consumer
	// lifecycle calls follow the renderer's single-goroutine discipline.
	contexts map[Consumer]BufferContext
}

// NewBuffer constructs an empty resident buffer for the given format.
func (m *Manager) NewBuffer(format *vertexformat.ArrayFormat, hint UsageHint) *Buffer {
	b := &Buffer{
		mgr:      m,
		format:   format,
		cycler:   newSnapshotCycler(m.stages, hint),
		ramClass: RamClassResident,
		contexts: make(map[Consumer]BufferContext),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.resident.track(b)

	return b
}

func (b *Buffer) Format() *vertexformat.ArrayFormat {
	return b.format
}

// RamClass reports which tier currently holds the authoritative bytes.
func (b *Buffer) RamClass() RamClass {
	b.mgr.mu.Lock()
	defer b.mgr.mu.Unlock()

	return b.ramClass
}

// FullSize is the logical uncompressed byte length, stable across tier
// transitions.
func (b *Buffer) FullSize() int {
	return b.cycler.current().fullSize
}

// PhysicalSize is the current in-memory byte length: the full size while
// resident, smaller while compressed, zero while on disk.
func (b *Buffer) PhysicalSize() int {
	b.mgr.mu.Lock()
	defer b.mgr.mu.Unlock()

	return len(b.cycler.current().data)
}

// Modified returns the stamp of the last write visible to the given stage.
func (b *Buffer) Modified(stage int) uint64 {
	return b.cycler.readStage(stage).modified
}

// UsageHint returns the hint visible to stage 0.
func (b *Buffer) UsageHint() UsageHint {
	return b.cycler.current().usageHint
}

// SetUsageHint changes the usage hint and stamps the buffer modified.
func (b *Buffer) SetUsageHint(hint UsageHint) {
	snap := b.cycler.writeStage(0)
	snap.usageHint = hint
}

// Cycle advances the buffer's pipeline one generation, making the newest
// snapshot visible to the next stage.
func (b *Buffer) Cycle() {
	b.cycler.cycle()
}

// MakeResident moves the payload to fully resident status, expanding it or
// reading it back from disk as necessary. Calling it while already resident
// only refreshes recency.
func (b *Buffer) MakeResident() error {
	b.mgr.mu.Lock()
	defer b.mgr.mu.Unlock()

	return b.makeResident()
}

// MakeCompressed moves the payload to compressed in-memory status,
// compressing it or reading it back from disk as necessary.
func (b *Buffer) MakeCompressed() error {
	b.mgr.mu.Lock()
	defer b.mgr.mu.Unlock()

	return b.makeCompressed()
}

// MakeDisk spills the payload to the disk store and frees the in-memory
// bytes. If the store cannot take the payload, the buffer stays in memory
// and only its recency is refreshed; that is not an error.
func (b *Buffer) MakeDisk() error {
	b.mgr.mu.Lock()
	defer b.mgr.mu.Unlock()

	_, err := b.makeDisk()
	return err
}

// CopyFrom assigns other's full state to b, overwriting every stage's
// snapshot at once. This bypasses per-stage isolation: do not call it for a
// buffer that is concurrently read by another pipeline stage.
func (b *Buffer) CopyFrom(other *Buffer) error {
	if err := other.MakeResident(); err != nil {
		return err
	}

	src := other.cycler.current()
	snap := &snapshot{
		data:      append([]byte(nil), src.data...),
		usageHint: src.usageHint,
		fullSize:  src.fullSize,
		modified:  nextModified(),
	}
	b.cycler.setAll(snap)

	b.mgr.mu.Lock()
	defer b.mgr.mu.Unlock()

	if b.savedBlock != nil {
		if err := b.mgr.freeBlock(b.savedBlock); err != nil {
			return err
		}
		b.savedBlock = nil
	}
	b.lruSizeTo(int64(len(snap.data)))
	b.setRamClass(RamClassResident)
	return nil
}

// Destroy releases all consumer contexts, retires the buffer from its tier
// and returns its disk block, if any. The buffer must not be used after.
func (b *Buffer) Destroy() error {
	_, err := b.ReleaseAll()

	b.mgr.mu.Lock()
	defer b.mgr.mu.Unlock()

	if b.savedBlock != nil {
		if ferr := b.mgr.freeBlock(b.savedBlock); ferr != nil && err == nil {
			err = ferr
		}
		b.savedBlock = nil
	}
	if b.lruTier != nil {
		b.lruTier.retire(b)
	}
	return err
}

func (b *Buffer) makeResident() error {
	if b.ramClass == RamClassResident {
		b.mgr.resident.track(b)
		return nil
	}

	if b.ramClass.onDisk() {
		if err := b.restoreFromDisk(); err != nil {
			return err
		}
	}

	if b.ramClass == RamClassCompressed {
		snap := b.cycler.current()
		if snap.fullSize > b.mgr.minCompressSize {
			b.mgr.logger.WithField("action", "vertexdata_decompress").
				WithField("from", len(snap.data)).
				WithField("to", snap.fullSize).
				Debug("expanding vertex data")

			raw, err := decompressPayload(snap.data, snap.fullSize)
			if err != nil {
				return errors.Wrapf(ErrCorrupted, "decompress vertex data: %v", err)
			}
			b.cycler.swapPayload(snap, raw)
			b.mgr.metrics.decompressOp()
		}

		b.lruSizeTo(int64(len(snap.data)))
		b.setRamClass(RamClassResident)
	}
	return nil
}

func (b *Buffer) makeCompressed() error {
	if b.ramClass == RamClassCompressed {
		b.mgr.compressed.track(b)
		return nil
	}

	if b.ramClass.onDisk() {
		if err := b.restoreFromDisk(); err != nil {
			return err
		}
	}

	if b.ramClass == RamClassResident {
		snap := b.cycler.current()
		if snap.fullSize > b.mgr.minCompressSize {
			packed, err := compressPayload(snap.data, b.mgr.compressionLevel)
			if err != nil {
				return errors.Wrapf(ErrCorrupted, "compress vertex data: %v", err)
			}
			b.cycler.swapPayload(snap, packed)
			b.mgr.metrics.compressOp()

			b.mgr.logger.WithField("action", "vertexdata_compress").
				WithField("from", snap.fullSize).
				WithField("to", len(packed)).
				Debug("compressed vertex data")
		}

		b.lruSizeTo(int64(len(snap.data)))
		b.setRamClass(RamClassCompressed)
	}
	return nil
}

// makeDisk spills the payload and reports whether the buffer actually
// migrated to a disk class. A refused spill is not an error, just a
// non-migration.
func (b *Buffer) makeDisk() (bool, error) {
	if b.ramClass.onDisk() {
		b.mgr.disk.track(b)
		return false, nil
	}

	if b.savedBlock != nil {
		return false, errors.Wrap(ErrProtocol, "disk block already allocated for in-memory buffer")
	}

	snap := b.cycler.current()
	blk, err := b.mgr.saveFile().WriteData(snap.data)
	if err != nil {
		// soft failure: the data stays in memory and will be considered
		// again at a later epoch
		entry := b.mgr.logger.WithField("action", "vertexdata_save").
			WithField("size", len(snap.data))
		if errors.Is(err, diskstore.ErrStoreFull) {
			entry.WithError(err).Debug("disk store cannot take vertex data")
		} else {
			entry.WithError(err).Warn("writing vertex data to disk failed")
		}
		if b.lruTier != nil {
			b.lruTier.track(b)
		}
		return false, nil
	}

	b.mgr.logger.WithField("action", "vertexdata_save").
		WithField("size", len(snap.data)).
		Debug("stored vertex data to disk")
	b.mgr.metrics.saveOp()

	b.savedBlock = blk
	// drop the payload slice entirely so the capacity is actually released
	b.cycler.swapPayload(snap, nil)

	b.lruSizeTo(0)
	if b.ramClass == RamClassResident {
		b.setRamClass(RamClassDisk)
	} else {
		b.setRamClass(RamClassCompressedDisk)
	}
	return true, nil
}

func (b *Buffer) restoreFromDisk() error {
	if !b.ramClass.onDisk() {
		return nil
	}
	if b.savedBlock == nil {
		return errors.Wrap(ErrProtocol, "no disk block to restore from")
	}

	size := b.savedBlock.Size()
	data := make([]byte, size)
	if err := b.mgr.saveFile().ReadData(b.savedBlock, data); err != nil {
		return errors.Wrap(err, "restore vertex data")
	}

	b.mgr.logger.WithField("action", "vertexdata_restore").
		WithField("size", size).
		Debug("restored vertex data from disk")
	b.mgr.metrics.restoreOp()

	snap := b.cycler.current()
	b.cycler.swapPayload(snap, data)

	// settle the in-memory state before returning the block, so a failed
	// free cannot leave accounting out of step with the restored payload
	blk := b.savedBlock
	b.savedBlock = nil
	b.lruSizeTo(size)
	if b.ramClass == RamClassCompressedDisk {
		b.setRamClass(RamClassCompressed)
	} else {
		b.setRamClass(RamClassResident)
	}

	return b.mgr.freeBlock(blk)
}

// evictLRU is the eviction callback invoked by a tier under pressure. From
// resident state the buffer compresses itself, unless the compressed tier
// is disabled (budget zero), in which case it spills straight to disk. From
// compressed state it spills to disk. Disk-resident data refuses eviction.
func (b *Buffer) evictLRU() {
	switch b.ramClass {
	case RamClassResident:
		if b.mgr.compressed.maxSize == 0 {
			b.evictToDisk("resident")
			return
		}
		if err := b.makeCompressed(); err != nil {
			b.mgr.metrics.incEviction("resident", "failed")
			b.mgr.logger.WithField("action", "lru_evict").
				WithError(err).Error("evicting resident vertex data failed")
			return
		}
		b.mgr.metrics.incEviction("resident", "migrated")

	case RamClassCompressed:
		b.evictToDisk("compressed")

	case RamClassDisk, RamClassCompressedDisk:
		b.mgr.metrics.incEviction("disk", "refused")
		b.mgr.logger.WithField("action", "lru_evict").
			Warn("cannot evict vertex data from disk")
	}
}

// evictToDisk spills under eviction pressure, counting whether the buffer
// migrated, deferred (spill refused, will be retried next epoch) or failed.
func (b *Buffer) evictToDisk(tier string) {
	migrated, err := b.makeDisk()
	if err != nil {
		b.mgr.metrics.incEviction(tier, "failed")
		b.mgr.logger.WithField("action", "lru_evict").
			WithError(err).Error("evicting vertex data to disk failed")
		return
	}
	if !migrated {
		b.mgr.metrics.incEviction(tier, "deferred")
		return
	}
	b.mgr.metrics.incEviction(tier, "migrated")
}

// lruSizeTo updates the accounted size in the owning tier, or just the
// bookkeeping if the buffer is not tracked anywhere.
func (b *Buffer) lruSizeTo(n int64) {
	if b.lruTier != nil {
		b.lruTier.resize(b, n)
		return
	}
	b.lruSize = n
}

// setRamClass records the new class and re-tracks the buffer in the
// matching tier at the MRU position.
func (b *Buffer) setRamClass(rc RamClass) {
	b.ramClass = rc
	b.mgr.tierFor(rc).track(b)
}
