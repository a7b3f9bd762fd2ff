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
	"sync"
	"sync/atomic"
)

// modification stamps are issued from one global counter so dependents can
// compare stamps across buffers to detect "new data available" without
// comparing payload contents.
var modifiedCounter uint64

func nextModified() uint64 {
	return atomic.AddUint64(&modifiedCounter, 1)
}

// snapshot is one versioned copy of a buffer's payload, visible to one or
// more pipeline stages. Payload slices are replaced wholesale, never
// mutated in place, so a reader that obtained the slice keeps a consistent
// view even if the snapshot moves on.
type snapshot struct {
	data      []byte
	usageHint UsageHint
	modified  uint64
	// fullSize is the logical uncompressed byte length. It only differs
	// from len(data) while the payload is compressed or spilled.
	fullSize int
	// refs counts the stages referring to this snapshot
	refs int
}

// snapshotCycler maintains one visible snapshot per pipeline stage. Stage 0
// is the newest generation; higher stages see older generations. Writers
// clone a stage's snapshot on first write so earlier committed stages stay
// untouched.
type snapshotCycler struct {
	mu     sync.RWMutex
	stages []*snapshot
}

func newSnapshotCycler(numStages int, hint UsageHint) *snapshotCycler {
	snap := &snapshot{
		usageHint: hint,
		modified:  nextModified(),
		refs:      numStages,
	}

	stages := make([]*snapshot, numStages)
	for i := range stages {
		stages[i] = snap
	}
	return &snapshotCycler{stages: stages}
}

func (c *snapshotCycler) numStages() int {
	return len(c.stages)
}

// readStage returns the snapshot committed at or before the given stage.
// Out-of-range stages are clamped.
func (c *snapshotCycler) readStage(stage int) *snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.stages[c.clamp(stage)]
}

// writeStage returns a snapshot private to the given stage, cloning the
// currently visible one on first write, and stamps it modified.
func (c *snapshotCycler) writeStage(stage int) *snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	stage = c.clamp(stage)
	snap := c.stages[stage]
	if snap.refs > 1 {
		clone := &snapshot{
			data:      append([]byte(nil), snap.data...),
			usageHint: snap.usageHint,
			fullSize:  snap.fullSize,
			refs:      1,
		}
		snap.refs--
		c.stages[stage] = clone
		snap = clone
	}
	snap.modified = nextModified()
	return snap
}

// current returns the stage-0 snapshot without copy-on-write. Mutations of
// the returned snapshot write through to every stage aliasing it; residency
// transitions rely on this, which is why they are restricted to the primary
// stage and serialized by the manager.
func (c *snapshotCycler) current() *snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.stages[0]
}

// swapPayload replaces the snapshot's payload slice.
func (c *snapshotCycler) swapPayload(snap *snapshot, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap.data = data
}

// cycle advances the pipeline one generation: every stage k+1 adopts stage
// k's snapshot. The snapshot previously visible to the last stage is
// released once no stage refers to it.
func (c *snapshotCycler) cycle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	last := len(c.stages) - 1
	if last == 0 {
		return
	}

	c.stages[last].refs--
	copy(c.stages[1:], c.stages[:last])
	c.stages[0].refs++
}

// setAll makes one snapshot visible to every stage at once, bypassing the
// per-stage isolation. Only safe while no other stage is reading.
func (c *snapshotCycler) setAll(snap *snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap.refs = len(c.stages)
	for i := range c.stages {
		c.stages[i] = snap
	}
}

func (c *snapshotCycler) clamp(stage int) int {
	if stage < 0 {
		return 0
	}
	if stage >= len(c.stages) {
		return len(c.stages) - 1
	}
	return stage
}
