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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCyclerSharing(t *testing.T) {
	c := newSnapshotCycler(3, UsageHintDynamic)

	// without writes, all stages alias one snapshot
	first := c.readStage(0)
	assert.Same(t, first, c.readStage(1))
	assert.Same(t, first, c.readStage(2))
	assert.Equal(t, 3, first.refs)
	assert.Equal(t, UsageHintDynamic, first.usageHint)
}

func TestSnapshotCyclerCopyOnWrite(t *testing.T) {
	c := newSnapshotCycler(3, UsageHintStatic)
	shared := c.current()
	c.swapPayload(shared, []byte("generation one"))

	// writing stage 0 clones, later stages keep the committed snapshot
	snap := c.writeStage(0)
	require.NotSame(t, shared, snap)
	c.swapPayload(snap, []byte("generation two"))

	assert.Equal(t, []byte("generation two"), c.readStage(0).data)
	assert.Equal(t, []byte("generation one"), c.readStage(1).data)
	assert.Equal(t, []byte("generation one"), c.readStage(2).data)
	assert.Equal(t, 1, snap.refs)
	assert.Equal(t, 2, shared.refs)

	// a second write to the same stage reuses the private snapshot
	assert.Same(t, snap, c.writeStage(0))
}

func TestSnapshotCyclerModifiedStamps(t *testing.T) {
	c := newSnapshotCycler(2, UsageHintStatic)

	first := c.writeStage(0).modified
	second := c.writeStage(0).modified
	third := c.writeStage(1).modified

	assert.Greater(t, second, first)
	assert.Greater(t, third, second, "stamps are globally monotonic")
}

func TestSnapshotCyclerCycle(t *testing.T) {
	c := newSnapshotCycler(3, UsageHintStatic)

	gen1 := c.writeStage(0)
	c.swapPayload(gen1, []byte("one"))
	c.cycle()

	gen2 := c.writeStage(0)
	c.swapPayload(gen2, []byte("two"))
	c.cycle()

	assert.Equal(t, []byte("two"), c.readStage(0).data)
	assert.Equal(t, []byte("two"), c.readStage(1).data)
	assert.Equal(t, []byte("one"), c.readStage(2).data)

	// one more cycle retires generation one entirely
	c.cycle()
	assert.Equal(t, []byte("two"), c.readStage(2).data)
	assert.Equal(t, 3, gen2.refs)
}

func TestSnapshotCyclerSingleStage(t *testing.T) {
	c := newSnapshotCycler(1, UsageHintStatic)
	snap := c.current()

	// with one stage, writes never need to clone
	assert.Same(t, snap, c.writeStage(0))
	c.cycle()
	assert.Same(t, snap, c.current())
}

func TestSnapshotCyclerStageClamping(t *testing.T) {
	c := newSnapshotCycler(2, UsageHintStatic)

	assert.Same(t, c.readStage(0), c.readStage(-5))
	assert.Same(t, c.readStage(1), c.readStage(17))
}
