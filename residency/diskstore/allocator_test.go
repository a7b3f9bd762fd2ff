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

package diskstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocatorFirstFit(t *testing.T) {
	a := newAllocator(-1)

	b1 := a.allocate(100)
	b2 := a.allocate(50)
	b3 := a.allocate(25)
	require.NotNil(t, b1)
	require.NotNil(t, b2)
	require.NotNil(t, b3)

	assert.Equal(t, int64(0), b1.Offset())
	assert.Equal(t, int64(100), b2.Offset())
	assert.Equal(t, int64(150), b3.Offset())
	assert.Equal(t, int64(175), a.allocated())

	// freeing the middle block opens a gap that a smaller allocation reuses
	require.NoError(t, a.release(b2))
	b4 := a.allocate(30)
	require.NotNil(t, b4)
	assert.Equal(t, int64(100), b4.Offset())

	// a block too large for the gap lands after the high-water mark
	b5 := a.allocate(60)
	require.NotNil(t, b5)
	assert.Equal(t, int64(175), b5.Offset())
	assert.Equal(t, int64(235), a.end())
}

func TestAllocatorCapacity(t *testing.T) {
	a := newAllocator(100)

	b1 := a.allocate(80)
	require.NotNil(t, b1)

	assert.Nil(t, a.allocate(30), "allocation beyond the budget must fail")

	b2 := a.allocate(20)
	require.NotNil(t, b2)
	assert.Equal(t, int64(80), b2.Offset())

	require.NoError(t, a.release(b1))
	b3 := a.allocate(70)
	require.NotNil(t, b3)
	assert.Equal(t, int64(0), b3.Offset())
}

func TestAllocatorDoubleFree(t *testing.T) {
	a := newAllocator(-1)

	blk := a.allocate(10)
	require.NotNil(t, blk)
	require.NoError(t, a.release(blk))
	require.Error(t, a.release(blk))
}

func TestAllocatorZeroSize(t *testing.T) {
	a := newAllocator(0)

	blk := a.allocate(0)
	require.NotNil(t, blk)
	assert.Equal(t, int64(0), blk.Size())
	require.NoError(t, a.release(blk))
}

func TestAllocatorZeroSizeSharesOffsetWithLiveBlock(t *testing.T) {
	a := newAllocator(-1)

	empty := a.allocate(0)
	require.NotNil(t, empty)
	blk := a.allocate(10)
	require.NotNil(t, blk)
	assert.Equal(t, blk.Offset(), empty.Offset(),
		"a zero-size block occupies no range, so the next allocation starts at the same offset")

	// either block must be releasable despite the shared offset
	require.NoError(t, a.release(blk))
	require.NoError(t, a.release(empty))

	empty2 := a.allocate(0)
	blk2 := a.allocate(10)
	require.NotNil(t, empty2)
	require.NotNil(t, blk2)
	require.NoError(t, a.release(empty2))
	require.NoError(t, a.release(blk2))
	assert.Equal(t, int64(0), a.allocated())
}
