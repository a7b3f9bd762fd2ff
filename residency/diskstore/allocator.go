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
	"sort"

	"github.com/pkg/errors"
)

// Block is a byte range inside the store's backing file. A block is owned
// exclusively by the caller that allocated it until it is freed.
type Block struct {
	offset int64
	size   int64
	freed  bool
}

func (b *Block) Offset() int64 {
	return b.offset
}

func (b *Block) Size() int64 {
	return b.size
}

// allocator hands out non-overlapping byte ranges of the backing file using
// a first-fit scan over the gaps between live blocks. Live blocks are kept
// sorted by offset. Not safe for concurrent use; the store serializes access.
type allocator struct {
	// maxSize bounds the end offset of any allocation, negative means
	// unbounded
	maxSize int64
	blocks  []*Block
}

func newAllocator(maxSize int64) *allocator {
	return &allocator{maxSize: maxSize}
}

// allocate returns a block of the requested size, or nil if no gap fits
// within the configured capacity.
func (a *allocator) allocate(size int64) *Block {
	offset := int64(0)
	pos := len(a.blocks)
	for i, blk := range a.blocks {
		if blk.offset-offset >= size {
			pos = i
			break
		}
		offset = blk.offset + blk.size
	}

	if a.maxSize >= 0 && offset+size > a.maxSize {
		return nil
	}

	out := &Block{offset: offset, size: size}
	a.blocks = append(a.blocks, nil)
	copy(a.blocks[pos+1:], a.blocks[pos:])
	a.blocks[pos] = out
	return out
}

// release returns the block's byte range to the pool. Releasing a block
// twice indicates a bookkeeping bug in the caller.
func (a *allocator) release(blk *Block) error {
	if blk.freed {
		return errors.Errorf("block at offset %d freed twice", blk.offset)
	}

	i := sort.Search(len(a.blocks), func(i int) bool {
		return a.blocks[i].offset >= blk.offset
	})
	// zero-size blocks share their offset with the block behind them, so
	// walk the run of equal offsets until the exact block
	for i < len(a.blocks) && a.blocks[i].offset == blk.offset && a.blocks[i] != blk {
		i++
	}
	if i == len(a.blocks) || a.blocks[i] != blk {
		return errors.Errorf("block at offset %d is not live in this store", blk.offset)
	}

	blk.freed = true
	a.blocks = append(a.blocks[:i], a.blocks[i+1:]...)
	return nil
}

// allocated is the total byte size of all live blocks.
func (a *allocator) allocated() int64 {
	var total int64
	for _, blk := range a.blocks {
		total += blk.size
	}
	return total
}

// end is the file's high-water mark: the end offset of the last live block.
func (a *allocator) end() int64 {
	if len(a.blocks) == 0 {
		return 0
	}
	last := a.blocks[len(a.blocks)-1]
	return last.offset + last.size
}
