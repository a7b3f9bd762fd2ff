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

import "github.com/pkg/errors"

// Handle binds a buffer to one pipeline stage's snapshot for direct payload
// access. Obtaining a handle forces the buffer resident first. A write
// handle owns a private copy-on-write snapshot of its stage, so writes
// never disturb earlier committed stages.
type Handle struct {
	b        *Buffer
	snap     *snapshot
	stage    int
	writable bool
}

// ReadHandle returns a read-only view of the snapshot visible to the given
// stage.
func (b *Buffer) ReadHandle(stage int) (*Handle, error) {
	if err := b.MakeResident(); err != nil {
		return nil, err
	}
	return &Handle{b: b, snap: b.cycler.readStage(stage), stage: stage}, nil
}

// WriteHandle returns a writable view of the given stage's snapshot,
// cloning it copy-on-write if it is still shared with other stages.
func (b *Buffer) WriteHandle(stage int) (*Handle, error) {
	if err := b.MakeResident(); err != nil {
		return nil, err
	}
	return &Handle{b: b, snap: b.cycler.writeStage(stage), stage: stage, writable: true}, nil
}

// Bytes returns the payload. Callers must not retain the slice across
// writes through another handle.
func (h *Handle) Bytes() []byte {
	return h.snap.data
}

func (h *Handle) NumRows() int {
	return h.b.format.NumRows(len(h.snap.data))
}

func (h *Handle) Modified() uint64 {
	return h.snap.modified
}

func (h *Handle) UsageHint() UsageHint {
	return h.snap.usageHint
}

// SetNumRows grows or shrinks the payload to n rows. Grown space is
// zero-filled; shrinking truncates. It reports whether the size changed.
func (h *Handle) SetNumRows(n int) (bool, error) {
	if !h.writable {
		return false, errors.Wrap(ErrProtocol, "resize through a read handle")
	}

	target := h.b.format.SizeForRows(n)
	cur := len(h.snap.data)
	if target == cur {
		return false, nil
	}

	var data []byte
	if target > cur {
		data = make([]byte, target)
		copy(data, h.snap.data)
	} else {
		data = h.snap.data[:target]
	}

	h.commitResize(data)
	return true, nil
}

// UncleanSetNumRows resizes to n rows without preserving the previous
// contents; the payload comes back zero-filled.
func (h *Handle) UncleanSetNumRows(n int) (bool, error) {
	if !h.writable {
		return false, errors.Wrap(ErrProtocol, "resize through a read handle")
	}

	target := h.b.format.SizeForRows(n)
	if target == len(h.snap.data) {
		return false, nil
	}

	h.commitResize(make([]byte, target))
	return true, nil
}

// CopyDataFrom replaces the payload with a copy of the other handle's
// payload.
func (h *Handle) CopyDataFrom(other *Handle) error {
	if !h.writable {
		return errors.Wrap(ErrProtocol, "write through a read handle")
	}

	h.commitResize(append([]byte(nil), other.snap.data...))
	return nil
}

// CopySubdataFrom copies a portion of the other handle's payload into a
// portion of this one. If toSize differs from fromSize, the payload is
// spliced and its size adjusts accordingly. Out-of-range offsets and sizes
// are clamped.
func (h *Handle) CopySubdataFrom(toStart, toSize int,
	other *Handle, fromStart, fromSize int,
) error {
	if !h.writable {
		return errors.Wrap(ErrProtocol, "write through a read handle")
	}

	to := h.snap.data
	toStart = min(toStart, len(to))
	toSize = min(toSize, len(to)-toStart)

	from := other.snap.data
	fromStart = min(fromStart, len(from))
	fromSize = min(fromSize, len(from)-fromStart)

	data := make([]byte, 0, len(to)-toSize+fromSize)
	data = append(data, to[:toStart]...)
	data = append(data, from[fromStart:fromStart+fromSize]...)
	data = append(data, to[toStart+toSize:]...)

	h.commitResize(data)
	return nil
}

// commitResize swaps in the new payload, updates the logical full size and
// stamps the modification. For the primary stage it also forces the buffer
// back to resident bookkeeping at the new size.
func (h *Handle) commitResize(data []byte) {
	h.b.cycler.swapPayload(h.snap, data)
	h.snap.fullSize = len(data)
	h.snap.modified = nextModified()

	if h.stage == 0 {
		h.b.mgr.mu.Lock()
		defer h.b.mgr.mu.Unlock()

		h.b.lruSizeTo(int64(len(data)))
		h.b.setRamClass(RamClassResident)
	}
}
