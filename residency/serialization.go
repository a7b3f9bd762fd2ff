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
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// The persisted record is a usage-hint byte, a 32-bit payload length and
// the raw payload, written in the scene file's byte order. Payloads are
// endian-normalized through the format description when that order differs
// from the host's.

// WriteDatagram persists the buffer's payload to w in the given byte order,
// forcing the buffer resident first.
func (b *Buffer) WriteDatagram(w io.Writer, order binary.ByteOrder) error {
	if err := b.MakeResident(); err != nil {
		return err
	}

	snap := b.cycler.current()
	data := snap.data

	if _, err := w.Write([]byte{byte(snap.usageHint)}); err != nil {
		return errors.Wrap(err, "write usage hint")
	}
	if err := binary.Write(w, order, uint32(len(data))); err != nil {
		return errors.Wrap(err, "write payload length")
	}

	if !orderIsNative(order) {
		converted := make([]byte, len(data))
		b.format.ReverseEndianness(converted, data)
		data = converted
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "write payload")
	}
	return nil
}

// ReadDatagram replaces the buffer's payload with a record read from r,
// normalizing byte order if needed. Every stage observes the new payload at
// once, so this must not run concurrently with readers in other stages.
func (b *Buffer) ReadDatagram(r io.Reader, order binary.ByteOrder) error {
	var hint [1]byte
	if _, err := io.ReadFull(r, hint[:]); err != nil {
		return errors.Wrap(err, "read usage hint")
	}

	var size uint32
	if err := binary.Read(r, order, &size); err != nil {
		return errors.Wrap(err, "read payload length")
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return errors.Wrap(err, "read payload")
	}

	if !orderIsNative(order) {
		converted := make([]byte, len(data))
		b.format.ReverseEndianness(converted, data)
		data = converted
	}

	snap := &snapshot{
		data:      data,
		usageHint: UsageHint(hint[0]),
		fullSize:  len(data),
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
	b.lruSizeTo(int64(len(data)))
	b.setRamClass(RamClassResident)
	return nil
}

func orderIsNative(order binary.ByteOrder) bool {
	var probe, nativeProbe [2]byte
	order.PutUint16(probe[:], 0x0102)
	binary.NativeEndian.PutUint16(nativeProbe[:], 0x0102)
	return probe == nativeProbe
}
