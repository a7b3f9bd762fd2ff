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

// Package vertexformat describes the byte layout of vertex array rows. The
// layout is owned by an external format registry; this package only carries
// the column start/size metadata needed for byte-order conversion and
// row-count arithmetic.
package vertexformat

import "github.com/pkg/errors"

// Column is one column of a vertex array row: where it starts within the
// row, how many numeric components it holds and how many bytes each
// component occupies. A component of one byte has no byte order.
type Column struct {
	Start          int
	NumComponents  int
	ComponentBytes int
}

// ArrayFormat is the fixed row stride and the columns packed into each row.
// Instances are shared and read-only.
type ArrayFormat struct {
	Stride  int
	Columns []Column
}

func (f *ArrayFormat) Validate() error {
	if f.Stride <= 0 {
		return errors.Errorf("invalid stride %d", f.Stride)
	}
	for i, col := range f.Columns {
		if col.NumComponents <= 0 || col.ComponentBytes <= 0 {
			return errors.Errorf("column %d has invalid component layout", i)
		}
		if col.Start+col.NumComponents*col.ComponentBytes > f.Stride {
			return errors.Errorf("column %d exceeds row stride %d", i, f.Stride)
		}
	}
	return nil
}

// NumRows returns how many complete rows fit in numBytes.
func (f *ArrayFormat) NumRows(numBytes int) int {
	return numBytes / f.Stride
}

// SizeForRows returns the byte length of n rows.
func (f *ArrayFormat) SizeForRows(n int) int {
	return n * f.Stride
}

// ReverseEndianness fills dst with the contents of src, the bytes of every
// multi-byte component reversed, converting little-endian data to big-endian
// and vice versa. Single-byte components and padding between columns are
// copied untouched. dst and src must be distinct slices of equal length.
// Applying the conversion twice restores the original bytes.
func (f *ArrayFormat) ReverseEndianness(dst, src []byte) {
	copy(dst, src)

	for rowStart := 0; rowStart+f.Stride <= len(src); rowStart += f.Stride {
		for _, col := range f.Columns {
			if col.ComponentBytes <= 1 {
				continue
			}
			for c := 0; c < col.NumComponents; c++ {
				start := rowStart + col.Start + c*col.ComponentBytes
				for i := 0; i < col.ComponentBytes; i++ {
					dst[start+i] = src[start+col.ComponentBytes-1-i]
				}
			}
		}
	}
}
