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
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

// compressPayload deflates raw at the given zlib level (1-9).
func compressPayload(raw []byte, level int) ([]byte, error) {
	// zlib worst case is a fraction of a percent bigger plus a small
	// constant, so reserve that up front
	buf := bytes.NewBuffer(make([]byte, 0, len(raw)+len(raw)/1000+64))

	w, err := zlib.NewWriterLevel(buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decompressPayload inflates packed into a buffer of exactly fullSize bytes.
// A stream that errors, ends short, or carries trailing data means the
// in-memory payload is corrupt.
func decompressPayload(packed []byte, fullSize int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(packed))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	raw := make([]byte, fullSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, err
	}

	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return nil, errors.Errorf("stream holds more than the expected %d bytes", fullSize)
	}
	return raw, nil
}
