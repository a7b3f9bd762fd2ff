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

var (
	// ErrCorrupted marks a failed compression or decompression of
	// in-memory payload bytes. This implies the process holds corrupted
	// data; there is no recovery path.
	ErrCorrupted = errors.New("vertex data corrupted")

	// ErrProtocol marks a caller-side misuse of the buffer lifecycle, such
	// as clearing a consumer context that was never registered.
	ErrProtocol = errors.New("vertex data protocol violation")
)
