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
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Option func(m *Manager) error

// WithMaxResidentBytes bounds the bytes of all vertex data allowed to
// remain fully resident at one time. Beyond the budget, the least recently
// used buffers are compressed at the next epoch. Negative means unlimited.
func WithMaxResidentBytes(n int64) Option {
	return func(m *Manager) error {
		m.maxResidentBytes = n
		return nil
	}
}

// WithMaxCompressedBytes bounds the bytes of all vertex data allowed to
// remain compressed in memory at one time. Beyond the budget, the least
// recently used buffers are flushed to disk at the next epoch. Negative
// means unlimited; zero disables the compressed tier, so eviction from
// resident goes straight to disk.
func WithMaxCompressedBytes(n int64) Option {
	return func(m *Manager) error {
		m.maxCompressedBytes = n
		return nil
	}
}

// WithMaxDiskBytes bounds the disk store's capacity. Negative means
// unlimited.
func WithMaxDiskBytes(n int64) Option {
	return func(m *Manager) error {
		m.maxDiskBytes = n
		return nil
	}
}

// WithCompressionLevel sets the zlib level used when compressing vertex
// data, in the range 1 to 9 where larger values are slower but compress
// better.
func WithCompressionLevel(level int) Option {
	return func(m *Manager) error {
		if level < 1 || level > 9 {
			return errors.Errorf("compression level %d outside range 1..9", level)
		}
		m.compressionLevel = level
		return nil
	}
}

// WithMinCompressSize sets the smallest logical payload size passed through
// the codec when a buffer leaves resident state.
func WithMinCompressSize(n int) Option {
	return func(m *Manager) error {
		if n < 0 {
			return errors.Errorf("min compress size %d must not be negative", n)
		}
		m.minCompressSize = n
		return nil
	}
}

// WithDiskStoreDir sets the directory holding the disk store's backing file.
func WithDiskStoreDir(dir string) Option {
	return func(m *Manager) error {
		m.storeDir = dir
		return nil
	}
}

// WithDiskStorePrefix sets the filename prefix of the backing file.
func WithDiskStorePrefix(prefix string) Option {
	return func(m *Manager) error {
		m.storePrefix = prefix
		return nil
	}
}

// WithDiskReadMmap reads restored blocks through a memory mapping of the
// backing file instead of pread.
func WithDiskReadMmap(useMmap bool) Option {
	return func(m *Manager) error {
		m.useMmap = useMmap
		return nil
	}
}

// WithPipelineStages sets how many pipeline stages observe each buffer
// concurrently.
func WithPipelineStages(n int) Option {
	return func(m *Manager) error {
		if n < 1 {
			return errors.Errorf("pipeline stages %d must be at least 1", n)
		}
		m.stages = n
		return nil
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(m *Manager) error {
		m.logger = logger
		return nil
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) error {
		m.metrics = metrics
		return nil
	}
}
