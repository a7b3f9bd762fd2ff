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

// Package diskstore implements a bounded disk-backed block store. Callers
// spill byte payloads into blocks of a single backing file and read them
// back later; blocks are recycled through a first-fit allocator. The backing
// file is created lazily on the first write and removed again on Close.
package diskstore

import (
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrStoreFull is returned by WriteData when the capacity budget would
	// be exceeded. Callers are expected to treat this as "could not spill"
	// and keep their data in memory.
	ErrStoreFull = errors.New("disk store full")

	// ErrReadFailed marks a failed or short read of a previously written
	// block. There is no recovery path: the spilled payload is lost.
	ErrReadFailed = errors.New("disk store read failed")
)

type Store struct {
	// everything below is guarded by mu; block lifetimes are concurrent,
	// the allocation table and file handle are not
	mu sync.Mutex

	dir     string
	prefix  string
	maxSize int64
	useMmap bool

	logger logrus.FieldLogger

	file   *os.File
	path   string
	alloc  *allocator
	mapped mmap.MMap
	closed bool
}

// New prepares a store with a capacity budget of maxSize bytes (negative
// means unbounded). The backing file is created in dir with the given
// filename prefix the first time a block is written. With useMmap, reads go
// through a read-only memory mapping instead of pread.
func New(dir, prefix string, maxSize int64, useMmap bool, logger logrus.FieldLogger) *Store {
	return &Store{
		dir:     dir,
		prefix:  prefix,
		maxSize: maxSize,
		useMmap: useMmap,
		logger:  logger,
		alloc:   newAllocator(maxSize),
	}
}

// WriteData allocates a block sized to p and persists p into it. It returns
// ErrStoreFull if the capacity budget would be exceeded; any other error is
// a real I/O failure, after which the block has already been released again.
func (s *Store) WriteData(p []byte) (*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureOpen(); err != nil {
		return nil, errors.Wrap(err, "open backing file")
	}

	blk := s.alloc.allocate(int64(len(p)))
	if blk == nil {
		return nil, errors.Wrapf(ErrStoreFull,
			"%d bytes requested, %d of %d allocated", len(p), s.alloc.allocated(), s.maxSize)
	}

	if _, err := s.file.WriteAt(p, blk.offset); err != nil {
		s.alloc.release(blk)
		return nil, errors.Wrapf(err, "write %d bytes at offset %d", len(p), blk.offset)
	}

	return blk, nil
}

// ReadData reads exactly len(dst) bytes from the block's location. dst must
// not exceed the block's size. A short or failed read wraps ErrReadFailed.
func (s *Store) ReadData(blk *Block, dst []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if blk.freed {
		return errors.Errorf("read from freed block at offset %d", blk.offset)
	}
	if int64(len(dst)) > blk.size {
		return errors.Errorf("read of %d bytes exceeds block size %d", len(dst), blk.size)
	}
	if s.file == nil {
		return errors.Wrap(ErrReadFailed, "store has no backing file")
	}

	if s.useMmap {
		return s.readMapped(blk, dst)
	}

	if n, err := s.file.ReadAt(dst, blk.offset); err != nil {
		return errors.Wrapf(ErrReadFailed, "pread %d bytes at offset %d: %d read: %v",
			len(dst), blk.offset, n, err)
	}
	return nil
}

func (s *Store) readMapped(blk *Block, dst []byte) error {
	end := blk.offset + int64(len(dst))
	if int64(len(s.mapped)) < end {
		if err := s.remap(); err != nil {
			return errors.Wrapf(ErrReadFailed, "remap backing file: %v", err)
		}
	}
	if int64(len(s.mapped)) < end {
		return errors.Wrapf(ErrReadFailed, "mapping of %d bytes is short of offset %d",
			len(s.mapped), end)
	}

	copy(dst, s.mapped[blk.offset:end])
	return nil
}

func (s *Store) remap() error {
	if s.mapped != nil {
		if err := s.mapped.Unmap(); err != nil {
			return err
		}
		s.mapped = nil
	}

	mapped, err := mmap.Map(s.file, mmap.RDONLY, 0)
	if err != nil {
		return err
	}
	s.mapped = mapped
	return nil
}

// Free releases the block's byte range for reuse.
func (s *Store) Free(blk *Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.alloc.release(blk)
}

// Allocated is the total byte size of all live blocks.
func (s *Store) Allocated() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.alloc.allocated()
}

// Close unmaps and removes the backing file. All blocks become invalid.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.mapped != nil {
		if err := s.mapped.Unmap(); err != nil {
			return errors.Wrap(err, "unmap backing file")
		}
		s.mapped = nil
	}
	if s.file != nil {
		s.logger.WithField("action", "diskstore_close").
			WithField("path", s.path).
			WithField("high_water", s.alloc.end()).
			Debug("removing disk store backing file")

		if err := s.file.Close(); err != nil {
			return errors.Wrap(err, "close backing file")
		}
		s.file = nil
		if err := os.Remove(s.path); err != nil {
			return errors.Wrap(err, "remove backing file")
		}
	}
	return nil
}

func (s *Store) ensureOpen() error {
	if s.closed {
		return errors.New("store is closed")
	}
	if s.file != nil {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.dir, s.prefix+"-*.bin")
	if err != nil {
		return err
	}
	s.file = f
	s.path = f.Name()

	s.logger.WithField("action", "diskstore_create").
		WithField("path", s.path).
		WithField("max_size", s.maxSize).
		Debug("created disk store backing file")

	return nil
}
