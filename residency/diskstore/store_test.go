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
	"crypto/rand"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestStoreRoundTrip(t *testing.T) {
	run := func(t *testing.T, useMmap bool) {
		s := New(t.TempDir(), "vertexdata", -1, useMmap, newTestLogger())
		defer s.Close()

		payloads := make([][]byte, 5)
		blocks := make([]*Block, 5)
		for i := range payloads {
			payloads[i] = make([]byte, 512*(i+1))
			_, err := rand.Read(payloads[i])
			require.NoError(t, err)

			blocks[i], err = s.WriteData(payloads[i])
			require.NoError(t, err)
			require.NotNil(t, blocks[i])
		}

		for i, blk := range blocks {
			dst := make([]byte, blk.Size())
			require.NoError(t, s.ReadData(blk, dst))
			assert.Equal(t, payloads[i], dst)
		}

		for _, blk := range blocks {
			require.NoError(t, s.Free(blk))
		}
		assert.Equal(t, int64(0), s.Allocated())
	}

	t.Run("pread", func(t *testing.T) { run(t, false) })
	t.Run("mmap", func(t *testing.T) { run(t, true) })
}

func TestStoreCapacityRefusal(t *testing.T) {
	s := New(t.TempDir(), "vertexdata", 1024, false, newTestLogger())
	defer s.Close()

	blk, err := s.WriteData(make([]byte, 1000))
	require.NoError(t, err)
	require.NotNil(t, blk)

	_, err = s.WriteData(make([]byte, 100))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreFull))

	// freeing the first block makes room again
	require.NoError(t, s.Free(blk))
	blk2, err := s.WriteData(make([]byte, 100))
	require.NoError(t, err)
	require.NotNil(t, blk2)
}

func TestStoreLazyFileCreation(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, "vertexdata", -1, false, newTestLogger())
	defer s.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "backing file must not exist before the first write")

	_, err = s.WriteData([]byte("payload"))
	require.NoError(t, err)

	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "vertexdata")
}

func TestStoreCloseRemovesFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, "vertexdata", -1, true, newTestLogger())

	blk, err := s.WriteData([]byte("spilled bytes"))
	require.NoError(t, err)

	dst := make([]byte, blk.Size())
	require.NoError(t, s.ReadData(blk, dst))

	require.NoError(t, s.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = s.WriteData([]byte("after close"))
	require.Error(t, err)
}

func TestStoreReadValidation(t *testing.T) {
	s := New(t.TempDir(), "vertexdata", -1, false, newTestLogger())
	defer s.Close()

	blk, err := s.WriteData(make([]byte, 64))
	require.NoError(t, err)

	err = s.ReadData(blk, make([]byte, 128))
	require.Error(t, err, "read must not exceed the block size")

	require.NoError(t, s.Free(blk))
	err = s.ReadData(blk, make([]byte, 64))
	require.Error(t, err, "read from a freed block must fail")
}
