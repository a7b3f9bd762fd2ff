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
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerOptionValidation(t *testing.T) {
	type test struct {
		name string
		opt  Option
	}

	tests := []test{
		{name: "compression level too low", opt: WithCompressionLevel(0)},
		{name: "compression level too high", opt: WithCompressionLevel(10)},
		{name: "negative min compress size", opt: WithMinCompressSize(-1)},
		{name: "zero pipeline stages", opt: WithPipelineStages(0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := NewManager(tc.opt)
			require.Error(t, err)
			assert.Nil(t, m)
		})
	}

	t.Run("valid options accepted", func(t *testing.T) {
		m, err := NewManager(
			WithCompressionLevel(9),
			WithMinCompressSize(0),
			WithPipelineStages(3),
			WithMaxResidentBytes(1<<20),
			WithMaxCompressedBytes(1<<20),
			WithMaxDiskBytes(1<<20),
			WithDiskStoreDir(t.TempDir()),
			WithDiskStorePrefix("vdata-test"),
			WithLogger(quietLogger()),
		)
		require.NoError(t, err)
		t.Cleanup(func() {
			require.NoError(t, m.Shutdown(context.Background()))
		})
	})
}

func TestStartEpochsAppliesPressure(t *testing.T) {
	m := newTestManager(t, WithMaxResidentBytes(1000))

	for i := 0; i < 4; i++ {
		newTestBuffer(t, m, pattern(500))
	}
	require.Equal(t, int64(2000), m.ResidentBytes())

	m.StartEpochs(5 * time.Millisecond)

	assert.Eventually(t, func() bool {
		return m.ResidentBytes() <= 1000
	}, time.Second, 5*time.Millisecond, "the epoch ticker must trim the resident tier")
}

func TestShutdownIsIdempotent(t *testing.T) {
	m, err := NewManager(WithLogger(quietLogger()), WithDiskStoreDir(t.TempDir()))
	require.NoError(t, err)

	b := newTestBuffer(t, m, pattern(256))
	require.NoError(t, b.MakeDisk())

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))
	assert.Zero(t, m.DiskBytes())
}

func TestEvictionCountsDeferredOnRefusedSpill(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	m := newTestManager(t,
		WithMetrics(metrics),
		WithMaxResidentBytes(100),
		WithMaxCompressedBytes(0),
		WithMaxDiskBytes(0))

	b := newTestBuffer(t, m, pattern(500))
	m.LRUEpoch()

	assert.Equal(t, RamClassResident, b.RamClass(), "a refused spill keeps the data in memory")
	assert.Equal(t, float64(1),
		testutil.ToFloat64(metrics.Evictions.WithLabelValues("resident", "deferred")))
	assert.Equal(t, float64(0),
		testutil.ToFloat64(metrics.Evictions.WithLabelValues("resident", "migrated")))
}

func TestMetricsObserveTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newTestManager(t, WithMetrics(NewMetrics(reg)))

	b := newTestBuffer(t, m, pattern(1024))
	require.NoError(t, b.MakeCompressed())
	require.NoError(t, b.MakeDisk())
	require.NoError(t, b.MakeResident())

	families, err := reg.Gather()
	require.NoError(t, err)

	observed := map[string]bool{}
	for _, mf := range families {
		observed[mf.GetName()] = true
	}

	assert.True(t, observed["vertexdata_compress_ops_total"])
	assert.True(t, observed["vertexdata_decompress_ops_total"])
	assert.True(t, observed["vertexdata_disk_save_ops_total"])
	assert.True(t, observed["vertexdata_disk_restore_ops_total"])
	assert.True(t, observed["vertexdata_tier_bytes"])
}
