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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments residency transitions. A nil *Metrics disables all
// instrumentation, so callers never need to guard.
type Metrics struct {
	CompressOps   prometheus.Counter
	DecompressOps prometheus.Counter
	SaveOps       prometheus.Counter
	RestoreOps    prometheus.Counter

	TierBytes *prometheus.GaugeVec
	Evictions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CompressOps: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vertexdata_compress_ops_total",
			Help: "Total number of vertex buffer compressions",
		}),
		DecompressOps: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vertexdata_decompress_ops_total",
			Help: "Total number of vertex buffer decompressions",
		}),
		SaveOps: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vertexdata_disk_save_ops_total",
			Help: "Total number of vertex buffers spilled to the disk store",
		}),
		RestoreOps: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "vertexdata_disk_restore_ops_total",
			Help: "Total number of vertex buffers restored from the disk store",
		}),
		TierBytes: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "vertexdata_tier_bytes",
			Help: "Accounted bytes per residency tier",
		}, []string{"tier"}),
		Evictions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "vertexdata_evictions_total",
			Help: "Eviction callbacks per tier and outcome",
		}, []string{"tier", "outcome"}),
	}
}

func (m *Metrics) compressOp() {
	if m == nil {
		return
	}
	m.CompressOps.Inc()
}

func (m *Metrics) decompressOp() {
	if m == nil {
		return
	}
	m.DecompressOps.Inc()
}

func (m *Metrics) saveOp() {
	if m == nil {
		return
	}
	m.SaveOps.Inc()
}

func (m *Metrics) restoreOp() {
	if m == nil {
		return
	}
	m.RestoreOps.Inc()
}

func (m *Metrics) setTierBytes(tier string, n int64) {
	if m == nil {
		return
	}
	m.TierBytes.WithLabelValues(tier).Set(float64(n))
}

func (m *Metrics) incEviction(tier, outcome string) {
	if m == nil {
		return
	}
	m.Evictions.WithLabelValues(tier, outcome).Inc()
}
