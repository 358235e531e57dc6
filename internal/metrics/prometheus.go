// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ionovox/server/internal/channel"
	"github.com/ionovox/server/internal/propagation"
	"github.com/ionovox/server/internal/session"
)

// Metrics holds every exported Prometheus collector. Gauges that mirror
// live state already owned by another package (session count, cache
// sizes) are wired as GaugeFunc so their value is always read fresh at
// scrape time rather than kept in sync by scattered Set calls; counters
// for discrete events are incremented at their call sites instead.
type Metrics struct {
	SessionsActive          prometheus.GaugeFunc
	PermCacheEntries        prometheus.GaugeFunc
	PropagationCacheEntries prometheus.GaugeFunc

	VoicePacketsTotal          *prometheus.CounterVec
	AuthAttemptsTotal          *prometheus.CounterVec
	StatsFilesTotal            *prometheus.CounterVec
	PropagationComputeDuration prometheus.Histogram
}

// Deps supplies the live objects NewMetrics polls for gauge values.
type Deps struct {
	Sessions   *session.Registry
	Channels   *channel.Manager
	Ionosphere *propagation.Ionosphere
}

func NewMetrics(deps Deps) *Metrics {
	m := &Metrics{
		SessionsActive: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ionovox_sessions_active",
			Help: "The current number of authenticated control sessions",
		}, func() float64 {
			if deps.Sessions == nil {
				return 0
			}
			return float64(deps.Sessions.Count())
		}),
		PermCacheEntries: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ionovox_permission_cache_entries",
			Help: "The current number of cached effective-permission evaluations",
		}, func() float64 {
			if deps.Channels == nil {
				return 0
			}
			return float64(deps.Channels.PermCacheSize())
		}),
		PropagationCacheEntries: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "ionovox_propagation_pair_cache_entries",
			Help: "The current number of cached grid-pair signal-strength computations",
		}, func() float64 {
			if deps.Ionosphere == nil {
				return 0
			}
			return float64(deps.Ionosphere.PairCacheSize())
		}),
		VoicePacketsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ionovox_voice_packets_total",
			Help: "The total number of voice packets routed, by outcome",
		}, []string{"outcome"}),
		AuthAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ionovox_auth_attempts_total",
			Help: "The total number of control-plane authentication attempts, by outcome",
		}, []string{"outcome"}),
		StatsFilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ionovox_stats_files_total",
			Help: "The total number of user statistics CSV files ingested, by outcome",
		}, []string{"outcome"}),
		PropagationComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ionovox_propagation_compute_duration_seconds",
			Help:    "Duration of signal-strength computations between two grid squares",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	prometheus.MustRegister(m.SessionsActive)
	prometheus.MustRegister(m.PermCacheEntries)
	prometheus.MustRegister(m.PropagationCacheEntries)
	prometheus.MustRegister(m.VoicePacketsTotal)
	prometheus.MustRegister(m.AuthAttemptsTotal)
	prometheus.MustRegister(m.StatsFilesTotal)
	prometheus.MustRegister(m.PropagationComputeDuration)
}

// RecordVoicePacket increments VoicePacketsTotal for a single routed
// packet's outcome ("delivered" or "dropped").
func (m *Metrics) RecordVoicePacket(outcome string) {
	m.VoicePacketsTotal.WithLabelValues(outcome).Inc()
}

// RecordAuthAttempt increments AuthAttemptsTotal for a single handshake
// authentication outcome ("success", "failure", or "auto_registered").
func (m *Metrics) RecordAuthAttempt(outcome string) {
	m.AuthAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordStatsFile increments StatsFilesTotal for a single CSV upload's
// outcome. The stats-directory sweep records "ingested" for each file
// stats.ScanDir accepts; files it rejects are not counted.
func (m *Metrics) RecordStatsFile(outcome string) {
	m.StatsFilesTotal.WithLabelValues(outcome).Inc()
}

// ObservePropagationCompute records the wall-clock cost of one
// signal-strength computation.
func (m *Metrics) ObservePropagationCompute(seconds float64) {
	m.PropagationComputeDuration.Observe(seconds)
}
