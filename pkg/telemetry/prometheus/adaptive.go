// Copyright 2023 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

type DataRateAction string

const (
	DataRateActionApplied   DataRateAction = "applied"
	DataRateActionDeferred  DataRateAction = "deferred"
	DataRateActionCommitted DataRateAction = "committed"
	DataRateActionReset     DataRateAction = "reset"
)

var (
	promVideoBitrate    *prometheus.GaugeVec
	promDegraded        *prometheus.GaugeVec
	promKeyframe        *prometheus.GaugeVec
	promKeyframeCommits *prometheus.CounterVec
	promDataRateChanges *prometheus.CounterVec
	promTickSkipped     *prometheus.CounterVec
)

func initAdaptiveStats(unitID string) {
	promVideoBitrate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   vtxNamespace,
		Subsystem:   "adaptive",
		Name:        "video_bitrate_bps",
		ConstLabels: prometheus.Labels{"unit_id": unitID},
		Help:        "Capture bitrate last resolved by the adaptive controller.",
	}, []string{"stream"})
	promDegraded = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   vtxNamespace,
		Subsystem:   "adaptive",
		Name:        "degraded",
		ConstLabels: prometheus.Labels{"unit_id": unitID},
		Help:        "1 while the control uplink is considered lost.",
	}, []string{"stream"})
	promKeyframe = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   vtxNamespace,
		Subsystem:   "adaptive",
		Name:        "keyframe_ms",
		ConstLabels: prometheus.Labels{"unit_id": unitID},
	}, []string{"stream"})
	promKeyframeCommits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   vtxNamespace,
		Subsystem:   "adaptive",
		Name:        "keyframe_commits",
		ConstLabels: prometheus.Labels{"unit_id": unitID},
	}, []string{"stream"})
	promDataRateChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   vtxNamespace,
		Subsystem:   "adaptive",
		Name:        "datarate_changes",
		ConstLabels: prometheus.Labels{"unit_id": unitID},
	}, []string{"stream", "action"})
	promTickSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   vtxNamespace,
		Subsystem:   "adaptive",
		Name:        "tick_skipped",
		ConstLabels: prometheus.Labels{"unit_id": unitID},
	}, []string{"stream", "procedure"})

	prometheus.MustRegister(promVideoBitrate)
	prometheus.MustRegister(promDegraded)
	prometheus.MustRegister(promKeyframe)
	prometheus.MustRegister(promKeyframeCommits)
	prometheus.MustRegister(promDataRateChanges)
	prometheus.MustRegister(promTickSkipped)
}

func RecordVideoBitrate(stream string, bitrateBps uint32) {
	if !initialized.Load() {
		return
	}
	promVideoBitrate.WithLabelValues(stream).Set(float64(bitrateBps))
}

func RecordDegraded(stream string, degraded bool) {
	if !initialized.Load() {
		return
	}
	v := 0.0
	if degraded {
		v = 1.0
	}
	promDegraded.WithLabelValues(stream).Set(v)
}

func RecordKeyframeCommit(stream string, keyframeMs uint16) {
	if !initialized.Load() {
		return
	}
	promKeyframe.WithLabelValues(stream).Set(float64(keyframeMs))
	promKeyframeCommits.WithLabelValues(stream).Inc()
}

func RecordDataRateChange(stream string, action DataRateAction) {
	if !initialized.Load() {
		return
	}
	promDataRateChanges.WithLabelValues(stream, string(action)).Inc()
}

func RecordTickSkipped(stream string, procedure string) {
	if !initialized.Load() {
		return
	}
	promTickSkipped.WithLabelValues(stream, procedure).Inc()
}
