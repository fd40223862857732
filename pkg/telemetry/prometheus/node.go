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
	"github.com/mackerelio/go-osstat/loadavg"
	"github.com/mackerelio/go-osstat/memory"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

const (
	vtxNamespace string = "vtx"
)

var (
	initialized atomic.Bool

	promCPULoadGauge    prometheus.Gauge
	promMemoryLoadGauge prometheus.Gauge
	promLoadAvgGauge    *prometheus.GaugeVec
)

// Init registers all collectors. Recording functions are no-ops until Init
// has been called so the control code can run without a registry in tests.
func Init(unitID string) {
	if initialized.Load() {
		return
	}

	promCPULoadGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   vtxNamespace,
		Subsystem:   "unit",
		Name:        "cpu_load",
		ConstLabels: prometheus.Labels{"unit_id": unitID},
	})
	promMemoryLoadGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   vtxNamespace,
		Subsystem:   "unit",
		Name:        "memory_load",
		ConstLabels: prometheus.Labels{"unit_id": unitID},
	})
	promLoadAvgGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   vtxNamespace,
		Subsystem:   "unit",
		Name:        "load_avg",
		ConstLabels: prometheus.Labels{"unit_id": unitID},
	}, []string{"window"})

	prometheus.MustRegister(promCPULoadGauge)
	prometheus.MustRegister(promMemoryLoadGauge)
	prometheus.MustRegister(promLoadAvgGauge)

	initAdaptiveStats(unitID)

	initialized.Store(true)
}

func getMemoryStats() (memoryLoad float32, err error) {
	memInfo, err := memory.Get()
	if err != nil {
		return
	}

	if memInfo.Total != 0 {
		memoryLoad = float32(memInfo.Used) / float32(memInfo.Total)
	}
	return
}

type UnitStats struct {
	CPULoad          float32
	NumCPUs          uint32
	MemoryLoad       float32
	LoadAvgLast1Min  float32
	LoadAvgLast5Min  float32
	LoadAvgLast15Min float32
}

// UpdateUnitStats samples the air unit's load. Encoders on these boards share
// the CPU with the radio stack, so load is exported next to the video metrics.
func UpdateUnitStats() (*UnitStats, error) {
	loadAvg, err := loadavg.Get()
	if err != nil {
		return nil, err
	}

	cpuLoad, numCPUs, err := getCPUStats()
	if err != nil {
		return nil, err
	}

	// memory stats are not available everywhere, use them when present
	memoryLoad, _ := getMemoryStats()

	stats := &UnitStats{
		CPULoad:          cpuLoad,
		NumCPUs:          numCPUs,
		MemoryLoad:       memoryLoad,
		LoadAvgLast1Min:  float32(loadAvg.Loadavg1),
		LoadAvgLast5Min:  float32(loadAvg.Loadavg5),
		LoadAvgLast15Min: float32(loadAvg.Loadavg15),
	}

	if initialized.Load() {
		promCPULoadGauge.Set(float64(stats.CPULoad))
		promMemoryLoadGauge.Set(float64(stats.MemoryLoad))
		promLoadAvgGauge.WithLabelValues("1m").Set(float64(stats.LoadAvgLast1Min))
		promLoadAvgGauge.WithLabelValues("5m").Set(float64(stats.LoadAvgLast5Min))
		promLoadAvgGauge.WithLabelValues("15m").Set(float64(stats.LoadAvgLast15Min))
	}
	return stats, nil
}
