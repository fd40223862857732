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

package service

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/frostbyte73/core"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/livekit/protocol/logger"
	"github.com/livekit/protocol/utils"
	"github.com/livekit/protocol/utils/mono"

	"github.com/livekit/livekit-vtx/pkg/config"
	"github.com/livekit/livekit-vtx/pkg/hardware"
	"github.com/livekit/livekit-vtx/pkg/telemetry/prometheus"
)

const (
	unitStatsInterval = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	// hardware writes come in bursts, the stream status is logged once a
	// burst is over
	statusLogDebounce = 250 * time.Millisecond
)

var ErrAlreadyRunning = errors.New("already running")

// VideoLinkService runs the adaptive controller of the air unit: the
// periodic tick, unit stats and the status endpoint.
type VideoLinkService struct {
	conf   *config.Config
	unitID string
	logger logger.Logger

	stream     *Stream
	httpServer *http.Server

	debouncedStatus func(f func())

	running atomic.Bool
	// renewed on every Start
	stop    *core.Fuse
	workers sync.WaitGroup
}

func NewVideoLinkService(conf *config.Config) *VideoLinkService {
	unitID := utils.NewGuid(UnitPrefix)
	l := logger.GetLogger().WithValues("unit", unitID)

	s := &VideoLinkService{
		conf:            conf,
		unitID:          unitID,
		logger:          l,
		stream:          NewStream(conf, l),
		debouncedStatus: debounce.New(statusLogDebounce),
	}
	s.stream.Log.OnWrite(s.onHardwareWrite)

	if conf.PrometheusPort > 0 {
		s.httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", conf.PrometheusPort),
			Handler: newStatusHandler(s),
		}
	}
	return s
}

func (s *VideoLinkService) Stream() *Stream {
	return s.stream
}

func (s *VideoLinkService) UnitID() string {
	return s.unitID
}

func (s *VideoLinkService) IsRunning() bool {
	return s.running.Load()
}

// Start initializes the controller and returns once the workers run.
func (s *VideoLinkService) Start() error {
	if s.running.Swap(true) {
		return ErrAlreadyRunning
	}

	if s.httpServer != nil {
		prometheus.Init(s.unitID)

		ln, err := net.Listen("tcp", s.httpServer.Addr)
		if err != nil {
			s.running.Store(false)
			return errors.Wrap(err, "could not listen for status endpoint")
		}
		go func() {
			s.logger.Infow("starting status endpoint", "address", s.httpServer.Addr)
			if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Errorw("status endpoint stopped", err)
			}
		}()
	}

	s.stop = &core.Fuse{}
	s.stream.Controller.Initialize(mono.Now())
	s.logger.Infow(
		"video link service started",
		"stream", s.stream.ID,
		"platform", s.conf.Platform.Name,
		"camera", s.conf.Model.Camera,
		"tickInterval", s.conf.Adaptive.TickInterval,
	)

	s.workers.Add(2)
	go s.tickWorker(s.stop)
	go s.statsWorker(s.stop)
	return nil
}

func (s *VideoLinkService) Stop() {
	if !s.running.Load() {
		return
	}
	s.stop.Break()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.httpServer.Shutdown(ctx)
	}

	s.workers.Wait()
	s.running.Store(false)
	s.logger.Infow("video link service stopped")
}

func (s *VideoLinkService) onHardwareWrite(_ hardware.Write) {
	if !s.running.Load() {
		return
	}
	s.debouncedStatus(s.logStatus)
}

func (s *VideoLinkService) logStatus() {
	status := s.stream.Status()
	s.logger.Infow(
		"stream status",
		"profile", status.ActiveProfile,
		"degraded", status.Degraded,
		"bitrate", status.CameraBitrateBps,
		"keyframeMs", status.KeyframeMs,
		"datarate", status.DataRate,
		"pendingDatarate", status.PendingDataRate,
	)
}

func (s *VideoLinkService) tickWorker(stop *core.Fuse) {
	defer s.workers.Done()

	ticker := time.NewTicker(s.conf.Adaptive.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.stream.Controller.Tick(mono.Now())

		case <-stop.Watch():
			return
		}
	}
}

func (s *VideoLinkService) statsWorker(stop *core.Fuse) {
	defer s.workers.Done()

	ticker := time.NewTicker(unitStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats, err := prometheus.UpdateUnitStats()
			if err != nil {
				s.logger.Debugw("could not read unit stats", "error", err)
				continue
			}
			s.logger.Debugw("unit stats", "cpuLoad", stats.CPULoad, "memoryLoad", stats.MemoryLoad)

		case <-stop.Watch():
			return
		}
	}
}
