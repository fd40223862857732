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

package simulate

import (
	"time"

	"github.com/gammazero/workerpool"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/livekit-vtx/pkg/config"
	"github.com/livekit/livekit-vtx/pkg/hardware"
	"github.com/livekit/livekit-vtx/pkg/service"
)

// Epoch is the virtual start time of every run.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type Sample struct {
	At     time.Duration
	Status service.StreamStatus
}

type Result struct {
	Scenario string
	StreamID string
	Duration time.Duration

	Writes  []hardware.Write
	Samples []Sample
	Final   service.StreamStatus
}

// Runner replays a scenario on a virtual clock advancing one tick interval
// per step.
type Runner struct {
	conf   *config.Config
	logger logger.Logger

	// status is sampled every SampleInterval of virtual time, 0 disables
	SampleInterval time.Duration
}

func NewRunner(conf *config.Config, l logger.Logger) *Runner {
	if l == nil {
		l = logger.GetLogger()
	}
	return &Runner{
		conf:           conf,
		logger:         l,
		SampleInterval: 500 * time.Millisecond,
	}
}

func (r *Runner) Run(s *Scenario) *Result {
	stream := service.NewStream(r.conf, r.logger)

	now := Epoch
	stream.Log.SetClock(func() time.Time { return now })

	step := r.conf.Adaptive.TickInterval
	if step <= 0 {
		step = config.DefaultConfig.Adaptive.TickInterval
	}

	r.logger.Infow("simulation starting", "scenario", s.Name, "stream", stream.ID, "duration", s.Duration)
	stream.Controller.Initialize(now)

	res := &Result{
		Scenario: s.Name,
		StreamID: stream.ID,
		Duration: s.Duration,
	}

	next := 0
	nextFrame := time.Duration(0)
	nextSample := time.Duration(0)
	end := Epoch.Add(s.Duration)
	for !now.After(end) {
		elapsed := now.Sub(Epoch)

		for next < len(s.Events) && s.Events[next].At <= elapsed {
			r.apply(stream, &s.Events[next], now)
			next++
		}

		for nextFrame <= elapsed {
			for i := 1; i <= s.ReadsPerFrame; i++ {
				stream.Controller.OnFrameCaptured(i == s.ReadsPerFrame)
			}
			nextFrame += s.FrameInterval
		}

		stream.Controller.Tick(now)

		if r.SampleInterval > 0 && nextSample <= elapsed {
			res.Samples = append(res.Samples, Sample{At: elapsed, Status: stream.Status()})
			nextSample += r.SampleInterval
		}

		now = now.Add(step)
	}

	res.Writes = stream.Log.Writes()
	res.Final = stream.Status()
	r.logger.Infow("simulation done", "scenario", s.Name, "writes", len(res.Writes))
	return res
}

func (r *Runner) apply(stream *service.Stream, e *Event, now time.Time) {
	c := stream.Controller
	r.logger.Debugw("simulation event", "at", e.At)

	switch {
	case e.Uplink == UplinkLost:
		c.OnUplinkLost()
	case e.Uplink == UplinkRecovered:
		c.OnUplinkRecovered()
	case e.Profile != nil:
		c.SetControllerRequestedProfile(*e.Profile, now)
	case e.KeyframeMs != nil:
		c.SetControllerRequestedKeyframe(*e.KeyframeMs)
	case e.TemporaryBitrate != nil:
		c.SetTemporaryBitrate(*e.TemporaryBitrate)
	case e.UserBitrate != nil:
		if old, ok := stream.Models.SetUserProfileBitrate(*e.UserBitrate); ok {
			c.OnUserDefaultBitrateChanged(old, *e.UserBitrate)
		}
	case e.Negotiating != nil:
		stream.Radio.SetNegotiatingRadioLink(*e.Negotiating)
	case e.TestingLink != nil:
		stream.Radio.SetTestingLink(*e.TestingLink)
	case e.CaptureRestarted:
		c.OnCaptureRestarted()
	}
}

// RunAll replays scenarios concurrently, each against its own stream.
// Results keep the order of the scenarios.
func (r *Runner) RunAll(scenarios []*Scenario, workers int) []*Result {
	if workers <= 0 {
		workers = 1
	}

	results := make([]*Result, len(scenarios))
	wp := workerpool.New(workers)
	for i, s := range scenarios {
		i, s := i, s
		wp.Submit(func() {
			results[i] = r.Run(s)
		})
	}
	wp.StopWait()
	return results
}
