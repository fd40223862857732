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
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/urfave/negroni/v3"
)

type StreamStatus struct {
	StreamID          string `json:"stream_id"`
	ActiveProfile     string `json:"active_profile"`
	Override          string `json:"override"`
	Degraded          bool   `json:"degraded"`
	BitrateBps        uint32 `json:"bitrate_bps"`
	CameraBitrateBps  uint32 `json:"camera_bitrate_bps"`
	TemporaryBitrate  uint32 `json:"temporary_bitrate_bps,omitempty"`
	KeyframeMs        uint16 `json:"keyframe_ms"`
	PendingKeyframeMs uint16 `json:"pending_keyframe_ms,omitempty"`
	DataRate          string `json:"datarate"`
	PendingDataRate   string `json:"pending_datarate,omitempty"`
	DegradedECPackets uint32 `json:"degraded_ec_packets"`
	Writes            int    `json:"hardware_writes"`
}

func (s *Stream) Status() StreamStatus {
	state := s.Controller.State()
	status := StreamStatus{
		StreamID:          s.ID,
		ActiveProfile:     state.ActiveProfile.String(),
		Override:          state.Override.String(),
		Degraded:          state.Degraded,
		BitrateBps:        state.ResolvedBitrate,
		CameraBitrateBps:  s.CameraBitrate(),
		TemporaryBitrate:  state.TemporaryBitrate,
		KeyframeMs:        state.CurrentKeyframeMs,
		DataRate:          s.Radio.AdaptiveVideoDataRate().String(),
		DegradedECPackets: s.Controller.DegradedECPacketCount(),
		Writes:            s.Log.Len(),
	}
	if state.HasPendingKeyframe {
		status.PendingKeyframeMs = state.PendingKeyframeMs
	}
	if state.HasPendingDataRate {
		status.PendingDataRate = state.PendingDataRate.String()
	}
	return status
}

type unitStatus struct {
	UnitID  string       `json:"unit_id"`
	Uptime  string       `json:"uptime"`
	Stream  StreamStatus `json:"stream"`
	Profile string       `json:"operator_profile"`
}

func newStatusHandler(s *VideoLinkService) http.Handler {
	startedAt := time.Now()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		status := unitStatus{
			UnitID: s.unitID,
			Uptime: time.Since(startedAt).Truncate(time.Second).String(),
			Stream: s.stream.Status(),
		}
		if m := s.stream.Models.ActiveModel(); m != nil {
			status.Profile = m.UserSelectedProfile.String()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			s.logger.Warnw("could not write status", err)
		}
	})

	n := negroni.New()
	n.Use(negroni.NewRecovery())
	// ground station dashboards poll the status from the browser
	n.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))
	n.UseHandler(mux)
	return n
}
