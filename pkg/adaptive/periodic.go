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

package adaptive

import (
	"time"

	"github.com/livekit/livekit-vtx/pkg/telemetry/prometheus"
)

// Tick runs the time deferred work: the one shot startup bitrate and the
// commit of a settled radio datarate decrease. It is meant to be called often;
// the body runs at most once per tick interval.
func (c *Controller) Tick(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if now.Before(c.lastTickAt.Add(c.params.Config.TickInterval)) {
		return
	}
	c.lastTickAt = now

	if p := c.params.Procedures; p != nil {
		if p.IsNegotiatingRadioLink() {
			prometheus.RecordTickSkipped(c.params.StreamID, "negotiate_radio")
			return
		}
		if p.IsTestingLink() {
			prometheus.RecordTickSkipped(c.params.StreamID, "test_link")
			return
		}
	}

	if !c.initialBitrateDeadline.IsZero() && !now.Before(c.initialBitrateDeadline) {
		c.initialBitrateDeadline = time.Time{}
		if m := c.activeModel(); m != nil {
			c.recomputeBitrateLocked(m, "initial set")
		}
	}

	if c.pendingDataRate.valid && !now.Before(c.pendingDataRate.scheduledAt.Add(c.settlingDelay)) {
		rate := c.pendingDataRate.rate
		c.clearPendingDataRateLocked()
		if c.params.Radio != nil {
			c.params.Radio.SetAdaptiveVideoDataRate(rate)
			c.params.Logger.Infow("adaptive video: deferred radio datarate committed", "rate", rate)
			prometheus.RecordDataRateChange(c.params.StreamID, prometheus.DataRateActionCommitted)
		}
	}
}
