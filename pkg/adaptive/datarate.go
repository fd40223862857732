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

	"github.com/livekit/livekit-vtx/pkg/model"
	"github.com/livekit/livekit-vtx/pkg/telemetry/prometheus"
)

// TargetDataRate is the radio datarate used while a non default profile is
// active.
func TargetDataRate(m *model.Model, id model.ProfileID) model.DataRate {
	switch id {
	case model.ProfileMediumQuality:
		return m.MQDataRate()
	case model.ProfileLowQuality:
		return m.LQDataRate()
	default:
		return m.DefaultVideoDataRate()
	}
}

// scheduleDataRateLocked follows an active profile change. Going back to the
// operator profile resets the radio to its natural rate. Otherwise a rate that
// does not lower throughput is applied right away and anything else waits for
// the settling delay, including the first rate ever set.
func (c *Controller) scheduleDataRateLocked(m *model.Model, now time.Time) {
	if c.params.Radio == nil {
		return
	}

	active := c.activeProfileLocked(m)
	if active == m.UserSelectedProfile {
		c.clearPendingDataRateLocked()
		c.params.Radio.SetAdaptiveVideoDataRate(model.DataRateNone)
		c.params.Logger.Debugw("adaptive video: radio datarate reset to natural rate", "profile", active)
		prometheus.RecordDataRateChange(c.params.StreamID, prometheus.DataRateActionReset)
		return
	}

	target := TargetDataRate(m, active)
	current := c.params.Radio.AdaptiveVideoDataRate()
	if current != model.DataRateNone && model.RealDataRate(target) >= model.RealDataRate(current) {
		c.clearPendingDataRateLocked()
		c.params.Radio.SetAdaptiveVideoDataRate(target)
		c.params.Logger.Infow(
			"adaptive video: radio datarate applied",
			"profile", active,
			"from", current,
			"to", target,
		)
		prometheus.RecordDataRateChange(c.params.StreamID, prometheus.DataRateActionApplied)
		return
	}

	c.pendingDataRate = pendingDataRate{
		rate:        target,
		scheduledAt: now,
		valid:       true,
	}
	c.params.Logger.Infow(
		"adaptive video: radio datarate deferred",
		"profile", active,
		"from", current,
		"to", target,
		"commitAfter", c.settlingDelay,
	)
	prometheus.RecordDataRateChange(c.params.StreamID, prometheus.DataRateActionDeferred)
}

func (c *Controller) clearPendingDataRateLocked() {
	c.pendingDataRate = pendingDataRate{}
}
