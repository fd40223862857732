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
	"math"

	"github.com/livekit/livekit-vtx/pkg/telemetry/prometheus"
)

func (c *Controller) OnUplinkLost() {
	c.setDegraded(true, "on uplink lost")
}

func (c *Controller) OnUplinkRecovered() {
	c.setDegraded(false, "on uplink recovered")
}

func (c *Controller) setDegraded(degraded bool, reason string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.uplinkDegraded == degraded {
		return
	}

	c.params.Logger.Infow("adaptive video: degraded state changed", "degraded", degraded, "reason", reason)
	c.uplinkDegraded = degraded
	prometheus.RecordDegraded(c.params.StreamID, degraded)

	if m := c.activeModel(); m != nil {
		c.recomputeBitrateLocked(m, reason)
	}
}

func (c *Controller) IsDegraded() bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.uplinkDegraded
}

// DegradedECPacketCount is the number of error correction packets to use per
// block while degraded: the profile's own count, but never less than half of
// the block.
func (c *Controller) DegradedECPacketCount() uint32 {
	c.lock.Lock()
	defer c.lock.Unlock()

	m := c.activeModel()
	if m == nil {
		return 0
	}

	profile := m.Profile(c.activeProfileLocked(m))
	return DegradedECPackets(profile.BlockPackets, profile.BlockECs)
}

func DegradedECPackets(blockPackets int, blockECs int) uint32 {
	ecs := uint32(0)
	if blockECs > 0 {
		ecs = uint32(blockECs)
	}

	half := uint32(1)
	if h := math.RoundToEven(float64(blockPackets) / 2.0); h > 1 {
		half = uint32(h)
	}
	if ecs < half {
		ecs = half
	}
	return ecs
}
