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
	"github.com/livekit/livekit-vtx/pkg/model"
	"github.com/livekit/livekit-vtx/pkg/telemetry/prometheus"
)

// SetTemporaryBitrate pins the capture bitrate regardless of profile and
// degraded state. Zero removes the pin.
func (c *Controller) SetTemporaryBitrate(bitrateBps uint32) {
	c.lock.Lock()
	defer c.lock.Unlock()

	m := c.activeModel()
	if m == nil || !c.hasCameraLocked(m) {
		return
	}

	c.params.Logger.Infow(
		"adaptive video: set temporary video bitrate",
		"bitrate", bitrateBps,
		"previous", c.temporaryBitrate,
	)
	c.temporaryBitrate = bitrateBps

	c.recomputeBitrateLocked(m, "set temp bitrate")
}

// OnUserDefaultBitrateChanged re-applies the capture bitrate after the
// operator edited the bitrate of the selected profile. An active override
// shields the capture from the change.
func (c *Controller) OnUserDefaultBitrateChanged(oldBitrateBps uint32, newBitrateBps uint32) {
	c.lock.Lock()
	defer c.lock.Unlock()

	m := c.activeModel()
	if m == nil {
		return
	}
	if c.activeProfileLocked(m) != m.UserSelectedProfile {
		return
	}
	if oldBitrateBps == newBitrateBps {
		return
	}

	c.recomputeBitrateLocked(m, "user video profile bitrate changed")
}

// ResolveBitrate computes the capture bitrate for a profile.
func ResolveBitrate(
	profile model.VideoLinkProfile,
	degraded bool,
	degradedScalePct uint32,
	minBitrateBps uint32,
	temporaryBitrateBps uint32,
) uint32 {
	bitrate := profile.BitrateFixedBps
	if degraded {
		// always scaled from the profile value, never from a previous result
		bitrate = uint32((uint64(bitrate)*uint64(degradedScalePct) + 50) / 100)
		if bitrate < minBitrateBps {
			bitrate = minBitrateBps
		}
	}
	if temporaryBitrateBps != 0 {
		bitrate = temporaryBitrateBps
	}
	return bitrate
}

func (c *Controller) recomputeBitrateLocked(m *model.Model, reason string) {
	active := c.activeProfileLocked(m)
	profile := m.Profile(active)

	bitrate := ResolveBitrate(
		profile,
		c.uplinkDegraded,
		c.params.Config.DegradedScalePct,
		c.params.Config.MinVideoBitrateBps,
		c.temporaryBitrate,
	)
	c.lastResolvedBitrate = bitrate

	c.params.Logger.Infow(
		"adaptive video: check apply video bitrate",
		"reason", reason,
		"profile", active,
		"temporaryBitrate", c.temporaryBitrate,
		"degraded", c.uplinkDegraded,
		"bitrate", bitrate,
	)
	prometheus.RecordVideoBitrate(c.params.StreamID, bitrate)

	if !c.hasCameraLocked(m) {
		return
	}
	c.params.Camera.ApplyBitrate(bitrate, profile.IPQuantizationDelta)
}
