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
)

// SetControllerRequestedProfile switches the active profile to the one the
// ground controller asked for. Requesting the operator selected profile is how
// the override is reverted.
func (c *Controller) SetControllerRequestedProfile(id model.ProfileID, now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()

	m := c.activeModel()
	if m == nil {
		return
	}
	if !id.IsValid() {
		c.params.Logger.Warnw("adaptive video: invalid profile requested by controller", nil, "profile", id)
		return
	}

	if current, ok := c.override.Get(); ok && current == id {
		c.params.Logger.Debugw("adaptive video: profile requested by controller is already active", "profile", id)
		return
	}

	profile := m.Profile(id)
	usable := 0
	if c.params.Buffers != nil {
		usable = c.params.Buffers.UsableRawVideoDataSize()
	}
	c.params.Logger.Infow(
		"adaptive video: set video profile requested by controller",
		"profile", id,
		"previous", c.override,
		"ec", profile.ECShape(),
		"videoDataLength", profile.VideoDataLength,
		"usableVideoDataLength", usable,
		"bitrate", profile.BitrateFixedBps,
	)

	c.override = OverrideWith(id)
	c.overrideSetAt = now
	if c.params.Buffers != nil {
		c.params.Buffers.UpdateVideoHeader(id, profile)
	}

	c.recomputeBitrateLocked(m, "set profile from controller")
	c.scheduleDataRateLocked(m, now)
}

// CurrentActiveProfile returns the controller override if any, the operator
// selected profile otherwise.
func (c *Controller) CurrentActiveProfile() model.ProfileID {
	c.lock.Lock()
	defer c.lock.Unlock()

	m := c.activeModel()
	if m == nil {
		id, _ := c.override.Get()
		return id
	}
	return c.activeProfileLocked(m)
}

func (c *Controller) activeProfileLocked(m *model.Model) model.ProfileID {
	if id, ok := c.override.Get(); ok {
		return id
	}
	return m.UserSelectedProfile
}

func (c *Controller) activeModel() *model.Model {
	if c.params.Models == nil {
		return nil
	}
	return c.params.Models.ActiveModel()
}
