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
	"github.com/livekit/livekit-vtx/pkg/telemetry/prometheus"
)

// SetControllerRequestedKeyframe queues a keyframe interval. It reaches the
// camera on the next end of frame. Zero drops whatever is queued.
func (c *Controller) SetControllerRequestedKeyframe(keyframeMs uint16) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.params.Logger.Infow("adaptive video: set keyframe requested by controller", "keyframeMs", keyframeMs)
	if keyframeMs == 0 {
		c.clearPendingKeyframeLocked()
		return
	}

	c.pendingKeyframeMs = keyframeMs
	c.hasPendingKeyframe = true
}

// OnFrameCaptured is called for every frame read from the camera, in capture
// order.
func (c *Controller) OnFrameCaptured(isEndOfFrame bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.hasPendingKeyframe {
		return
	}
	if c.pendingKeyframeMs == c.currentKeyframeMs {
		c.clearPendingKeyframeLocked()
		return
	}
	if !isEndOfFrame {
		return
	}

	m := c.activeModel()
	if m == nil || c.params.Camera == nil {
		return
	}

	fps := m.Profile(c.activeProfileLocked(m)).FPS
	c.params.Camera.ApplyKeyframeInterval(c.pendingKeyframeMs, fps)

	c.params.Logger.Infow(
		"adaptive video: changed keyframe",
		"from", c.currentKeyframeMs,
		"to", c.pendingKeyframeMs,
		"fps", fps,
	)
	c.currentKeyframeMs = c.pendingKeyframeMs
	c.clearPendingKeyframeLocked()
	prometheus.RecordKeyframeCommit(c.params.StreamID, c.currentKeyframeMs)

	if c.params.Buffers != nil {
		c.params.Buffers.UpdateCurrentKeyframe(c.currentKeyframeMs)
	}
}

func (c *Controller) CurrentKeyframe() uint16 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.currentKeyframeMs
}

func (c *Controller) clearPendingKeyframeLocked() {
	c.pendingKeyframeMs = 0
	c.hasPendingKeyframe = false
}
