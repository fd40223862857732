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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/livekit/livekit-vtx/pkg/hardware"
	"github.com/livekit/livekit-vtx/pkg/model"
)

func TestKeyframeCommitsAtEndOfFrame(t *testing.T) {
	r := newTestRig(t)
	c := r.controller

	c.SetControllerRequestedKeyframe(500)
	for i := 0; i < 5; i++ {
		c.OnFrameCaptured(false)
	}
	require.EqualValues(t, 200, c.CurrentKeyframe())
	require.Empty(t, r.log.WritesTo(hardware.DeviceOpenIPCCamera))

	c.OnFrameCaptured(true)
	require.EqualValues(t, 500, c.CurrentKeyframe())
	require.Equal(t, float32(0.5), r.ipc.CurrentKeyframeSeconds())
	require.EqualValues(t, 500, r.buffers.CurrentKeyframe())
	require.False(t, c.State().HasPendingKeyframe)

	// nothing left to commit
	writes := r.log.Len()
	c.OnFrameCaptured(true)
	require.Equal(t, writes, r.log.Len())
}

func TestKeyframeFrameCount(t *testing.T) {
	r := newTestRig(t, withCSICamera())
	c := r.controller

	c.SetControllerRequestedKeyframe(500)
	c.OnFrameCaptured(true)
	require.EqualValues(t, 30, r.csi.CurrentKeyframeFrames())

	// uses the fps of the active profile, truncated
	c.SetControllerRequestedProfile(model.ProfileLowQuality, r.at(time.Second))
	c.SetControllerRequestedKeyframe(333)
	c.OnFrameCaptured(true)
	require.EqualValues(t, 9, r.csi.CurrentKeyframeFrames())
}

func TestKeyframePendingEqualCollapses(t *testing.T) {
	r := newTestRig(t)
	c := r.controller

	c.SetControllerRequestedKeyframe(200)
	require.True(t, c.State().HasPendingKeyframe)

	c.OnFrameCaptured(false)
	require.False(t, c.State().HasPendingKeyframe)
	c.OnFrameCaptured(true)
	require.Zero(t, r.log.Len())
}

func TestKeyframeLatestRequestWins(t *testing.T) {
	r := newTestRig(t)
	c := r.controller

	c.SetControllerRequestedKeyframe(500)
	c.SetControllerRequestedKeyframe(1000)
	c.OnFrameCaptured(true)
	require.EqualValues(t, 1000, c.CurrentKeyframe())
	require.Len(t, r.log.WritesTo(hardware.DeviceOpenIPCCamera), 1)

	c.SetControllerRequestedKeyframe(500)
	c.SetControllerRequestedKeyframe(0)
	c.OnFrameCaptured(true)
	require.EqualValues(t, 1000, c.CurrentKeyframe())
}
