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

func TestInitialBitrateFiresOnce(t *testing.T) {
	r := newTestRig(t, withStartDegraded())
	c := r.controller

	c.Tick(r.at(time.Second))
	require.Zero(t, r.log.Len())

	c.Tick(r.at(2 * time.Second))
	require.EqualValues(t, 4620000, r.ipc.CurrentBitrate())
	require.Equal(t, -12, r.ipc.CurrentQuantizationDelta())
	require.True(t, c.State().InitialBitrateDeadline.IsZero())

	// a drifted capture is not forced again by later ticks
	r.ipc.SetBitrate(1000000)
	c.Tick(r.at(3 * time.Second))
	c.Tick(r.at(10 * time.Second))
	require.EqualValues(t, 1000000, r.ipc.CurrentBitrate())
}

func TestTickThrottle(t *testing.T) {
	r := newTestRig(t)
	c := r.controller
	c.SetControllerRequestedProfile(model.ProfileLowQuality, r.at(0))

	c.Tick(r.at(95 * time.Millisecond))
	require.Equal(t, r.at(95*time.Millisecond), c.State().LastTickAt)

	// due, but within the tick interval of the previous run
	c.Tick(r.at(100 * time.Millisecond))
	require.Equal(t, model.DataRateNone, r.radio.AdaptiveVideoDataRate())
	require.Equal(t, r.at(95*time.Millisecond), c.State().LastTickAt)

	c.Tick(r.at(105 * time.Millisecond))
	require.EqualValues(t, 9000000, r.radio.AdaptiveVideoDataRate())
}

func TestTickYieldsToLinkProcedures(t *testing.T) {
	testCases := []struct {
		name  string
		start func(radio *hardware.Radio)
		stop  func(radio *hardware.Radio)
	}{
		{
			name:  "radio link negotiation",
			start: func(radio *hardware.Radio) { radio.SetNegotiatingRadioLink(true) },
			stop:  func(radio *hardware.Radio) { radio.SetNegotiatingRadioLink(false) },
		},
		{
			name:  "link test",
			start: func(radio *hardware.Radio) { radio.SetTestingLink(true) },
			stop:  func(radio *hardware.Radio) { radio.SetTestingLink(false) },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRig(t)
			c := r.controller
			c.SetControllerRequestedProfile(model.ProfileLowQuality, r.at(time.Second))

			tc.start(r.radio)
			c.Tick(r.at(3 * time.Second))
			require.Equal(t, model.DataRateNone, r.radio.AdaptiveVideoDataRate())
			require.False(t, c.State().InitialBitrateDeadline.IsZero())
			// the throttle timestamp still moves while skipped
			require.Equal(t, r.at(3*time.Second), c.State().LastTickAt)

			tc.stop(r.radio)
			c.Tick(r.at(3*time.Second + 5*time.Millisecond))
			require.Equal(t, model.DataRateNone, r.radio.AdaptiveVideoDataRate())

			c.Tick(r.at(3*time.Second + 10*time.Millisecond))
			require.EqualValues(t, 9000000, r.radio.AdaptiveVideoDataRate())
			require.True(t, c.State().InitialBitrateDeadline.IsZero())
		})
	}
}
