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

	"github.com/stretchr/testify/require"

	"github.com/livekit/livekit-vtx/pkg/hardware"
	"github.com/livekit/livekit-vtx/pkg/model"
)

func TestFrameCountCamera(t *testing.T) {
	log := hardware.NewWriteLog(0)
	transport := hardware.NewCSICamera(log, nil)
	camera := NewFrameCountCamera(transport)
	require.Equal(t, model.CameraFamilyCSI, camera.Family())

	camera.ApplyBitrate(4000000, -8)
	require.Len(t, log.Writes(), 2)

	// only the value that differs from the capture program is written
	log.Reset()
	camera.ApplyBitrate(4000000, -4)
	writes := log.Writes()
	require.Len(t, writes, 1)
	require.Equal(t, "qp_delta", writes[0].Command)

	log.Reset()
	camera.ApplyBitrate(4000000, -4)
	require.Zero(t, log.Len())

	camera.ApplyKeyframeInterval(500, 60)
	require.EqualValues(t, 30, transport.CurrentKeyframeFrames())
}

func TestDurationCamera(t *testing.T) {
	log := hardware.NewWriteLog(0)
	transport := hardware.NewOpenIPCCamera(log, nil)
	camera := NewDurationCamera(transport)
	require.Equal(t, model.CameraFamilyOpenIPC, camera.Family())

	testCases := []struct {
		name     string
		bitrate  uint32
		qpDelta  int
		commands []string
	}{
		{name: "both differ", bitrate: 4000000, qpDelta: -8, commands: []string{"bitrate_qp_delta"}},
		{name: "bitrate differs", bitrate: 2000000, qpDelta: -8, commands: []string{"bitrate"}},
		{name: "qp differs", bitrate: 2000000, qpDelta: -4, commands: []string{"qp_delta"}},
		{name: "nothing differs", bitrate: 2000000, qpDelta: -4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			log.Reset()
			camera.ApplyBitrate(tc.bitrate, tc.qpDelta)

			var commands []string
			for _, w := range log.Writes() {
				commands = append(commands, w.Command)
			}
			require.Equal(t, tc.commands, commands)
			require.Equal(t, tc.bitrate, transport.CurrentBitrate())
			require.Equal(t, tc.qpDelta, transport.CurrentQuantizationDelta())
		})
	}

	camera.ApplyKeyframeInterval(1500, 60)
	require.Equal(t, float32(1.5), transport.CurrentKeyframeSeconds())
}

func TestKeyframeConversions(t *testing.T) {
	require.EqualValues(t, 30, KeyframeFrames(500, 60))
	require.EqualValues(t, 9, KeyframeFrames(333, 30))
	require.EqualValues(t, 0, KeyframeFrames(500, 0))
	require.Equal(t, float32(0.2), KeyframeSeconds(200))
}
