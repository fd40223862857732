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

package hardware_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/livekit/livekit-vtx/pkg/adaptive"
	"github.com/livekit/livekit-vtx/pkg/hardware"
	"github.com/livekit/livekit-vtx/pkg/model"
)

var (
	_ adaptive.FrameCountTransport = (*hardware.CSICamera)(nil)
	_ adaptive.DurationTransport   = (*hardware.OpenIPCCamera)(nil)
	_ adaptive.RadioDatarate       = (*hardware.Radio)(nil)
	_ adaptive.LinkProcedures      = (*hardware.Radio)(nil)
	_ adaptive.VideoBuffers        = (*hardware.VideoBuffers)(nil)
	_ adaptive.ModelRepository     = (*hardware.ModelStore)(nil)
)

func TestWriteLog(t *testing.T) {
	t.Run("keeps most recent writes", func(t *testing.T) {
		log := hardware.NewWriteLog(3)
		for i := 0; i < 5; i++ {
			log.Record("dev", "value", i)
		}

		writes := log.Writes()
		require.Len(t, writes, 3)
		require.Equal(t, "2", writes[0].Value)
		require.Equal(t, "4", writes[2].Value)
		require.Equal(t, 2, log.Dropped())
	})

	t.Run("stamps with clock", func(t *testing.T) {
		at := time.Unix(100, 0)
		log := hardware.NewWriteLog(0)
		log.SetClock(func() time.Time { return at })
		log.Record("radio", "datarate", model.MCS(2))

		writes := log.Writes()
		require.Len(t, writes, 1)
		require.Equal(t, at, writes[0].At)
		require.Equal(t, "radio datarate=MCS-2", writes[0].String())
	})

	t.Run("filters by device", func(t *testing.T) {
		log := hardware.NewWriteLog(0)
		log.Record("a", "x", 1)
		log.Record("b", "x", 2)
		log.Record("a", "y", 3)

		require.Len(t, log.WritesTo("a"), 2)
		require.Len(t, log.WritesTo("b"), 1)
		require.Empty(t, log.WritesTo("c"))

		log.Reset()
		require.Zero(t, log.Len())
	})

	t.Run("notifies writes", func(t *testing.T) {
		log := hardware.NewWriteLog(0)
		var seen []hardware.Write
		log.OnWrite(func(w hardware.Write) {
			seen = append(seen, w)
		})
		log.Record("radio", "datarate", 9000000)

		require.Len(t, seen, 1)
		require.Equal(t, "radio", seen[0].Device)
	})

	t.Run("nil log ignores writes", func(t *testing.T) {
		var log *hardware.WriteLog
		require.NotPanics(t, func() { log.Record("a", "x", 1) })
	})
}

func TestCameras(t *testing.T) {
	log := hardware.NewWriteLog(0)

	csi := hardware.NewCSICamera(log, nil)
	csi.SetBitrate(4000000)
	csi.SetQuantizationDelta(-8)
	csi.SetKeyframeFrames(30)
	require.EqualValues(t, 4000000, csi.CurrentBitrate())
	require.Equal(t, -8, csi.CurrentQuantizationDelta())
	require.EqualValues(t, 30, csi.CurrentKeyframeFrames())
	require.Len(t, log.WritesTo(hardware.DeviceCSICamera), 3)

	ipc := hardware.NewOpenIPCCamera(log, nil)
	ipc.SetBitrateAndQuantizationDelta(2000000, -4)
	ipc.SetKeyframeSeconds(0.5)
	require.EqualValues(t, 2000000, ipc.CurrentBitrate())
	require.Equal(t, -4, ipc.CurrentQuantizationDelta())
	require.Equal(t, float32(0.5), ipc.CurrentKeyframeSeconds())

	writes := log.WritesTo(hardware.DeviceOpenIPCCamera)
	require.Len(t, writes, 2)
	require.Equal(t, "bitrate_qp_delta", writes[0].Command)
}

func TestRadio(t *testing.T) {
	log := hardware.NewWriteLog(0)
	radio := hardware.NewRadio(log)

	require.Equal(t, model.DataRateNone, radio.AdaptiveVideoDataRate())
	radio.SetAdaptiveVideoDataRate(12000000)
	require.EqualValues(t, 12000000, radio.AdaptiveVideoDataRate())

	radio.SetNegotiatingRadioLink(true)
	radio.SetNegotiatingRadioLink(true)
	require.True(t, radio.IsNegotiatingRadioLink())
	radio.SetTestingLink(true)
	require.True(t, radio.IsTestingLink())
	radio.SetTestingLink(false)
	require.False(t, radio.IsTestingLink())

	// repeated flag states are recorded once
	require.Len(t, log.WritesTo(hardware.DeviceRadio), 4)
}

func TestVideoBuffers(t *testing.T) {
	m := model.DefaultModel()
	buffers := hardware.NewVideoBuffers(nil, m.UserSelectedProfile, m.Profile(m.UserSelectedProfile))
	require.Equal(t, 1250-hardware.VideoPacketHeaderSize, buffers.UsableRawVideoDataSize())

	buffers.UpdateVideoHeader(model.ProfileLowQuality, m.Profile(model.ProfileLowQuality))
	require.Equal(t, model.ProfileLowQuality, buffers.HeaderProfile())
	require.Equal(t, 1000-hardware.VideoPacketHeaderSize, buffers.UsableRawVideoDataSize())
	require.Equal(t, 1, buffers.HeaderRefreshes())

	buffers.UpdateCurrentKeyframe(500)
	require.EqualValues(t, 500, buffers.CurrentKeyframe())
}

func TestModelStore(t *testing.T) {
	store := hardware.NewModelStore(nil)
	require.Nil(t, store.ActiveModel())
	_, ok := store.SetUserProfileBitrate(1000000)
	require.False(t, ok)

	m := model.DefaultModel()
	store.Set(m)
	before := store.ActiveModel()

	old, ok := store.SetUserProfileBitrate(5000000)
	require.True(t, ok)
	require.EqualValues(t, 7000000, old)
	require.EqualValues(t, 5000000, store.ActiveModel().Profile(m.UserSelectedProfile).BitrateFixedBps)

	// earlier readers keep their copy
	require.EqualValues(t, 7000000, before.Profile(m.UserSelectedProfile).BitrateFixedBps)

	store.Clear()
	require.Nil(t, store.ActiveModel())
}
