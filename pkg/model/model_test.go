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

package model

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseProfileID(t *testing.T) {
	for i := 0; i < NumProfiles; i++ {
		id, err := ParseProfileID(ProfileID(i).String())
		require.NoError(t, err)
		require.Equal(t, ProfileID(i), id)
	}

	id, err := ParseProfileID(" low_quality ")
	require.NoError(t, err)
	require.Equal(t, ProfileLowQuality, id)

	_, err = ParseProfileID("ultra")
	require.ErrorIs(t, err, ErrUnknownProfile)

	require.False(t, ProfileID(NumProfiles).IsValid())
	require.Equal(t, "9", ProfileID(9).String())
}

func TestProfileTableYAML(t *testing.T) {
	m := DefaultModel()
	err := yaml.Unmarshal([]byte(`
lq:
  bitrate_fixed_bps: 1500000
MQ:
  fps: 30
`), &m.Profiles)
	require.NoError(t, err)

	lq := m.Profile(ProfileLowQuality)
	require.EqualValues(t, 1500000, lq.BitrateFixedBps)
	require.Equal(t, 20, lq.BlockPackets)
	require.Equal(t, 30, m.Profile(ProfileMediumQuality).FPS)
	require.EqualValues(t, 4000000, m.Profile(ProfileMediumQuality).BitrateFixedBps)

	err = yaml.Unmarshal([]byte("ultra:\n  fps: 30\n"), &m.Profiles)
	require.ErrorIs(t, err, ErrUnknownProfile)

	err = yaml.Unmarshal([]byte("- fps: 30\n"), &m.Profiles)
	require.Error(t, err)
}

func TestModelDefaults(t *testing.T) {
	m := DefaultModel()
	require.True(t, m.HasCamera())
	require.Equal(t, "12/3", m.Profile(ProfileHighPerformance).ECShape())
	require.EqualValues(t, 200, m.InitialKeyframeIntervalMs(ProfileHighPerformance))
	require.Equal(t, DefaultAutoKeyframeIntervalMs, m.InitialKeyframeIntervalMs(ProfileUser))

	m.Camera = CameraFamilyNone
	require.False(t, m.HasCamera())

	var missing *Model
	require.False(t, missing.HasCamera())
}

func TestModelDataRates(t *testing.T) {
	m := DefaultModel()
	require.Equal(t, DefaultVideoDataRate, m.DefaultVideoDataRate())
	require.EqualValues(t, 12000000, m.MQDataRate())
	require.EqualValues(t, 9000000, m.LQDataRate())

	m.VideoDataRate = MCS(5)
	require.Equal(t, MCS(4), m.MQDataRate())
	require.Equal(t, MCS(3), m.LQDataRate())

	m.LQRadioDataRate = 6000000
	require.EqualValues(t, 6000000, m.LQDataRate())

	m.VideoDataRate = DataRateNone
	require.Equal(t, DefaultVideoDataRate, m.DefaultVideoDataRate())

	// below the legacy ladder the rate is never raised
	m = DefaultModel()
	m.VideoDataRate = 2000000
	require.EqualValues(t, 2000000, m.MQDataRate())
	require.EqualValues(t, 2000000, m.LQDataRate())
	require.LessOrEqual(t, RealDataRate(m.LQDataRate()), RealDataRate(m.DefaultVideoDataRate()))

	// read-only accessors work on a value
	require.EqualValues(t, 9000000, DefaultModel().LQDataRate())
	require.EqualValues(t, 16, DefaultModel().Profile(ProfileMediumQuality).BlockPackets)
}

func TestDataRate(t *testing.T) {
	require.Equal(t, DataRate(-1), MCS(0))
	require.Equal(t, 0, MCS(0).MCSIndex())
	require.Equal(t, -1, DataRate(12000000).MCSIndex())

	require.Equal(t, "none", DataRateNone.String())
	require.Equal(t, "MCS-3", MCS(3).String())
	require.Equal(t, "12 Mbps", DataRate(12000000).String())

	require.Zero(t, RealDataRate(DataRateNone))
	require.EqualValues(t, 18000000, RealDataRate(18000000))
	require.EqualValues(t, 6500000, RealDataRate(MCS(0)))
	require.EqualValues(t, 65000000, RealDataRate(MCS(12)))
	for i := 1; i < 8; i++ {
		require.Greater(t, RealDataRate(MCS(i)), RealDataRate(MCS(i-1)))
	}

	require.EqualValues(t, 6000000, LowerDataRate(9000000, 4))
	require.EqualValues(t, 9000000, LowerDataRate(14000000, 1))
	require.Equal(t, MCS(0), LowerDataRate(MCS(1), 3))
	require.Equal(t, DataRateNone, LowerDataRate(DataRateNone, 1))
	require.EqualValues(t, 18000000, LowerDataRate(18000000, 0))
	require.EqualValues(t, 2000000, LowerDataRate(2000000, 1))
	require.EqualValues(t, 6000000, LowerDataRate(6000000, 2))
}
