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

type CameraFamily string

const (
	CameraFamilyNone CameraFamily = "none"
	// raspivid/veye style capture programs, keyframe given in frames
	CameraFamilyCSI CameraFamily = "csi"
	// majestic style encoders, keyframe given as GOP duration
	CameraFamilyOpenIPC CameraFamily = "openipc"
)

const (
	DefaultAutoKeyframeIntervalMs uint16 = 1000

	DefaultVideoDataRate DataRate = 18000000

	DefaultMinVideoBitrateBps uint32 = 250000
)

// Model is the vehicle's static description: camera, selected profile and the
// profile table. It is read-only for the adaptive controller.
type Model struct {
	Camera              CameraFamily `yaml:"camera,omitempty"`
	UserSelectedProfile ProfileID    `yaml:"user_selected_profile,omitempty"`
	Profiles            ProfileTable `yaml:"profiles,omitempty"`

	VideoDataRate   DataRate `yaml:"video_datarate,omitempty"`
	MQRadioDataRate DataRate `yaml:"mq_radio_datarate,omitempty"`
	LQRadioDataRate DataRate `yaml:"lq_radio_datarate,omitempty"`
}

func DefaultModel() Model {
	return Model{
		Camera:              CameraFamilyOpenIPC,
		UserSelectedProfile: ProfileHighPerformance,
		Profiles: ProfileTable{
			ProfileHighPerformance: {
				Name:                "high performance",
				BitrateFixedBps:     7000000,
				BlockPackets:        12,
				BlockECs:            3,
				VideoDataLength:     1250,
				FPS:                 60,
				IPQuantizationDelta: -12,
				KeyframeIntervalMs:  200,
			},
			ProfileHighQuality: {
				Name:                "high quality",
				BitrateFixedBps:     9000000,
				BlockPackets:        12,
				BlockECs:            6,
				VideoDataLength:     1250,
				FPS:                 30,
				IPQuantizationDelta: -6,
				KeyframeIntervalMs:  1000,
			},
			ProfileUser: {
				Name:                "user",
				BitrateFixedBps:     6000000,
				BlockPackets:        12,
				BlockECs:            4,
				VideoDataLength:     1250,
				FPS:                 60,
				IPQuantizationDelta: -12,
			},
			ProfileMediumQuality: {
				Name:                "medium quality",
				BitrateFixedBps:     4000000,
				BlockPackets:        16,
				BlockECs:            6,
				VideoDataLength:     1100,
				FPS:                 60,
				IPQuantizationDelta: -8,
				KeyframeIntervalMs:  500,
			},
			ProfileLowQuality: {
				Name:                "low quality",
				BitrateFixedBps:     2000000,
				BlockPackets:        20,
				BlockECs:            10,
				VideoDataLength:     1000,
				FPS:                 30,
				IPQuantizationDelta: -4,
				KeyframeIntervalMs:  500,
			},
		},
		VideoDataRate: DefaultVideoDataRate,
	}
}

func (m *Model) HasCamera() bool {
	return m != nil && m.Camera != "" && m.Camera != CameraFamilyNone
}

func (m Model) Profile(id ProfileID) VideoLinkProfile {
	p, _ := m.Profiles.Get(id)
	return p
}

func (m Model) InitialKeyframeIntervalMs(id ProfileID) uint16 {
	if kf := m.Profile(id).KeyframeIntervalMs; kf != 0 {
		return kf
	}
	return DefaultAutoKeyframeIntervalMs
}

func (m Model) DefaultVideoDataRate() DataRate {
	if m.VideoDataRate != DataRateNone {
		return m.VideoDataRate
	}
	return DefaultVideoDataRate
}

// MQDataRate is the radio rate used while the medium quality profile is
// active, one rung below the video rate unless configured explicitly.
func (m Model) MQDataRate() DataRate {
	if m.MQRadioDataRate != DataRateNone {
		return m.MQRadioDataRate
	}
	return LowerDataRate(m.DefaultVideoDataRate(), 1)
}

func (m Model) LQDataRate() DataRate {
	if m.LQRadioDataRate != DataRateNone {
		return m.LQRadioDataRate
	}
	return LowerDataRate(m.DefaultVideoDataRate(), 2)
}
