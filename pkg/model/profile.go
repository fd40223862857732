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
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrUnknownProfile = errors.New("unknown video link profile")

type ProfileID uint8

const (
	ProfileHighPerformance ProfileID = iota
	ProfileHighQuality
	ProfileUser
	ProfileMediumQuality
	ProfileLowQuality

	NumProfiles = int(ProfileLowQuality) + 1
)

func (p ProfileID) String() string {
	switch p {
	case ProfileHighPerformance:
		return "HP"
	case ProfileHighQuality:
		return "HQ"
	case ProfileUser:
		return "USER"
	case ProfileMediumQuality:
		return "MQ"
	case ProfileLowQuality:
		return "LQ"
	default:
		return fmt.Sprintf("%d", int(p))
	}
}

func (p ProfileID) IsValid() bool {
	return int(p) < NumProfiles
}

func ParseProfileID(s string) (ProfileID, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HP", "HIGH_PERFORMANCE":
		return ProfileHighPerformance, nil
	case "HQ", "HIGH_QUALITY":
		return ProfileHighQuality, nil
	case "USER":
		return ProfileUser, nil
	case "MQ", "MEDIUM_QUALITY":
		return ProfileMediumQuality, nil
	case "LQ", "LOW_QUALITY":
		return ProfileLowQuality, nil
	}
	return 0, errors.Wrapf(ErrUnknownProfile, "%q", s)
}

func (p ProfileID) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

func (p *ProfileID) UnmarshalYAML(value *yaml.Node) error {
	id, err := ParseProfileID(value.Value)
	if err != nil {
		return err
	}
	*p = id
	return nil
}

// VideoLinkProfile describes one quality tier of the video link.
type VideoLinkProfile struct {
	Name                string `yaml:"name,omitempty"`
	BitrateFixedBps     uint32 `yaml:"bitrate_fixed_bps,omitempty"`
	BlockPackets        int    `yaml:"block_packets,omitempty"`
	BlockECs            int    `yaml:"block_ecs,omitempty"`
	VideoDataLength     int    `yaml:"video_data_length,omitempty"`
	FPS                 int    `yaml:"fps,omitempty"`
	IPQuantizationDelta int    `yaml:"ip_quantization_delta,omitempty"`
	// 0 selects the automatic initial interval
	KeyframeIntervalMs uint16 `yaml:"keyframe_interval_ms,omitempty"`
}

func (v VideoLinkProfile) ECShape() string {
	return fmt.Sprintf("%d/%d", v.BlockPackets, v.BlockECs)
}

type ProfileTable [NumProfiles]VideoLinkProfile

func (t ProfileTable) Get(id ProfileID) (VideoLinkProfile, bool) {
	if !id.IsValid() {
		return VideoLinkProfile{}, false
	}
	return t[id], true
}

func (t ProfileTable) MarshalYAML() (interface{}, error) {
	out := make(map[string]VideoLinkProfile, NumProfiles)
	for i, p := range t {
		out[ProfileID(i).String()] = p
	}
	return out, nil
}

func (t *ProfileTable) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errors.New("video link profiles must be a mapping of profile name to settings")
	}
	// entries only override the fields they name
	for i := 0; i+1 < len(value.Content); i += 2 {
		id, err := ParseProfileID(value.Content[i].Value)
		if err != nil {
			return err
		}
		p := t[id]
		if err := value.Content[i+1].Decode(&p); err != nil {
			return errors.Wrapf(err, "profile %s", id)
		}
		t[id] = p
	}
	return nil
}
