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

package simulate

import (
	"bytes"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/livekit/livekit-vtx/pkg/model"
)

const (
	DefaultFrameInterval = 16 * time.Millisecond
	DefaultReadsPerFrame = 4
)

var (
	ErrNoEvents        = errors.New("scenario has no events")
	ErrEventNoAction   = errors.New("event has no action")
	ErrEventMultiple   = errors.New("event has more than one action")
	ErrEventOutOfRange = errors.New("event is past the end of the scenario")
	ErrUnknownUplink   = errors.New("uplink must be lost or recovered")
)

type UplinkState string

const (
	UplinkLost      UplinkState = "lost"
	UplinkRecovered UplinkState = "recovered"
)

// Scenario is a timed list of link events replayed against a controller.
type Scenario struct {
	Name     string        `yaml:"name"`
	Duration time.Duration `yaml:"duration"`
	// capture cadence, each frame is read in ReadsPerFrame chunks and only
	// the last one ends the frame
	FrameInterval time.Duration `yaml:"frame_interval,omitempty"`
	ReadsPerFrame int           `yaml:"reads_per_frame,omitempty"`

	Events []Event `yaml:"events"`
}

// Event carries exactly one action.
type Event struct {
	At time.Duration `yaml:"at"`

	Uplink           UplinkState      `yaml:"uplink,omitempty"`
	Profile          *model.ProfileID `yaml:"profile,omitempty"`
	KeyframeMs       *uint16          `yaml:"keyframe_ms,omitempty"`
	TemporaryBitrate *uint32          `yaml:"temporary_bitrate,omitempty"`
	UserBitrate      *uint32          `yaml:"user_bitrate,omitempty"`
	Negotiating      *bool            `yaml:"negotiating,omitempty"`
	TestingLink      *bool            `yaml:"testing_link,omitempty"`
	CaptureRestarted bool             `yaml:"capture_restarted,omitempty"`
}

func (e *Event) actions() int {
	n := 0
	if e.Uplink != "" {
		n++
	}
	for _, set := range []bool{
		e.Profile != nil,
		e.KeyframeMs != nil,
		e.TemporaryBitrate != nil,
		e.UserBitrate != nil,
		e.Negotiating != nil,
		e.TestingLink != nil,
		e.CaptureRestarted,
	} {
		if set {
			n++
		}
	}
	return n
}

func (e *Event) Validate() error {
	switch e.actions() {
	case 0:
		return ErrEventNoAction
	case 1:
	default:
		return ErrEventMultiple
	}
	if e.Uplink != "" && e.Uplink != UplinkLost && e.Uplink != UplinkRecovered {
		return errors.Wrapf(ErrUnknownUplink, "%q", e.Uplink)
	}
	if e.Profile != nil && !e.Profile.IsValid() {
		return model.ErrUnknownProfile
	}
	return nil
}

// Validate fills in defaults and orders events by time.
func (s *Scenario) Validate() error {
	if len(s.Events) == 0 {
		return ErrNoEvents
	}
	if s.FrameInterval <= 0 {
		s.FrameInterval = DefaultFrameInterval
	}
	if s.ReadsPerFrame <= 0 {
		s.ReadsPerFrame = DefaultReadsPerFrame
	}

	sort.SliceStable(s.Events, func(i, j int) bool {
		return s.Events[i].At < s.Events[j].At
	})
	for i := range s.Events {
		e := &s.Events[i]
		if err := e.Validate(); err != nil {
			return errors.Wrapf(err, "event %d at %s", i, e.At)
		}
	}

	last := s.Events[len(s.Events)-1].At
	if s.Duration == 0 {
		s.Duration = last + time.Second
	}
	if last > s.Duration {
		return errors.Wrapf(ErrEventOutOfRange, "event at %s, duration %s", last, s.Duration)
	}
	return nil
}

func ParseScenario(body []byte) (*Scenario, error) {
	s := &Scenario{}
	decoder := yaml.NewDecoder(bytes.NewReader(body))
	decoder.KnownFields(true)
	if err := decoder.Decode(s); err != nil {
		return nil, errors.Wrap(err, "could not parse scenario")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func LoadScenario(path string) (*Scenario, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read scenario %s", path)
	}
	return ParseScenario(body)
}
