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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/livekit/livekit-vtx/pkg/config"
	"github.com/livekit/livekit-vtx/pkg/hardware"
	"github.com/livekit/livekit-vtx/pkg/model"
)

const negotiationScenario = `
name: negotiation holds a datarate decrease
duration: 5s
events:
  - at: 0s
    uplink: recovered
  - at: 500ms
    profile: LQ
  - at: 1s
    keyframe_ms: 1000
  - at: 3s
    profile: HQ
  - at: 3600ms
    profile: LQ
  - at: 3500ms
    negotiating: true
  - at: 4500ms
    negotiating: false
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(negotiationScenario))
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, s.Duration)
	require.Equal(t, DefaultFrameInterval, s.FrameInterval)
	require.Equal(t, DefaultReadsPerFrame, s.ReadsPerFrame)
	require.Len(t, s.Events, 7)

	// sorted by time
	require.Equal(t, 3500*time.Millisecond, s.Events[4].At)
	require.NotNil(t, s.Events[4].Negotiating)
	require.Equal(t, model.ProfileLowQuality, *s.Events[5].Profile)

	testCases := []struct {
		name string
		body string
		err  error
	}{
		{name: "no events", body: "name: empty\n", err: ErrNoEvents},
		{name: "no action", body: "events:\n  - at: 1s\n", err: ErrEventNoAction},
		{name: "two actions", body: "events:\n  - at: 1s\n    uplink: lost\n    keyframe_ms: 500\n", err: ErrEventMultiple},
		{name: "bad uplink", body: "events:\n  - at: 1s\n    uplink: sideways\n", err: ErrUnknownUplink},
		{name: "past the end", body: "duration: 1s\nevents:\n  - at: 2s\n    uplink: lost\n", err: ErrEventOutOfRange},
		{name: "unknown profile", body: "events:\n  - at: 1s\n    profile: ultra\n", err: model.ErrUnknownProfile},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tc.body))
			require.ErrorIs(t, err, tc.err)
		})
	}

	_, err = ParseScenario([]byte("events:\n  - at: 1s\n    uplink: lost\n    volume: 11\n"))
	require.Error(t, err)
}

func TestDefaultDuration(t *testing.T) {
	s, err := ParseScenario([]byte("events:\n  - at: 2s\n    capture_restarted: true\n"))
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, s.Duration)
}

func TestRunScenario(t *testing.T) {
	s, err := ParseScenario([]byte(negotiationScenario))
	require.NoError(t, err)

	conf := config.DefaultConfig
	res := NewRunner(&conf, nil).Run(s)
	require.Equal(t, s.Name, res.Scenario)
	require.NotEmpty(t, res.StreamID)

	var radio []hardware.Write
	for _, w := range res.Writes {
		if w.Device == hardware.DeviceRadio {
			radio = append(radio, w)
		}
	}

	expected := []struct {
		at      time.Duration
		command string
		value   string
	}{
		{at: 600 * time.Millisecond, command: "datarate", value: "9 Mbps"},
		{at: 3 * time.Second, command: "datarate", value: "18 Mbps"},
		{at: 3500 * time.Millisecond, command: "negotiating", value: "true"},
		{at: 4500 * time.Millisecond, command: "negotiating", value: "false"},
		// held back by the negotiation, committed on the first free tick
		{at: 4500 * time.Millisecond, command: "datarate", value: "9 Mbps"},
	}
	require.Len(t, radio, len(expected))
	for i, e := range expected {
		require.Equal(t, Epoch.Add(e.at), radio[i].At, "write %d", i)
		require.Equal(t, e.command, radio[i].Command, "write %d", i)
		require.Equal(t, e.value, radio[i].Value, "write %d", i)
	}

	require.Equal(t, "LQ", res.Final.ActiveProfile)
	require.False(t, res.Final.Degraded)
	require.EqualValues(t, 2000000, res.Final.CameraBitrateBps)
	require.EqualValues(t, 1000, res.Final.KeyframeMs)
	require.Equal(t, "9 Mbps", res.Final.DataRate)

	// one sample per half second, both ends included
	require.Len(t, res.Samples, 11)
	require.Equal(t, "HP", res.Samples[0].Status.ActiveProfile)
}

func TestExampleScenarios(t *testing.T) {
	files, err := filepath.Glob("../../examples/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	conf := config.DefaultConfig
	for _, f := range files {
		s, err := LoadScenario(f)
		require.NoError(t, err, f)

		res := NewRunner(&conf, nil).Run(s)
		require.NotEmpty(t, res.Writes, f)
		require.Equal(t, "HP", res.Samples[0].Status.ActiveProfile, f)
	}

	_, err = LoadScenario("../../examples/scenarios/missing.yaml")
	require.Error(t, err)
}

func TestRunAll(t *testing.T) {
	first, err := ParseScenario([]byte("name: first\nduration: 1s\nevents:\n  - at: 0s\n    profile: LQ\n"))
	require.NoError(t, err)
	second, err := ParseScenario([]byte("name: second\nduration: 1s\nevents:\n  - at: 0s\n    profile: MQ\n"))
	require.NoError(t, err)

	conf := config.DefaultConfig
	results := NewRunner(&conf, nil).RunAll([]*Scenario{first, second, first}, 2)
	require.Len(t, results, 3)
	require.Equal(t, "first", results[0].Scenario)
	require.Equal(t, "LQ", results[0].Final.ActiveProfile)
	require.Equal(t, "MQ", results[1].Final.ActiveProfile)
	require.Equal(t, "LQ", results[2].Final.ActiveProfile)
	require.NotEqual(t, results[0].StreamID, results[2].StreamID)
}
