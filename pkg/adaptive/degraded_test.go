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

	"github.com/livekit/livekit-vtx/pkg/model"
)

func TestDegradedECPackets(t *testing.T) {
	testCases := []struct {
		blockPackets int
		blockECs     int
		expected     uint32
	}{
		{blockPackets: 12, blockECs: 3, expected: 6},
		{blockPackets: 12, blockECs: 6, expected: 6},
		{blockPackets: 20, blockECs: 10, expected: 10},
		{blockPackets: 7, blockECs: 5, expected: 5},
		// halves are rounded to even
		{blockPackets: 3, blockECs: 0, expected: 2},
		{blockPackets: 5, blockECs: 1, expected: 2},
		{blockPackets: 7, blockECs: 0, expected: 4},
		// never less than one
		{blockPackets: 1, blockECs: 0, expected: 1},
		{blockPackets: 0, blockECs: 0, expected: 1},
		{blockPackets: -4, blockECs: -2, expected: 1},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.expected, DegradedECPackets(tc.blockPackets, tc.blockECs), "packets %d, ecs %d", tc.blockPackets, tc.blockECs)
	}
}

func TestDegradedECPacketCountFollowsActiveProfile(t *testing.T) {
	r := newTestRig(t)
	c := r.controller
	require.EqualValues(t, 6, c.DegradedECPacketCount())

	c.SetControllerRequestedProfile(model.ProfileMediumQuality, r.at(time.Second))
	require.EqualValues(t, 8, c.DegradedECPacketCount())

	c.SetControllerRequestedProfile(model.ProfileLowQuality, r.at(2*time.Second))
	require.EqualValues(t, 10, c.DegradedECPacketCount())
}
