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

package hardware

import (
	"sync"

	"github.com/livekit/livekit-vtx/pkg/model"
)

const (
	DeviceVideoBuffers = "buffers"

	// per packet video header ahead of the raw video payload
	VideoPacketHeaderSize = 24
)

// VideoBuffers tracks the framing the transmit buffers would use for
// outgoing video packets.
type VideoBuffers struct {
	lock sync.Mutex
	log  *WriteLog

	profileID       model.ProfileID
	profile         model.VideoLinkProfile
	keyframeMs      uint16
	headerRefreshes int
}

func NewVideoBuffers(log *WriteLog, id model.ProfileID, profile model.VideoLinkProfile) *VideoBuffers {
	return &VideoBuffers{
		log:       log,
		profileID: id,
		profile:   profile,
	}
}

func (b *VideoBuffers) UpdateVideoHeader(id model.ProfileID, profile model.VideoLinkProfile) {
	b.lock.Lock()
	b.profileID = id
	b.profile = profile
	b.headerRefreshes++
	b.lock.Unlock()

	b.log.Record(DeviceVideoBuffers, "header", id)
}

func (b *VideoBuffers) UpdateCurrentKeyframe(keyframeMs uint16) {
	b.lock.Lock()
	b.keyframeMs = keyframeMs
	b.lock.Unlock()

	b.log.Record(DeviceVideoBuffers, "keyframe_ms", keyframeMs)
}

func (b *VideoBuffers) UsableRawVideoDataSize() int {
	b.lock.Lock()
	defer b.lock.Unlock()

	usable := b.profile.VideoDataLength - VideoPacketHeaderSize
	if usable < 0 {
		return 0
	}
	return usable
}

func (b *VideoBuffers) HeaderProfile() model.ProfileID {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.profileID
}

func (b *VideoBuffers) HeaderRefreshes() int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.headerRefreshes
}

func (b *VideoBuffers) CurrentKeyframe() uint16 {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.keyframeMs
}
