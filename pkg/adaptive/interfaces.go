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
	"github.com/livekit/livekit-vtx/pkg/model"
)

// ModelRepository gives access to the vehicle model currently in use.
type ModelRepository interface {
	// ActiveModel returns nil while no model is loaded.
	ActiveModel() *model.Model
}

// CameraCapability applies capture settings in the form a camera family
// understands. See NewFrameCountCamera and NewDurationCamera.
type CameraCapability interface {
	Family() model.CameraFamily
	ApplyBitrate(bitrateBps uint32, qpDelta int)
	ApplyKeyframeInterval(keyframeMs uint16, fps int)
}

// FrameCountTransport reaches capture programs that take the keyframe
// interval as a number of frames.
type FrameCountTransport interface {
	SetBitrate(bitrateBps uint32)
	SetQuantizationDelta(qpDelta int)
	SetKeyframeFrames(frames uint16)

	CurrentBitrate() uint32
	CurrentQuantizationDelta() int
}

// DurationTransport reaches encoders that take the keyframe interval as a GOP
// duration and accept bitrate and quantization delta in a single command.
type DurationTransport interface {
	SetBitrate(bitrateBps uint32)
	SetQuantizationDelta(qpDelta int)
	SetBitrateAndQuantizationDelta(bitrateBps uint32, qpDelta int)
	SetKeyframeSeconds(gop float32)

	CurrentBitrate() uint32
	CurrentQuantizationDelta() int
}

type VideoBuffers interface {
	// UpdateVideoHeader refreshes the framing header for the given profile.
	UpdateVideoHeader(id model.ProfileID, profile model.VideoLinkProfile)
	UpdateCurrentKeyframe(keyframeMs uint16)
	UsableRawVideoDataSize() int
}

type RadioDatarate interface {
	SetAdaptiveVideoDataRate(rate model.DataRate)
	AdaptiveVideoDataRate() model.DataRate
}

// LinkProcedures reports higher priority radio procedures. The periodic loop
// stays idle while any of them runs.
type LinkProcedures interface {
	IsNegotiatingRadioLink() bool
	IsTestingLink() bool
}
