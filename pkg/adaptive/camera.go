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

type frameCountCamera struct {
	transport FrameCountTransport
}

// NewFrameCountCamera wraps capture programs that take bitrate and
// quantization delta as independent commands and the keyframe interval in frames.
func NewFrameCountCamera(transport FrameCountTransport) CameraCapability {
	return &frameCountCamera{transport: transport}
}

func (f *frameCountCamera) Family() model.CameraFamily {
	return model.CameraFamilyCSI
}

func (f *frameCountCamera) ApplyBitrate(bitrateBps uint32, qpDelta int) {
	if bitrateBps != f.transport.CurrentBitrate() {
		f.transport.SetBitrate(bitrateBps)
	}
	if qpDelta != f.transport.CurrentQuantizationDelta() {
		f.transport.SetQuantizationDelta(qpDelta)
	}
}

func (f *frameCountCamera) ApplyKeyframeInterval(keyframeMs uint16, fps int) {
	f.transport.SetKeyframeFrames(KeyframeFrames(keyframeMs, fps))
}

// ---------------------------------------------------------------------------

type durationCamera struct {
	transport DurationTransport
}

// NewDurationCamera wraps encoders configured with a GOP duration. Bitrate and
// quantization delta go out as one combined command when both change.
func NewDurationCamera(transport DurationTransport) CameraCapability {
	return &durationCamera{transport: transport}
}

func (d *durationCamera) Family() model.CameraFamily {
	return model.CameraFamilyOpenIPC
}

func (d *durationCamera) ApplyBitrate(bitrateBps uint32, qpDelta int) {
	bitrateChanged := bitrateBps != d.transport.CurrentBitrate()
	qpChanged := qpDelta != d.transport.CurrentQuantizationDelta()

	switch {
	case bitrateChanged && qpChanged:
		d.transport.SetBitrateAndQuantizationDelta(bitrateBps, qpDelta)
	case bitrateChanged:
		d.transport.SetBitrate(bitrateBps)
	case qpChanged:
		d.transport.SetQuantizationDelta(qpDelta)
	}
}

func (d *durationCamera) ApplyKeyframeInterval(keyframeMs uint16, _ int) {
	d.transport.SetKeyframeSeconds(KeyframeSeconds(keyframeMs))
}

// ---------------------------------------------------------------------------

// KeyframeFrames converts an interval to a frame count, truncating.
func KeyframeFrames(keyframeMs uint16, fps int) uint16 {
	if fps <= 0 {
		return 0
	}
	return uint16((fps * int(keyframeMs)) / 1000)
}

func KeyframeSeconds(keyframeMs uint16) float32 {
	return float32(keyframeMs) / 1000.0
}
