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

	"github.com/livekit/protocol/logger"
)

const (
	DeviceCSICamera     = "csi"
	DeviceOpenIPCCamera = "openipc"
)

// CSICamera is a loopback capture program that takes bitrate, quantization
// delta and keyframe frame count as separate commands.
type CSICamera struct {
	lock   sync.Mutex
	log    *WriteLog
	logger logger.Logger

	bitrateBps     uint32
	qpDelta        int
	keyframeFrames uint16
}

func NewCSICamera(log *WriteLog, l logger.Logger) *CSICamera {
	if l == nil {
		l = logger.GetLogger()
	}
	return &CSICamera{
		log:    log,
		logger: l.WithValues("device", DeviceCSICamera),
	}
}

func (c *CSICamera) SetBitrate(bitrateBps uint32) {
	c.lock.Lock()
	c.bitrateBps = bitrateBps
	c.lock.Unlock()

	c.logger.Debugw("camera command", "bitrate", bitrateBps)
	c.log.Record(DeviceCSICamera, "bitrate", bitrateBps)
}

func (c *CSICamera) SetQuantizationDelta(qpDelta int) {
	c.lock.Lock()
	c.qpDelta = qpDelta
	c.lock.Unlock()

	c.logger.Debugw("camera command", "qpDelta", qpDelta)
	c.log.Record(DeviceCSICamera, "qp_delta", qpDelta)
}

func (c *CSICamera) SetKeyframeFrames(frames uint16) {
	c.lock.Lock()
	c.keyframeFrames = frames
	c.lock.Unlock()

	c.logger.Debugw("camera command", "keyframeFrames", frames)
	c.log.Record(DeviceCSICamera, "keyframe_frames", frames)
}

func (c *CSICamera) CurrentBitrate() uint32 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.bitrateBps
}

func (c *CSICamera) CurrentQuantizationDelta() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.qpDelta
}

func (c *CSICamera) CurrentKeyframeFrames() uint16 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.keyframeFrames
}

// ---------------------------------------------------------------------------

// OpenIPCCamera is a loopback encoder configured with a GOP duration that
// accepts bitrate and quantization delta in one command.
type OpenIPCCamera struct {
	lock   sync.Mutex
	log    *WriteLog
	logger logger.Logger

	bitrateBps      uint32
	qpDelta         int
	keyframeSeconds float32
}

func NewOpenIPCCamera(log *WriteLog, l logger.Logger) *OpenIPCCamera {
	if l == nil {
		l = logger.GetLogger()
	}
	return &OpenIPCCamera{
		log:    log,
		logger: l.WithValues("device", DeviceOpenIPCCamera),
	}
}

func (c *OpenIPCCamera) SetBitrate(bitrateBps uint32) {
	c.lock.Lock()
	c.bitrateBps = bitrateBps
	c.lock.Unlock()

	c.logger.Debugw("encoder command", "bitrate", bitrateBps)
	c.log.Record(DeviceOpenIPCCamera, "bitrate", bitrateBps)
}

func (c *OpenIPCCamera) SetQuantizationDelta(qpDelta int) {
	c.lock.Lock()
	c.qpDelta = qpDelta
	c.lock.Unlock()

	c.logger.Debugw("encoder command", "qpDelta", qpDelta)
	c.log.Record(DeviceOpenIPCCamera, "qp_delta", qpDelta)
}

func (c *OpenIPCCamera) SetBitrateAndQuantizationDelta(bitrateBps uint32, qpDelta int) {
	c.lock.Lock()
	c.bitrateBps = bitrateBps
	c.qpDelta = qpDelta
	c.lock.Unlock()

	c.logger.Debugw("encoder command", "bitrate", bitrateBps, "qpDelta", qpDelta)
	c.log.Record(DeviceOpenIPCCamera, "bitrate_qp_delta", []interface{}{bitrateBps, qpDelta})
}

func (c *OpenIPCCamera) SetKeyframeSeconds(gop float32) {
	c.lock.Lock()
	c.keyframeSeconds = gop
	c.lock.Unlock()

	c.logger.Debugw("encoder command", "gop", gop)
	c.log.Record(DeviceOpenIPCCamera, "gop", gop)
}

func (c *OpenIPCCamera) CurrentBitrate() uint32 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.bitrateBps
}

func (c *OpenIPCCamera) CurrentQuantizationDelta() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.qpDelta
}

func (c *OpenIPCCamera) CurrentKeyframeSeconds() float32 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.keyframeSeconds
}
