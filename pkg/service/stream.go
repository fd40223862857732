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

package service

import (
	"github.com/livekit/protocol/logger"
	"github.com/livekit/protocol/utils"

	"github.com/livekit/livekit-vtx/pkg/adaptive"
	"github.com/livekit/livekit-vtx/pkg/config"
	"github.com/livekit/livekit-vtx/pkg/hardware"
	"github.com/livekit/livekit-vtx/pkg/model"
)

const (
	StreamPrefix = "VS_"
	UnitPrefix   = "VU_"
)

// Stream is one adaptive controller wired to loopback hardware.
type Stream struct {
	ID string

	Log     *hardware.WriteLog
	Models  *hardware.ModelStore
	CSI     *hardware.CSICamera
	OpenIPC *hardware.OpenIPCCamera
	Radio   *hardware.Radio
	Buffers *hardware.VideoBuffers

	Controller *adaptive.Controller
}

func NewStream(conf *config.Config, l logger.Logger) *Stream {
	if l == nil {
		l = logger.GetLogger()
	}

	m := conf.Model
	s := &Stream{
		ID:     utils.NewGuid(StreamPrefix),
		Log:    hardware.NewWriteLog(hardware.DefaultWriteLogCapacity),
		Models: hardware.NewModelStore(&m),
	}
	s.CSI = hardware.NewCSICamera(s.Log, l)
	s.OpenIPC = hardware.NewOpenIPCCamera(s.Log, l)
	s.Radio = hardware.NewRadio(s.Log)
	s.Buffers = hardware.NewVideoBuffers(s.Log, m.UserSelectedProfile, m.Profile(m.UserSelectedProfile))

	s.Controller = adaptive.NewController(adaptive.ControllerParams{
		StreamID:   s.ID,
		Config:     conf.Adaptive,
		Platform:   conf.Platform,
		Models:     s.Models,
		Camera:     s.camera(m.Camera),
		Buffers:    s.Buffers,
		Radio:      s.Radio,
		Procedures: s.Radio,
		Logger:     l,
	})
	return s
}

func (s *Stream) camera(family model.CameraFamily) adaptive.CameraCapability {
	switch family {
	case model.CameraFamilyCSI:
		return adaptive.NewFrameCountCamera(s.CSI)
	case model.CameraFamilyOpenIPC:
		return adaptive.NewDurationCamera(s.OpenIPC)
	default:
		return nil
	}
}

// CameraBitrate reads the bitrate back from whichever camera is in use.
func (s *Stream) CameraBitrate() uint32 {
	m := s.Models.ActiveModel()
	if m == nil {
		return 0
	}
	switch m.Camera {
	case model.CameraFamilyCSI:
		return s.CSI.CurrentBitrate()
	case model.CameraFamilyOpenIPC:
		return s.OpenIPC.CurrentBitrate()
	default:
		return 0
	}
}
