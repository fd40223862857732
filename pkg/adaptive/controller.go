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
	"sync"
	"time"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/livekit-vtx/pkg/config"
	"github.com/livekit/livekit-vtx/pkg/model"
	"github.com/livekit/livekit-vtx/pkg/telemetry/prometheus"
)

// ProfileOverride is the profile requested by the ground controller, if any.
type ProfileOverride struct {
	id    model.ProfileID
	valid bool
}

func NoOverride() ProfileOverride {
	return ProfileOverride{}
}

func OverrideWith(id model.ProfileID) ProfileOverride {
	return ProfileOverride{id: id, valid: true}
}

func (o ProfileOverride) Get() (model.ProfileID, bool) {
	return o.id, o.valid
}

func (o ProfileOverride) String() string {
	if !o.valid {
		return "none"
	}
	return o.id.String()
}

type pendingDataRate struct {
	rate        model.DataRate
	scheduledAt time.Time
	valid       bool
}

// ---------------------------------------------------------------------------

type ControllerParams struct {
	StreamID   string
	Config     config.AdaptiveConfig
	Platform   config.PlatformConfig
	Models     ModelRepository
	Camera     CameraCapability
	Buffers    VideoBuffers
	Radio      RadioDatarate
	Procedures LinkProcedures
	Logger     logger.Logger
}

// Controller decides capture bitrate, keyframe interval and radio datarate
// for one video stream. All methods are non-blocking and safe to call from
// the tick loop and from event handlers.
type Controller struct {
	params        ControllerParams
	settlingDelay time.Duration

	lock sync.Mutex

	override      ProfileOverride
	overrideSetAt time.Time

	uplinkDegraded   bool
	temporaryBitrate uint32

	currentKeyframeMs  uint16
	pendingKeyframeMs  uint16
	hasPendingKeyframe bool

	pendingDataRate pendingDataRate

	initialBitrateDeadline time.Time
	lastTickAt             time.Time

	lastResolvedBitrate uint32
}

func NewController(params ControllerParams) *Controller {
	if params.Logger == nil {
		params.Logger = logger.GetLogger()
	}
	params.Logger = params.Logger.WithValues("stream", params.StreamID)

	return &Controller{
		params:        params,
		settlingDelay: params.Config.SettlingDelay * params.Platform.SettlingDelayFactor(),
	}
}

// Initialize drops all adaptive state and starts over from the operator
// selected profile.
func (c *Controller) Initialize(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.params.Logger.Infow("adaptive video: init")

	c.override = NoOverride()
	c.overrideSetAt = time.Time{}
	c.uplinkDegraded = c.params.Config.StartDegraded
	c.temporaryBitrate = 0

	c.currentKeyframeMs = 0
	if m := c.activeModel(); m != nil {
		c.currentKeyframeMs = m.InitialKeyframeIntervalMs(m.UserSelectedProfile)
	}
	c.clearPendingKeyframeLocked()
	c.clearPendingDataRateLocked()

	c.initialBitrateDeadline = now.Add(c.params.Config.InitialBitrateDelay)
	c.lastTickAt = now
	c.lastResolvedBitrate = 0

	prometheus.RecordDegraded(c.params.StreamID, c.uplinkDegraded)

	c.params.Logger.Infow(
		"adaptive video: init done",
		"currentKeyframeMs", c.currentKeyframeMs,
		"degraded", c.uplinkDegraded,
		"settlingDelay", c.settlingDelay,
	)
}

// OnCaptureRestarted is reserved for capture pipeline restarts.
func (c *Controller) OnCaptureRestarted() {
}

// ---------------------------------------------------------------------------

// State is a point in time copy of the controller's adaptive state.
type State struct {
	ActiveProfile          model.ProfileID
	Override               ProfileOverride
	OverrideSetAt          time.Time
	Degraded               bool
	TemporaryBitrate       uint32
	ResolvedBitrate        uint32
	CurrentKeyframeMs      uint16
	PendingKeyframeMs      uint16
	HasPendingKeyframe     bool
	PendingDataRate        model.DataRate
	PendingDataRateAt      time.Time
	HasPendingDataRate     bool
	InitialBitrateDeadline time.Time
	LastTickAt             time.Time
}

func (c *Controller) State() State {
	c.lock.Lock()
	defer c.lock.Unlock()

	var active model.ProfileID
	if m := c.activeModel(); m != nil {
		active = c.activeProfileLocked(m)
	}
	return State{
		ActiveProfile:          active,
		Override:               c.override,
		OverrideSetAt:          c.overrideSetAt,
		Degraded:               c.uplinkDegraded,
		TemporaryBitrate:       c.temporaryBitrate,
		ResolvedBitrate:        c.lastResolvedBitrate,
		CurrentKeyframeMs:      c.currentKeyframeMs,
		PendingKeyframeMs:      c.pendingKeyframeMs,
		HasPendingKeyframe:     c.hasPendingKeyframe,
		PendingDataRate:        c.pendingDataRate.rate,
		PendingDataRateAt:      c.pendingDataRate.scheduledAt,
		HasPendingDataRate:     c.pendingDataRate.valid,
		InitialBitrateDeadline: c.initialBitrateDeadline,
		LastTickAt:             c.lastTickAt,
	}
}

func (c *Controller) SettlingDelay() time.Duration {
	return c.settlingDelay
}

func (c *Controller) hasCameraLocked(m *model.Model) bool {
	return c.params.Camera != nil && m.HasCamera()
}
