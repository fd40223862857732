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

	"go.uber.org/atomic"

	"github.com/livekit/livekit-vtx/pkg/model"
)

const (
	DeviceRadio = "radio"
)

// Radio holds the adaptive video datarate and the state of the link
// procedures that take priority over adaptive work.
type Radio struct {
	lock     sync.Mutex
	log      *WriteLog
	dataRate model.DataRate

	negotiating atomic.Bool
	testingLink atomic.Bool
}

func NewRadio(log *WriteLog) *Radio {
	return &Radio{log: log}
}

func (r *Radio) SetAdaptiveVideoDataRate(rate model.DataRate) {
	r.lock.Lock()
	r.dataRate = rate
	r.lock.Unlock()

	r.log.Record(DeviceRadio, "datarate", rate)
}

func (r *Radio) AdaptiveVideoDataRate() model.DataRate {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.dataRate
}

func (r *Radio) SetNegotiatingRadioLink(negotiating bool) {
	if r.negotiating.Swap(negotiating) != negotiating {
		r.log.Record(DeviceRadio, "negotiating", negotiating)
	}
}

func (r *Radio) IsNegotiatingRadioLink() bool {
	return r.negotiating.Load()
}

func (r *Radio) SetTestingLink(testing bool) {
	if r.testingLink.Swap(testing) != testing {
		r.log.Record(DeviceRadio, "testing_link", testing)
	}
}

func (r *Radio) IsTestingLink() bool {
	return r.testingLink.Load()
}
