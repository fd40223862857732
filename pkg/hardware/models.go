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

// ModelStore holds the vehicle model. Updates replace the whole model so
// readers never see a partially edited one.
type ModelStore struct {
	lock  sync.RWMutex
	model *model.Model
}

func NewModelStore(m *model.Model) *ModelStore {
	s := &ModelStore{}
	if m != nil {
		s.Set(*m)
	}
	return s
}

func (s *ModelStore) ActiveModel() *model.Model {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.model
}

func (s *ModelStore) Set(m model.Model) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.model = &m
}

func (s *ModelStore) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.model = nil
}

// SetUserProfileBitrate changes the fixed bitrate of the operator selected
// profile and returns the previous value.
func (s *ModelStore) SetUserProfileBitrate(bitrateBps uint32) (uint32, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.model == nil {
		return 0, false
	}

	updated := *s.model
	id := updated.UserSelectedProfile
	if !id.IsValid() {
		return 0, false
	}
	old := updated.Profiles[id].BitrateFixedBps
	updated.Profiles[id].BitrateFixedBps = bitrateBps
	s.model = &updated
	return old, true
}
