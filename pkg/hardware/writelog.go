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
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/livekit/protocol/utils/mono"
)

const DefaultWriteLogCapacity = 1024

// Write is one command that reached a device.
type Write struct {
	At      time.Time
	Device  string
	Command string
	Value   string
}

func (w Write) String() string {
	return fmt.Sprintf("%s %s=%s", w.Device, w.Command, w.Value)
}

// WriteLog keeps the most recent hardware writes, oldest first. Once full the
// oldest entries are dropped.
type WriteLog struct {
	lock     sync.Mutex
	capacity int
	clock    func() time.Time
	writes   deque.Deque[Write]
	dropped  int
	onWrite  func(w Write)
}

func NewWriteLog(capacity int) *WriteLog {
	if capacity <= 0 {
		capacity = DefaultWriteLogCapacity
	}
	l := &WriteLog{
		capacity: capacity,
		clock:    mono.Now,
	}
	l.writes.SetBaseCap(capacity)
	return l
}

// SetClock replaces the time source used to stamp writes. Simulations use it
// to stamp with their virtual clock.
func (l *WriteLog) SetClock(clock func() time.Time) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.clock = clock
}

// OnWrite registers a callback invoked after every recorded write.
func (l *WriteLog) OnWrite(f func(w Write)) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.onWrite = f
}

func (l *WriteLog) Record(device string, command string, value interface{}) {
	if l == nil {
		return
	}

	l.lock.Lock()
	for l.writes.Len() >= l.capacity {
		l.writes.PopFront()
		l.dropped++
	}
	w := Write{
		At:      l.clock(),
		Device:  device,
		Command: command,
		Value:   fmt.Sprint(value),
	}
	l.writes.PushBack(w)
	onWrite := l.onWrite
	l.lock.Unlock()

	if onWrite != nil {
		onWrite(w)
	}
}

func (l *WriteLog) Writes() []Write {
	l.lock.Lock()
	defer l.lock.Unlock()

	writes := make([]Write, 0, l.writes.Len())
	for i := 0; i < l.writes.Len(); i++ {
		writes = append(writes, l.writes.At(i))
	}
	return writes
}

// WritesTo returns the writes that reached the given device.
func (l *WriteLog) WritesTo(device string) []Write {
	l.lock.Lock()
	defer l.lock.Unlock()

	var writes []Write
	for i := 0; i < l.writes.Len(); i++ {
		if w := l.writes.At(i); w.Device == device {
			writes = append(writes, w)
		}
	}
	return writes
}

func (l *WriteLog) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.writes.Len()
}

func (l *WriteLog) Dropped() int {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.dropped
}

func (l *WriteLog) Reset() {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.writes.Clear()
	l.dropped = 0
}
