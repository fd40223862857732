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

package model

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// DataRate is a coded radio modulation rate.
//
// Positive values are legacy (OFDM) rates expressed in bits per second,
// negative values are MCS indexes offset by one (-1 is MCS0) and zero means
// no adaptive rate is set, i.e. the link keeps its natural rate.
type DataRate int32

const DataRateNone DataRate = 0

var (
	legacyDataRates = []DataRate{
		6000000, 9000000, 12000000, 18000000, 24000000, 36000000, 48000000, 54000000,
	}

	// 20 MHz, long guard interval, single stream
	mcsRealRates = []uint32{
		6500000, 13000000, 19500000, 26000000, 39000000, 52000000, 58500000, 65000000,
	}
)

func MCS(index int) DataRate {
	return DataRate(-(index + 1))
}

func (d DataRate) IsMCS() bool {
	return d < 0
}

func (d DataRate) MCSIndex() int {
	if !d.IsMCS() {
		return -1
	}
	return int(-d) - 1
}

func (d DataRate) String() string {
	switch {
	case d == DataRateNone:
		return "none"
	case d.IsMCS():
		return fmt.Sprintf("MCS-%d", d.MCSIndex())
	default:
		return humanize.SIWithDigits(float64(d), 1, "bps")
	}
}

// RealDataRate converts a coded rate to the throughput it carries on air, in
// bits per second. The conversion is monotonic within each coding family.
func RealDataRate(d DataRate) uint32 {
	switch {
	case d == DataRateNone:
		return 0
	case d.IsMCS():
		idx := d.MCSIndex()
		if idx >= len(mcsRealRates) {
			idx = len(mcsRealRates) - 1
		}
		return mcsRealRates[idx]
	default:
		return uint32(d)
	}
}

// LowerDataRate steps a coded rate down the ladder of its family, stopping at
// the lowest rung. Rates below the ladder are returned unchanged.
func LowerDataRate(d DataRate, steps int) DataRate {
	switch {
	case d == DataRateNone || steps <= 0:
		return d
	case d.IsMCS():
		idx := d.MCSIndex() - steps
		if idx < 0 {
			idx = 0
		}
		return MCS(idx)
	case d < legacyDataRates[0]:
		return d
	}

	pos := 0
	for i, r := range legacyDataRates {
		if r <= d {
			pos = i
		}
	}
	pos -= steps
	if pos < 0 {
		pos = 0
	}
	return legacyDataRates[pos]
}
