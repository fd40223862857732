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

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/livekit/livekit-vtx/pkg/adaptive"
	"github.com/livekit/livekit-vtx/pkg/config"
	"github.com/livekit/livekit-vtx/pkg/hardware"
	"github.com/livekit/livekit-vtx/pkg/model"
	"github.com/livekit/livekit-vtx/pkg/simulate"
)

const simulateSampleInterval = 500 * time.Millisecond

func runSimulation(c *cli.Context) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}

	paths := c.Args().Slice()
	if len(paths) == 0 {
		if conf.ScenarioFile == "" {
			return errors.New("no scenario given, use --scenario, scenario_file or pass scenario files")
		}
		if err := conf.ValidateScenario(); err != nil {
			return err
		}
		paths = []string{conf.ScenarioFile}
	}

	scenarios := make([]*simulate.Scenario, 0, len(paths))
	for _, p := range paths {
		scenario, err := simulate.LoadScenario(p)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, scenario)
	}

	runner := simulate.NewRunner(conf, nil)
	runner.SampleInterval = c.Duration("sample-interval")
	for _, res := range runner.RunAll(scenarios, c.Int("workers")) {
		printResult(os.Stdout, res, c.Bool("writes"))
	}
	return nil
}

func printResult(w io.Writer, res *simulate.Result, withWrites bool) {
	fmt.Fprintf(w, "Scenario %q, stream %s, %s of virtual time\n", res.Scenario, res.StreamID, res.Duration)
	if len(res.Samples) != 0 {
		printSamples(w, res.Samples)
	}
	if withWrites {
		printWrites(w, res.Writes)
	}
	fmt.Fprintf(w, "%s hardware writes, final profile %s, bitrate %s, keyframe %dms, datarate %s\n\n",
		humanize.Comma(int64(len(res.Writes))),
		res.Final.ActiveProfile,
		formatBitrate(res.Final.CameraBitrateBps),
		res.Final.KeyframeMs,
		res.Final.DataRate,
	)
}

func printSamples(w io.Writer, samples []simulate.Sample) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{
		"Time",
		"Profile",
		"Override",
		"Degraded",
		"Bitrate",
		"Keyframe",
		"Datarate",
		"Pending",
	})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})

	for _, s := range samples {
		table.Append([]string{
			s.At.String(),
			s.Status.ActiveProfile,
			s.Status.Override,
			strconv.FormatBool(s.Status.Degraded),
			formatBitrate(s.Status.CameraBitrateBps),
			fmt.Sprintf("%dms", s.Status.KeyframeMs),
			s.Status.DataRate,
			s.Status.PendingDataRate,
		})
	}
	table.Render()
}

func printWrites(w io.Writer, writes []hardware.Write) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Time", "Device", "Command", "Value"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
	})

	for _, wr := range writes {
		table.Append([]string{
			wr.At.Sub(simulate.Epoch).String(),
			wr.Device,
			wr.Command,
			wr.Value,
		})
	}
	table.Render()
}

func printProfiles(c *cli.Context) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}

	writeProfiles(os.Stdout, conf)
	return nil
}

func writeProfiles(w io.Writer, conf *config.Config) {
	m := &conf.Model

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{
		"ID",
		"Name",
		"Bitrate",
		"Degraded",
		"EC",
		"Degraded EC",
		"Data Length",
		"FPS",
		"QP Delta",
		"Keyframe",
		"Radio",
	})

	for i := 0; i < model.NumProfiles; i++ {
		id := model.ProfileID(i)
		p := m.Profile(id)

		name := p.Name
		if id == m.UserSelectedProfile {
			name += " (selected)"
		}
		radio := model.DataRateNone.String()
		if id != m.UserSelectedProfile {
			radio = adaptive.TargetDataRate(m, id).String()
		}
		degraded := adaptive.ResolveBitrate(p, true, conf.Adaptive.DegradedScalePct, conf.Adaptive.MinVideoBitrateBps, 0)

		table.Append([]string{
			id.String(),
			name,
			formatBitrate(p.BitrateFixedBps),
			formatBitrate(degraded),
			p.ECShape(),
			strconv.Itoa(int(adaptive.DegradedECPackets(p.BlockPackets, p.BlockECs))),
			humanize.Bytes(uint64(p.VideoDataLength)),
			strconv.Itoa(p.FPS),
			strconv.Itoa(p.IPQuantizationDelta),
			fmt.Sprintf("%dms", m.InitialKeyframeIntervalMs(id)),
			radio,
		})
	}
	table.Render()
}

func formatBitrate(bps uint32) string {
	return humanize.SIWithDigits(float64(bps), 2, "bps")
}

func helpVerbose(c *cli.Context) error {
	generatedFlags, err := config.GenerateCLIFlags(baseFlags, false)
	if err != nil {
		return err
	}

	c.App.Flags = append(baseFlags, generatedFlags...)
	return cli.ShowAppHelp(c)
}
