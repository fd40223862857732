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
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/livekit-vtx/pkg/config"
	"github.com/livekit/livekit-vtx/pkg/service"
	"github.com/livekit/livekit-vtx/version"
)

var baseFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "config",
		Usage: "path to vtx config file",
	},
	&cli.StringFlag{
		Name:    "config-body",
		Usage:   "vtx config in YAML, typically passed in as an environment var",
		EnvVars: []string{"VTX_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "platform",
		Usage:   "air unit platform: generic, raspberry or openipc",
		EnvVars: []string{"VTX_PLATFORM"},
	},
	&cli.StringFlag{
		Name:    "camera",
		Usage:   "camera family: csi, openipc or none",
		EnvVars: []string{"VTX_CAMERA"},
	},
	&cli.StringFlag{
		Name:  "profile",
		Usage: "operator selected video profile (HP, HQ, USER, MQ, LQ)",
	},
	&cli.StringFlag{
		Name:  "scenario",
		Usage: "path to a scenario file replayed by the simulate command",
	},
	&cli.BoolFlag{
		Name:  "dev",
		Usage: "sets log-level to debug and console formatter",
	},
	&cli.BoolFlag{
		Name:   "disable-strict-config",
		Usage:  "disables strict config parsing",
		Hidden: true,
	},
}

func main() {
	generatedFlags, err := config.GenerateCLIFlags(baseFlags, true)
	if err != nil {
		fmt.Println(err)
	}

	app := &cli.App{
		Name:        "vtx",
		Usage:       "Adaptive video link controller for FPV air units",
		Description: "run without subcommands to start the controller",
		Flags:       append(baseFlags, generatedFlags...),
		Action:      startService,
		Commands: []*cli.Command{
			{
				Name:      "simulate",
				Usage:     "replays scenarios against the controller on a virtual clock",
				ArgsUsage: "[scenario files...]",
				Action:    runSimulation,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "sample-interval",
						Usage: "virtual time between two status samples, 0 to disable",
						Value: simulateSampleInterval,
					},
					&cli.BoolFlag{
						Name:  "writes",
						Usage: "also print every hardware write",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "number of scenarios replayed concurrently",
						Value: 2,
					},
				},
			},
			{
				Name:   "profiles",
				Usage:  "print the video link profiles of the configured model",
				Action: printProfiles,
			},
			{
				Name:   "help-verbose",
				Usage:  "prints app help, including all generated configuration flags",
				Action: helpVerbose,
			},
		},
		Version: version.Version,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println(err)
	}
}

func getConfig(c *cli.Context) (*config.Config, error) {
	confString, err := getConfigString(c.String("config"), c.String("config-body"))
	if err != nil {
		return nil, err
	}

	strictMode := true
	if c.Bool("disable-strict-config") {
		strictMode = false
	}

	conf, err := config.NewConfig(confString, strictMode, c, baseFlags)
	if err != nil {
		return nil, err
	}
	config.InitLoggerFromConfig(&conf.Logging)

	if conf.Development {
		logger.Infow("starting in development mode")
	}
	return conf, nil
}

func startService(c *cli.Context) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}

	svc := service.NewVideoLinkService(conf)
	if err := svc.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigChan
	logger.Infow("exit requested, shutting down", "signal", sig)
	svc.Stop()
	return nil
}

func getConfigString(configFile string, inConfigBody string) (string, error) {
	if inConfigBody != "" || configFile == "" {
		return inConfigBody, nil
	}

	outConfigBody, err := os.ReadFile(configFile)
	if err != nil {
		return "", err
	}

	return string(outConfigBody), nil
}
