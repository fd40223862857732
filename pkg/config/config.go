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

package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/livekit/protocol/logger"

	"github.com/livekit/livekit-vtx/pkg/model"
)

type PlatformName string

const (
	generatedCLIFlagUsage = "generated"

	PlatformGeneric   PlatformName = "generic"
	PlatformRaspberry PlatformName = "raspberry"
	PlatformOpenIPC   PlatformName = "openipc"

	// wait before a lowered radio datarate is committed
	DefaultSettlingDelay = 100 * time.Millisecond
)

var (
	ErrInvalidTickInterval   = errors.New("adaptive.tick_interval must be positive")
	ErrInvalidSettlingDelay  = errors.New("adaptive.settling_delay must be positive")
	ErrInvalidDegradedScale  = errors.New("adaptive.degraded_scale_pct must be within 1..100")
	ErrInvalidUserProfile    = errors.New("model.user_selected_profile is not a known profile")
	ErrUnknownPlatform       = errors.New("unknown platform")
	ErrUnknownCameraFamily   = errors.New("unknown camera family")
	ErrInvalidProfile        = errors.New("profile block_packets and block_ecs must not be negative")
	ErrScenarioFileNotExists = errors.New("scenario file does not exist")
)

type Config struct {
	PrometheusPort uint32         `yaml:"prometheus_port,omitempty"`
	Adaptive       AdaptiveConfig `yaml:"adaptive,omitempty"`
	Platform       PlatformConfig `yaml:"platform,omitempty"`
	Model          model.Model    `yaml:"model,omitempty"`
	// path to a scenario replayed by `vtx simulate`
	ScenarioFile string        `yaml:"scenario_file,omitempty"`
	Logging      LoggingConfig `yaml:"logging,omitempty"`

	Development bool `yaml:"development,omitempty"`
}

type AdaptiveConfig struct {
	// minimum spacing between two runs of the periodic loop
	TickInterval time.Duration `yaml:"tick_interval,omitempty"`
	// how long a radio datarate decrease waits before being committed
	SettlingDelay time.Duration `yaml:"settling_delay,omitempty"`
	// delay after init before the capture bitrate is forced once
	InitialBitrateDelay time.Duration `yaml:"initial_bitrate_delay,omitempty"`
	// floor applied to the capture bitrate while degraded
	MinVideoBitrateBps uint32 `yaml:"min_video_bitrate_bps,omitempty"`
	// percentage of the profile bitrate kept while degraded
	DegradedScalePct uint32 `yaml:"degraded_scale_pct,omitempty"`
	// start in uplink lost state until the ground station pairs
	StartDegraded bool `yaml:"start_degraded,omitempty"`
}

type PlatformConfig struct {
	Name PlatformName `yaml:"name,omitempty"`
}

// SettlingDelayFactor is resolved once at startup. Raspberry based air units
// react slower to datarate switches and use twice the configured delay.
func (p PlatformConfig) SettlingDelayFactor() time.Duration {
	if p.Name == PlatformRaspberry {
		return 2
	}
	return 1
}

func (p PlatformConfig) Validate() error {
	switch p.Name {
	case PlatformGeneric, PlatformRaspberry, PlatformOpenIPC:
		return nil
	}
	return errors.Wrapf(ErrUnknownPlatform, "%q", p.Name)
}

func (a AdaptiveConfig) Validate() error {
	if a.TickInterval <= 0 {
		return ErrInvalidTickInterval
	}
	if a.SettlingDelay <= 0 {
		return ErrInvalidSettlingDelay
	}
	if a.DegradedScalePct == 0 || a.DegradedScalePct > 100 {
		return ErrInvalidDegradedScale
	}
	return nil
}

type LoggingConfig struct {
	logger.Config `yaml:",inline"`
}

var DefaultConfig = Config{
	PrometheusPort: 0,
	Adaptive: AdaptiveConfig{
		TickInterval:        10 * time.Millisecond,
		SettlingDelay:       DefaultSettlingDelay,
		InitialBitrateDelay: 2 * time.Second,
		MinVideoBitrateBps:  model.DefaultMinVideoBitrateBps,
		DegradedScalePct:    66,
		StartDegraded:       true,
	},
	Platform: PlatformConfig{
		Name: PlatformOpenIPC,
	},
	Model:   model.DefaultModel(),
	Logging: LoggingConfig{},
}

func NewConfig(confString string, strictMode bool, c *cli.Context, baseFlags []cli.Flag) (*Config, error) {
	// start with defaults
	marshalled, err := yaml.Marshal(&DefaultConfig)
	if err != nil {
		return nil, err
	}

	var conf Config
	err = yaml.Unmarshal(marshalled, &conf)
	if err != nil {
		return nil, err
	}

	if confString != "" {
		decoder := yaml.NewDecoder(strings.NewReader(confString))
		decoder.KnownFields(strictMode)
		if err := decoder.Decode(&conf); err != nil {
			return nil, errors.Wrap(err, "could not parse config")
		}
	}

	if c != nil {
		if err := conf.updateFromCLI(c, baseFlags); err != nil {
			return nil, err
		}
	}

	if err := conf.Adaptive.Validate(); err != nil {
		return nil, errors.Wrap(err, "could not validate adaptive config")
	}
	if err := conf.Platform.Validate(); err != nil {
		return nil, errors.Wrap(err, "could not validate platform config")
	}
	if err := conf.validateModel(); err != nil {
		return nil, errors.Wrap(err, "could not validate model")
	}

	// expand env vars in filenames
	if conf.ScenarioFile != "" {
		file, err := homedir.Expand(os.ExpandEnv(conf.ScenarioFile))
		if err != nil {
			return nil, err
		}
		conf.ScenarioFile = file
	}

	if conf.Logging.Level == "" && conf.Development {
		conf.Logging.Level = "debug"
	}

	return &conf, nil
}

func (conf *Config) validateModel() error {
	if !conf.Model.UserSelectedProfile.IsValid() {
		return ErrInvalidUserProfile
	}
	for i, p := range conf.Model.Profiles {
		if p.BlockPackets < 0 || p.BlockECs < 0 {
			return errors.Wrapf(ErrInvalidProfile, "%s", model.ProfileID(i))
		}
	}
	switch conf.Model.Camera {
	case model.CameraFamilyNone, model.CameraFamilyCSI, model.CameraFamilyOpenIPC:
		return nil
	}
	return errors.Wrapf(ErrUnknownCameraFamily, "%q", conf.Model.Camera)
}

// SettlingDelay is the datarate settling delay with the platform factor applied.
func (conf *Config) SettlingDelay() time.Duration {
	return conf.Adaptive.SettlingDelay * conf.Platform.SettlingDelayFactor()
}

func (conf *Config) ValidateScenario() error {
	if conf.ScenarioFile == "" {
		return nil
	}
	if _, err := os.Stat(conf.ScenarioFile); err != nil {
		return errors.Wrap(ErrScenarioFileNotExists, conf.ScenarioFile)
	}
	return nil
}

type configNode struct {
	TypeNode  reflect.Value
	TagPrefix string
}

func (conf *Config) ToCLIFlagNames(existingFlags []cli.Flag) map[string]reflect.Value {
	existingFlagNames := map[string]bool{}
	for _, flag := range existingFlags {
		for _, flagName := range flag.Names() {
			existingFlagNames[flagName] = true
		}
	}

	flagNames := map[string]reflect.Value{}
	var currNode configNode
	nodes := []configNode{{reflect.ValueOf(conf).Elem(), ""}}
	for len(nodes) > 0 {
		currNode, nodes = nodes[0], nodes[1:]
		for i := 0; i < currNode.TypeNode.NumField(); i++ {
			// inspect yaml tag from struct field to get path
			field := currNode.TypeNode.Type().Field(i)
			yamlTagArray := strings.SplitN(field.Tag.Get("yaml"), ",", 2)
			yamlTag := yamlTagArray[0]
			isInline := false
			if len(yamlTagArray) > 1 && yamlTagArray[1] == "inline" {
				isInline = true
			}
			if (yamlTag == "" && (!isInline || currNode.TagPrefix == "")) || yamlTag == "-" {
				continue
			}
			yamlPath := yamlTag
			if currNode.TagPrefix != "" {
				if isInline {
					yamlPath = currNode.TagPrefix
				} else {
					yamlPath = fmt.Sprintf("%s.%s", currNode.TagPrefix, yamlTag)
				}
			}
			if existingFlagNames[yamlPath] {
				continue
			}

			// map flag name to value
			value := currNode.TypeNode.Field(i)
			if value.Kind() == reflect.Struct {
				nodes = append(nodes, configNode{value, yamlPath})
			} else {
				flagNames[yamlPath] = value
			}
		}
	}

	return flagNames
}

func GenerateCLIFlags(existingFlags []cli.Flag, hidden bool) ([]cli.Flag, error) {
	blankConfig := &Config{}
	flags := make([]cli.Flag, 0)
	for name, value := range blankConfig.ToCLIFlagNames(existingFlags) {
		kind := value.Kind()
		if kind == reflect.Ptr {
			kind = value.Type().Elem().Kind()
		}

		var flag cli.Flag
		envVar := fmt.Sprintf("VTX_%s", strings.ToUpper(strings.Replace(name, ".", "_", -1)))

		switch kind {
		case reflect.Bool:
			flag = &cli.BoolFlag{
				Name:   name,
				Usage:  generatedCLIFlagUsage,
				Hidden: hidden,
			}
		case reflect.String:
			flag = &cli.StringFlag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Int, reflect.Int32:
			flag = &cli.IntFlag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Int64:
			if value.Type() == reflect.TypeOf(time.Duration(0)) {
				flag = &cli.DurationFlag{
					Name:    name,
					EnvVars: []string{envVar},
					Usage:   generatedCLIFlagUsage,
					Hidden:  hidden,
				}
				break
			}
			flag = &cli.Int64Flag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Uint8, reflect.Uint16, reflect.Uint32:
			flag = &cli.UintFlag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Uint64:
			flag = &cli.Uint64Flag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Float32, reflect.Float64:
			flag = &cli.Float64Flag{
				Name:    name,
				EnvVars: []string{envVar},
				Usage:   generatedCLIFlagUsage,
				Hidden:  hidden,
			}
		case reflect.Slice, reflect.Map, reflect.Array, reflect.Struct:
			// TODO: profile table entries are only configurable through YAML
			continue
		default:
			return flags, fmt.Errorf("cli flag generation unsupported for config type: %s is a %s", name, kind.String())
		}

		flags = append(flags, flag)
	}

	return flags, nil
}

func (conf *Config) updateFromCLI(c *cli.Context, baseFlags []cli.Flag) error {
	generatedFlagNames := conf.ToCLIFlagNames(baseFlags)
	for _, flag := range c.App.Flags {
		flagName := flag.Names()[0]

		// the `c.App.Name != "test"` check is needed because `c.IsSet(...)` is always false in unit tests
		if !c.IsSet(flagName) && c.App.Name != "test" {
			continue
		}

		configValue, ok := generatedFlagNames[flagName]
		if !ok {
			continue
		}

		kind := configValue.Kind()
		if kind == reflect.Ptr {
			// instantiate value to be set
			configValue.Set(reflect.New(configValue.Type().Elem()))

			kind = configValue.Type().Elem().Kind()
			configValue = configValue.Elem()
		}

		switch kind {
		case reflect.Bool:
			configValue.SetBool(c.Bool(flagName))
		case reflect.String:
			configValue.SetString(c.String(flagName))
		case reflect.Int64:
			if configValue.Type() == reflect.TypeOf(time.Duration(0)) {
				configValue.SetInt(int64(c.Duration(flagName)))
				break
			}
			configValue.SetInt(c.Int64(flagName))
		case reflect.Int, reflect.Int32:
			configValue.SetInt(c.Int64(flagName))
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			configValue.SetUint(c.Uint64(flagName))
		case reflect.Float32, reflect.Float64:
			configValue.SetFloat(c.Float64(flagName))
		default:
			return fmt.Errorf("unsupported generated cli flag type for config: %s is a %s", flagName, kind.String())
		}
	}

	if c.IsSet("dev") {
		conf.Development = c.Bool("dev")
	}
	if c.IsSet("platform") {
		conf.Platform.Name = PlatformName(c.String("platform"))
	}
	if c.IsSet("camera") {
		conf.Model.Camera = model.CameraFamily(c.String("camera"))
	}
	if c.IsSet("profile") {
		id, err := model.ParseProfileID(c.String("profile"))
		if err != nil {
			return err
		}
		conf.Model.UserSelectedProfile = id
	}
	if c.IsSet("scenario") {
		conf.ScenarioFile = c.String("scenario")
	}
	return nil
}

// Note: only pass in logr.Logger with default depth
func SetLogger(l logger.Logger) {
	logger.SetLogger(l, "vtx")
}

func InitLoggerFromConfig(config *LoggingConfig) {
	logger.InitFromConfig(&config.Config, "vtx")
}
