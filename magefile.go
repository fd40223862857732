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

//go:build mage
// +build mage

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"

	"github.com/livekit/mageutil"
)

const (
	goChecksumFile = ".checksumgo"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var (
	Default     = Build
	checksummer = mageutil.NewChecksummer(".", goChecksumFile, ".go", ".mod")
)

// air unit targets: raspberry pi boards and openipc cameras
var crossTargets = []struct {
	name string
	env  []string
}{
	{name: "vtx-linux-arm64", env: []string{"GOOS=linux", "GOARCH=arm64"}},
	{name: "vtx-linux-armv7", env: []string{"GOOS=linux", "GOARCH=arm", "GOARM=7"}},
}

// builds vtx for the host
func Build() error {
	if !checksummer.IsChanged() {
		fmt.Println("up to date")
		return nil
	}

	fmt.Println("building...")
	if err := os.MkdirAll("bin", 0755); err != nil {
		return err
	}
	if err := mageutil.RunDir(context.Background(), "cmd/vtx", "go build -o ../../bin/vtx"); err != nil {
		return err
	}

	checksummer.WriteChecksum()
	return nil
}

// builds static binaries for the air unit platforms
func BuildAirUnit() error {
	fmt.Println("building air unit binaries...")
	if err := os.MkdirAll("bin", 0755); err != nil {
		return err
	}

	for _, target := range crossTargets {
		cmd := mageutil.CommandDir(context.Background(), "cmd/vtx", "go build -buildvcs=false -trimpath -o ../../bin/"+target.name)
		cmd.Env = append([]string{
			"CGO_ENABLED=0",
			"HOME=" + os.Getenv("HOME"),
			"GOPATH=" + os.Getenv("GOPATH"),
			"GOCACHE=" + os.Getenv("GOCACHE"),
			"PATH=" + os.Getenv("PATH"),
		}, target.env...)
		if err := cmd.Run(); err != nil {
			return err
		}
	}
	return nil
}

// run unit tests
func Test() error {
	return mageutil.Run(context.Background(), "go test -short ./... -count=1")
}

// run all tests with the race detector
func TestAll() error {
	return mageutil.Run(context.Background(), "go test -race ./... -count=1 -timeout=4m -v")
}

// replays every example scenario
func Simulate() error {
	mg.Deps(Build)

	scenarios, err := filepath.Glob("examples/scenarios/*.yaml")
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		return nil
	}
	return mageutil.Run(context.Background(), "bin/vtx --config examples/vtx.yaml simulate "+strings.Join(scenarios, " "))
}

// cleans up builds
func Clean() {
	fmt.Println("cleaning...")
	os.RemoveAll("bin")
	os.Remove(goChecksumFile)
}
