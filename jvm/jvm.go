// Copyright 2026 The jgo-go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package jvm locates a usable JVM on the host system, or provisions one
// through a pluggable collaborator, and reports its feature version.
package jvm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"

	"github.com/mavenlaunch/jgo/log"
)

// ErrVersionTooOld is returned when the only discoverable JVM does not
// meet the environment's minimum Java version requirement.
var ErrVersionTooOld = errors.New("jvm: installed version is older than required")

// ErrNotFound is returned when no JVM could be located on the host.
var ErrNotFound = errors.New("jvm: no installation found")

// Source selects how a JVM is obtained.
type Source int

// Supported sources.
const (
	// System probes JAVA_HOME and PATH for an existing installation.
	System Source = iota
	// Auto provisions a JDK through the Provisioner collaborator.
	Auto
)

// Installation describes a located or provisioned JVM.
type Installation struct {
	Home    string // JDK/JRE home directory
	Java    string // path to the java executable
	Version int    // feature version, e.g. 17
}

// Provisioner is the JDK-fetching collaborator contract: idempotent,
// safe under concurrent invocation, may download on first call and
// serve from a local cache thereafter.
type Provisioner interface {
	Get(ctx context.Context, version int, vendor string) (string, error)
}

// Options configures Locate.
type Options struct {
	MinVersion       int
	PreferredVersion int // 0 means "use MinVersion"
	PreferredVendor  string
	Source           Source
	Provisioner      Provisioner // used when Source == Auto; if nil, Auto falls back to System
}

// Locate finds or provisions a JVM meeting opts' requirements.
func Locate(ctx context.Context, opts Options) (Installation, error) {
	switch opts.Source {
	case System:
		return locateSystem(ctx, opts.MinVersion)
	case Auto:
		return locateAuto(ctx, opts)
	default:
		return Installation{}, fmt.Errorf("jvm: unknown source %d", opts.Source)
	}
}

func locateSystem(ctx context.Context, minVersion int) (Installation, error) {
	javaPath, home, err := findSystemJava()
	if err != nil {
		return Installation{}, err
	}

	version, err := probeVersion(ctx, javaPath)
	if err != nil {
		return Installation{}, fmt.Errorf("jvm: probing %s: %w", javaPath, err)
	}

	if version < minVersion {
		return Installation{}, fmt.Errorf("%w: found %d, need >= %d", ErrVersionTooOld, version, minVersion)
	}

	return Installation{Home: home, Java: javaPath, Version: version}, nil
}

func locateAuto(ctx context.Context, opts Options) (Installation, error) {
	if opts.Provisioner == nil {
		log.Warnf("jvm: no provisioner available, falling back to the system JVM")
		return locateSystem(ctx, opts.MinVersion)
	}

	version := opts.PreferredVersion
	if version == 0 {
		version = opts.MinVersion
	}

	home, err := opts.Provisioner.Get(ctx, version, opts.PreferredVendor)
	if err != nil {
		return Installation{}, fmt.Errorf("jvm: provisioning Java %d: %w", version, err)
	}

	javaPath := javaExecutable(home)
	actual, err := probeVersion(ctx, javaPath)
	if err != nil {
		return Installation{}, fmt.Errorf("jvm: probing provisioned JVM at %s: %w", javaPath, err)
	}
	if actual < opts.MinVersion {
		return Installation{}, fmt.Errorf("%w: provisioned %d, need >= %d", ErrVersionTooOld, actual, opts.MinVersion)
	}

	return Installation{Home: home, Java: javaPath, Version: actual}, nil
}

// findSystemJava probes JAVA_HOME, then PATH, for a usable java binary.
func findSystemJava() (javaPath, home string, err error) {
	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		candidate := javaExecutable(javaHome)
		if fileExists(candidate) {
			return candidate, javaHome, nil
		}
		log.Warnf("JAVA_HOME=%s does not contain a java executable", javaHome)
	}

	if path, err := exec.LookPath("java"); err == nil {
		home := homeFromExecutable(path)
		return path, home, nil
	}

	return "", "", ErrNotFound
}

func javaExecutable(home string) string {
	name := "java"
	if runtime.GOOS == "windows" {
		name = "java.exe"
	}
	return filepath.Join(home, "bin", name)
}

// homeFromExecutable derives a JDK home directory from the resolved path
// of a java binary on PATH: <home>/bin/java.
func homeFromExecutable(javaPath string) string {
	resolved, err := filepath.EvalSymlinks(javaPath)
	if err != nil {
		resolved = javaPath
	}
	return filepath.Dir(filepath.Dir(resolved))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// versionOldStyle matches "1.8.0_392" style version strings; the feature
// version is the second component.
var versionOldStyle = regexp.MustCompile(`version "1\.(\d+)`)

// versionNewStyle matches "11.0.20", "17", "21.0.1" style version
// strings introduced by JEP 223.
var versionNewStyle = regexp.MustCompile(`version "(\d+)`)

// probeVersion runs `java -version` (which, unhelpfully, writes to
// stderr) and parses the reported feature version.
func probeVersion(ctx context.Context, javaPath string) (int, error) {
	cmd := exec.CommandContext(ctx, javaPath, "-version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return 0, fmt.Errorf("running %s -version: %w", javaPath, err)
		}
	}
	return ParseVersionOutput(string(output))
}

// ParseVersionOutput extracts the feature version from `java -version`
// output, handling both the pre-JEP-223 "1.8.x" scheme and the modern
// "11.x.x" scheme.
func ParseVersionOutput(output string) (int, error) {
	if m := versionOldStyle.FindStringSubmatch(output); m != nil {
		return strconv.Atoi(m[1])
	}
	if m := versionNewStyle.FindStringSubmatch(output); m != nil {
		return strconv.Atoi(m[1])
	}
	return 0, fmt.Errorf("jvm: could not parse version from output: %q", output)
}
