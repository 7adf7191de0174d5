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

// Package project parses and writes the two TOML documents that describe
// a jgo project: the spec (jgo.toml) a user authors, and the lockfile
// (jgo.lock.toml) jgo produces from a resolved environment.
package project

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mavenlaunch/jgo/workspace"
)

// ErrNotFound is returned when a requested project or lockfile is absent.
var ErrNotFound = errors.New("project: not found")

// Environment configures the named environment a project spec describes.
type Environment struct {
	Name        string `toml:"name"`
	Description string `toml:"description,omitempty"`
}

// Java records the project's Java version/vendor preferences.
type Java struct {
	Version int    `toml:"version,omitempty"`
	Vendor  string `toml:"vendor,omitempty"`
}

// Dependencies holds the coordinate list and the per-dependency exclusion
// table, keyed by "groupId:artifactId".
type Dependencies struct {
	Coordinates []string            `toml:"coordinates"`
	Exclusions  map[string][]string `toml:"exclusions,omitempty"`
}

// Settings carries the project-level overrides for linking/caching.
type Settings struct {
	LinkStrategy string `toml:"link_strategy,omitempty"`
	CacheDir     string `toml:"cache_dir,omitempty"`
}

// Spec is the parsed form of jgo.toml.
type Spec struct {
	Environment  Environment       `toml:"environment"`
	Java         Java              `toml:"java"`
	Repositories map[string]string `toml:"repositories,omitempty"`
	Dependencies Dependencies      `toml:"dependencies"`
	Entrypoints  map[string]string `toml:"entrypoints,omitempty"`
	Settings     Settings          `toml:"settings,omitempty"`
}

// IsCoordinate reports whether an entrypoint value is a coordinate
// reference (contains a ':') rather than a bare class name.
func IsCoordinate(entrypointValue string) bool {
	return strings.Contains(entrypointValue, ":")
}

// DefaultEntrypoint returns the "default" entrypoint value, if declared.
func (s Spec) DefaultEntrypoint() (string, bool) {
	v, ok := s.Entrypoints["default"]
	return v, ok
}

// ParseSpec decodes jgo.toml contents.
func ParseSpec(data []byte) (Spec, error) {
	var s Spec
	if _, err := toml.Decode(string(data), &s); err != nil {
		return Spec{}, fmt.Errorf("project: parsing spec: %w", err)
	}
	return s, nil
}

// LoadSpec reads and parses jgo.toml from path.
func LoadSpec(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Spec{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Spec{}, fmt.Errorf("project: reading spec: %w", err)
	}
	return ParseSpec(data)
}

// Hash returns the content hash used to detect a stale lockfile, as
// computed by workspace.SpecHash.
func Hash(data []byte) string {
	return workspace.SpecHash(data)
}
