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

package project

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// ToolVersion identifies the jgo release that wrote a lockfile.
const ToolVersion = "0.1.0"

// LockMetadata records provenance and staleness-detection data.
type LockMetadata struct {
	Generated string `toml:"generated"` // RFC 3339, stamped by the caller
	ToolVer   string `toml:"tool_version"`
	SpecHash  string `toml:"spec_hash,omitempty"`
}

// LockEnvironment mirrors the resolved environment's identity and its
// computed minimum Java requirement.
type LockEnvironment struct {
	Name           string `toml:"name"`
	MinJavaVersion int    `toml:"min_java_version"`
}

// LockJava records the JVM preference baked into the lockfile.
type LockJava struct {
	Version int    `toml:"version,omitempty"`
	Vendor  string `toml:"vendor,omitempty"`
}

// LockedDependency is one resolved artifact, materialized into the
// environment workspace.
type LockedDependency struct {
	GroupID    string `toml:"groupId"`
	ArtifactID string `toml:"artifactId"`
	Version    string `toml:"version"`
	Packaging  string `toml:"packaging"`
	Classifier string `toml:"classifier,omitempty"`
	SHA256     string `toml:"sha256"`
	IsModular  bool   `toml:"is_modular"`
	ModuleName string `toml:"module_name,omitempty"`
	Placement  string `toml:"placement"` // "jars" or "modules"
}

// Lockfile is the parsed/written form of jgo.lock.toml.
type Lockfile struct {
	Metadata     LockMetadata       `toml:"metadata"`
	Environment  LockEnvironment    `toml:"environment"`
	Java         LockJava           `toml:"java"`
	Entrypoints  map[string]string  `toml:"entrypoints,omitempty"`
	Dependencies []LockedDependency `toml:"dependencies"`
}

// Sort orders Dependencies deterministically by (groupId, artifactId,
// classifier, packaging), so repeated resolutions of identical inputs
// produce a byte-identical lockfile.
func (l *Lockfile) Sort() {
	sort.Slice(l.Dependencies, func(i, j int) bool {
		a, b := l.Dependencies[i], l.Dependencies[j]
		if a.GroupID != b.GroupID {
			return a.GroupID < b.GroupID
		}
		if a.ArtifactID != b.ArtifactID {
			return a.ArtifactID < b.ArtifactID
		}
		if a.Classifier != b.Classifier {
			return a.Classifier < b.Classifier
		}
		return a.Packaging < b.Packaging
	})
}

// Encode serializes the lockfile to TOML, after sorting dependencies.
func (l Lockfile) Encode() ([]byte, error) {
	l.Sort()
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(l); err != nil {
		return nil, fmt.Errorf("project: encoding lockfile: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseLockfile decodes jgo.lock.toml contents.
func ParseLockfile(data []byte) (Lockfile, error) {
	var l Lockfile
	if _, err := toml.Decode(string(data), &l); err != nil {
		return Lockfile{}, fmt.Errorf("project: parsing lockfile: %w", err)
	}
	return l, nil
}

// LoadLockfile reads and parses jgo.lock.toml from path.
func LoadLockfile(path string) (Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Lockfile{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Lockfile{}, fmt.Errorf("project: reading lockfile: %w", err)
	}
	return ParseLockfile(data)
}

// WriteLockfile atomically writes a lockfile to path: encode to a temp
// file in the same directory, then rename over the destination. A reader
// therefore only ever observes an absent file or a complete one.
func WriteLockfile(path string, l Lockfile) error {
	data, err := l.Encode()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jgo.lock.*.tmp")
	if err != nil {
		return fmt.Errorf("project: creating temp lockfile: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("project: writing temp lockfile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("project: closing temp lockfile: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("project: renaming lockfile into place: %w", err)
	}
	return nil
}

// Stale reports whether the lockfile was generated against a different
// spec than specHash. An empty recorded hash (older lockfile formats, or
// ad-hoc environments with no project spec) is never considered stale.
func (l Lockfile) Stale(specHash string) bool {
	return l.Metadata.SpecHash != "" && l.Metadata.SpecHash != specHash
}
