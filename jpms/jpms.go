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

// Package jpms classifies JAR artifacts as explicit modules, automatic
// modules, or non-modular, per the Java Platform Module System.
package jpms

import (
	"bytes"

	"github.com/mavenlaunch/jgo/jarfile"
)

// Kind is the classification of an artifact under JPMS.
type Kind int

// Classification outcomes.
const (
	NonModular Kind = iota
	Automatic
	Explicit
)

// String renders the classification for logs and lockfile output.
func (k Kind) String() string {
	switch k {
	case Automatic:
		return "automatic"
	case Explicit:
		return "explicit"
	default:
		return "non-modular"
	}
}

// Classification is the result of classifying one artifact.
type Classification struct {
	Kind       Kind
	ModuleName string // empty when Kind == NonModular
}

// IsModular reports whether the artifact is an explicit or automatic
// module.
func (c Classification) IsModular() bool { return c.Kind != NonModular }

// Classify inspects a JAR's contents to determine its JPMS status: a
// root module-info.class makes it an explicit module; otherwise an
// Automatic-Module-Name manifest attribute makes it an automatic module;
// otherwise it is non-modular.
func Classify(j *jarfile.JAR) (Classification, error) {
	if j.Has("module-info.class") {
		data, err := j.ReadEntry("module-info.class")
		if err != nil {
			return Classification{}, err
		}
		if hasModuleInfoMagic(data) {
			if name, err := ModuleName(data); err == nil {
				return Classification{Kind: Explicit, ModuleName: name}, nil
			}
		}
		// Fall through to automatic/non-modular if the descriptor itself is
		// unparseable rather than treating it as fatal; bytecode scanning
		// of the rest of the artifact is unaffected.
	}

	manifest, err := j.Manifest()
	if err != nil {
		return Classification{}, err
	}
	if amn := manifest.AutomaticModuleName(); amn != "" {
		return Classification{Kind: Automatic, ModuleName: amn}, nil
	}

	return Classification{Kind: NonModular}, nil
}

// hasModuleInfoMagic is a defensive check used before attempting to parse
// a module-info.class entry pulled from an untrusted archive.
func hasModuleInfoMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], []byte{0xCA, 0xFE, 0xBA, 0xBE})
}
