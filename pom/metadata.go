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

package pom

import (
	"fmt"
	"io"
)

// Metadata is the parsed form of a maven-metadata.xml document, at either
// the artifact level (release/latest/versions) or the version level
// (snapshotVersions).
type Metadata struct {
	GroupID    string     `xml:"groupId"`
	ArtifactID string     `xml:"artifactId"`
	Version    string     `xml:"version"`
	Versioning Versioning `xml:"versioning"`
}

// Versioning is the <versioning> element of maven-metadata.xml.
type Versioning struct {
	Latest           string            `xml:"latest"`
	Release          string            `xml:"release"`
	Versions         []string          `xml:"versions>version"`
	SnapshotVersions []SnapshotVersion `xml:"snapshotVersions>snapshotVersion"`
	LastUpdated      string            `xml:"lastUpdated"`
}

// SnapshotVersion is a single <snapshotVersion> entry, mapping a
// (classifier, extension) pair to the timestamped filename fragment used
// to construct the download URL.
type SnapshotVersion struct {
	Classifier string `xml:"classifier"`
	Extension  string `xml:"extension"`
	Value      string `xml:"value"`
	Updated    string `xml:"updated"`
}

// ValueFor returns the timestamped value for the given (classifier,
// extension) pair, falling back to any entry with a matching extension
// when no classifier-specific entry exists (the common case: most
// snapshotVersion lists only vary by extension).
func (v Versioning) ValueFor(classifier, extension string) (string, bool) {
	for _, sv := range v.SnapshotVersions {
		if sv.Classifier == classifier && sv.Extension == extension {
			return sv.Value, true
		}
	}
	if classifier == "" {
		for _, sv := range v.SnapshotVersions {
			if sv.Extension == extension {
				return sv.Value, true
			}
		}
	}
	return "", false
}

// ParseMetadata decodes a maven-metadata.xml document from r.
func ParseMetadata(r io.Reader) (Metadata, error) {
	var m Metadata
	if err := NewDecoder(r).Decode(&m); err != nil {
		return Metadata{}, fmt.Errorf("pom: metadata parse failed: %w", err)
	}
	return m, nil
}
