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

// Package pom parses, merges, and interpolates Maven POM XML documents
// well enough to drive dependency resolution: parent inheritance, BOM
// import, and property interpolation.
package pom

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrNotFound is returned when a POM cannot be located in any configured
// repository.
var ErrNotFound = errors.New("pom: not found")

// ErrCycle is returned when a parent or BOM-import chain revisits a
// coordinate already on the current load stack.
var ErrCycle = errors.New("pom: cycle detected")

// ErrInterpolation is returned when a property expression could not be
// resolved after the fixed-point interpolation pass.
var ErrInterpolation = errors.New("pom: unresolved property")

// maxInterpolationPasses bounds the fixed-point property substitution loop.
const maxInterpolationPasses = 16

// GACT identifies a dependency management entry or dependency by
// groupId/artifactId/classifier/type (packaging).
type GACT struct {
	GroupID    string
	ArtifactID string
	Classifier string
	Type       string
}

func (k GACT) normalized() GACT {
	k.Type = strings.ToLower(k.Type)
	if k.Type == "" {
		k.Type = "jar"
	}
	return k
}

// Exclusion is a (groupId, artifactId) pair; "*" matches anything.
type Exclusion struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

// Matches reports whether the exclusion covers the given GA, honoring "*"
// wildcards on either field.
func (e Exclusion) Matches(groupID, artifactID string) bool {
	return (e.GroupID == "*" || e.GroupID == groupID) &&
		(e.ArtifactID == "*" || e.ArtifactID == artifactID)
}

// Dependency is a single <dependency> entry, before or after management
// has been applied.
type Dependency struct {
	GroupID    string      `xml:"groupId"`
	ArtifactID string      `xml:"artifactId"`
	Version    string      `xml:"version"`
	Classifier string      `xml:"classifier"`
	Type       string      `xml:"type"`
	Scope      string      `xml:"scope"`
	Optional   string      `xml:"optional"`
	Exclusions []Exclusion `xml:"exclusions>exclusion"`
}

// IsOptional parses the optional flag, defaulting to false.
func (d Dependency) IsOptional() bool {
	return strings.EqualFold(strings.TrimSpace(d.Optional), "true")
}

// EffectiveType returns the dependency's packaging, defaulting to "jar".
func (d Dependency) EffectiveType() string {
	if d.Type == "" {
		return "jar"
	}
	return d.Type
}

// EffectiveScope returns the dependency's scope, defaulting to "compile".
func (d Dependency) EffectiveScope() string {
	if d.Scope == "" {
		return "compile"
	}
	return d.Scope
}

func (d Dependency) key() GACT {
	return GACT{d.GroupID, d.ArtifactID, d.Classifier, d.EffectiveType()}.normalized()
}

// Parent is a <parent> reference.
type Parent struct {
	GroupID      string `xml:"groupId"`
	ArtifactID   string `xml:"artifactId"`
	Version      string `xml:"version"`
	RelativePath string `xml:"relativePath"`
}

// IsZero reports whether the parent reference is empty.
func (p Parent) IsZero() bool {
	return p.GroupID == "" && p.ArtifactID == "" && p.Version == ""
}

// properties holds the <properties> children, captured generically since
// each key is the XML element name itself.
type properties struct {
	entries map[string]string
}

// UnmarshalXML captures arbitrary <properties> children as a string map.
func (p *properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	p.entries = map[string]string{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			p.entries[t.Name.Local] = value
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// Project is the parsed POM document.
type Project struct {
	XMLName              xml.Name     `xml:"project"`
	GroupID              string       `xml:"groupId"`
	ArtifactID           string       `xml:"artifactId"`
	Version              string       `xml:"version"`
	Packaging            string       `xml:"packaging"`
	Parent               Parent       `xml:"parent"`
	Properties           properties   `xml:"properties"`
	DependencyManagement []Dependency `xml:"dependencyManagement>dependencies>dependency"`
	Dependencies         []Dependency `xml:"dependencies>dependency"`
	Modules              []string     `xml:"modules>module"`
}

// EffectivePackaging returns the packaging, defaulting to "jar".
func (p Project) EffectivePackaging() string {
	if p.Packaging == "" {
		return "jar"
	}
	return p.Packaging
}

// EffectiveGroupID returns the groupId, inheriting from the parent when
// the child left it blank.
func (p Project) EffectiveGroupID() string {
	if p.GroupID != "" {
		return p.GroupID
	}
	return p.Parent.GroupID
}

// EffectiveVersion returns the version, inheriting from the parent when
// the child left it blank.
func (p Project) EffectiveVersion() string {
	if p.Version != "" {
		return p.Version
	}
	return p.Parent.Version
}

// Key identifies the project by its effective (inherited) coordinates.
func (p Project) Key() (groupID, artifactID, version string) {
	return p.EffectiveGroupID(), p.ArtifactID, p.EffectiveVersion()
}

// NewDecoder returns an xml.Decoder configured the way Maven POMs need:
// tolerant of non-UTF-8 encodings and of the small set of non-standard
// HTML entities that appear in the wild.
func NewDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel
	d.Entity = xml.HTMLEntity
	return d
}

// Parse decodes a POM document from r.
func Parse(r io.Reader) (Project, error) {
	var p Project
	if err := NewDecoder(r).Decode(&p); err != nil {
		return Project{}, fmt.Errorf("pom: parse failed: %w", err)
	}
	return p, nil
}

// depManagementIndex builds a lookup from a dependencyManagement list.
func depManagementIndex(deps []Dependency) map[GACT]Dependency {
	idx := make(map[GACT]Dependency, len(deps))
	for _, d := range deps {
		idx[d.key()] = d
	}
	return idx
}

// MergeParent folds parent into child, following the rules:
// child properties/dependencyManagement/dependencies override the
// parent's same-keyed entries, and coordinates missing from the child
// inherit the parent's groupId/version. The merged project is returned;
// child itself is left unchanged.
func MergeParent(child, parent Project) Project {
	merged := child

	if merged.GroupID == "" {
		merged.GroupID = parent.EffectiveGroupID()
	}
	if merged.Version == "" {
		merged.Version = parent.EffectiveVersion()
	}

	mergedProps := map[string]string{}
	for k, v := range parent.Properties.entries {
		mergedProps[k] = v
	}
	for k, v := range merged.Properties.entries {
		mergedProps[k] = v
	}
	merged.Properties.entries = mergedProps

	dmIdx := depManagementIndex(parent.DependencyManagement)
	for k, v := range depManagementIndex(merged.DependencyManagement) {
		dmIdx[k] = v
	}
	merged.DependencyManagement = flattenDepIndex(dmIdx, parent.DependencyManagement, merged.DependencyManagement)

	depIdx := map[GACT]Dependency{}
	var order []GACT
	for _, d := range parent.Dependencies {
		k := d.key()
		if _, ok := depIdx[k]; !ok {
			order = append(order, k)
		}
		depIdx[k] = d
	}
	for _, d := range merged.Dependencies {
		k := d.key()
		if _, ok := depIdx[k]; !ok {
			order = append(order, k)
		}
		depIdx[k] = d
	}
	merged.Dependencies = make([]Dependency, 0, len(order))
	for _, k := range order {
		merged.Dependencies = append(merged.Dependencies, depIdx[k])
	}

	return merged
}

// flattenDepIndex preserves first-seen declaration order (parent first,
// then child) while applying the override map.
func flattenDepIndex(idx map[GACT]Dependency, parent, child []Dependency) []Dependency {
	var order []GACT
	seen := map[GACT]bool{}
	for _, d := range parent {
		k := d.key()
		if !seen[k] {
			order = append(order, k)
			seen[k] = true
		}
	}
	for _, d := range child {
		k := d.key()
		if !seen[k] {
			order = append(order, k)
			seen[k] = true
		}
	}
	out := make([]Dependency, 0, len(order))
	for _, k := range order {
		out = append(out, idx[k])
	}
	return out
}

// ImportBOM merges a BOM's dependencyManagement into the project's, the
// child's own entries taking precedence over the imported ones, exactly
// like a parent merge but restricted to dependencyManagement.
func ImportBOM(project Project, bom Project) Project {
	merged := project
	dmIdx := depManagementIndex(bom.DependencyManagement)
	for k, v := range depManagementIndex(merged.DependencyManagement) {
		dmIdx[k] = v
	}
	merged.DependencyManagement = flattenDepIndex(dmIdx, bom.DependencyManagement, merged.DependencyManagement)
	return merged
}
