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

// Package coordinate parses and formats Maven coordinate strings and the
// "endpoint" syntax jgo uses to launch one or more coordinates together:
//
//	G:A[:V][:C][:P](modifiers)!@mainClass
//
// one or more of which may be joined with '+' into a single endpoint.
package coordinate

import (
	"errors"
	"fmt"
	"strings"
)

// Placement is an explicit class-path/module-path override carried by a
// coordinate's parenthetical modifiers.
type Placement int

// Placement values. PlacementAuto defers to JPMS classification.
const (
	PlacementAuto Placement = iota
	PlacementClassPath
	PlacementModulePath
)

// ErrParse is the sentinel wrapped by every malformed-input error this
// package returns.
var ErrParse = errors.New("coordinate: parse error")

// Coordinate identifies a single Maven artifact request.
type Coordinate struct {
	GroupID    string
	ArtifactID string
	// Version defaults to "RELEASE" when empty (resolved later by the
	// resolver against maven-metadata.xml).
	Version string
	// Classifier, e.g. "sources", "linux-x86_64". Empty means none.
	Classifier string
	// Packaging defaults to "jar" when empty.
	Packaging string

	// Placement is the forced class-path/module-path override, if any.
	Placement Placement
	// GlobalExclusion marks this coordinate as a pure exclusion: it is not
	// itself a dependency, but every other coordinate in the endpoint
	// excludes (GroupID, ArtifactID) from its transitive closure.
	GlobalExclusion bool
	// Exclusions lists additional (groupID, artifactID) pairs (wildcard "*"
	// permitted on either side) excluded from this coordinate's subtree.
	Exclusions []GA
	// NoManagedImport disables installing this coordinate's own
	// dependencyManagement as a BOM import on the synthetic root (the
	// trailing "!" modifier).
	NoManagedImport bool
}

// GA is a bare (groupID, artifactID) pair, used for exclusions.
type GA struct {
	GroupID    string
	ArtifactID string
}

// String renders "groupID:artifactID".
func (ga GA) String() string { return ga.GroupID + ":" + ga.ArtifactID }

// Matches reports whether ga matches other, honoring "*" wildcards on
// either field of ga.
func (ga GA) Matches(other GA) bool {
	return (ga.GroupID == "*" || ga.GroupID == other.GroupID) &&
		(ga.ArtifactID == "*" || ga.ArtifactID == other.ArtifactID)
}

// DefaultVersion is substituted when a coordinate omits a version.
const DefaultVersion = "RELEASE"

// DefaultPackaging is substituted when a coordinate omits a packaging.
const DefaultPackaging = "jar"

// GA returns the bare group/artifact pair of c.
func (c Coordinate) GA() GA { return GA{GroupID: c.GroupID, ArtifactID: c.ArtifactID} }

// EffectiveVersion returns c.Version, or DefaultVersion if unset.
func (c Coordinate) EffectiveVersion() string {
	if c.Version == "" {
		return DefaultVersion
	}
	return c.Version
}

// EffectivePackaging returns c.Packaging, or DefaultPackaging if unset.
func (c Coordinate) EffectivePackaging() string {
	if c.Packaging == "" {
		return DefaultPackaging
	}
	return c.Packaging
}

// String renders the coordinate back into its canonical "G:A:V:C:P(mods)!"
// form, suitable for round-tripping through Parse.
func (c Coordinate) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%s", c.GroupID, c.ArtifactID)
	if c.Version != "" || c.Classifier != "" || c.Packaging != "" {
		b.WriteByte(':')
		b.WriteString(c.Version)
	}
	if c.Classifier != "" || c.Packaging != "" {
		b.WriteByte(':')
		b.WriteString(c.Classifier)
	}
	if c.Packaging != "" {
		b.WriteByte(':')
		b.WriteString(c.Packaging)
	}
	if mods := c.modifierTokens(); len(mods) > 0 {
		b.WriteByte('(')
		b.WriteString(strings.Join(mods, ","))
		b.WriteByte(')')
	}
	if c.NoManagedImport {
		b.WriteByte('!')
	}
	return b.String()
}

func (c Coordinate) modifierTokens() []string {
	var mods []string
	switch c.Placement {
	case PlacementClassPath:
		mods = append(mods, "c")
	case PlacementModulePath:
		mods = append(mods, "m")
	}
	if c.GlobalExclusion {
		mods = append(mods, "x")
	}
	if len(c.Exclusions) > 0 {
		gas := make([]string, len(c.Exclusions))
		for i, e := range c.Exclusions {
			gas[i] = e.String()
		}
		mods = append(mods, "x:"+strings.Join(gas, ","))
	}
	return mods
}

// Endpoint is one or more coordinates that together form a single launch
// unit sharing one combined classpath, plus an optional main-class
// selector.
type Endpoint struct {
	Coordinates []Coordinate
	// MainClass is the "@mainClass" suffix, verbatim (may be a bare suffix
	// to be resolved later by scanning JAR contents).
	MainClass string
}

// String renders the endpoint back to "c1+c2+...@MainClass".
func (e Endpoint) String() string {
	parts := make([]string, len(e.Coordinates))
	for i, c := range e.Coordinates {
		parts[i] = c.String()
	}
	s := strings.Join(parts, "+")
	if e.MainClass != "" {
		s += "@" + e.MainClass
	}
	return s
}

// Parse parses a raw endpoint string, expanding a single-pass shortcut
// match from shortcuts (may be nil).
func Parse(input string, shortcuts map[string]string) (Endpoint, error) {
	input = expandShortcut(input, shortcuts)

	parts, err := splitTopLevel(input, '+')
	if err != nil {
		return Endpoint{}, err
	}
	if len(parts) == 0 || parts[0] == "" {
		return Endpoint{}, fmt.Errorf("%w: empty endpoint", ErrParse)
	}

	mainClass, err := extractMainClass(parts)
	if err != nil {
		return Endpoint{}, err
	}

	coords := make([]Coordinate, 0, len(parts))
	for _, p := range parts {
		c, err := parseCoordinate(p)
		if err != nil {
			return Endpoint{}, err
		}
		coords = append(coords, c)
	}

	if err := checkPlacementConflicts(coords); err != nil {
		return Endpoint{}, err
	}

	return Endpoint{Coordinates: coords, MainClass: mainClass}, nil
}

// checkPlacementConflicts rejects conflicting (c)/(m) placements across
// concatenated coordinates that refer to the same artifact, rather than
// silently picking one.
func checkPlacementConflicts(coords []Coordinate) error {
	seen := make(map[GA]Placement, len(coords))
	for _, c := range coords {
		ga := c.GA()
		if prior, ok := seen[ga]; ok {
			if prior != PlacementAuto && c.Placement != PlacementAuto && prior != c.Placement {
				return fmt.Errorf("%w: conflicting placement modifiers for %s", ErrParse, ga)
			}
			continue
		}
		seen[ga] = c.Placement
	}
	return nil
}

// expandShortcut performs a single, non-recursive shortcut substitution:
// the leading name (up to the first ':', '+', '@', or '(') is replaced
// when it matches a configured shortcut.
func expandShortcut(input string, shortcuts map[string]string) string {
	if len(shortcuts) == 0 {
		return input
	}
	stop := strings.IndexAny(input, ":+@(")
	name := input
	rest := ""
	if stop >= 0 {
		name = input[:stop]
		rest = input[stop:]
	}
	if expansion, ok := shortcuts[name]; ok {
		return expansion + rest
	}
	return input
}

// splitTopLevel splits s on sep, ignoring occurrences inside a top-level
// "(...)" group.
func splitTopLevel(s string, sep byte) ([]string, error) {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unmatched ')' in %q", ErrParse, s)
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unmatched '(' in %q", ErrParse, s)
	}
	parts = append(parts, s[start:])
	return parts, nil
}

// extractMainClass strips a trailing "@mainClass" suffix from the last
// part in place, returning the main class name. A '@' in any part other
// than the last, or more than one '@' in the last part, is an error.
func extractMainClass(parts []string) (string, error) {
	for _, p := range parts[:len(parts)-1] {
		if strings.Contains(p, "@") {
			return "", fmt.Errorf("%w: '@' only permitted in the final coordinate of an endpoint", ErrParse)
		}
	}
	last := parts[len(parts)-1]
	idx := strings.Index(last, "@")
	if idx < 0 {
		return "", nil
	}
	mainClass := last[idx+1:]
	if strings.Contains(mainClass, "@") {
		return "", fmt.Errorf("%w: multiple '@' suffixes in %q", ErrParse, last)
	}
	parts[len(parts)-1] = last[:idx]
	return mainClass, nil
}

// parseCoordinate parses a single "G:A[:V][:C][:P](mods)!" token (with any
// "@mainClass" suffix already stripped by the caller).
func parseCoordinate(tok string) (Coordinate, error) {
	noManaged := strings.HasSuffix(tok, "!")
	if noManaged {
		tok = tok[:len(tok)-1]
	}

	body, mods, err := extractModifiers(tok)
	if err != nil {
		return Coordinate{}, err
	}

	fields := strings.SplitN(body, ":", 5)
	if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
		return Coordinate{}, fmt.Errorf("%w: missing groupId:artifactId in %q", ErrParse, tok)
	}

	c := Coordinate{GroupID: fields[0], ArtifactID: fields[1], NoManagedImport: noManaged}
	if len(fields) > 2 {
		c.Version = fields[2]
	}
	if len(fields) > 3 {
		c.Classifier = fields[3]
	}
	if len(fields) > 4 {
		c.Packaging = fields[4]
	}

	if err := applyModifiers(&c, mods); err != nil {
		return Coordinate{}, err
	}

	return c, nil
}

// extractModifiers splits a trailing "(...)" group off tok, returning the
// remaining body and the raw comma-separated modifier tokens.
func extractModifiers(tok string) (body string, mods []string, err error) {
	if !strings.HasSuffix(tok, ")") {
		return tok, nil, nil
	}
	open := strings.LastIndex(tok, "(")
	if open < 0 {
		return "", nil, fmt.Errorf("%w: unmatched ')' in %q", ErrParse, tok)
	}
	body = tok[:open]
	inner := tok[open+1 : len(tok)-1]
	if inner == "" {
		return "", nil, fmt.Errorf("%w: empty modifier group in %q", ErrParse, tok)
	}
	mods = strings.Split(inner, ",")
	return body, mods, nil
}

// applyModifiers classifies each raw modifier token onto c. A bare "G:A"
// token directly after an "x:G:A" token continues that exclusion list.
func applyModifiers(c *Coordinate, mods []string) error {
	inExclusions := false
	for _, m := range mods {
		switch {
		case m == "c" || m == "cp":
			if c.Placement == PlacementModulePath {
				return fmt.Errorf("%w: conflicting placement modifiers in %q", ErrParse, m)
			}
			c.Placement = PlacementClassPath
		case m == "m" || m == "mp" || m == "p":
			if c.Placement == PlacementClassPath {
				return fmt.Errorf("%w: conflicting placement modifiers in %q", ErrParse, m)
			}
			c.Placement = PlacementModulePath
		case m == "x":
			c.GlobalExclusion = true
		case strings.HasPrefix(m, "x:") || (inExclusions && strings.Contains(m, ":")):
			ga := strings.TrimPrefix(m, "x:")
			g, a, ok := strings.Cut(ga, ":")
			if !ok || g == "" || a == "" {
				return fmt.Errorf("%w: malformed exclusion %q", ErrParse, ga)
			}
			c.Exclusions = append(c.Exclusions, GA{GroupID: g, ArtifactID: a})
			inExclusions = true
			continue
		default:
			return fmt.Errorf("%w: unknown modifier token %q", ErrParse, m)
		}
		inExclusions = false
	}
	return nil
}
