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

package mavenversion

import (
	"fmt"
	"strings"
)

// ErrInvalidRange is returned for malformed Maven version range syntax.
var ErrInvalidRange = fmt.Errorf("%w: malformed range", ErrInvalidVersion)

// Range is a Maven version range, e.g. "[1.0,2.0)" or "(,1.5]".
type Range struct {
	lowerInclusive bool
	lower          *Version
	upper          *Version
	upperInclusive bool
}

// IsRange reports whether s uses Maven's bracketed range syntax.
func IsRange(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "[") || strings.HasPrefix(s, "(")
}

// ParseRange parses a single Maven version range, such as "[1.0,2.0)",
// "(,1.0]", "[1.5,)" or the single-bound shorthand "[1.5]".
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}

	var r Range
	switch s[0] {
	case '[':
		r.lowerInclusive = true
	case '(':
		r.lowerInclusive = false
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}

	switch s[len(s)-1] {
	case ']':
		r.upperInclusive = true
	case ')':
		r.upperInclusive = false
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}

	body := s[1 : len(s)-1]
	if !strings.Contains(body, ",") {
		// Single-version shorthand: "[1.5]" means exactly 1.5.
		v := Parse(body)
		r.lower, r.upper = &v, &v
		r.lowerInclusive, r.upperInclusive = true, true
		return r, nil
	}

	parts := strings.SplitN(body, ",", 2)
	if strings.TrimSpace(parts[0]) != "" {
		v := Parse(strings.TrimSpace(parts[0]))
		r.lower = &v
	}
	if strings.TrimSpace(parts[1]) != "" {
		v := Parse(strings.TrimSpace(parts[1]))
		r.upper = &v
	}

	return r, nil
}

// Contains reports whether version v satisfies the range.
func (r Range) Contains(v Version) bool {
	if r.lower != nil {
		c, err := v.Compare(*r.lower)
		if err != nil {
			return false
		}
		if r.lowerInclusive && c < 0 {
			return false
		}
		if !r.lowerInclusive && c <= 0 {
			return false
		}
	}
	if r.upper != nil {
		c, err := v.Compare(*r.upper)
		if err != nil {
			return false
		}
		if r.upperInclusive && c > 0 {
			return false
		}
		if !r.upperInclusive && c >= 0 {
			return false
		}
	}
	return true
}

// HighestMatching returns the highest version among candidates that
// satisfies the range, or false if none do.
func (r Range) HighestMatching(candidates []string) (string, bool) {
	var best string
	var bestV Version
	found := false

	for _, c := range candidates {
		v := Parse(c)
		if !r.Contains(v) {
			continue
		}
		if !found {
			best, bestV, found = c, v, true
			continue
		}
		if cmp, err := v.Compare(bestV); err == nil && cmp > 0 {
			best, bestV = c, v
		}
	}

	return best, found
}
