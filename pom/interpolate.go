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
	"os"
	"regexp"
	"strings"
)

var propertyExpr = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate substitutes every ${property} expression found in the
// project's own coordinates and packaging and in its dependencyManagement
// and dependencies coordinates, iterating
// to a fixed point (bounded by maxInterpolationPasses) so that properties
// which reference other properties resolve correctly.
//
// lenient controls whether an unresolved expression is a warning (caller's
// responsibility to log) or returns ErrInterpolation.
func Interpolate(p Project, lenient bool) (Project, error) {
	props := synthesizeProperties(p)

	var unresolved string
	for pass := 0; pass < maxInterpolationPasses; pass++ {
		changed := false

		p.GroupID, changed = substitute(p.GroupID, props, changed)
		p.ArtifactID, changed = substitute(p.ArtifactID, props, changed)
		p.Version, changed = substitute(p.Version, props, changed)
		p.Packaging, changed = substitute(p.Packaging, props, changed)

		for k, v := range props {
			nv, c := substitute(v, props, false)
			if c {
				props[k] = nv
				changed = true
			}
		}

		for i := range p.DependencyManagement {
			changed = interpolateDependency(&p.DependencyManagement[i], props) || changed
		}
		for i := range p.Dependencies {
			changed = interpolateDependency(&p.Dependencies[i], props) || changed
		}

		if !changed {
			break
		}
	}

	for _, s := range []string{p.GroupID, p.ArtifactID, p.Version} {
		if m := propertyExpr.FindString(s); m != "" {
			unresolved = m
		}
	}
	for _, d := range append(append([]Dependency{}, p.DependencyManagement...), p.Dependencies...) {
		if m := propertyExpr.FindString(d.Version); m != "" {
			unresolved = m
		}
		if m := propertyExpr.FindString(d.GroupID); m != "" {
			unresolved = m
		}
	}
	if unresolved != "" && !lenient {
		return p, fmt.Errorf("%w: %s", ErrInterpolation, unresolved)
	}

	return p, nil
}

func interpolateDependency(d *Dependency, props map[string]string) bool {
	var changed bool
	d.GroupID, changed = substitute(d.GroupID, props, changed)
	d.ArtifactID, changed = substitute(d.ArtifactID, props, changed)
	d.Version, changed = substitute(d.Version, props, changed)
	d.Classifier, changed = substitute(d.Classifier, props, changed)
	d.Type, changed = substitute(d.Type, props, changed)
	d.Scope, changed = substitute(d.Scope, props, changed)
	return changed
}

func substitute(s string, props map[string]string, changed bool) (string, bool) {
	if !strings.Contains(s, "${") {
		return s, changed
	}
	out := propertyExpr.ReplaceAllStringFunc(s, func(m string) string {
		key := m[2 : len(m)-1]
		if v, ok := props[key]; ok {
			changed = true
			return v
		}
		if name, ok := strings.CutPrefix(key, "env."); ok {
			if v, ok := os.LookupEnv(name); ok {
				changed = true
				return v
			}
		}
		return m
	})
	return out, changed
}

// synthesizeProperties builds the effective property map, seeding the
// synthetic project.* self-reference properties Maven always provides.
func synthesizeProperties(p Project) map[string]string {
	props := map[string]string{}
	for k, v := range p.Properties.entries {
		props[k] = v
	}
	props["project.groupId"] = p.EffectiveGroupID()
	props["project.artifactId"] = p.ArtifactID
	props["project.version"] = p.EffectiveVersion()
	props["pom.groupId"] = props["project.groupId"]
	props["pom.artifactId"] = props["project.artifactId"]
	props["pom.version"] = props["project.version"]
	return props
}
