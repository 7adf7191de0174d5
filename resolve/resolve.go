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

// Package resolve implements the transitive dependency resolver: breadth
// first traversal from a synthetic root over the endpoint's coordinates,
// nearest-wins version selection, Maven's scope-propagation matrix,
// exclusion filtering, and RELEASE/LATEST/range resolution against
// repository metadata.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mavenlaunch/jgo/coordinate"
	"github.com/mavenlaunch/jgo/log"
	"github.com/mavenlaunch/jgo/mavenversion"
	"github.com/mavenlaunch/jgo/pom"
	"github.com/mavenlaunch/jgo/repository"
)

// ErrVersionUnresolved is returned when a RELEASE/LATEST/range expression
// could not be resolved against repository metadata.
var ErrVersionUnresolved = errors.New("resolve: version could not be resolved")

// ErrCycle is returned when a parent-POM chain revisits a coordinate
// already on the current load stack.
var ErrCycle = errors.New("resolve: cycle detected")

// GA identifies a dependency ignoring version.
type GA struct {
	GroupID    string
	ArtifactID string
}

func (g GA) String() string { return g.GroupID + ":" + g.ArtifactID }

// Artifact is a fully resolved dependency: concrete coordinates, the
// scope it was pulled in under, and the depth from the root at which it
// was first selected.
type Artifact struct {
	GroupID    string
	ArtifactID string
	Version    string
	Classifier string
	Packaging  string
	Scope      string
	Optional   bool
	Depth      int
}

// GA returns the artifact's group/artifact identity.
func (a Artifact) GA() GA { return GA{a.GroupID, a.ArtifactID} }

// Options configures a resolution run.
type Options struct {
	Client *repository.Client

	// Managed controls whether endpoint coordinates are installed as
	// scope=import dependencyManagement on the synthetic root (the
	// default, matching "managed mode" in the reference tool).
	Managed bool

	// OptionalDepth is the maximum depth of a declaring artifact whose
	// optional dependencies are still followed. Default 0 means optional
	// dependencies are skipped entirely.
	OptionalDepth int

	// Lenient downgrades a missing POM to a dropped, logged dependency
	// instead of a fatal error.
	Lenient bool
}

// Result is the output of a resolution run: the linearized, deduplicated
// artifact list in deterministic (sorted) order, ready for the
// materializer.
type Result struct {
	Artifacts []Artifact
}

type queueItem struct {
	ga         GA
	version    string
	classifier string
	packaging  string
	scope      string
	optional   bool
	depth      int
	exclusions []coordinate.GA
	pinned     bool // explicitly requested version; immune to dependencyManagement override
}

func excluded(exclusions []coordinate.GA, ga GA) bool {
	for _, e := range exclusions {
		if e.Matches(coordinate.GA{GroupID: ga.GroupID, ArtifactID: ga.ArtifactID}) {
			return true
		}
	}
	return false
}

// propagateScope implements the simplified Maven scope-transition matrix
// called for in the specification: compile->compile, compile->runtime,
// runtime->runtime; everything else is dropped (not transitive).
func propagateScope(parent, child string) (string, bool) {
	switch parent {
	case "compile":
		switch child {
		case "compile":
			return "compile", true
		case "runtime":
			return "runtime", true
		default:
			return "", false
		}
	case "runtime":
		switch child {
		case "compile", "runtime":
			return "runtime", true
		default:
			return "", false
		}
	default:
		return "", false
	}
}

// Resolve computes the transitive dependency closure of an endpoint.
func Resolve(ctx context.Context, endpoint coordinate.Endpoint, opts Options) (Result, error) {
	managedVersions := map[pom.GACT]string{}
	resolved := map[GA]Artifact{}
	var order []GA

	var queue []queueItem
	for _, c := range endpoint.Coordinates {
		version := c.EffectiveVersion()
		var excl []coordinate.GA
		if c.GlobalExclusion {
			continue // (x)-marked coordinates only declare exclusions, they are not themselves deps
		}
		excl = append(excl, c.Exclusions...)

		queue = append(queue, queueItem{
			ga:         GA{c.GroupID, c.ArtifactID},
			version:    version,
			classifier: c.Classifier,
			packaging:  c.EffectivePackaging(),
			scope:      "compile",
			depth:      1,
			exclusions: excl,
			pinned:     c.Version != "",
		})

		if opts.Managed && !c.NoManagedImport {
			if dm, err := rootManagement(ctx, opts.Client, c.GroupID, c.ArtifactID, version); err == nil {
				for k, v := range dm {
					if _, ok := managedVersions[k]; !ok {
						managedVersions[k] = v
					}
				}
			} else {
				log.Warnf("resolve: failed to import managed dependencies for %s:%s:%s: %v", c.GroupID, c.ArtifactID, version, err)
			}
		}
	}

	// Global exclusions declared via an (x)-only coordinate apply to the
	// whole resolution.
	var globalExclusions []coordinate.GA
	for _, c := range endpoint.Coordinates {
		if c.GlobalExclusion {
			globalExclusions = append(globalExclusions, coordinate.GA{GroupID: c.GroupID, ArtifactID: c.ArtifactID})
		}
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if _, ok := resolved[item.ga]; ok {
			continue // nearest-wins: a GA's first (shallowest) selection is authoritative
		}
		if excluded(globalExclusions, item.ga) {
			continue
		}

		version := item.version
		if managed, ok := managedVersions[pom.GACT{GroupID: item.ga.GroupID, ArtifactID: item.ga.ArtifactID, Classifier: item.classifier, Type: item.packaging}]; ok && !item.pinned {
			version = managed
		}

		resolvedVersion, err := resolveVersion(ctx, opts.Client, item.ga.GroupID, item.ga.ArtifactID, version)
		if err != nil {
			if opts.Lenient {
				log.Warnf("resolve: dropping %s:%s: %v", item.ga.GroupID, item.ga.ArtifactID, err)
				continue
			}
			return Result{}, err
		}

		project, err := loadResolved(ctx, opts.Client, item.ga.GroupID, item.ga.ArtifactID, resolvedVersion, opts.Lenient)
		if err != nil {
			if opts.Lenient {
				log.Warnf("resolve: dropping %s:%s:%s: %v", item.ga.GroupID, item.ga.ArtifactID, resolvedVersion, err)
				continue
			}
			return Result{}, err
		}

		artifact := Artifact{
			GroupID:    item.ga.GroupID,
			ArtifactID: item.ga.ArtifactID,
			Version:    resolvedVersion,
			Classifier: item.classifier,
			Packaging:  item.packaging,
			Scope:      item.scope,
			Optional:   item.optional,
			Depth:      item.depth,
		}
		resolved[item.ga] = artifact
		order = append(order, item.ga)

		for _, dm := range project.DependencyManagement {
			k := pom.GACT{GroupID: dm.GroupID, ArtifactID: dm.ArtifactID, Classifier: dm.Classifier, Type: dm.EffectiveType()}
			if _, ok := managedVersions[k]; !ok {
				managedVersions[k] = dm.Version
			}
		}

		for _, dep := range project.Dependencies {
			childGA := GA{dep.GroupID, dep.ArtifactID}

			if dep.IsOptional() && item.depth > opts.OptionalDepth {
				continue
			}
			if excluded(item.exclusions, childGA) || excluded(globalExclusions, childGA) {
				continue
			}

			scope, ok := propagateScope(item.scope, dep.EffectiveScope())
			if !ok {
				continue
			}

			combinedExclusions := append(append([]coordinate.GA{}, item.exclusions...), toCoordExclusions(dep.Exclusions)...)

			queue = append(queue, queueItem{
				ga:         childGA,
				version:    dep.Version,
				classifier: dep.Classifier,
				packaging:  dep.EffectiveType(),
				scope:      scope,
				optional:   dep.IsOptional(),
				depth:      item.depth + 1,
				exclusions: combinedExclusions,
			})
		}
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.GroupID != b.GroupID {
			return a.GroupID < b.GroupID
		}
		return a.ArtifactID < b.ArtifactID
	})

	artifacts := make([]Artifact, 0, len(order))
	for _, ga := range order {
		artifacts = append(artifacts, resolved[ga])
	}

	return Result{Artifacts: artifacts}, nil
}

func toCoordExclusions(excl []pom.Exclusion) []coordinate.GA {
	out := make([]coordinate.GA, 0, len(excl))
	for _, e := range excl {
		out = append(out, coordinate.GA{GroupID: e.GroupID, ArtifactID: e.ArtifactID})
	}
	return out
}

// rootManagement fetches groupID:artifactID:version's own dependency
// management (after parent merge), used to seed the synthetic root's
// scope=import BOM behavior for endpoint coordinates in managed mode.
func rootManagement(ctx context.Context, client *repository.Client, groupID, artifactID, version string) (map[pom.GACT]string, error) {
	resolvedVersion, err := resolveVersion(ctx, client, groupID, artifactID, version)
	if err != nil {
		return nil, err
	}
	project, err := loadResolved(ctx, client, groupID, artifactID, resolvedVersion, false)
	if err != nil {
		return nil, err
	}
	out := map[pom.GACT]string{}
	for _, dm := range project.DependencyManagement {
		out[pom.GACT{GroupID: dm.GroupID, ArtifactID: dm.ArtifactID, Classifier: dm.Classifier, Type: dm.EffectiveType()}] = dm.Version
	}
	return out, nil
}

// resolveVersion resolves RELEASE/LATEST/range expressions against
// repository metadata; a literal version passes through unchanged.
func resolveVersion(ctx context.Context, client *repository.Client, groupID, artifactID, version string) (string, error) {
	switch {
	case version == "" || version == coordinate.DefaultVersion:
		meta, err := client.GetArtifactMetadata(ctx, groupID, artifactID)
		if err != nil {
			return "", fmt.Errorf("%w: %s:%s RELEASE: %w", ErrVersionUnresolved, groupID, artifactID, err)
		}
		if meta.Versioning.Release != "" {
			return meta.Versioning.Release, nil
		}
		return "", fmt.Errorf("%w: %s:%s has no release version", ErrVersionUnresolved, groupID, artifactID)

	case version == "LATEST":
		meta, err := client.GetArtifactMetadata(ctx, groupID, artifactID)
		if err != nil {
			return "", fmt.Errorf("%w: %s:%s LATEST: %w", ErrVersionUnresolved, groupID, artifactID, err)
		}
		if meta.Versioning.Latest != "" {
			return meta.Versioning.Latest, nil
		}
		best, ok := highestOf(meta.Versioning.Versions)
		if !ok {
			return "", fmt.Errorf("%w: %s:%s has no versions", ErrVersionUnresolved, groupID, artifactID)
		}
		return best, nil

	case mavenversion.IsRange(version):
		rng, err := mavenversion.ParseRange(version)
		if err != nil {
			return "", fmt.Errorf("%w: %s:%s %s: %w", ErrVersionUnresolved, groupID, artifactID, version, err)
		}
		meta, err := client.GetArtifactMetadata(ctx, groupID, artifactID)
		if err != nil {
			return "", fmt.Errorf("%w: %s:%s %s: %w", ErrVersionUnresolved, groupID, artifactID, version, err)
		}
		best, ok := rng.HighestMatching(meta.Versioning.Versions)
		if !ok {
			return "", fmt.Errorf("%w: %s:%s no version in range %s", ErrVersionUnresolved, groupID, artifactID, version)
		}
		return best, nil

	default:
		return version, nil
	}
}

func highestOf(versions []string) (string, bool) {
	if len(versions) == 0 {
		return "", false
	}
	best := versions[0]
	bestV := mavenversion.Parse(best)
	for _, v := range versions[1:] {
		pv := mavenversion.Parse(v)
		if cmp, err := pv.Compare(bestV); err == nil && cmp > 0 {
			best, bestV = v, pv
		}
	}
	return best, true
}

// loadResolved loads a POM, merges its parent chain, interpolates
// properties, and expands scope=import BOM entries in its dependency
// management. Cycle detection tracks the (groupId, artifactId, version)
// stack separately for the parent chain and the import chain.
func loadResolved(ctx context.Context, client *repository.Client, groupID, artifactID, version string, lenient bool) (pom.Project, error) {
	return loadEffective(ctx, client, groupID, artifactID, version, lenient, map[string]bool{})
}

func loadEffective(ctx context.Context, client *repository.Client, groupID, artifactID, version string, lenient bool, importStack map[string]bool) (pom.Project, error) {
	project, err := loadWithParents(ctx, client, groupID, artifactID, version, map[string]bool{})
	if err != nil {
		return pom.Project{}, err
	}
	project, err = pom.Interpolate(project, lenient)
	if err != nil {
		return pom.Project{}, err
	}
	return expandImports(ctx, client, project, lenient, importStack)
}

// expandImports replaces every scope=import, type=pom dependencyManagement
// entry with the referenced BOM's own (recursively expanded) management,
// the importing project's remaining entries taking precedence.
func expandImports(ctx context.Context, client *repository.Client, project pom.Project, lenient bool, stack map[string]bool) (pom.Project, error) {
	var kept []pom.Dependency
	var boms []pom.Project
	for _, dm := range project.DependencyManagement {
		if dm.Scope != "import" || dm.EffectiveType() != "pom" {
			kept = append(kept, dm)
			continue
		}
		key := dm.GroupID + ":" + dm.ArtifactID + ":" + dm.Version
		if stack[key] {
			return pom.Project{}, fmt.Errorf("%w: BOM import %s", ErrCycle, key)
		}
		stack[key] = true
		bom, err := loadEffective(ctx, client, dm.GroupID, dm.ArtifactID, dm.Version, lenient, stack)
		delete(stack, key)
		if err != nil {
			if lenient {
				log.Warnf("resolve: dropping BOM import %s: %v", key, err)
				continue
			}
			return pom.Project{}, fmt.Errorf("importing BOM %s: %w", key, err)
		}
		boms = append(boms, bom)
	}
	project.DependencyManagement = kept
	for _, bom := range boms {
		project = pom.ImportBOM(project, bom)
	}
	return project, nil
}

func loadWithParents(ctx context.Context, client *repository.Client, groupID, artifactID, version string, stack map[string]bool) (pom.Project, error) {
	key := groupID + ":" + artifactID + ":" + version
	if stack[key] {
		return pom.Project{}, fmt.Errorf("%w: %s", ErrCycle, key)
	}
	stack[key] = true

	project, err := client.GetProject(ctx, groupID, artifactID, version)
	if err != nil {
		return pom.Project{}, err
	}

	if project.Parent.IsZero() {
		return project, nil
	}

	parent, err := loadWithParents(ctx, client, project.Parent.GroupID, project.Parent.ArtifactID, project.Parent.Version, stack)
	if err != nil {
		return pom.Project{}, fmt.Errorf("loading parent of %s: %w", key, err)
	}

	return pom.MergeParent(project, parent), nil
}
