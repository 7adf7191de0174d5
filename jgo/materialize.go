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

// Package jgo wires coordinate parsing, dependency resolution, artifact
// materialization, JVM location, and process launch into the single
// end-to-end operation a caller actually wants: take a Maven endpoint and
// run it.
package jgo

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/mavenlaunch/jgo/bytecode"
	"github.com/mavenlaunch/jgo/coordinate"
	"github.com/mavenlaunch/jgo/jarfile"
	"github.com/mavenlaunch/jgo/jpms"
	"github.com/mavenlaunch/jgo/link"
	"github.com/mavenlaunch/jgo/log"
	"github.com/mavenlaunch/jgo/mavenversion"
	"github.com/mavenlaunch/jgo/repository"
	"github.com/mavenlaunch/jgo/resolve"
	"github.com/mavenlaunch/jgo/workspace"
)

// MaterializedArtifact is one resolved dependency after it has been
// placed into the environment workspace.
type MaterializedArtifact struct {
	resolve.Artifact
	// LockedVersion is the version the lockfile records: for SNAPSHOT
	// artifacts the timestamped value from the version-level metadata,
	// otherwise identical to Artifact.Version.
	LockedVersion  string
	Path           string // absolute path under jars/ or modules/
	SHA256         string
	Classification jpms.Classification
	ScanResult     bytecode.ScanResult
	ClassIndex     map[string]string // simple class name -> binary name
	Manifest       jarfile.Manifest
}

// placementDir decides whether a materialized artifact belongs in jars/ or
// modules/: an explicit request on the originating coordinate wins,
// otherwise JPMS classification decides (explicit modules go to
// modules/, everything else — automatic or non-modular — to jars/,
// matching how a real module path only admits true module descriptors).
func placementDir(requested coordinate.Placement, classification jpms.Classification) string {
	switch requested {
	case coordinate.PlacementModulePath:
		return workspace.ModulesDir
	case coordinate.PlacementClassPath:
		return workspace.JarsDir
	default:
		if classification.Kind == jpms.Explicit {
			return workspace.ModulesDir
		}
		return workspace.JarsDir
	}
}

// placementRequests maps each resolved artifact's GA to the explicit
// (c)/(m) modifier carried by its originating coordinate, if any.
func placementRequests(endpoint coordinate.Endpoint) map[resolve.GA]coordinate.Placement {
	out := make(map[resolve.GA]coordinate.Placement, len(endpoint.Coordinates))
	for _, c := range endpoint.Coordinates {
		out[resolve.GA{GroupID: c.GroupID, ArtifactID: c.ArtifactID}] = c.Placement
	}
	return out
}

// materialize fetches, classifies, scans, and links every resolved
// artifact into dir's jars/ and modules/ subdirectories. Fetches and
// per-artifact scans run concurrently; each artifact is independent,
// read-only, and has no shared mutable state besides its own slot in
// the returned slice.
func materialize(ctx context.Context, client *repository.Client, dir string, strategy link.Strategy, endpoint coordinate.Endpoint, artifacts []resolve.Artifact, override coordinate.Placement) ([]MaterializedArtifact, error) {
	if err := workspace.Ensure(dir); err != nil {
		return nil, err
	}

	requests := placementRequests(endpoint)
	out := make([]MaterializedArtifact, len(artifacts))

	g, gctx := errgroup.WithContext(ctx)
	for i, artifact := range artifacts {
		i, artifact := i, artifact
		requested := requests[artifact.GA()]
		if override != coordinate.PlacementAuto {
			requested = override
		}
		g.Go(func() error {
			m, err := materializeOne(gctx, client, dir, strategy, requested, artifact)
			if err != nil {
				return fmt.Errorf("materializing %s:%s:%s: %w", artifact.GroupID, artifact.ArtifactID, artifact.Version, err)
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func materializeOne(ctx context.Context, client *repository.Client, dir string, strategy link.Strategy, requested coordinate.Placement, artifact resolve.Artifact) (MaterializedArtifact, error) {
	// For SNAPSHOT versions the downloadable file carries a timestamped
	// version; the version-level metadata maps (classifier, extension) to
	// it. The timestamped value is what the lockfile crystallizes.
	lockedVersion := artifact.Version
	if mavenversion.IsSnapshot(artifact.Version) {
		if meta, err := client.GetVersionMetadata(ctx, artifact.GroupID, artifact.ArtifactID, artifact.Version); err == nil {
			if v, ok := meta.Versioning.ValueFor(artifact.Classifier, artifact.Packaging); ok {
				lockedVersion = v
			}
		} else {
			log.Warnf("jgo: no snapshot metadata for %s:%s:%s, using the plain filename: %v", artifact.GroupID, artifact.ArtifactID, artifact.Version, err)
		}
	}
	filename := repository.ArtifactFilename(artifact.ArtifactID, lockedVersion, artifact.Classifier, artifact.Packaging)

	srcPath, sha256hex, err := client.GetArtifactFile(ctx, artifact.GroupID, artifact.ArtifactID, artifact.Version, filename)
	if err != nil {
		return MaterializedArtifact{}, err
	}

	jar, err := jarfile.OpenFile(srcPath)
	if err != nil {
		return MaterializedArtifact{}, err
	}
	defer jar.Close()

	classification, err := jpms.Classify(jar)
	if err != nil {
		log.Warnf("jgo: classifying %s: %v", filename, err)
		classification = jpms.Classification{Kind: jpms.NonModular}
	}

	scanResult, err := bytecode.ScanJAR(jar)
	if err != nil {
		return MaterializedArtifact{}, fmt.Errorf("scanning bytecode: %w", err)
	}

	classIndex := classIndexOf(jar)

	manifest, err := jar.Manifest()
	if err != nil {
		log.Warnf("jgo: reading manifest for %s: %v", filename, err)
	}

	sub := placementDir(requested, classification)
	dst := filepath.Join(dir, sub, filename)
	if _, err := link.Link(strategy, srcPath, dst); err != nil {
		return MaterializedArtifact{}, err
	}

	return MaterializedArtifact{
		Artifact:       artifact,
		LockedVersion:  lockedVersion,
		Path:           dst,
		SHA256:         sha256hex,
		Classification: classification,
		ScanResult:     scanResult,
		ClassIndex:     classIndex,
		Manifest:       manifest,
	}, nil
}

// classIndexOf builds the simple-name -> binary-name index used for
// "@suffix" main-class expansion.
func classIndexOf(jar *jarfile.JAR) map[string]string {
	index := map[string]string{}
	for _, entry := range jar.ClassEntries(true) {
		index[jarfile.SimpleClassName(entry)] = jarfile.BinaryClassName(entry)
	}
	return index
}
