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

// Package bytecode scans .class files to determine the minimum Java LTS
// version an artifact or environment requires.
package bytecode

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mavenlaunch/jgo/jarfile"
	"github.com/mavenlaunch/jgo/jpms"
)

// ltsTable lists class-file major versions and their Java releases in
// ascending order; a major version maps to the last entry whose
// class-file major version is <= the one observed.
var ltsTable = []struct {
	major int // .class major version
	java  int // corresponding Java release
}{
	{45, 1}, // majors 45-51 (Java 1.0 through 7) all collapse to "1"
	{52, 8},
	{53, 9},
	{54, 10},
	{55, 11},
	{56, 12},
	{57, 13},
	{58, 14},
	{59, 15},
	{60, 16},
	{61, 17},
	{62, 18},
	{63, 19},
	{64, 20},
	{65, 21},
	{66, 22},
	{67, 23},
	{68, 24},
	{69, 25},
}

// knownLTS is the set of versions the environment's min_java_version is
// rounded up to: 8, 11, 17, 21 as of this writing, extended forward as
// new LTS releases ship.
var knownLTS = []int{8, 11, 17, 21}

// JavaVersionForMajor maps a .class major version to the Java release
// that introduced it. Majors before 52 (Java 8) all map to 1.
func JavaVersionForMajor(major int) (int, error) {
	for i := len(ltsTable) - 1; i >= 0; i-- {
		if major >= ltsTable[i].major {
			return ltsTable[i].java, nil
		}
	}
	return 0, fmt.Errorf("bytecode: unrecognized class file major version %d", major)
}

// RoundUpToLTS rounds a raw Java feature version up to the nearest known
// LTS release at or above it.
func RoundUpToLTS(version int) int {
	for _, lts := range knownLTS {
		if version <= lts {
			return lts
		}
	}
	return version
}

// ScanResult is the outcome of scanning one artifact's class files.
type ScanResult struct {
	MinJavaVersion int
	ClassesScanned int
}

// ScanJAR determines the minimum Java version required by the classes in
// j, ignoring multi-release overlay entries under META-INF/versions/<n>/
// for the purposes of the computed minimum (those are opt-in and must
// not force a higher baseline requirement).
func ScanJAR(j *jarfile.JAR) (ScanResult, error) {
	entries := j.ClassEntries(true)

	maxJava := 0
	for _, entry := range entries {
		data, err := j.ReadEntry(entry)
		if err != nil {
			return ScanResult{}, fmt.Errorf("bytecode: reading %s: %w", entry, err)
		}
		major, err := jpms.MajorVersion(data)
		if err != nil {
			return ScanResult{}, fmt.Errorf("bytecode: %s: %w", entry, err)
		}
		java, err := JavaVersionForMajor(major)
		if err != nil {
			return ScanResult{}, fmt.Errorf("bytecode: %s: %w", entry, err)
		}
		if java > maxJava {
			maxJava = java
		}
	}

	return ScanResult{MinJavaVersion: RoundUpToLTS(maxJava), ClassesScanned: len(entries)}, nil
}

// ScanArtifacts opens and scans each JAR file in paths concurrently,
// returning one ScanResult per path in the same order. A failure on any
// one artifact cancels the remaining scans and the error is returned.
func ScanArtifacts(ctx context.Context, paths []string) ([]ScanResult, error) {
	results := make([]ScanResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			j, err := jarfile.OpenFile(path)
			if err != nil {
				return fmt.Errorf("bytecode: opening %s: %w", path, err)
			}
			defer j.Close()

			r, err := ScanJAR(j)
			if err != nil {
				return fmt.Errorf("bytecode: scanning %s: %w", path, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MaxJavaVersion returns the highest of a set of per-artifact minimums,
// already rounded to LTS boundaries — the environment-wide requirement.
func MaxJavaVersion(results []ScanResult) int {
	versions := make([]int, 0, len(results))
	for _, r := range results {
		versions = append(versions, r.MinJavaVersion)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(versions)))
	if len(versions) == 0 {
		return 0
	}
	return versions[0]
}
