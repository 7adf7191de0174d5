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

package jgo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mavenlaunch/jgo/bytecode"
	"github.com/mavenlaunch/jgo/coordinate"
	"github.com/mavenlaunch/jgo/jarfile"
	"github.com/mavenlaunch/jgo/jpms"
	"github.com/mavenlaunch/jgo/jvm"
	"github.com/mavenlaunch/jgo/launch"
	"github.com/mavenlaunch/jgo/link"
	"github.com/mavenlaunch/jgo/log"
	"github.com/mavenlaunch/jgo/project"
	"github.com/mavenlaunch/jgo/repository"
	"github.com/mavenlaunch/jgo/resolve"
	"github.com/mavenlaunch/jgo/workspace"
)

// Launcher is the entry point for resolving and running a Maven endpoint.
type Launcher struct{}

// New creates a new Launcher.
func New() *Launcher { return &Launcher{} }

// Config stores the settings of one prepare-and-launch run: the
// resolver/repository inputs, the workspace to materialize into, and the
// JVM/launch preferences.
type Config struct {
	Endpoint coordinate.Endpoint
	Client   *repository.Client

	WorkspaceDir string
	LinkStrategy link.Strategy
	Resolve      resolve.Options

	JavaSource      jvm.Source
	PreferredJava   int
	PreferredVendor string
	Provisioner     jvm.Provisioner

	MainClassFlag  string
	EntrypointName string
	Entrypoints    map[string]string

	HeapMinMB    int
	HeapMaxMB    int
	GCFlags      []string
	SystemProps  map[string]string
	JVMArgs      []string
	AppArgs      []string
	AddClasspath []string

	// ClassPathOnly and ModulePathOnly globally override per-artifact JPMS
	// placement, matching --class-path-only/--module-path-only. At most
	// one should be set; ClassPathOnly takes precedence if both are.
	ClassPathOnly  bool
	ModulePathOnly bool

	// SpecHash, when non-empty, is recorded in the lockfile for staleness
	// detection against a project spec (project mode only).
	SpecHash string

	// Update forces re-resolution and re-materialization even if a valid,
	// non-stale lockfile already exists at WorkspaceDir.
	Update bool
}

// Environment is the materialized, ready-to-launch result of Prepare.
type Environment struct {
	Dir            string
	Artifacts      []MaterializedArtifact
	MinJavaVersion int
	Lockfile       project.Lockfile
}

// Prepare resolves cfg.Endpoint, materializes every resolved artifact
// into cfg.WorkspaceDir, and writes a lockfile recording the outcome.
func (Launcher) Prepare(ctx context.Context, cfg Config) (*Environment, error) {
	if !cfg.Update && workspace.IsValid(cfg.WorkspaceDir) {
		lockPath := filepath.Join(cfg.WorkspaceDir, workspace.LockfileName)
		if lock, err := project.LoadLockfile(lockPath); err == nil && !lock.Stale(cfg.SpecHash) {
			env, err := loadEnvironment(cfg.WorkspaceDir, lock)
			if err == nil {
				log.Infof("jgo: reusing cached environment at %s", cfg.WorkspaceDir)
				return env, nil
			}
			log.Warnf("jgo: cached environment at %s is unusable, rebuilding: %v", cfg.WorkspaceDir, err)
		}
	}

	result, err := resolve.Resolve(ctx, cfg.Endpoint, cfg.Resolve)
	if err != nil {
		return nil, fmt.Errorf("jgo: resolving %s: %w", cfg.Endpoint, err)
	}

	artifacts, err := materialize(ctx, cfg.Client, cfg.WorkspaceDir, cfg.LinkStrategy, cfg.Endpoint, result.Artifacts, placementOverride(cfg))
	if err != nil {
		return nil, fmt.Errorf("jgo: materializing environment: %w", err)
	}

	scans := make([]bytecode.ScanResult, len(artifacts))
	for i, a := range artifacts {
		scans[i] = a.ScanResult
	}
	minJava := bytecode.MaxJavaVersion(scans)

	lock := buildLockfile(cfg, artifacts, minJava)
	lockPath := filepath.Join(cfg.WorkspaceDir, workspace.LockfileName)
	if err := project.WriteLockfile(lockPath, lock); err != nil {
		return nil, fmt.Errorf("jgo: writing lockfile: %w", err)
	}

	return &Environment{
		Dir:            cfg.WorkspaceDir,
		Artifacts:      artifacts,
		MinJavaVersion: minJava,
		Lockfile:       lock,
	}, nil
}

// placementOverride translates the global --class-path-only/
// --module-path-only flags into the forced coordinate.Placement that
// takes precedence over both per-coordinate modifiers and JPMS
// classification.
func placementOverride(cfg Config) coordinate.Placement {
	switch {
	case cfg.ClassPathOnly:
		return coordinate.PlacementClassPath
	case cfg.ModulePathOnly:
		return coordinate.PlacementModulePath
	default:
		return coordinate.PlacementAuto
	}
}

// loadEnvironment reconstructs an Environment from an existing, valid
// lockfile without re-resolving or re-fetching: each locked dependency's
// materialized file is reopened directly from the workspace to rebuild
// the classification/scan/class-index data Launch needs.
func loadEnvironment(dir string, lock project.Lockfile) (*Environment, error) {
	artifacts := make([]MaterializedArtifact, 0, len(lock.Dependencies))
	for _, d := range lock.Dependencies {
		filename := repository.ArtifactFilename(d.ArtifactID, d.Version, d.Classifier, d.Packaging)
		path := filepath.Join(dir, d.Placement, filename)

		jar, err := jarfile.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("reopening %s: %w", filename, err)
		}

		scanResult, err := bytecode.ScanJAR(jar)
		if err != nil {
			jar.Close()
			return nil, fmt.Errorf("rescanning %s: %w", filename, err)
		}
		classIndex := classIndexOf(jar)
		manifest, _ := jar.Manifest()
		jar.Close()

		// Reconstruct Kind from the recorded placement, not merely
		// IsModular: an automatic module (IsModular true) still lives in
		// jars/, and only an artifact actually placed in modules/ should
		// be treated as Explicit by placementDirs/resolveMainClass.
		kind := jpms.NonModular
		switch {
		case d.Placement == "modules":
			kind = jpms.Explicit
		case d.IsModular:
			kind = jpms.Automatic
		}

		artifacts = append(artifacts, MaterializedArtifact{
			Artifact: resolve.Artifact{
				GroupID:    d.GroupID,
				ArtifactID: d.ArtifactID,
				Version:    d.Version,
				Classifier: d.Classifier,
				Packaging:  d.Packaging,
			},
			LockedVersion:  d.Version,
			Path:           path,
			SHA256:         d.SHA256,
			Classification: jpms.Classification{Kind: kind, ModuleName: d.ModuleName},
			ScanResult:     scanResult,
			ClassIndex:     classIndex,
			Manifest:       manifest,
		})
	}

	return &Environment{
		Dir:            dir,
		Artifacts:      artifacts,
		MinJavaVersion: lock.Environment.MinJavaVersion,
		Lockfile:       lock,
	}, nil
}

func buildLockfile(cfg Config, artifacts []MaterializedArtifact, minJava int) project.Lockfile {
	deps := make([]project.LockedDependency, 0, len(artifacts))
	for _, a := range artifacts {
		placement := "jars"
		if a.Classification.Kind == jpms.Explicit {
			placement = "modules"
		}
		if a.Path != "" {
			placement = filepath.Base(filepath.Dir(a.Path))
		}
		version := a.LockedVersion
		if version == "" {
			version = a.Version
		}
		deps = append(deps, project.LockedDependency{
			GroupID:    a.GroupID,
			ArtifactID: a.ArtifactID,
			Version:    version,
			Packaging:  a.Packaging,
			Classifier: a.Classifier,
			SHA256:     a.SHA256,
			IsModular:  a.Classification.IsModular(),
			ModuleName: a.Classification.ModuleName,
			Placement:  placement,
		})
	}

	return project.Lockfile{
		Metadata: project.LockMetadata{
			ToolVer:  project.ToolVersion,
			SpecHash: cfg.SpecHash,
		},
		Environment:  project.LockEnvironment{MinJavaVersion: minJava},
		Java:         project.LockJava{Version: cfg.PreferredJava, Vendor: cfg.PreferredVendor},
		Entrypoints:  cfg.Entrypoints,
		Dependencies: deps,
	}
}

// Launch prepares the environment (reusing an existing valid, non-stale
// lockfile when cfg.Update is false) then locates a JVM, resolves the
// main class, and execs the child process, returning its exit code.
func (l Launcher) Launch(ctx context.Context, cfg Config) (int, error) {
	env, err := l.Prepare(ctx, cfg)
	if err != nil {
		return 0, err
	}

	minVersion := env.MinJavaVersion
	if cfg.PreferredJava > minVersion {
		minVersion = cfg.PreferredJava
	}

	installation, err := jvm.Locate(ctx, jvm.Options{
		MinVersion:       minVersion,
		PreferredVersion: cfg.PreferredJava,
		PreferredVendor:  cfg.PreferredVendor,
		Source:           cfg.JavaSource,
		Provisioner:      cfg.Provisioner,
	})
	if err != nil {
		return 0, fmt.Errorf("jgo: locating a JVM: %w", err)
	}

	mainClass, moduleTarget, err := resolveMainClass(cfg, env)
	if err != nil {
		return 0, err
	}

	jarsDir, modulesDir := env.placementDirs()

	argv := launch.BuildCommand(launch.CommandOptions{
		JavaExecutable: installation.Java,
		JarsDir:        jarsDir,
		ModulesDir:     modulesDir,
		MainClass:      mainClass,
		ModuleTarget:   moduleTarget,
		HeapMinMB:      cfg.HeapMinMB,
		HeapMaxMB:      cfg.HeapMaxMB,
		GCFlags:        cfg.GCFlags,
		SystemProps:    cfg.SystemProps,
		JVMArgs:        cfg.JVMArgs,
		AppArgs:        cfg.AppArgs,
		AddClasspath:   cfg.AddClasspath,
	})

	log.Infof("jgo: launching %s", mainClass)
	return launch.Run(ctx, argv, os.Stdin, os.Stdout, os.Stderr)
}

// placementDirs returns the jars/ and modules/ subdirectories, each
// empty if the corresponding kind of artifact was never materialized.
func (e *Environment) placementDirs() (jarsDir, modulesDir string) {
	var hasJars, hasModules bool
	for _, a := range e.Artifacts {
		if a.Classification.Kind == jpms.Explicit {
			hasModules = true
		} else {
			hasJars = true
		}
	}
	if hasJars {
		jarsDir = filepath.Join(e.Dir, workspace.JarsDir)
	}
	if hasModules {
		modulesDir = filepath.Join(e.Dir, workspace.ModulesDir)
	}
	return jarsDir, modulesDir
}

func resolveMainClass(cfg Config, env *Environment) (string, launch.ModuleTarget, error) {
	artifactClasses := make([]launch.ArtifactClasses, len(env.Artifacts))
	for i, a := range env.Artifacts {
		artifactClasses[i] = launch.ArtifactClasses{Path: a.Path, Classes: a.ClassIndex}
	}

	var manifest jarfile.Manifest
	if primary := primaryArtifact(cfg.Endpoint, env.Artifacts); primary != nil {
		manifest = primary.Manifest
	}

	mainClass, err := launch.ResolveMainClass(launch.MainClassOptions{
		ExplicitFlag:    cfg.MainClassFlag,
		Suffix:          cfg.Endpoint.MainClass,
		EntrypointName:  cfg.EntrypointName,
		Entrypoints:     cfg.Entrypoints,
		PrimaryManifest: manifest,
		ResolutionOrder: artifactClasses,
	})
	if err != nil {
		return "", launch.ModuleTarget{}, fmt.Errorf("jgo: resolving main class: %w", err)
	}

	for _, a := range env.Artifacts {
		if a.Classification.Kind == jpms.Explicit {
			if binary, ok := a.ClassIndex[simpleNameOf(mainClass)]; ok && binary == mainClass {
				return mainClass, launch.ModuleTarget{ModuleName: a.Classification.ModuleName}, nil
			}
		}
	}

	return mainClass, launch.ModuleTarget{}, nil
}

// primaryArtifact returns the materialized artifact matching the
// endpoint's first declared coordinate (the root the caller actually
// asked to run), whose manifest is consulted for Main-Class fallback.
func primaryArtifact(endpoint coordinate.Endpoint, artifacts []MaterializedArtifact) *MaterializedArtifact {
	if len(endpoint.Coordinates) == 0 {
		return nil
	}
	root := endpoint.Coordinates[0]
	for i := range artifacts {
		a := &artifacts[i]
		if a.GroupID == root.GroupID && a.ArtifactID == root.ArtifactID {
			return a
		}
	}
	return nil
}

func simpleNameOf(binaryName string) string {
	for i := len(binaryName) - 1; i >= 0; i-- {
		if binaryName[i] == '.' {
			return binaryName[i+1:]
		}
	}
	return binaryName
}
