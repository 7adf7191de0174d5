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

// Command jgo parses a Maven coordinate or endpoint string, resolves and
// materializes its dependencies into a cache-keyed workspace, locates a
// JVM, and launches it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mavenlaunch/jgo/coordinate"
	"github.com/mavenlaunch/jgo/jgo"
	"github.com/mavenlaunch/jgo/jvm"
	"github.com/mavenlaunch/jgo/launch"
	"github.com/mavenlaunch/jgo/link"
	"github.com/mavenlaunch/jgo/log"
	"github.com/mavenlaunch/jgo/pom"
	"github.com/mavenlaunch/jgo/project"
	"github.com/mavenlaunch/jgo/repository"
	"github.com/mavenlaunch/jgo/resolve"
	"github.com/mavenlaunch/jgo/settings"
	"github.com/mavenlaunch/jgo/workspace"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("jgo", flag.ContinueOnError)

	var (
		mainClass       = fs.String("main-class", "", "explicit main class, or a bare suffix to scan for")
		entrypoint      = fs.String("entrypoint", "", "named entrypoint from a jgo.toml project spec")
		javaVersion     = fs.Int("java", envInt("JAVA_VERSION"), "minimum/preferred Java version (e.g. 17)")
		javaVendor      = fs.String("java-vendor", "", "preferred JDK vendor, consulted by the provisioner")
		systemJava      = fs.Bool("system-java", false, "require an already-installed JVM; never provision one")
		heapMin         = fs.String("xms", "", "initial heap size, e.g. 512m")
		heapMax         = fs.String("xmx", "", "maximum heap size, e.g. 2g (default: half of RAM, capped at 8g)")
		cacheDir        = fs.String("cache-dir", envCacheDir(), "local .m2-style repository cache (default from settings file)")
		noCache         = fs.Bool("no-cache", envBool("JGO_NO_CACHE"), "fetch directly into the workspace without a local cache")
		workspaceDir    = fs.String("workspace", "", "workspace directory (default: .jgo beside jgo.toml, else a cache-keyed directory under ~/.jgo/envs)")
		linkStrategy    = fs.String("link-strategy", "", "hard, soft, copy, or auto (default from settings file)")
		offline         = fs.Bool("offline", envBool("JGO_OFFLINE"), "forbid network access; fail on anything not already cached")
		update          = fs.Bool("update", envBool("JGO_UPDATE"), "ignore any existing lockfile and re-resolve/re-materialize")
		noManaged       = fs.Bool("no-managed", false, "do not constrain transitive versions by each endpoint coordinate's own dependencyManagement")
		lenient         = fs.Bool("lenient", envBool("JGO_LENIENT"), "downgrade missing POMs/artifacts to warnings instead of fatal errors")
		includeOptional = fs.Bool("include-optional", envBool("JGO_INCLUDE_OPTIONAL"), "follow optional dependencies one level deep")
		classPathOnly   = fs.Bool("class-path-only", false, "place every artifact on the class path, ignoring JPMS classification")
		modulePathOnly  = fs.Bool("module-path-only", false, "place every artifact on the module path, ignoring JPMS classification")
		resolver        = fs.String("resolver", "auto", "resolver implementation to use (only \"auto\"/\"go\" are built in)")
		verbose         = fs.Bool("verbose", false, "enable debug logging")
	)
	var sysProps, gcFlags, jvmArgs, repoFlags, addClasspath stringList
	fs.Var(&sysProps, "D", "system property key=value (repeatable)")
	fs.Var(&gcFlags, "gc-flag", "JVM garbage-collector flag (repeatable)")
	fs.Var(&jvmArgs, "jvm-arg", "pass-through JVM argument (repeatable)")
	fs.Var(&repoFlags, "r", "additional repository as name=URL (repeatable)")
	fs.Var(&addClasspath, "add-classpath", "extra classpath entry (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if verbose != nil && *verbose {
		log.SetLogger(&log.DefaultLogger{Verbose: true})
	}

	if *resolver != "auto" && *resolver != "go" {
		fmt.Fprintf(os.Stderr, "jgo: unsupported --resolver %q (only \"auto\"/\"go\", the built-in pure-Go resolver, are available)\n", *resolver)
		return 2
	}

	var endpointStr string
	var appArgs []string
	var spec *project.Spec
	var specPath, specHash string
	rest := fs.Args()
	if len(rest) > 0 {
		endpointStr, appArgs = splitAppArgs(rest)
	} else {
		// No endpoint argument: fall back to an ambient project spec in the
		// working directory.
		specPath = workspace.SpecName
		data, err := os.ReadFile(specPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "usage: jgo [flags] <endpoint> [-- app args...] (or run in a directory with a jgo.toml)")
			return 2
		}
		s, err := project.ParseSpec(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jgo: %v\n", err)
			return 2
		}
		spec = &s
		specHash = project.Hash(data)
		endpointStr = strings.Join(s.Dependencies.Coordinates, "+")
		if endpointStr == "" {
			fmt.Fprintf(os.Stderr, "jgo: %s declares no coordinates\n", specPath)
			return 2
		}
	}

	cfg, err := buildConfig(buildConfigArgs{
		endpointStr:     endpointStr,
		appArgs:         appArgs,
		sysProps:        sysProps,
		gcFlags:         gcFlags,
		jvmArgs:         jvmArgs,
		repoFlags:       repoFlags,
		addClasspath:    addClasspath,
		mainClassFlag:   *mainClass,
		entrypoint:      *entrypoint,
		javaVersion:     *javaVersion,
		javaVendor:      *javaVendor,
		systemJava:      *systemJava,
		heapMin:         *heapMin,
		heapMax:         *heapMax,
		cacheDir:        *cacheDir,
		noCache:         *noCache,
		workspaceDir:    *workspaceDir,
		linkStrategy:    *linkStrategy,
		offline:         *offline,
		update:          *update,
		managed:         !*noManaged,
		lenient:         *lenient,
		includeOptional: *includeOptional,
		classPathOnly:   *classPathOnly,
		modulePathOnly:  *modulePathOnly,
		spec:            spec,
		specPath:        specPath,
		specHash:        specHash,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "jgo: %v\n", err)
		return exitCodeFor(err)
	}

	code, err := jgo.New().Launch(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jgo: %v\n", err)
		return exitCodeFor(err)
	}
	return code
}

// exitCodeFor maps an internal failure to the tool's exit-code
// convention: 2 for parse/resolution errors, 3 for I/O and everything
// else. The launched JVM's own exit code is propagated separately.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, coordinate.ErrParse),
		errors.Is(err, resolve.ErrVersionUnresolved),
		errors.Is(err, resolve.ErrCycle),
		errors.Is(err, pom.ErrCycle),
		errors.Is(err, pom.ErrInterpolation),
		errors.Is(err, pom.ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrOffline):
		return 2
	default:
		return 3
	}
}

// envBool reads a boolean environment-variable override; any non-empty
// value other than "0" and "false" enables the flag.
func envBool(name string) bool {
	v := strings.ToLower(os.Getenv(name))
	return v != "" && v != "0" && v != "false"
}

// envInt reads an integer environment-variable override, 0 if unset or
// malformed.
func envInt(name string) int {
	n, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return 0
	}
	return n
}

// envCacheDir returns the local repository cache override from the
// environment: JGO_CACHE_DIR wins over the conventional M2_REPO.
func envCacheDir() string {
	if dir := os.Getenv("JGO_CACHE_DIR"); dir != "" {
		return dir
	}
	return os.Getenv("M2_REPO")
}

// splitAppArgs separates the endpoint (and any args meant for jgo itself,
// none remain after flag parsing) from application arguments following a
// literal "--".
func splitAppArgs(rest []string) (string, []string) {
	for i, a := range rest {
		if a == "--" {
			return rest[0], append(rest[1:i:i], rest[i+1:]...)
		}
	}
	if len(rest) > 1 {
		return rest[0], rest[1:]
	}
	return rest[0], nil
}

// buildConfigArgs collects the flag values buildConfig needs, so the
// function itself isn't an unreadable wall of positional parameters.
type buildConfigArgs struct {
	endpointStr  string
	appArgs      []string
	sysProps     stringList
	gcFlags      stringList
	jvmArgs      stringList
	repoFlags    stringList
	addClasspath stringList

	mainClassFlag string
	entrypoint    string
	javaVersion   int
	javaVendor    string
	systemJava    bool

	heapMin, heapMax string
	cacheDir         string
	noCache          bool
	workspaceDir     string
	linkStrategy     string
	offline          bool

	update          bool
	managed         bool
	lenient         bool
	includeOptional bool
	classPathOnly   bool
	modulePathOnly  bool

	// Project mode: the ambient jgo.toml, when one was loaded.
	spec     *project.Spec
	specPath string
	specHash string
}

func buildConfig(a buildConfigArgs) (jgo.Config, error) {
	settingsPath, err := settings.DefaultPath()
	if err != nil {
		return jgo.Config{}, err
	}
	s, err := settings.Load(settingsPath)
	if err != nil {
		return jgo.Config{}, err
	}
	cacheDir := a.cacheDir
	if cacheDir == "" {
		cacheDir = s.CacheDir
	}
	if a.offline {
		s.Offline = true
	}

	javaVersion := a.javaVersion
	javaVendor := a.javaVendor
	linkStrategyName := a.linkStrategy
	var entrypoints map[string]string
	if a.spec != nil {
		entrypoints = a.spec.Entrypoints
		if javaVersion == 0 {
			javaVersion = a.spec.Java.Version
		}
		if javaVendor == "" {
			javaVendor = a.spec.Java.Vendor
		}
		if linkStrategyName == "" {
			linkStrategyName = a.spec.Settings.LinkStrategy
		}
		if cacheDir == "" {
			cacheDir = a.spec.Settings.CacheDir
		}
		for name, url := range a.spec.Repositories {
			if s.Repositories == nil {
				s.Repositories = map[string]string{}
			}
			s.Repositories[name] = url
		}
	}
	if a.noCache {
		cacheDir = ""
	}

	for name, url := range extraRepos(a.repoFlags) {
		if s.Repositories == nil {
			s.Repositories = map[string]string{}
		}
		s.Repositories[name] = url
	}

	endpoint, err := coordinate.Parse(a.endpointStr, s.Shortcuts)
	if err != nil {
		return jgo.Config{}, fmt.Errorf("parsing endpoint %q: %w", a.endpointStr, err)
	}
	if a.spec != nil {
		applySpecExclusions(&endpoint, a.spec.Dependencies.Exclusions)
	}

	registries := registriesFrom(s.Repositories)
	client := repository.NewClient(cacheDir, registries, s.Auth)
	client.Offline = s.Offline

	if linkStrategyName == "" {
		linkStrategyName = s.LinkStrategy
	}
	strategy := link.Auto
	if linkStrategyName != "" {
		strategy, err = link.ParseStrategy(linkStrategyName)
		if err != nil {
			return jgo.Config{}, err
		}
	}

	heapMinMB, err := launch.ParseHeapSize(a.heapMin)
	if err != nil {
		return jgo.Config{}, err
	}
	heapMaxMB, err := launch.ParseHeapSize(a.heapMax)
	if err != nil {
		return jgo.Config{}, err
	}

	optionalDepth := 0
	if a.includeOptional {
		optionalDepth = 1
	}

	workspaceDir := a.workspaceDir
	if workspaceDir == "" {
		if a.spec != nil {
			workspaceDir = workspace.ProjectPath(a.specPath)
		} else {
			workspaceDir, err = defaultWorkspaceDir(endpoint, optionalDepth, a.managed, a.addClasspath)
			if err != nil {
				return jgo.Config{}, err
			}
		}
	}

	// jvm.Auto needs a JDK-fetching Provisioner; this CLI wires none, so
	// it only ever asks jvm.Locate for an already-installed JVM on
	// JAVA_HOME/PATH. --system-java is accepted for forward compatibility
	// with a future provisioner but is currently the only mode available.
	javaSource := jvm.System

	return jgo.Config{
		Endpoint:     endpoint,
		Client:       client,
		WorkspaceDir: workspaceDir,
		LinkStrategy: strategy,
		Resolve: resolve.Options{
			Client:        client,
			Managed:       a.managed,
			OptionalDepth: optionalDepth,
			Lenient:       a.lenient,
		},
		JavaSource:      javaSource,
		PreferredJava:   javaVersion,
		PreferredVendor: javaVendor,
		MainClassFlag:   a.mainClassFlag,
		EntrypointName:  a.entrypoint,
		Entrypoints:     entrypoints,
		SpecHash:        a.specHash,
		HeapMinMB:       heapMinMB,
		HeapMaxMB:       heapMaxMB,
		GCFlags:         a.gcFlags,
		SystemProps:     parseProps(a.sysProps),
		JVMArgs:         a.jvmArgs,
		AppArgs:         a.appArgs,
		AddClasspath:    a.addClasspath,
		ClassPathOnly:   a.classPathOnly,
		ModulePathOnly:  a.modulePathOnly,
		Update:          a.update,
	}, nil
}

// extraRepos parses "-r name=URL" flags into a name->URL map.
func extraRepos(repoFlags stringList) map[string]string {
	out := make(map[string]string, len(repoFlags))
	for _, r := range repoFlags {
		name, url, ok := strings.Cut(r, "=")
		if !ok {
			continue
		}
		out[name] = url
	}
	return out
}

func registriesFrom(repos map[string]string) []repository.Registry {
	if len(repos) == 0 {
		return []repository.Registry{repository.Central}
	}
	names := make([]string, 0, len(repos))
	for name := range repos {
		names = append(names, name)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	registries := make([]repository.Registry, 0, len(names))
	for _, name := range names {
		registries = append(registries, repository.Registry{ID: name, URL: repos[name], ReleasesEnabled: true})
	}
	return registries
}

func parseProps(props stringList) map[string]string {
	out := make(map[string]string, len(props))
	for _, p := range props {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		out[key] = value
	}
	return out
}

// applySpecExclusions folds a project spec's per-dependency exclusion
// table ("G:A" -> ["G:A", ...]) onto the parsed endpoint coordinates.
func applySpecExclusions(endpoint *coordinate.Endpoint, exclusions map[string][]string) {
	if len(exclusions) == 0 {
		return
	}
	for i := range endpoint.Coordinates {
		c := &endpoint.Coordinates[i]
		for _, excl := range exclusions[c.GA().String()] {
			g, a, ok := strings.Cut(excl, ":")
			if !ok {
				log.Warnf("jgo: ignoring malformed exclusion %q for %s", excl, c.GA())
				continue
			}
			c.Exclusions = append(c.Exclusions, coordinate.GA{GroupID: g, ArtifactID: a})
		}
	}
}

// defaultWorkspaceDir derives the cache-keyed workspace path for an
// ad-hoc launch, so repeated launches of the same request reuse the
// same materialized jars.
func defaultWorkspaceDir(endpoint coordinate.Endpoint, optionalDepth int, managed bool, addClasspath []string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}

	coords := make([]string, 0, len(endpoint.Coordinates))
	var exclusions []string
	for _, c := range endpoint.Coordinates {
		if c.GlobalExclusion {
			exclusions = append(exclusions, c.GA().String())
			continue
		}
		coords = append(coords, c.String())
		for _, e := range c.Exclusions {
			exclusions = append(exclusions, e.String())
		}
	}

	req := workspace.Request{
		Coordinates:   coords,
		OptionalDepth: optionalDepth,
		Managed:       managed,
		Exclusions:    exclusions,
		AddClasspath:  addClasspath,
	}
	first := endpoint.Coordinates[0]
	return workspace.AdHocPath(filepath.Join(home, ".jgo"), first.GroupID, first.ArtifactID, req), nil
}
