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

// Package launch infers an application's main class, builds the JVM
// command line that runs it, and execs the child process.
package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/mem"

	"github.com/mavenlaunch/jgo/jarfile"
	"github.com/mavenlaunch/jgo/log"
)

// ErrMainClassNotFound is returned when no main-class resolution strategy
// succeeds.
var ErrMainClassNotFound = errors.New("launch: could not determine a main class")

// maxAutoHeapBytes caps the auto-sized -Xmx at 8 GiB regardless of how
// much physical memory the host reports.
const maxAutoHeapBytes = 8 << 30

// ArtifactClasses associates a resolved artifact's path with the simple
// class names it declares, as discovered by the bytecode/module scan —
// used only for "@suffix" main-class expansion.
type ArtifactClasses struct {
	Path    string
	Classes map[string]string // simple name -> binary name
}

// MainClassOptions carries every input to main-class resolution:
// explicit flag/suffix, project entrypoint, JAR manifest.
type MainClassOptions struct {
	ExplicitFlag    string // --main-class value, already including "@suffix" expansion if dotted
	Suffix          string // "@suffix" from the endpoint, empty if none
	EntrypointName  string // named project-spec entrypoint to consult, "default" if unset
	Entrypoints     map[string]string
	PrimaryManifest jarfile.Manifest
	ResolutionOrder []ArtifactClasses // JARs in resolver order, for suffix scanning
}

// ResolveMainClass tries each source in order: explicit flag, endpoint
// suffix, project entrypoint, JAR manifest.
func ResolveMainClass(opts MainClassOptions) (string, error) {
	if opts.ExplicitFlag != "" {
		return opts.ExplicitFlag, nil
	}

	if opts.Suffix != "" {
		if !strings.Contains(opts.Suffix, ".") {
			if class, ok := findBySuffix(opts.ResolutionOrder, opts.Suffix); ok {
				return class, nil
			}
			return "", fmt.Errorf("%w: no class named %q found", ErrMainClassNotFound, opts.Suffix)
		}
		return opts.Suffix, nil
	}

	name := opts.EntrypointName
	if name == "" {
		name = "default"
	}
	if value, ok := opts.Entrypoints[name]; ok {
		return value, nil
	}

	if mc := opts.PrimaryManifest.MainClass(); mc != "" {
		return mc, nil
	}

	return "", ErrMainClassNotFound
}

// findBySuffix scans artifacts in resolution order for a class whose
// simple name equals suffix; the first match wins.
func findBySuffix(artifacts []ArtifactClasses, suffix string) (string, bool) {
	for _, a := range artifacts {
		if binary, ok := a.Classes[suffix]; ok {
			return binary, true
		}
	}
	return "", false
}

// ModuleTarget identifies where the resolved main class lives, for
// --module vs. plain-FQCN argument construction.
type ModuleTarget struct {
	ModuleName string // empty when the class is not in a known module
}

// CommandOptions configures JVM command-line construction.
type CommandOptions struct {
	JavaExecutable string
	JarsDir        string // empty if no jars/ directory (or it's empty)
	ModulesDir     string // empty if no modules/ directory (or it's empty)
	MainClass      string
	ModuleTarget   ModuleTarget
	HeapMinMB      int // -Xms, 0 to omit
	HeapMaxMB      int // -Xmx, 0 to auto-size
	GCFlags        []string
	SystemProps    map[string]string
	JVMArgs        []string // pass-through JVM args
	AppArgs        []string
	AddClasspath   []string // extra --add-classpath entries, appended after jars/*
}

// BuildCommand constructs the argv for launching the JVM, in a fixed
// order: heap flags, GC flags, -D properties, pass-through JVM args,
// classpath/module-path, main class, app args.
func BuildCommand(opts CommandOptions) []string {
	args := []string{opts.JavaExecutable}

	if opts.HeapMinMB > 0 {
		args = append(args, fmt.Sprintf("-Xms%dm", opts.HeapMinMB))
	}
	maxMB := opts.HeapMaxMB
	if maxMB == 0 {
		maxMB = AutoHeapSizeMB()
	}
	if maxMB > 0 {
		args = append(args, fmt.Sprintf("-Xmx%dm", maxMB))
	}

	args = append(args, opts.GCFlags...)

	for _, key := range sortedKeys(opts.SystemProps) {
		args = append(args, "-D"+key+"="+opts.SystemProps[key])
	}

	args = append(args, opts.JVMArgs...)

	if opts.ModulesDir != "" {
		args = append(args, "--module-path", opts.ModulesDir, "--add-modules", "ALL-MODULE-PATH")
	}
	if cp := classpathEntries(opts.JarsDir, opts.AddClasspath); cp != "" {
		args = append(args, "-cp", cp)
	}

	if opts.ModuleTarget.ModuleName != "" {
		args = append(args, "--module", opts.ModuleTarget.ModuleName+"/"+opts.MainClass)
	} else {
		args = append(args, opts.MainClass)
	}

	args = append(args, opts.AppArgs...)
	return args
}

// classpathGlob returns the "jars/*"-style classpath entry with the
// OS-appropriate wildcard syntax, left for the JVM itself to expand
// rather than enumerated here (argv length is otherwise unbounded).
func classpathGlob(jarsDir string) string {
	sep := string(os.PathSeparator)
	return jarsDir + sep + "*"
}

// classpathEntries joins the jars/* glob (if any) with any --add-classpath
// paths the caller supplied, using the OS-appropriate -cp separator.
func classpathEntries(jarsDir string, extra []string) string {
	var entries []string
	if jarsDir != "" {
		entries = append(entries, classpathGlob(jarsDir))
	}
	entries = append(entries, extra...)
	return strings.Join(entries, ClasspathSeparator())
}

// ClasspathSeparator returns the OS path-list separator the JVM expects
// between -cp entries: ';' on Windows, ':' elsewhere.
func ClasspathSeparator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// AutoHeapSizeMB returns the default -Xmx in megabytes: half of physical
// RAM, capped at 8 GiB. It returns 0 (omit -Xmx) if memory could not be
// probed.
func AutoHeapSizeMB() int {
	v, err := mem.VirtualMemory()
	if err != nil {
		log.Warnf("jvm: could not probe physical memory for heap sizing: %v", err)
		return 0
	}
	half := v.Total / 2
	if half > maxAutoHeapBytes {
		half = maxAutoHeapBytes
	}
	return int(half / (1 << 20))
}

// Run execs the JVM command described by argv, streaming its stdio
// directly and forwarding ctx cancellation (e.g. Ctrl-C) as an interrupt
// to the child process. It returns the child's exit code.
func Run(ctx context.Context, argv []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	if len(argv) == 0 {
		return 0, fmt.Errorf("launch: empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("launch: running %s: %w", argv[0], err)
	}
	return 0, nil
}

// ParseHeapSize converts a user-supplied size string like "512m" or
// "2g" into a megabyte count, for constructing HeapMinMB/HeapMaxMB.
func ParseHeapSize(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, nil
	}
	mult := 1
	switch {
	case strings.HasSuffix(s, "g"):
		mult = 1024
		s = strings.TrimSuffix(s, "g")
	case strings.HasSuffix(s, "m"):
		s = strings.TrimSuffix(s, "m")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("launch: invalid heap size: %w", err)
	}
	return n * mult, nil
}
