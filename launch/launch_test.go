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

package launch_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mavenlaunch/jgo/jarfile"
	"github.com/mavenlaunch/jgo/launch"
)

func TestResolveMainClass_ExplicitFlag(t *testing.T) {
	got, err := launch.ResolveMainClass(launch.MainClassOptions{ExplicitFlag: "com.example.Main"})
	if err != nil {
		t.Fatalf("ResolveMainClass returned error: %v", err)
	}
	if got != "com.example.Main" {
		t.Errorf("ResolveMainClass() = %q, want com.example.Main", got)
	}
}

func TestResolveMainClass_SuffixVerbatimWithDot(t *testing.T) {
	got, err := launch.ResolveMainClass(launch.MainClassOptions{Suffix: "com.example.App"})
	if err != nil {
		t.Fatalf("ResolveMainClass returned error: %v", err)
	}
	if got != "com.example.App" {
		t.Errorf("ResolveMainClass() = %q, want com.example.App", got)
	}
}

func TestResolveMainClass_SuffixScan(t *testing.T) {
	opts := launch.MainClassOptions{
		Suffix: "App",
		ResolutionOrder: []launch.ArtifactClasses{
			{Path: "first.jar", Classes: map[string]string{"Other": "com.example.Other"}},
			{Path: "second.jar", Classes: map[string]string{"App": "com.example.App"}},
		},
	}
	got, err := launch.ResolveMainClass(opts)
	if err != nil {
		t.Fatalf("ResolveMainClass returned error: %v", err)
	}
	if got != "com.example.App" {
		t.Errorf("ResolveMainClass() = %q, want com.example.App", got)
	}
}

func TestResolveMainClass_Entrypoint(t *testing.T) {
	opts := launch.MainClassOptions{Entrypoints: map[string]string{"default": "com.example.Main"}}
	got, err := launch.ResolveMainClass(opts)
	if err != nil {
		t.Fatalf("ResolveMainClass returned error: %v", err)
	}
	if got != "com.example.Main" {
		t.Errorf("ResolveMainClass() = %q, want com.example.Main", got)
	}
}

func TestResolveMainClass_ManifestFallback(t *testing.T) {
	m, err := jarfile.ParseManifest(strings.NewReader("Main-Class: com.example.Manifested\n\n"))
	if err != nil {
		t.Fatalf("ParseManifest returned error: %v", err)
	}
	got, err := launch.ResolveMainClass(launch.MainClassOptions{PrimaryManifest: m})
	if err != nil {
		t.Fatalf("ResolveMainClass returned error: %v", err)
	}
	if got != "com.example.Manifested" {
		t.Errorf("ResolveMainClass() = %q, want com.example.Manifested", got)
	}
}

func TestResolveMainClass_NotFound(t *testing.T) {
	_, err := launch.ResolveMainClass(launch.MainClassOptions{})
	if err == nil {
		t.Error("ResolveMainClass returned nil error when nothing resolves")
	}
}

func TestBuildCommand(t *testing.T) {
	argv := launch.BuildCommand(launch.CommandOptions{
		JavaExecutable: "/opt/jdk/bin/java",
		JarsDir:        "jars",
		HeapMaxMB:      512,
		SystemProps:    map[string]string{"foo": "bar"},
		MainClass:      "com.example.Main",
		AppArgs:        []string{"--flag"},
	})

	want := []string{
		"/opt/jdk/bin/java",
		"-Xmx512m",
		"-Dfoo=bar",
		"-cp", "jars/*",
		"com.example.Main",
		"--flag",
	}
	if diff := cmp.Diff(want, argv); diff != "" {
		t.Errorf("BuildCommand mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCommand_Module(t *testing.T) {
	argv := launch.BuildCommand(launch.CommandOptions{
		JavaExecutable: "java",
		ModulesDir:     "modules",
		HeapMaxMB:      256,
		MainClass:      "com.example.Main",
		ModuleTarget:   launch.ModuleTarget{ModuleName: "com.example"},
	})

	want := []string{
		"java",
		"-Xmx256m",
		"--module-path", "modules", "--add-modules", "ALL-MODULE-PATH",
		"--module", "com.example/com.example.Main",
	}
	if diff := cmp.Diff(want, argv); diff != "" {
		t.Errorf("BuildCommand mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCommand_AddClasspath(t *testing.T) {
	argv := launch.BuildCommand(launch.CommandOptions{
		JavaExecutable: "java",
		JarsDir:        "jars",
		HeapMaxMB:      256,
		MainClass:      "com.example.Main",
		AddClasspath:   []string{"/extra/a.jar", "/extra/b.jar"},
	})

	want := []string{
		"java",
		"-Xmx256m",
		"-cp", "jars/*" + launch.ClasspathSeparator() + "/extra/a.jar" + launch.ClasspathSeparator() + "/extra/b.jar",
		"com.example.Main",
	}
	if diff := cmp.Diff(want, argv); diff != "" {
		t.Errorf("BuildCommand mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCommand_AddClasspathWithoutJarsDir(t *testing.T) {
	argv := launch.BuildCommand(launch.CommandOptions{
		JavaExecutable: "java",
		HeapMaxMB:      256,
		MainClass:      "com.example.Main",
		AddClasspath:   []string{"/extra/a.jar"},
	})

	want := []string{
		"java",
		"-Xmx256m",
		"-cp", "/extra/a.jar",
		"com.example.Main",
	}
	if diff := cmp.Diff(want, argv); diff != "" {
		t.Errorf("BuildCommand mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHeapSize(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"512m", 512},
		{"2g", 2048},
	}
	for _, tt := range tests {
		got, err := launch.ParseHeapSize(tt.in)
		if err != nil {
			t.Fatalf("ParseHeapSize(%q) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseHeapSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRun_NonexistentBinary(t *testing.T) {
	_, err := launch.Run(context.Background(), []string{"/nonexistent/jgo-test-binary"}, nil, discard{}, discard{})
	if err == nil {
		t.Error("Run returned nil error for a nonexistent binary")
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
