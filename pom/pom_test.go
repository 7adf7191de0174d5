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

package pom_test

import (
	"strings"
	"testing"

	"github.com/mavenlaunch/jgo/pom"
)

const childXML = `<project>
  <parent>
    <groupId>org.example</groupId>
    <artifactId>parent</artifactId>
    <version>1.0</version>
  </parent>
  <artifactId>child</artifactId>
  <properties>
    <guava.version>31.1-jre</guava.version>
  </properties>
  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>guava</artifactId>
      <version>${guava.version}</version>
    </dependency>
  </dependencies>
</project>`

const parentXML = `<project>
  <groupId>org.example</groupId>
  <artifactId>parent</artifactId>
  <version>1.0</version>
  <packaging>pom</packaging>
  <properties>
    <common.version>1.2</common.version>
  </properties>
  <dependencyManagement>
    <dependencies>
      <dependency>
        <groupId>commons-io</groupId>
        <artifactId>commons-io</artifactId>
        <version>${common.version}</version>
      </dependency>
    </dependencies>
  </dependencyManagement>
</project>`

func TestParse(t *testing.T) {
	p, err := pom.Parse(strings.NewReader(childXML))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if p.ArtifactID != "child" {
		t.Errorf("ArtifactID = %q, want %q", p.ArtifactID, "child")
	}
	if len(p.Dependencies) != 1 {
		t.Fatalf("len(Dependencies) = %d, want 1", len(p.Dependencies))
	}
}

func TestMergeParentAndInterpolate(t *testing.T) {
	child, err := pom.Parse(strings.NewReader(childXML))
	if err != nil {
		t.Fatalf("Parse(child) returned error: %v", err)
	}
	parent, err := pom.Parse(strings.NewReader(parentXML))
	if err != nil {
		t.Fatalf("Parse(parent) returned error: %v", err)
	}

	merged := pom.MergeParent(child, parent)
	if merged.EffectiveGroupID() != "org.example" {
		t.Errorf("EffectiveGroupID() = %q, want %q", merged.EffectiveGroupID(), "org.example")
	}
	if merged.EffectiveVersion() != "1.0" {
		t.Errorf("EffectiveVersion() = %q, want %q", merged.EffectiveVersion(), "1.0")
	}
	if len(merged.DependencyManagement) != 1 {
		t.Fatalf("len(DependencyManagement) = %d, want 1", len(merged.DependencyManagement))
	}

	resolved, err := pom.Interpolate(merged, false)
	if err != nil {
		t.Fatalf("Interpolate returned error: %v", err)
	}
	if resolved.Dependencies[0].Version != "31.1-jre" {
		t.Errorf("Dependencies[0].Version = %q, want %q", resolved.Dependencies[0].Version, "31.1-jre")
	}
	if resolved.DependencyManagement[0].Version != "1.2" {
		t.Errorf("DependencyManagement[0].Version = %q, want %q", resolved.DependencyManagement[0].Version, "1.2")
	}
}

func TestInterpolateUnresolvedIsFatalUnlessLenient(t *testing.T) {
	p, err := pom.Parse(strings.NewReader(`<project>
  <groupId>g</groupId>
  <artifactId>a</artifactId>
  <version>${missing.prop}</version>
</project>`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if _, err := pom.Interpolate(p, false); err == nil {
		t.Errorf("Interpolate(lenient=false) = nil error, want error")
	}
	if _, err := pom.Interpolate(p, true); err != nil {
		t.Errorf("Interpolate(lenient=true) returned error: %v", err)
	}
}

func TestInterpolateEnvironmentProperty(t *testing.T) {
	t.Setenv("JGO_TEST_LIB_VERSION", "2.5")

	p, err := pom.Parse(strings.NewReader(`<project>
  <groupId>g</groupId>
  <artifactId>a</artifactId>
  <version>1.0</version>
  <dependencies>
    <dependency>
      <groupId>org.example</groupId>
      <artifactId>lib</artifactId>
      <version>${env.JGO_TEST_LIB_VERSION}</version>
    </dependency>
  </dependencies>
</project>`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	resolved, err := pom.Interpolate(p, false)
	if err != nil {
		t.Fatalf("Interpolate returned error: %v", err)
	}
	if resolved.Dependencies[0].Version != "2.5" {
		t.Errorf("Dependencies[0].Version = %q, want %q", resolved.Dependencies[0].Version, "2.5")
	}
}

func TestImportBOM(t *testing.T) {
	project, err := pom.Parse(strings.NewReader(`<project>
  <groupId>g</groupId>
  <artifactId>a</artifactId>
  <version>1.0</version>
</project>`))
	if err != nil {
		t.Fatalf("Parse(project) returned error: %v", err)
	}
	bom, err := pom.Parse(strings.NewReader(parentXML))
	if err != nil {
		t.Fatalf("Parse(bom) returned error: %v", err)
	}

	merged := pom.ImportBOM(project, bom)
	if len(merged.DependencyManagement) != 1 {
		t.Fatalf("len(DependencyManagement) = %d, want 1", len(merged.DependencyManagement))
	}
	if merged.DependencyManagement[0].ArtifactID != "commons-io" {
		t.Errorf("DependencyManagement[0].ArtifactID = %q, want %q", merged.DependencyManagement[0].ArtifactID, "commons-io")
	}
}
