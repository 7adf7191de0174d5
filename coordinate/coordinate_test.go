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

package coordinate_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mavenlaunch/jgo/coordinate"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want coordinate.Endpoint
	}{
		{
			name: "simple",
			in:   "org.scijava:parsington:3.1.0",
			want: coordinate.Endpoint{Coordinates: []coordinate.Coordinate{
				{GroupID: "org.scijava", ArtifactID: "parsington", Version: "3.1.0"},
			}},
		},
		{
			name: "concatenation with main class",
			in:   "org.scijava:scijava-common:2.96.0+org.scijava:scripting-jython@ScriptREPL",
			want: coordinate.Endpoint{
				Coordinates: []coordinate.Coordinate{
					{GroupID: "org.scijava", ArtifactID: "scijava-common", Version: "2.96.0"},
					{GroupID: "org.scijava", ArtifactID: "scripting-jython"},
				},
				MainClass: "ScriptREPL",
			},
		},
		{
			name: "classifier and packaging",
			in:   "g:a:1.0:linux-x86_64:nar",
			want: coordinate.Endpoint{Coordinates: []coordinate.Coordinate{
				{GroupID: "g", ArtifactID: "a", Version: "1.0", Classifier: "linux-x86_64", Packaging: "nar"},
			}},
		},
		{
			name: "module-path placement",
			in:   "org.slf4j:slf4j-api:2.0.9(m)",
			want: coordinate.Endpoint{Coordinates: []coordinate.Coordinate{
				{GroupID: "org.slf4j", ArtifactID: "slf4j-api", Version: "2.0.9", Placement: coordinate.PlacementModulePath},
			}},
		},
		{
			name: "exclusions and no-managed-import",
			in:   "g:a:1.0(x:g2:a2,x:g3:a3)!",
			want: coordinate.Endpoint{Coordinates: []coordinate.Coordinate{
				{
					GroupID: "g", ArtifactID: "a", Version: "1.0",
					Exclusions:      []coordinate.GA{{GroupID: "g2", ArtifactID: "a2"}, {GroupID: "g3", ArtifactID: "a3"}},
					NoManagedImport: true,
				},
			}},
		},
		{
			name: "global exclusion marker",
			in:   "g:a(x)",
			want: coordinate.Endpoint{Coordinates: []coordinate.Coordinate{
				{GroupID: "g", ArtifactID: "a", GlobalExclusion: true},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coordinate.Parse(tt.in, nil)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.in, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParse_Shortcut(t *testing.T) {
	shortcuts := map[string]string{"jython": "org.python:jython-standalone"}
	got, err := coordinate.Parse("jython:2.7.3", shortcuts)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	want := coordinate.Endpoint{Coordinates: []coordinate.Coordinate{
		{GroupID: "org.python", ArtifactID: "jython-standalone", Version: "2.7.3"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		"",
		"g",
		"g:a(c,m)",
		"g:a(bogus)",
		"g:a@Main@Other",
		"g:a@Main+g2:a2",
		"g:a(unterminated",
	}
	for _, in := range tests {
		if _, err := coordinate.Parse(in, nil); err == nil {
			t.Errorf("Parse(%q) = nil error, want error", in)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"org.scijava:parsington:3.1.0",
		"g:a:1.0:cls:war(m)!",
		"g:a(x:g2:a2)",
	}
	for _, in := range inputs {
		e, err := coordinate.Parse(in, nil)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", in, err)
		}
		e2, err := coordinate.Parse(e.String(), nil)
		if err != nil {
			t.Fatalf("Parse(Parse(%q).String()) returned error: %v", in, err)
		}
		if diff := cmp.Diff(e, e2); diff != "" {
			t.Errorf("round trip mismatch for %q (-first +second):\n%s", in, diff)
		}
	}
}
