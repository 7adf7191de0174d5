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

package repository_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mavenlaunch/jgo/repository"
)

func mockServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[path.Clean(r.URL.Path)]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetProject(t *testing.T) {
	srv := mockServer(t, map[string]string{
		"/org/example/thing/1.0/thing-1.0.pom": `<project>
  <groupId>org.example</groupId>
  <artifactId>thing</artifactId>
  <version>1.0</version>
</project>`,
	})

	client := repository.NewClient("", []repository.Registry{{ID: "test", URL: srv.URL, ReleasesEnabled: true}}, nil)

	project, err := client.GetProject(context.Background(), "org.example", "thing", "1.0")
	if err != nil {
		t.Fatalf("GetProject returned error: %v", err)
	}
	if project.ArtifactID != "thing" {
		t.Errorf("ArtifactID = %q, want %q", project.ArtifactID, "thing")
	}
}

func TestGetProject_NotFound(t *testing.T) {
	srv := mockServer(t, map[string]string{})
	client := repository.NewClient("", []repository.Registry{{ID: "test", URL: srv.URL, ReleasesEnabled: true}}, nil)

	if _, err := client.GetProject(context.Background(), "org.example", "missing", "1.0"); err == nil {
		t.Errorf("GetProject() = nil error, want error")
	}
}

func TestGetArtifactMetadata(t *testing.T) {
	srv := mockServer(t, map[string]string{
		"/org/example/thing/maven-metadata.xml": `<metadata>
  <groupId>org.example</groupId>
  <artifactId>thing</artifactId>
  <versioning>
    <release>2.0</release>
    <latest>2.0</latest>
    <versions>
      <version>1.0</version>
      <version>2.0</version>
    </versions>
  </versioning>
</metadata>`,
	})

	client := repository.NewClient("", []repository.Registry{{ID: "test", URL: srv.URL, ReleasesEnabled: true}}, nil)
	meta, err := client.GetArtifactMetadata(context.Background(), "org.example", "thing")
	if err != nil {
		t.Fatalf("GetArtifactMetadata returned error: %v", err)
	}
	if meta.Versioning.Release != "2.0" {
		t.Errorf("Versioning.Release = %q, want %q", meta.Versioning.Release, "2.0")
	}
	if len(meta.Versioning.Versions) != 2 {
		t.Errorf("len(Versioning.Versions) = %d, want 2", len(meta.Versioning.Versions))
	}
}

func TestGetArtifactFile_StreamsToDiskWithChecksum(t *testing.T) {
	body := "jar bytes"
	srv := mockServer(t, map[string]string{
		"/org/example/thing/1.0/thing-1.0.jar": body,
	})
	cache := t.TempDir()
	client := repository.NewClient(cache, []repository.Registry{{ID: "test", URL: srv.URL, ReleasesEnabled: true}}, nil)

	path, sha, err := client.GetArtifactFile(context.Background(), "org.example", "thing", "1.0", "thing-1.0.jar")
	if err != nil {
		t.Fatalf("GetArtifactFile returned error: %v", err)
	}

	want := filepath.Join(cache, "org", "example", "thing", "1.0", "thing-1.0.jar")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%q) returned error: %v", path, err)
	}
	if string(got) != body {
		t.Errorf("cached file contents = %q, want %q", got, body)
	}

	sum := sha256.Sum256([]byte(body))
	if wantSHA := hex.EncodeToString(sum[:]); sha != wantSHA {
		t.Errorf("sha256 = %q, want %q", sha, wantSHA)
	}

	// A second call hits the cache; the checksum must come out identical
	// even though the body is no longer streamed from the network.
	srv.Close()
	path2, sha2, err := client.GetArtifactFile(context.Background(), "org.example", "thing", "1.0", "thing-1.0.jar")
	if err != nil {
		t.Fatalf("GetArtifactFile (cache hit) returned error: %v", err)
	}
	if path2 != path || sha2 != sha {
		t.Errorf("cache hit = (%q, %q), want (%q, %q)", path2, sha2, path, sha)
	}
}

func TestFetch_PartialFilesNeverAppear(t *testing.T) {
	srv := mockServer(t, map[string]string{
		"/org/example/thing/1.0/thing-1.0.pom": `<project><groupId>g</groupId><artifactId>a</artifactId><version>1.0</version></project>`,
	})
	cache := t.TempDir()
	client := repository.NewClient(cache, []repository.Registry{{ID: "test", URL: srv.URL, ReleasesEnabled: true}}, nil)

	if _, err := client.Fetch(context.Background(), "org/example/thing/1.0/thing-1.0.pom"); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	var leftover []string
	err := filepath.WalkDir(cache, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasPrefix(d.Name(), ".tmp-") {
			leftover = append(leftover, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir returned error: %v", err)
	}
	if len(leftover) != 0 {
		t.Errorf("temp files left in cache after a completed fetch: %v", leftover)
	}
}

func TestOffline(t *testing.T) {
	srv := mockServer(t, map[string]string{
		"/org/example/thing/1.0/thing-1.0.pom": `<project><groupId>g</groupId><artifactId>a</artifactId><version>1.0</version></project>`,
	})
	client := repository.NewClient("", []repository.Registry{{ID: "test", URL: srv.URL, ReleasesEnabled: true}}, nil)
	client.Offline = true

	if _, err := client.GetProject(context.Background(), "org.example", "thing", "1.0"); err == nil {
		t.Errorf("GetProject() in offline mode = nil error, want error")
	}
}
