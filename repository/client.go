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

// Package repository implements the GET-only Maven repository protocol:
// POM, maven-metadata.xml and JAR retrieval against a local ~/.m2-style
// cache with fallback to one or more remote repositories.
package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mavenlaunch/jgo/log"
	"github.com/mavenlaunch/jgo/pom"
)

// ErrNotFound is returned when an artifact could not be obtained from any
// configured repository.
var ErrNotFound = errors.New("repository: not found")

// ErrOffline is returned when --offline forbids a network fetch that would
// otherwise have been attempted.
var ErrOffline = errors.New("repository: offline mode forbids network access")

// Registry is a single remote Maven repository.
type Registry struct {
	ID               string
	URL              string
	ReleasesEnabled  bool
	SnapshotsEnabled bool

	parsed *url.URL
}

// Central is Maven Central, the default registry when none is configured.
var Central = Registry{ID: "central", URL: "https://repo.maven.apache.org/maven2", ReleasesEnabled: true, SnapshotsEnabled: false}

// fetchResult is the outcome of resolving one repository-relative path:
// the complete local file, plus the SHA-256 computed while it streamed
// to disk (empty on a cache hit, where the body was never read).
type fetchResult struct {
	path   string
	sha256 string
}

// Client fetches POMs, maven-metadata.xml documents, and JARs, preferring
// a local repository cache and falling through configured remotes in
// declared order. Downloads stream to disk; response bodies are never
// buffered in memory.
type Client struct {
	HTTPClient *http.Client
	LocalCache string // local .m2-style repository root, e.g. ~/.m2/repository
	Offline    bool

	registries []Registry
	auth       map[string]*HTTPAuthentication

	responses *RequestCache[string, fetchResult]
	mu        sync.Mutex
	tmpCache  string // private download dir, created lazily when LocalCache is empty
}

// NewClient constructs a Client. localCache may be empty to disable
// persistent caching; downloads then land in a private per-run temp
// directory instead.
func NewClient(localCache string, registries []Registry, auth map[string]*HTTPAuthentication) *Client {
	if len(registries) == 0 {
		registries = []Registry{Central}
	}
	for i := range registries {
		if registries[i].parsed == nil {
			u, err := url.Parse(registries[i].URL)
			if err == nil {
				registries[i].parsed = u
			}
		}
	}
	return &Client{
		HTTPClient: http.DefaultClient,
		LocalCache: localCache,
		registries: registries,
		auth:       auth,
		responses:  NewRequestCache[string, fetchResult](),
	}
}

// AddRegistry appends a registry to the fetch order, if not already present.
func (c *Client) AddRegistry(r Registry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.registries {
		if existing.ID == r.ID {
			return
		}
	}
	if r.parsed == nil {
		if u, err := url.Parse(r.URL); err == nil {
			r.parsed = u
		}
	}
	c.registries = append(c.registries, r)
}

// repoPath builds the canonical Maven repository-relative path for an
// artifact: groupId (dots as slashes), artifactId, version, filename.
func repoPath(groupID, artifactID, version, filename string) string {
	return strings.Join([]string{strings.ReplaceAll(groupID, ".", "/"), artifactID, version, filename}, "/")
}

// ArtifactFilename builds the conventional Maven artifact filename:
// "<artifactId>-<version>[-<classifier>].<packaging>".
func ArtifactFilename(artifactID, version, classifier, packaging string) string {
	name := artifactID + "-" + version
	if classifier != "" {
		name += "-" + classifier
	}
	return name + "." + packaging
}

// cacheRoot returns the directory downloads land in: the configured
// local cache, or a lazily created private directory for --no-cache runs
// (the file must still exist on disk so the linker can materialize it).
func (c *Client) cacheRoot() (string, error) {
	if c.LocalCache != "" {
		return c.LocalCache, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tmpCache == "" {
		dir, err := os.MkdirTemp("", "jgo-cache-*")
		if err != nil {
			return "", fmt.Errorf("repository: creating download directory: %w", err)
		}
		c.tmpCache = dir
	}
	return c.tmpCache, nil
}

// Fetch resolves a repository-relative path to a complete local file,
// consulting the local cache first and then every configured remote
// registry in order. The first 200 OK wins; 404 continues to the next
// registry; other HTTP statuses are logged and treated as non-fatal
// misses for that registry.
func (c *Client) Fetch(ctx context.Context, path string) (string, error) {
	r, err := c.fetch(ctx, path)
	return r.path, err
}

func (c *Client) fetch(ctx context.Context, path string) (fetchResult, error) {
	root, err := c.cacheRoot()
	if err != nil {
		return fetchResult{}, err
	}
	local := filepath.Join(root, filepath.FromSlash(path))
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return fetchResult{path: local}, nil
	}

	if c.Offline {
		return fetchResult{}, fmt.Errorf("%w: %s", ErrOffline, path)
	}

	return c.responses.Get(path, func() (fetchResult, error) {
		return c.download(ctx, path, local)
	})
}

// fetchAttempts bounds the retries of a transient failure (transport
// error or 5xx) against a single registry before moving on to the next.
const fetchAttempts = 3

func (c *Client) download(ctx context.Context, path, dest string) (fetchResult, error) {
	var lastErr error
	for _, reg := range c.registries {
		if reg.parsed == nil {
			continue
		}
		u := reg.parsed.JoinPath(path).String()
		auth := c.auth[reg.ID]

		log.Infof("repository: fetching %s", u)
		sha, err := c.getWithRetry(ctx, auth, u, dest)
		if err == nil {
			return fetchResult{path: dest, sha256: sha}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			log.Warnf("repository: %s: %v", reg.ID, err)
			lastErr = err
		}
	}
	if lastErr != nil {
		return fetchResult{}, fmt.Errorf("%w: %s: %w", ErrNotFound, path, lastErr)
	}
	return fetchResult{}, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// getWithRetry issues the GET and streams a 200 body into dest, retrying
// transient faults (connection errors, 5xx, a failure mid-body) with a
// short linear backoff. A 404 is definitive for the registry and returns
// ErrNotFound without retrying. Returns the hex SHA-256 of the body.
func (c *Client) getWithRetry(ctx context.Context, auth *HTTPAuthentication, u, dest string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		resp, err := auth.Get(ctx, c.httpClient(), u)
		if err != nil {
			lastErr = err
			continue
		}
		switch {
		case resp.StatusCode == http.StatusOK:
			sha, err := streamTo(dest, resp.Body)
			if err != nil {
				lastErr = err
				continue
			}
			return sha, nil
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return "", fmt.Errorf("%w: %s", ErrNotFound, u)
		case resp.StatusCode >= 500:
			resp.Body.Close()
			lastErr = fmt.Errorf("repository: %s: status %d", u, resp.StatusCode)
		default:
			// Other statuses (401, 403, ...) are not transient; surface them
			// without burning the remaining attempts.
			resp.Body.Close()
			return "", fmt.Errorf("repository: %s: status %d", u, resp.StatusCode)
		}
	}
	return "", lastErr
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// streamTo copies body into a temp file beside dest, hashing as it
// copies, and renames it into place on success, so readers never observe
// a partially-written cache entry. Returns the hex SHA-256 of the body.
func streamTo(dest string, body io.ReadCloser) (string, error) {
	defer body.Close()
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	h := sha256.New()
	if _, err := io.Copy(tmp, io.TeeReader(body, h)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("downloading to %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing temp file %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("renaming %s to %s: %w", tmpName, dest, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// hashFile computes the hex SHA-256 of an already-cached file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("repository: opening %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("repository: hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// openFetched fetches a repository-relative path and opens the resulting
// local file for streaming reads.
func (c *Client) openFetched(ctx context.Context, path string) (*os.File, error) {
	p, err := c.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("repository: opening %s: %w", p, err)
	}
	return f, nil
}

// GetProject fetches and parses the POM for the given coordinate. For
// SNAPSHOT versions, the version-level maven-metadata.xml is consulted
// first to discover the timestamped filename.
func (c *Client) GetProject(ctx context.Context, groupID, artifactID, version string) (pom.Project, error) {
	filename := fmt.Sprintf("%s-%s.pom", artifactID, version)
	if strings.HasSuffix(version, "-SNAPSHOT") {
		if meta, err := c.GetVersionMetadata(ctx, groupID, artifactID, version); err == nil {
			if v, ok := meta.Versioning.ValueFor("", "pom"); ok {
				filename = fmt.Sprintf("%s-%s.pom", artifactID, v)
			}
		}
	}

	f, err := c.openFetched(ctx, repoPath(groupID, artifactID, version, filename))
	if err != nil {
		return pom.Project{}, err
	}
	defer f.Close()
	return pom.Parse(f)
}

// GetArtifactMetadata fetches the artifact-level maven-metadata.xml,
// used for RELEASE/LATEST/range resolution.
func (c *Client) GetArtifactMetadata(ctx context.Context, groupID, artifactID string) (pom.Metadata, error) {
	path := strings.Join([]string{strings.ReplaceAll(groupID, ".", "/"), artifactID, "maven-metadata.xml"}, "/")
	f, err := c.openFetched(ctx, path)
	if err != nil {
		return pom.Metadata{}, err
	}
	defer f.Close()
	return pom.ParseMetadata(f)
}

// GetVersionMetadata fetches the version-level maven-metadata.xml for a
// SNAPSHOT version, used to resolve the timestamped artifact filename.
func (c *Client) GetVersionMetadata(ctx context.Context, groupID, artifactID, version string) (pom.Metadata, error) {
	path := repoPath(groupID, artifactID, version, "maven-metadata.xml")
	f, err := c.openFetched(ctx, path)
	if err != nil {
		return pom.Metadata{}, err
	}
	defer f.Close()
	return pom.ParseMetadata(f)
}

// GetArtifactFile fetches the raw artifact file (JAR, etc.) for the given
// coordinate and resolved (possibly timestamped) filename, returning the
// complete local file's path and its SHA-256 checksum. The checksum
// falls out of the download stream when the fetch went to the network;
// a cache hit re-reads the file to hash it.
func (c *Client) GetArtifactFile(ctx context.Context, groupID, artifactID, version, filename string) (string, string, error) {
	r, err := c.fetch(ctx, repoPath(groupID, artifactID, version, filename))
	if err != nil {
		return "", "", err
	}
	if r.sha256 == "" {
		sha, err := hashFile(r.path)
		if err != nil {
			return "", "", err
		}
		r.sha256 = sha
	}
	return r.path, r.sha256, nil
}
