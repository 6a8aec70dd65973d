// Package download resolves and fetches frida-server release artifacts
// from the frida GitHub releases. It doubles as the latest-version oracle
// consumed by the recommendation and automation layers.
package download

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/dustin/go-humanize"
	goversion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"
)

const (
	releasesAPI  = "https://api.github.com/repos/frida/frida/releases"
	downloadBase = "https://github.com/frida/frida/releases/download"

	httpTimeout = 30 * time.Second
	// Retry configuration for GitHub requests.
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second

	artifactDirPerm = 0o750
	artifactPerm    = 0o755
)

// ErrNotFound indicates the requested release artifact does not exist.
var ErrNotFound = errors.New("release artifact not found")

// Client talks to the frida release feed and caches extracted server
// binaries under dir. Already-extracted binaries are reused, so repeated
// installs of one version download once.
type Client struct {
	httpClient  *http.Client
	apiBase     string
	artifactURL string
	dir         string
	keep        bool
}

// New returns a Client caching artifacts under dir. When keep is true the
// compressed .xz files survive extraction.
func New(dir string, keep bool) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: httpTimeout},
		apiBase:     releasesAPI,
		artifactURL: downloadBase,
		dir:         dir,
		keep:        keep,
	}
}

type release struct {
	TagName    string `json:"tag_name"`
	Prerelease bool   `json:"prerelease"`
	Draft      bool   `json:"draft"`
}

// LatestVersion returns the newest published frida release, without the
// leading v.
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	var rel release
	err := retry.Do(func() error {
		return c.getJSON(ctx, c.apiBase+"/latest", &rel)
	}, retry.Attempts(maxRetries), retry.Delay(initialBackoff), retry.MaxDelay(maxBackoff))
	if err != nil {
		return "", fmt.Errorf("fetch latest frida release: %w", err)
	}
	v := strings.TrimPrefix(rel.TagName, "v")
	if v == "" {
		return "", errors.New("latest release has no tag")
	}
	log.Debugf("Latest frida release: %s", v)
	return v, nil
}

// AvailableVersions returns up to limit published release versions,
// newest first. Prereleases and drafts are skipped.
func (c *Client) AvailableVersions(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	var releases []release
	url := fmt.Sprintf("%s?per_page=%d", c.apiBase, limit)
	err := retry.Do(func() error {
		return c.getJSON(ctx, url, &releases)
	}, retry.Attempts(maxRetries), retry.Delay(initialBackoff), retry.MaxDelay(maxBackoff))
	if err != nil {
		return nil, fmt.Errorf("fetch frida releases: %w", err)
	}

	var parsed []*goversion.Version
	for _, rel := range releases {
		if rel.Prerelease || rel.Draft {
			continue
		}
		v, err := goversion.NewVersion(strings.TrimPrefix(rel.TagName, "v"))
		if err != nil {
			log.Debugf("Skipping unparsable release tag %q: %v", rel.TagName, err)
			continue
		}
		parsed = append(parsed, v)
	}
	sort.Sort(sort.Reverse(goversion.Collection(parsed)))

	versions := make([]string, 0, len(parsed))
	for _, v := range parsed {
		versions = append(versions, v.Original())
	}
	return versions, nil
}

// ArtifactName is the canonical file name of a server binary release.
func ArtifactName(version, arch string) string {
	return fmt.Sprintf("frida-server-%s-android-%s", version, arch)
}

// Fetch downloads and extracts the server binary for a version and
// architecture, returning the local path. Cached binaries are returned
// without touching the network.
func (c *Client) Fetch(ctx context.Context, version, arch string) (string, error) {
	name := ArtifactName(version, arch)
	binPath := filepath.Join(c.dir, name)
	if _, err := os.Stat(binPath); err == nil {
		log.Debugf("Using cached binary: %s", binPath)
		return binPath, nil
	}

	if err := os.MkdirAll(c.dir, artifactDirPerm); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s.xz", c.artifactURL, version, name)
	xzPath := binPath + ".xz"

	log.Infof("Downloading frida-server %s for %s", version, arch)
	start := time.Now()
	var size int64
	err := retry.Do(func() error {
		n, err := c.downloadFile(ctx, url, xzPath)
		if err != nil {
			return err
		}
		size = n
		return nil
	}, retry.Attempts(maxRetries), retry.Delay(initialBackoff), retry.MaxDelay(maxBackoff))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("%w: no frida-server %s for android-%s", ErrNotFound, version, arch)
		}
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	log.Infof("Downloaded %s (%s) in %v", name+".xz", humanize.Bytes(uint64(size)), time.Since(start).Round(time.Millisecond))

	if err := extractXZ(xzPath, binPath); err != nil {
		return "", fmt.Errorf("extract %s: %w", xzPath, err)
	}
	if !c.keep {
		if err := os.Remove(xzPath); err != nil {
			log.Warnf("Could not remove %s: %v", xzPath, err)
		}
	}

	log.Infof("Frida server ready: %s", binPath)
	return binPath, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnf("Error closing response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github returned status %d for %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) downloadFile(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnf("Error closing response body: %v", err)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return 0, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}

	n, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dest) //nolint:errcheck // partial file cleanup
		return 0, fmt.Errorf("write %s: %w", dest, err)
	}
	return n, nil
}

// extractXZ decompresses src into dst and marks it executable.
func extractXZ(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if err := in.Close(); err != nil {
			log.Warnf("Error closing %s: %v", src, err)
		}
	}()

	r, err := xz.NewReader(bufio.NewReader(in))
	if err != nil {
		return fmt.Errorf("open xz stream: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, artifactPerm)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, r)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst) //nolint:errcheck // partial file cleanup
		return err
	}
	return nil
}
