//go:generate go run go.uber.org/mock/mockgen@v0.5.2 -source=client.go -destination=mock.gen.go -package=registry
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	xsemver "golang.org/x/mod/semver"
)

// DefaultBaseURL is the public npm registry.
const DefaultBaseURL = "https://registry.npmjs.org"

const requestTimeout = 15 * time.Second

// Client defines the interface for querying the package registry.
type Client interface {
	// PublishedVersions returns every valid published version of the named
	// package, in ascending order.
	PublishedVersions(ctx context.Context, name string) ([]*semver.Version, error)
}

// client implements Client against the npm registry HTTP API.
type client struct {
	http    *http.Client
	baseURL string
}

// New creates a registry client. An empty baseURL selects the public registry.
func New(baseURL string) Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &client{
		http:    &http.Client{Timeout: requestTimeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// packument is the abbreviated registry metadata document for one package.
type packument struct {
	Name     string                     `json:"name"`
	Versions map[string]json.RawMessage `json:"versions"`
}

// PublishedVersions fetches the packument for name and returns its version
// set. Version keys that are not valid semantic versions are dropped, the
// same way non-semver tags are ignored during version detection.
func (c *client) PublishedVersions(ctx context.Context, name string) ([]*semver.Version, error) {
	// Scoped names must keep the slash escaped inside the path.
	u := c.baseURL + "/" + url.PathEscape(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry request for %s: %w", name, err)
	}
	// The abbreviated packument omits readmes and per-version metadata blobs.
	req.Header.Set("Accept", "application/vnd.npm.install-v1+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request for %s failed: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d for %s", resp.StatusCode, name)
	}

	var doc packument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode packument for %s: %w", name, err)
	}

	return parseVersionSet(doc.Versions), nil
}

// parseVersionSet converts packument version keys into an ascending version
// set, dropping anything that is not valid semver.
func parseVersionSet(keys map[string]json.RawMessage) []*semver.Version {
	versions := make([]*semver.Version, 0, len(keys))
	for key := range keys {
		if !xsemver.IsValid("v" + key) {
			continue
		}
		v, err := semver.NewVersion(key)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].LessThan(versions[j])
	})
	return versions
}
