//go:generate go run go.uber.org/mock/mockgen@v0.5.2 -source=manager.go -destination=mock.gen.go -package=npm
package npm

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/Masterminds/semver/v3"
)

// Manager defines the interface for querying the package manager about
// currently installed versions.
type Manager interface {
	// InstalledVersions returns the direct installed packages of the project
	// rooted at projectRoot, keyed by package name.
	InstalledVersions(ctx context.Context, projectRoot string) (map[string]*semver.Version, error)
}

// manager implements Manager by invoking the npm binary.
type manager struct{}

// New creates a Manager backed by the npm CLI.
func New() Manager {
	return &manager{}
}

// listOutput mirrors the `npm ls --json` tree, limited to the top level.
type listOutput struct {
	Dependencies map[string]struct {
		Version string `json:"version"`
	} `json:"dependencies"`
}

// InstalledVersions runs `npm ls --json --depth=0` in projectRoot. npm exits
// non-zero on peer or extraneous problems but still emits the tree, so the
// exit code only matters when no output was produced at all.
func (m *manager) InstalledVersions(ctx context.Context, projectRoot string) (map[string]*semver.Version, error) {
	cmd := exec.CommandContext(ctx, "npm", "ls", "--json", "--depth=0")
	cmd.Dir = projectRoot

	out, err := cmd.Output()
	if len(out) == 0 {
		if err != nil {
			return nil, fmt.Errorf("npm ls failed in %s: %w", projectRoot, err)
		}
		return nil, fmt.Errorf("npm ls produced no output in %s", projectRoot)
	}

	return parseList(out)
}

func parseList(out []byte) (map[string]*semver.Version, error) {
	var doc listOutput
	if err := json.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse npm ls output: %w", err)
	}

	installed := make(map[string]*semver.Version, len(doc.Dependencies))
	for name, entry := range doc.Dependencies {
		// Unmet or linked dependencies have no version field.
		if entry.Version == "" {
			continue
		}
		v, err := semver.NewVersion(entry.Version)
		if err != nil {
			continue
		}
		installed[name] = v
	}
	return installed, nil
}
