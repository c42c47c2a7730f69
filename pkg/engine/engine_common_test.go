//go:build unit
// +build unit

package engine

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cryptellation/depscout/pkg/adapters/advisories"
	"github.com/cryptellation/depscout/pkg/adapters/npm"
	"github.com/cryptellation/depscout/pkg/adapters/registry"
	"github.com/cryptellation/depscout/pkg/fetcher"
	"github.com/cryptellation/depscout/pkg/manifest"
	"github.com/cryptellation/depscout/pkg/status"
)

// TestEngine contains all the mocks and the engine instance for testing.
type TestEngine struct {
	Engine         *Engine
	MockController *gomock.Controller
	MockRegistry   *registry.MockClient
	MockManager    *npm.MockManager
	MockAdvisory   *advisories.MockClient
	Results        chan map[string]Report
}

// newTestEngine creates a TestEngine instance with all mocked collaborators.
func newTestEngine(t *testing.T, policy status.Policy) *TestEngine {
	ctrl := gomock.NewController(t)

	mockRegistry := registry.NewMockClient(ctrl)
	mockManager := npm.NewMockManager(ctrl)
	mockAdvisory := advisories.NewMockClient(ctrl)

	results := make(chan map[string]Report, 4)
	f := fetcher.New(mockRegistry, mockManager, mockAdvisory, fetcher.Options{})
	e := New(f, policy, 0, 0, func(reports map[string]Report) {
		results <- reports
	})

	return &TestEngine{
		Engine:         e,
		MockController: ctrl,
		MockRegistry:   mockRegistry,
		MockManager:    mockManager,
		MockAdvisory:   mockAdvisory,
		Results:        results,
	}
}

func defaultTestPolicy() status.Policy {
	return status.Policy{
		MajorUpdateProtection: true,
		MinimumBumpLevel:      status.BumpPatch,
	}
}

func mustVersions(t *testing.T, raw ...string) []*semver.Version {
	t.Helper()
	vs := make([]*semver.Version, 0, len(raw))
	for _, r := range raw {
		v, err := semver.NewVersion(r)
		require.NoError(t, err)
		vs = append(vs, v)
	}
	return vs
}

func declared(name, rawRange string) manifest.DeclaredDependency {
	return manifest.DeclaredDependency{
		Name:     name,
		RawRange: rawRange,
		Section:  manifest.SectionDependencies,
	}
}
