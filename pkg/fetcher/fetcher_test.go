//go:build unit
// +build unit

package fetcher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cryptellation/depscout/pkg/adapters/advisories"
	"github.com/cryptellation/depscout/pkg/adapters/npm"
	"github.com/cryptellation/depscout/pkg/adapters/registry"
)

type testFetcher struct {
	Fetcher      *Fetcher
	MockRegistry *registry.MockClient
	MockManager  *npm.MockManager
	MockAdvisory *advisories.MockClient
}

func newTestFetcher(t *testing.T, opts Options) *testFetcher {
	ctrl := gomock.NewController(t)
	mockRegistry := registry.NewMockClient(ctrl)
	mockManager := npm.NewMockManager(ctrl)
	mockAdvisory := advisories.NewMockClient(ctrl)

	return &testFetcher{
		Fetcher:      New(mockRegistry, mockManager, mockAdvisory, opts),
		MockRegistry: mockRegistry,
		MockManager:  mockManager,
		MockAdvisory: mockAdvisory,
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

func TestPublishedVersions_SingleQueryPerTTLWindow(t *testing.T) {
	tf := newTestFetcher(t, Options{})
	published := mustVersions(t, "1.0.0", "1.0.1")

	tf.MockRegistry.EXPECT().
		PublishedVersions(gomock.Any(), "lodash").
		Return(published, nil).
		Times(1)

	ctx := context.Background()
	first, err := tf.Fetcher.PublishedVersions(ctx, "lodash")
	require.NoError(t, err)

	second, err := tf.Fetcher.PublishedVersions(ctx, "lodash")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestPublishedVersions_ConcurrentCallsShareOneQuery(t *testing.T) {
	tf := newTestFetcher(t, Options{ConcurrencyLimit: 2})
	published := mustVersions(t, "1.0.0")

	release := make(chan struct{})
	tf.MockRegistry.EXPECT().
		PublishedVersions(gomock.Any(), "lodash").
		DoAndReturn(func(context.Context, string) ([]*semver.Version, error) {
			<-release
			return published, nil
		}).
		Times(1)

	var wg sync.WaitGroup
	results := make([][]*semver.Version, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vs, err := tf.Fetcher.PublishedVersions(context.Background(), "lodash")
			require.NoError(t, err)
			results[i] = vs
		}(i)
	}
	close(release)
	wg.Wait()

	for _, vs := range results {
		require.Equal(t, published, vs)
	}
}

func TestPublishedVersions_FailureRetriesImmediately(t *testing.T) {
	tf := newTestFetcher(t, Options{})
	published := mustVersions(t, "1.0.0")

	gomock.InOrder(
		tf.MockRegistry.EXPECT().
			PublishedVersions(gomock.Any(), "lodash").
			Return(nil, errors.New("registry unreachable")),
		tf.MockRegistry.EXPECT().
			PublishedVersions(gomock.Any(), "lodash").
			Return(published, nil),
	)

	ctx := context.Background()
	_, err := tf.Fetcher.PublishedVersions(ctx, "lodash")
	require.Error(t, err)

	// The poisoned entry was discarded: the retry does not wait out the TTL.
	vs, err := tf.Fetcher.PublishedVersions(ctx, "lodash")
	require.NoError(t, err)
	require.Equal(t, published, vs)
}

func TestInstalledVersions_AbsentOnFailure(t *testing.T) {
	tf := newTestFetcher(t, Options{})

	tf.MockManager.EXPECT().
		InstalledVersions(gomock.Any(), "/proj").
		Return(nil, errors.New("npm not found"))

	_, ok := tf.Fetcher.InstalledVersions(context.Background(), "/proj")
	require.False(t, ok)
}

func TestInstalledVersions_SharedSnapshot(t *testing.T) {
	tf := newTestFetcher(t, Options{})
	installed := map[string]*semver.Version{
		"lodash": semver.MustParse("1.0.0"),
	}

	tf.MockManager.EXPECT().
		InstalledVersions(gomock.Any(), "/proj").
		Return(installed, nil).
		Times(1)

	ctx := context.Background()
	first, ok := tf.Fetcher.InstalledVersions(ctx, "/proj")
	require.True(t, ok)
	second, ok := tf.Fetcher.InstalledVersions(ctx, "/proj")
	require.True(t, ok)
	require.Equal(t, first, second)
}

func TestAdvisories_CachedPerName(t *testing.T) {
	tf := newTestFetcher(t, Options{})
	records := []advisories.Record{{VulnerableRange: "<1.0.2", Score: 7.5}}

	tf.MockAdvisory.EXPECT().
		Advisories(gomock.Any(), "lodash").
		Return(records, nil).
		Times(1)

	ctx := context.Background()
	first, err := tf.Fetcher.Advisories(ctx, "lodash")
	require.NoError(t, err)
	second, err := tf.Fetcher.Advisories(ctx, "lodash")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestPublishedVersions_CallerCancellationDoesNotPoisonOthers(t *testing.T) {
	tf := newTestFetcher(t, Options{})
	published := mustVersions(t, "1.0.0")

	release := make(chan struct{})
	tf.MockRegistry.EXPECT().
		PublishedVersions(gomock.Any(), "lodash").
		DoAndReturn(func(context.Context, string) ([]*semver.Version, error) {
			<-release
			return published, nil
		}).
		Times(1)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	// The cancelled caller gives up waiting, but the lookup itself survives.
	_, err := tf.Fetcher.PublishedVersions(cancelled, "lodash")
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	vs, err := tf.Fetcher.PublishedVersions(context.Background(), "lodash")
	require.NoError(t, err)
	require.Equal(t, published, vs)
}
