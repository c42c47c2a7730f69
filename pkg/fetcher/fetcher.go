// Package fetcher is the cached access layer in front of the registry, the
// package manager and the advisory database. Concurrent requests for the
// same key share one in-flight lookup, lookups run under the concurrency
// gate, and a failed lookup discards its cache entry so the next caller
// retries immediately.
package fetcher

import (
	"context"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/cryptellation/depscout/pkg/adapters/advisories"
	"github.com/cryptellation/depscout/pkg/adapters/npm"
	"github.com/cryptellation/depscout/pkg/adapters/registry"
	"github.com/cryptellation/depscout/pkg/cache"
	"github.com/cryptellation/depscout/pkg/gate"
	"github.com/cryptellation/depscout/pkg/logging"
)

// Installed versions change far less often than the engine is invoked, but
// they do change outside of it; a short fixed TTL keeps the snapshot honest.
const installedTTL = time.Minute

// Options configures the fetch layer.
type Options struct {
	// VersionsTTL bounds how long a published version set is reused.
	VersionsTTL time.Duration
	// AdvisoriesTTL bounds how long an advisory set is reused.
	AdvisoriesTTL time.Duration
	// ConcurrencyLimit bounds simultaneous external lookups; zero means
	// unbounded.
	ConcurrencyLimit int64
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		VersionsTTL:   30 * time.Minute,
		AdvisoriesTTL: 30 * time.Minute,
	}
}

// Fetcher owns the process-wide caches. Create one per process and share it.
type Fetcher struct {
	registry registry.Client
	manager  npm.Manager
	advisory advisories.Client
	gate     *gate.Gate
	opts     Options

	versions  *cache.Cache[string, []*semver.Version]
	installed *cache.Cache[string, map[string]*semver.Version]
	records   *cache.Cache[string, []advisories.Record]
}

// New creates a fetch layer over the three collaborators.
func New(reg registry.Client, mgr npm.Manager, adv advisories.Client, opts Options) *Fetcher {
	if opts.VersionsTTL <= 0 {
		opts.VersionsTTL = DefaultOptions().VersionsTTL
	}
	if opts.AdvisoriesTTL <= 0 {
		opts.AdvisoriesTTL = DefaultOptions().AdvisoriesTTL
	}
	return &Fetcher{
		registry:  reg,
		manager:   mgr,
		advisory:  adv,
		gate:      gate.New(opts.ConcurrencyLimit),
		opts:      opts,
		versions:  cache.New[string, []*semver.Version](),
		installed: cache.New[string, map[string]*semver.Version](),
		records:   cache.New[string, []advisories.Record](),
	}
}

// PublishedVersions returns the published version set for name. Within the
// TTL window at most one registry query runs per package, regardless of call
// volume.
func (f *Fetcher) PublishedVersions(ctx context.Context, name string) ([]*semver.Version, error) {
	entry, created := f.versions.GetOrCreate(name, f.opts.VersionsTTL)
	if created {
		go fill(ctx, f.gate, f.versions, name, entry.Future, func(fctx context.Context) ([]*semver.Version, error) {
			return f.registry.PublishedVersions(fctx, name)
		})
	}
	return entry.Future.Wait(ctx)
}

// InstalledVersions returns the installed-version snapshot for projectRoot.
// The snapshot is global per project, not per package: listing the whole
// installed set is itself one expensive call. The second return value is
// false when the snapshot is unknown; unknown is not "nothing installed".
func (f *Fetcher) InstalledVersions(ctx context.Context, projectRoot string) (map[string]*semver.Version, bool) {
	entry, created := f.installed.GetOrCreate(projectRoot, installedTTL)
	if created {
		go fill(ctx, f.gate, f.installed, projectRoot, entry.Future, func(fctx context.Context) (map[string]*semver.Version, error) {
			return f.manager.InstalledVersions(fctx, projectRoot)
		})
	}
	installed, err := entry.Future.Wait(ctx)
	if err != nil {
		return nil, false
	}
	return installed, true
}

// Advisories returns the known advisories for name, cached and de-duplicated
// the same way as published versions.
func (f *Fetcher) Advisories(ctx context.Context, name string) ([]advisories.Record, error) {
	entry, created := f.records.GetOrCreate(name, f.opts.AdvisoriesTTL)
	if created {
		go fill(ctx, f.gate, f.records, name, entry.Future, func(fctx context.Context) ([]advisories.Record, error) {
			return f.advisory.Advisories(fctx, name)
		})
	}
	return entry.Future.Wait(ctx)
}

// fill runs one external lookup under the gate and resolves the shared
// future. On failure the cache entry is removed before the future is failed,
// so no later caller can observe a poisoned entry. The lookup detaches from
// the triggering caller's cancellation: the future is shared, and a
// superseded caller must not fail it for everyone else.
func fill[T any](ctx context.Context, g *gate.Gate, c *cache.Cache[string, T], key string, future *cache.Future[T], query func(context.Context) (T, error)) {
	fctx := context.WithoutCancel(ctx)

	if err := g.Acquire(fctx); err != nil {
		c.Remove(key, future)
		future.Fail(err)
		return
	}
	defer g.Release()

	value, err := query(fctx)
	if err != nil {
		logging.C(fctx).Debug("external lookup failed",
			zap.String("key", key),
			zap.Error(err),
		)
		c.Remove(key, future)
		future.Fail(err)
		return
	}
	future.Complete(value)
}
