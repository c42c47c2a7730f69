// Package engine orchestrates the full advisory pipeline: for every declared
// dependency it fetches published and installed versions through the cached
// fetch layer, resolves and classifies them, and folds in vulnerability
// advisories. Failures are isolated per dependency and degrade to a status
// value; they never abort sibling dependencies.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/cryptellation/depscout/pkg/debounce"
	"github.com/cryptellation/depscout/pkg/fetcher"
	"github.com/cryptellation/depscout/pkg/logging"
	"github.com/cryptellation/depscout/pkg/manifest"
	"github.com/cryptellation/depscout/pkg/resolve"
	"github.com/cryptellation/depscout/pkg/status"
)

// Report is the engine's judgment for one dependency: the version status,
// plus a separate advisory status when the installed version is affected.
// Advisory findings are surfaced alongside the version record, not instead
// of it.
type Report struct {
	Status   status.Status
	Advisory *status.Status
}

// Request is one unit of recomputation: a project and its declared entries,
// as supplied by the manifest collaborator.
type Request struct {
	ProjectRoot  string
	Dependencies []manifest.DeclaredDependency
}

// Engine computes dependency reports. Create one per process; it is safe for
// concurrent use.
type Engine struct {
	fetcher *fetcher.Fetcher
	policy  status.Policy
	trigger *debounce.Trigger[Request]

	mu       sync.Mutex
	latest   map[string]Report
	onResult func(map[string]Report)
}

// New creates an engine over the fetch layer. wait and delay tune the
// debounced trigger behind NotifyChanged; onResult, if non-nil, receives each
// completed cycle's reports.
func New(f *fetcher.Fetcher, policy status.Policy, wait, delay time.Duration, onResult func(map[string]Report)) *Engine {
	e := &Engine{
		fetcher:  f,
		policy:   policy,
		onResult: onResult,
	}
	e.trigger = debounce.New(e.runCycle, wait, delay)
	return e
}

// Check computes one report per resolvable declared dependency, keyed by
// name. Dependencies complete in any order; not-applicable entries produce no
// report.
func (e *Engine) Check(ctx context.Context, req Request) map[string]Report {
	installed, known := e.fetcher.InstalledVersions(ctx, req.ProjectRoot)
	if !known {
		logging.C(ctx).Debug("installed versions unknown",
			zap.String("project", req.ProjectRoot),
		)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		reports = make(map[string]Report, len(req.Dependencies))
	)
	for _, dep := range req.Dependencies {
		wg.Add(1)
		go func(dep manifest.DeclaredDependency) {
			defer wg.Done()
			report, ok := e.checkOne(ctx, dep, installed[dep.Name])
			if !ok {
				return
			}
			mu.Lock()
			reports[dep.Name] = report
			mu.Unlock()
		}(dep)
	}
	wg.Wait()
	return reports
}

// checkOne runs the pipeline for a single dependency. The bool is false when
// the dependency produces no record.
func (e *Engine) checkOne(ctx context.Context, dep manifest.DeclaredDependency, installed *semver.Version) (Report, bool) {
	// Entries that can never resolve are dropped before any external lookup.
	if !manifest.ValidName(dep.Name) || resolve.Skippable(dep.RawRange) {
		return Report{}, false
	}

	published, pubErr := e.fetcher.PublishedVersions(ctx, dep.Name)

	st := status.Classify(dep, published, installed, e.policy)
	if st.Kind == status.KindNotApplicable {
		return Report{}, false
	}
	if pubErr != nil && st.Kind == status.KindVersionNotFound {
		// The registry was unreachable, not the version missing; report the
		// softer unknown-data status for this cycle and retry on the next.
		st.Kind = status.KindInstallPending
	}

	report := Report{Status: st}

	records, err := e.fetcher.Advisories(ctx, dep.Name)
	if err != nil {
		// Advisory enrichment is skipped for this cycle only.
		logging.C(ctx).Debug("advisory lookup failed",
			zap.String("package", dep.Name),
			zap.Error(err),
		)
		return report, true
	}
	report.Advisory = status.ApplyAdvisories(st, published, records)
	return report, true
}

// NotifyChanged schedules a debounced recomputation for req. Bursts collapse
// into at most one in-flight cycle plus one coalesced pending cycle, and a
// superseded cycle's results are simply overwritten once the newer cycle
// publishes.
func (e *Engine) NotifyChanged(req Request) {
	e.trigger.Call(req)
}

// Latest returns a copy of the most recently published reports.
func (e *Engine) Latest() map[string]Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]Report, len(e.latest))
	for name, report := range e.latest {
		out[name] = report
	}
	return out
}

func (e *Engine) runCycle(req Request) {
	ctx := context.Background()
	reports := e.Check(ctx, req)

	e.mu.Lock()
	e.latest = reports
	e.mu.Unlock()

	if e.onResult != nil {
		e.onResult(reports)
	}
}
