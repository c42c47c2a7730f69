package status

import (
	"errors"

	"github.com/Masterminds/semver/v3"

	"github.com/cryptellation/depscout/pkg/manifest"
	"github.com/cryptellation/depscout/pkg/resolve"
)

// Classify computes the status of one declared dependency in a single pass.
// It is pure once its inputs are available: published is the fetched version
// set (nil when unknown) and installed is the version currently installed
// under the dependency's name (nil when unknown). A KindNotApplicable result
// means no record should be emitted.
func Classify(dep manifest.DeclaredDependency, published []*semver.Version, installed *semver.Version, policy Policy) Status {
	st := Status{Name: dep.Name, Installed: installed, Kind: KindNotApplicable}

	if !manifest.ValidName(dep.Name) {
		return st
	}

	res, err := resolve.Resolve(dep.RawRange, published, resolve.Policy{
		MajorUpdateProtection: policy.MajorUpdateProtection,
	})
	switch {
	case errors.Is(err, resolve.ErrSkip):
		return st
	case errors.Is(err, resolve.ErrInvalidRange):
		st.Kind = KindInvalidRange
		return st
	case err != nil:
		return st
	}
	st.Latest = res.Latest
	st.Suggested = res.Suggestion

	if !contains(published, res.Baseline) {
		if installed == nil {
			st.Kind = KindInstallPending
		} else {
			st.Kind = KindVersionNotFound
		}
		return st
	}

	if res.Suggestion == nil {
		st.Kind = KindUpToDate
		return st
	}

	// The installed version anchors the comparison; before the first install
	// the baseline stands in for it.
	reference := installed
	if reference == nil {
		reference = res.Baseline
	}

	switch {
	case res.Suggestion.Prerelease() != "" && res.Suggestion.GreaterThan(reference):
		st.Kind = KindPrereleaseUpdateAvailable
	case res.Suggestion.Equal(reference):
		st.Kind = KindUpToDate
	case res.Suggestion.Major() != reference.Major() && !res.Fallback:
		// A fallback suggestion is the ordinary "newest there is" offer: the
		// declared range itself cannot move, so it is not flagged as a major
		// jump even across a major boundary.
		st.Kind = KindMajorUpdateAvailable
	default:
		st.Kind = KindUpdateAvailable
	}

	if st.Kind == KindUpdateAvailable || st.Kind == KindMajorUpdateAvailable {
		if bumpBetween(reference, res.Suggestion).rank() < policy.MinimumBumpLevel.rank() {
			st.Kind = KindUpToDate
		}
	}
	return st
}

func contains(published []*semver.Version, v *semver.Version) bool {
	for _, p := range published {
		if p.Equal(v) {
			return true
		}
	}
	return false
}
