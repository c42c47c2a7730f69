// Package resolve computes the recommended upgrade target for a declared
// version range against the set of published versions. It is pure: all
// inputs are passed in, nothing is fetched and nothing is cached.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	// ErrSkip marks ranges outside the resolvable domain: disjunctions and
	// non-registry references (paths, URLs, VCS, workspace or alias specs).
	// Skipped entries produce no diagnostic.
	ErrSkip = errors.New("range is not resolvable")

	// ErrInvalidRange marks ranges whose baseline does not parse as a
	// semantic version.
	ErrInvalidRange = errors.New("invalid version range")
)

// Policy holds the knobs the resolution algorithm honors.
type Policy struct {
	// MajorUpdateProtection keeps suggestions within the compatible range of
	// the declared baseline when possible. Disabled, the suggestion is always
	// the newest published version.
	MajorUpdateProtection bool
}

// Result is the outcome of resolving one declared range. It is recomputed on
// every classification pass and never cached.
type Result struct {
	// Suggestion is the recommended upgrade target, nil when nothing is
	// published that the policy admits.
	Suggestion *semver.Version
	// Latest is the newest published version overall, honoring the
	// prerelease inclusion rule.
	Latest *semver.Version
	// Baseline is the bare version extracted from the declared range.
	Baseline *semver.Version
	// Prerelease reports whether the baseline carries a prerelease tag.
	Prerelease bool
	// MajorBump reports whether the suggestion crosses a major boundary
	// relative to the baseline. The final major-bump judgment is made against
	// the installed version during classification.
	MajorBump bool
	// Fallback reports that the declared range's ceiling was already reached
	// (or nothing satisfied it) and Latest was offered instead of silence.
	Fallback bool
}

// nonRegistryPrefixes mark specs that do not point at registry versions.
var nonRegistryPrefixes = []string{
	"file:", "link:", "portal:", "workspace:", "npm:",
	"git:", "git+", "github:", "http://", "https://",
	"./", "../", "/", "~/",
}

// Resolve computes the upgrade recommendation for rawRange given the
// ascending published version set.
func Resolve(rawRange string, published []*semver.Version, policy Policy) (*Result, error) {
	raw := strings.TrimSpace(rawRange)
	if Skippable(raw) {
		return nil, ErrSkip
	}

	base, err := baseline(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, rawRange)
	}

	pre := base.Prerelease() != ""
	res := &Result{
		Baseline:   base,
		Prerelease: pre,
		Latest:     latest(published, pre),
	}
	if res.Latest == nil {
		return res, nil
	}

	if !policy.MajorUpdateProtection {
		res.Suggestion = res.Latest
		res.MajorBump = res.Latest.Major() != base.Major()
		return res, nil
	}

	compatible, err := semver.NewConstraint("^" + release(base).String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, rawRange)
	}

	if pre {
		// Graduating out of a prerelease line takes priority over staying on
		// newer prereleases: prefer the newest plain release compatible with
		// the baseline's release counterpart.
		if grad := maxSatisfying(published, compatible, base, false); grad != nil && grad.GreaterThan(base) {
			res.Suggestion = grad
			res.MajorBump = grad.Major() != base.Major()
			return res, nil
		}
	}

	satisfying := maxSatisfying(published, compatible, base, pre)
	if satisfying == nil || satisfying.Equal(base) {
		// Nothing newer remains within the declared range; offer the overall
		// latest instead of silence.
		res.Suggestion = res.Latest
		res.Fallback = true
	} else {
		res.Suggestion = satisfying
	}
	res.MajorBump = res.Suggestion.Major() != base.Major()
	return res, nil
}

// Skippable reports whether the range is out of the resolvable domain, in
// which case Resolve returns ErrSkip. Callers may use it to avoid fetching
// data for entries that can never produce a recommendation.
func Skippable(raw string) bool {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "||") {
		return true
	}
	for _, prefix := range nonRegistryPrefixes {
		if strings.HasPrefix(raw, prefix) {
			return true
		}
	}
	return false
}

// baseline strips any range-operator prefix from the raw range and parses the
// remainder, preserving a prerelease tag verbatim. For compound conjunctive
// ranges the first clause bounds the baseline.
func baseline(raw string) (*semver.Version, error) {
	s := strings.TrimLeft(raw, "^~><= \t")
	s = strings.TrimPrefix(s, "v")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		s = s[:i]
	}
	return semver.NewVersion(s)
}

// release returns the baseline's numeric triple coerced to a plain release
// version.
func release(v *semver.Version) *semver.Version {
	return semver.New(v.Major(), v.Minor(), v.Patch(), "", "")
}

// latest returns the maximum published version under "any version", including
// prerelease candidates only when includePre is set.
func latest(published []*semver.Version, includePre bool) *semver.Version {
	var best *semver.Version
	for _, v := range published {
		if v.Prerelease() != "" && !includePre {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	return best
}

// maxSatisfying returns the maximum published version inside the compatible
// range. Prerelease candidates are admitted only when includePre is set, and
// then on the strength of their release core, since a release-only constraint
// never matches a prerelease directly; they must also sit strictly above the
// baseline.
func maxSatisfying(published []*semver.Version, compatible *semver.Constraints, base *semver.Version, includePre bool) *semver.Version {
	var best *semver.Version
	for _, v := range published {
		if v.Prerelease() != "" {
			if !includePre || !compatible.Check(release(v)) || !v.GreaterThan(base) {
				continue
			}
		} else if !compatible.Check(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	return best
}
