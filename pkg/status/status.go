// Package status turns resolution output, installed versions and advisories
// into the final reportable judgment for each declared dependency.
package status

import (
	"github.com/Masterminds/semver/v3"

	"github.com/cryptellation/depscout/pkg/adapters/advisories"
)

// Kind is the classification of one dependency.
type Kind string

const (
	KindUpToDate                  Kind = "up-to-date"
	KindUpdateAvailable           Kind = "update-available"
	KindMajorUpdateAvailable      Kind = "major-update-available"
	KindPrereleaseUpdateAvailable Kind = "prerelease-update-available"
	KindInstallPending            Kind = "install-pending"
	KindVersionNotFound           Kind = "version-not-found"
	KindInvalidRange              Kind = "invalid-range"
	KindNotApplicable             Kind = "not-applicable"
	KindAdvisoryUpdateAvailable   Kind = "advisory-update-available"
	KindAdvisoryDowngradeNeeded   Kind = "advisory-downgrade-needed"
)

// Status is the externally visible judgment for one dependency. It is plain
// data, rebuildable from the declared entry plus the external queries.
type Status struct {
	Name      string
	Kind      Kind
	Suggested *semver.Version
	Latest    *semver.Version
	Installed *semver.Version
	// Advisory carries the highest-score advisory for the advisory kinds.
	Advisory *advisories.Record
}

// BumpLevel is the magnitude of a version change.
type BumpLevel string

const (
	BumpPatch BumpLevel = "patch"
	BumpMinor BumpLevel = "minor"
	BumpMajor BumpLevel = "major"
)

func (l BumpLevel) rank() int {
	switch l {
	case BumpMajor:
		return 2
	case BumpMinor:
		return 1
	default:
		return 0
	}
}

// bumpBetween returns the magnitude of the change from one version to
// another. Prerelease-only movement counts as a patch.
func bumpBetween(from, to *semver.Version) BumpLevel {
	switch {
	case from.Major() != to.Major():
		return BumpMajor
	case from.Minor() != to.Minor():
		return BumpMinor
	default:
		return BumpPatch
	}
}

// Policy holds the classification knobs supplied by configuration.
type Policy struct {
	// MajorUpdateProtection is forwarded to the resolution algorithm.
	MajorUpdateProtection bool
	// MinimumBumpLevel suppresses updates whose magnitude is below the floor;
	// they report as up-to-date rather than as an error.
	MinimumBumpLevel BumpLevel
}
