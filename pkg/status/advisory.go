package status

import (
	"github.com/Masterminds/semver/v3"

	"github.com/cryptellation/depscout/pkg/adapters/advisories"
)

// ApplyAdvisories folds vulnerability advisories into a classified status.
// It returns an additional advisory status to surface alongside the version
// status, or nil when the installed version is unaffected. Advisory findings
// never replace the plain classification.
func ApplyAdvisories(st Status, published []*semver.Version, records []advisories.Record) *Status {
	if st.Installed == nil || len(records) == 0 {
		return nil
	}

	worst := worstMatching(st.Installed, records)
	if worst == nil {
		return nil
	}

	adv := Status{
		Name:      st.Name,
		Latest:    st.Latest,
		Installed: st.Installed,
		Advisory:  worst,
	}

	if st.Suggested != nil && !vulnerable(st.Suggested, records) {
		adv.Kind = KindAdvisoryUpdateAvailable
		adv.Suggested = st.Suggested
		return &adv
	}

	// No safe forward upgrade exists: look for the highest published version
	// strictly below the installed one that no advisory covers. Prerelease
	// candidates are only considered when the installed version is itself a
	// prerelease.
	includePre := st.Installed.Prerelease() != ""
	var downgrade *semver.Version
	for _, v := range published {
		if !v.LessThan(st.Installed) || vulnerable(v, records) {
			continue
		}
		if v.Prerelease() != "" && !includePre {
			continue
		}
		if downgrade == nil || v.GreaterThan(downgrade) {
			downgrade = v
		}
	}
	if downgrade != nil {
		adv.Kind = KindAdvisoryDowngradeNeeded
		adv.Suggested = downgrade
		return &adv
	}

	// No actionable target at all; still surfaced, still non-fatal.
	adv.Kind = KindAdvisoryUpdateAvailable
	return &adv
}

// worstMatching returns the highest-score advisory covering v, nil when none
// does.
func worstMatching(v *semver.Version, records []advisories.Record) *advisories.Record {
	var worst *advisories.Record
	for i := range records {
		rec := &records[i]
		if !matches(v, rec.VulnerableRange) {
			continue
		}
		if worst == nil || rec.Score > worst.Score {
			worst = rec
		}
	}
	return worst
}

// vulnerable reports whether any advisory covers v.
func vulnerable(v *semver.Version, records []advisories.Record) bool {
	for i := range records {
		if matches(v, records[i].VulnerableRange) {
			return true
		}
	}
	return false
}

// matches checks v against an advisory's vulnerable range. An unparsable
// range matches nothing.
func matches(v *semver.Version, vulnerableRange string) bool {
	c, err := semver.NewConstraint(vulnerableRange)
	if err != nil {
		return false
	}
	return c.Check(v)
}
