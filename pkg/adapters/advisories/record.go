package advisories

// Severity classifies how serious an advisory is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity maps an advisory database severity to the reported scale.
// The database labels the middle tier "medium"; npm calls it "moderate".
func ParseSeverity(s string) Severity {
	switch s {
	case "low":
		return SeverityLow
	case "medium", "moderate":
		return SeverityModerate
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	default:
		return SeverityLow
	}
}

// Record is one known vulnerability affecting a range of published versions
// of a package. Read-only once fetched.
type Record struct {
	VulnerableRange string
	Severity        Severity
	Score           float64
	Title           string
	URL             string
}
