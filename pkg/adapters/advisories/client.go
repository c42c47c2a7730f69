//go:generate go run go.uber.org/mock/mockgen@v0.5.2 -source=client.go -destination=mock.gen.go -package=advisories
package advisories

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

const ecosystem = "npm"

// Client defines the interface for querying the advisory database.
type Client interface {
	// Advisories returns the known vulnerability advisories affecting the
	// named package, across all its published versions.
	Advisories(ctx context.Context, name string) ([]Record, error)
}

// client implements Client using the GitHub global security advisory
// database.
type client struct {
	gh *github.Client
}

// New creates an advisory client. An empty token queries anonymously, which
// is allowed for the advisory database at a lower rate limit.
func New(token string) Client {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	return &client{gh: github.NewClient(httpClient)}
}

// Advisories queries the advisory database for the npm package name and
// flattens each per-package vulnerability into one Record.
func (c *client) Advisories(ctx context.Context, name string) ([]Record, error) {
	opts := &github.ListGlobalSecurityAdvisoriesOptions{
		Ecosystem: github.String(ecosystem),
		Affects:   github.String(name),
	}

	advisories, _, err := c.gh.SecurityAdvisories.ListGlobalSecurityAdvisories(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list advisories for %s: %w", name, err)
	}

	var records []Record
	for _, adv := range advisories {
		if adv == nil {
			continue
		}
		for _, vuln := range adv.Vulnerabilities {
			if vuln == nil || vuln.GetPackage().GetName() != name {
				continue
			}
			if eco := vuln.GetPackage().GetEcosystem(); eco != "" && eco != ecosystem {
				continue
			}
			var score float64
			if s := adv.GetCVSS().GetScore(); s != nil {
				score = *s
			}
			records = append(records, Record{
				VulnerableRange: vuln.GetVulnerableVersionRange(),
				Severity:        ParseSeverity(adv.GetSeverity()),
				Score:           score,
				Title:           adv.GetSummary(),
				URL:             advisoryURL(adv.GetGHSAID()),
			})
		}
	}
	return records, nil
}

func advisoryURL(ghsaID string) string {
	if ghsaID == "" {
		return ""
	}
	return "https://github.com/advisories/" + ghsaID
}
