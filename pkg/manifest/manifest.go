// Package manifest models the declared dependency entries the engine
// consumes and reads them from a package.json manifest.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
)

// Section identifies the manifest section a dependency was declared in.
type Section string

const (
	SectionDependencies         Section = "dependencies"
	SectionDevDependencies      Section = "devDependencies"
	SectionOptionalDependencies Section = "optionalDependencies"
)

// DeclaredDependency is an immutable snapshot of one declared entry,
// taken once per manifest read.
type DeclaredDependency struct {
	Name     string
	RawRange string
	Section  Section
}

// packageJSON mirrors only the sections the engine consumes.
type packageJSON struct {
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

// Read loads the declared dependencies from the manifest at path.
// Entries are ordered by section, then by name, so repeated reads of the
// same manifest yield the same slice.
func Read(path string) ([]DeclaredDependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse extracts the declared dependencies from raw manifest content.
func Parse(data []byte) ([]DeclaredDependency, error) {
	var doc packageJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	var deps []DeclaredDependency
	deps = append(deps, sectionEntries(doc.Dependencies, SectionDependencies)...)
	deps = append(deps, sectionEntries(doc.DevDependencies, SectionDevDependencies)...)
	deps = append(deps, sectionEntries(doc.OptionalDependencies, SectionOptionalDependencies)...)
	return deps, nil
}

func sectionEntries(entries map[string]string, section Section) []DeclaredDependency {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make([]DeclaredDependency, 0, len(entries))
	for _, name := range names {
		deps = append(deps, DeclaredDependency{
			Name:     name,
			RawRange: entries[name],
			Section:  section,
		})
	}
	return deps
}

// nameRE follows the npm package naming rules, including scoped names.
var nameRE = regexp.MustCompile(`^(?:@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)

const maxNameLength = 214

// ValidName reports whether name is a valid npm package identifier.
func ValidName(name string) bool {
	return len(name) > 0 && len(name) <= maxNameLength && nameRE.MatchString(name)
}
