package domain

import (
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

var (
	nameSeparators = regexp.MustCompile(`[-_.]+`)
	requirementRe  = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[([^\]]*)\])?\s*(.*)$`)
)

// NormalizeName returns the canonical form of a package name: lower case with
// runs of "-", "_" and "." collapsed to a single "-".
func NormalizeName(name string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// Requirement is a single dependency declaration: a package name with optional
// extras, a version constraint and an environment marker.
type Requirement struct {
	Name       InternedString
	Extras     []string
	Constraint Constraint
	Marker     Marker
}

// ParseRequirement parses a dependency specifier such as
// `requests[socks]>=2.31,<3 ; python_version >= "3.8"`.
// Parenthesised constraints, as found in older package metadata, are accepted.
func ParseRequirement(s string) (Requirement, error) {
	text, markerText, _ := strings.Cut(s, ";")
	text = strings.TrimSpace(text)
	if text == "" {
		return Requirement{}, zerr.With(zerr.Wrap(ErrInvalidRequirement, "empty requirement"), "requirement", s)
	}
	if strings.Contains(text, "@") {
		return Requirement{}, zerr.With(zerr.Wrap(ErrInvalidRequirement, "direct URL references are not supported"), "requirement", s)
	}

	m := requirementRe.FindStringSubmatch(text)
	if m == nil {
		return Requirement{}, zerr.With(zerr.Wrap(ErrInvalidRequirement, "invalid package name"), "requirement", s)
	}

	req := Requirement{Name: NewInternedString(NormalizeName(m[1]))}

	for extra := range strings.SplitSeq(m[2], ",") {
		if extra = strings.TrimSpace(extra); extra != "" {
			req.Extras = append(req.Extras, NormalizeName(extra))
		}
	}
	slices.Sort(req.Extras)
	req.Extras = slices.Compact(req.Extras)

	constraintText := strings.TrimSpace(m[3])
	constraintText = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(constraintText, "("), ")"))
	constraint, err := ParseConstraint(constraintText)
	if err != nil {
		return Requirement{}, zerr.With(zerr.Wrap(ErrInvalidRequirement, err.Error()), "requirement", s)
	}
	req.Constraint = constraint

	marker, err := ParseMarker(markerText)
	if err != nil {
		return Requirement{}, zerr.With(zerr.Wrap(ErrInvalidRequirement, err.Error()), "requirement", s)
	}
	req.Marker = marker

	return req, nil
}

// MustParseRequirement is like ParseRequirement but panics on error.
func MustParseRequirement(s string) Requirement {
	r, err := ParseRequirement(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String renders the requirement in canonical form.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name.String())
	if len(r.Extras) > 0 {
		b.WriteByte('[')
		b.WriteString(strings.Join(r.Extras, ","))
		b.WriteByte(']')
	}
	b.WriteString(r.Constraint.String())
	if !r.Marker.IsEmpty() {
		b.WriteString("; ")
		b.WriteString(r.Marker.String())
	}
	return b.String()
}

// Manifest is the author-maintained list of direct dependencies.
type Manifest struct {
	// Source is the path the manifest was read from.
	Source string
	// RequiresPython optionally constrains the interpreter version.
	RequiresPython Constraint
	// IndexURL optionally overrides the configured package index.
	IndexURL     string
	Requirements []Requirement
}

// Add appends a requirement, merging it into an existing entry with the same
// name and marker. Constraints are intersected and extras are unioned.
// Entries whose markers differ stay separate so each constraint only applies
// where its own marker holds.
func (m *Manifest) Add(req Requirement) {
	for i, existing := range m.Requirements {
		if existing.Name != req.Name || existing.Marker.String() != req.Marker.String() {
			continue
		}
		existing.Constraint = existing.Constraint.Intersect(req.Constraint)
		existing.Extras = append(existing.Extras, req.Extras...)
		slices.Sort(existing.Extras)
		existing.Extras = slices.Compact(existing.Extras)
		m.Requirements[i] = existing
		return
	}
	m.Requirements = append(m.Requirements, req)
}

// Canonical returns a stable textual form used for digesting the manifest.
func (m *Manifest) Canonical() string {
	lines := make([]string, 0, len(m.Requirements)+1)
	for _, r := range m.Requirements {
		lines = append(lines, r.String())
	}
	slices.Sort(lines)
	if !m.RequiresPython.IsAny() {
		lines = append(lines, "python"+m.RequiresPython.String())
	}
	return strings.Join(lines, "\n")
}
