package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// specifierOps lists the comparison operators, longest first so prefixes do not shadow them.
var specifierOps = []string{"===", "~=", "==", "!=", "<=", ">=", "<", ">"}

// Specifier is a single version clause such as ">=1.0" or "==2.*".
type Specifier struct {
	Op       string
	Version  Version
	Wildcard bool
	raw      string
}

// ParseSpecifier parses a single version clause.
func ParseSpecifier(s string) (Specifier, error) {
	s = strings.TrimSpace(s)
	for _, op := range specifierOps {
		if !strings.HasPrefix(s, op) {
			continue
		}
		text := strings.TrimSpace(strings.TrimPrefix(s, op))
		if text == "" {
			return Specifier{}, zerr.With(zerr.Wrap(ErrInvalidConstraint, "missing version"), "specifier", s)
		}
		if op == "===" {
			return Specifier{Op: op, raw: text}, nil
		}

		spec := Specifier{Op: op}
		if strings.HasSuffix(text, ".*") {
			if op != "==" && op != "!=" {
				return Specifier{}, zerr.With(zerr.Wrap(ErrInvalidConstraint, "wildcard only allowed with == and !="), "specifier", s)
			}
			spec.Wildcard = true
			text = strings.TrimSuffix(text, ".*")
		}

		v, err := ParseVersion(text)
		if err != nil {
			return Specifier{}, zerr.With(zerr.Wrap(ErrInvalidConstraint, err.Error()), "specifier", s)
		}
		if op == "~=" && len(v.release) < 2 {
			return Specifier{}, zerr.With(zerr.Wrap(ErrInvalidConstraint, "~= needs at least two release segments"), "specifier", s)
		}
		spec.Version = v
		return spec, nil
	}
	return Specifier{}, zerr.With(zerr.Wrap(ErrInvalidConstraint, "missing comparison operator"), "specifier", s)
}

// Allows reports whether candidate satisfies the clause.
func (s Specifier) Allows(candidate Version) bool {
	switch s.Op {
	case "===":
		return candidate.String() == s.raw
	case "==":
		if s.Wildcard {
			return s.prefixMatch(candidate)
		}
		return s.equal(candidate)
	case "!=":
		if s.Wildcard {
			return !s.prefixMatch(candidate)
		}
		return !s.equal(candidate)
	case ">=":
		return candidate.Compare(s.Version) >= 0
	case "<=":
		return candidate.Compare(s.Version) <= 0
	case ">":
		if candidate.Compare(s.Version) <= 0 {
			return false
		}
		// >1.7 admits neither 1.7.post1 (unless the bound is a post release) nor 1.7+local.
		if !s.Version.IsPostrelease() && candidate.IsPostrelease() && sameRelease(candidate, s.Version) {
			return false
		}
		return candidate.local == "" || !sameRelease(candidate, s.Version)
	case "<":
		if candidate.Compare(s.Version) >= 0 {
			return false
		}
		// <2.0 does not admit 2.0rc1 unless the bound itself is a pre-release.
		return s.Version.IsPrerelease() || !candidate.IsPrerelease() || !sameRelease(candidate, s.Version)
	case "~=":
		if candidate.Compare(s.Version) < 0 {
			return false
		}
		prefix := Specifier{Op: "==", Wildcard: true, Version: Version{
			epoch:   s.Version.epoch,
			release: s.Version.release[:len(s.Version.release)-1],
		}}
		return prefix.prefixMatch(candidate)
	}
	return false
}

func (s Specifier) equal(candidate Version) bool {
	if s.Version.local == "" {
		candidate = candidate.Public()
	}
	return candidate.Compare(s.Version) == 0
}

func (s Specifier) prefixMatch(candidate Version) bool {
	if candidate.epoch != s.Version.epoch {
		return false
	}
	for i, seg := range s.Version.release {
		if segment(candidate.release, i) != seg {
			return false
		}
	}
	return true
}

func sameRelease(a, b Version) bool {
	return a.epoch == b.epoch && compareRelease(a.release, b.release) == 0
}

// String returns the canonical text of the clause.
func (s Specifier) String() string {
	if s.Op == "===" {
		return s.Op + s.raw
	}
	text := s.Version.String()
	if s.Wildcard {
		text += ".*"
	}
	return s.Op + text
}

// Constraint is a conjunction of specifiers. The zero value allows every version.
type Constraint struct {
	specs []Specifier
}

// ParseConstraint parses a comma separated list of specifiers.
func ParseConstraint(s string) (Constraint, error) {
	var c Constraint
	for part := range strings.SplitSeq(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		spec, err := ParseSpecifier(part)
		if err != nil {
			return Constraint{}, err
		}
		c.specs = append(c.specs, spec)
	}
	c.normalize()
	return c, nil
}

// MustParseConstraint is like ParseConstraint but panics on error.
func MustParseConstraint(s string) Constraint {
	c, err := ParseConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Constraint) normalize() {
	slices.SortFunc(c.specs, func(a, b Specifier) int {
		return strings.Compare(a.String(), b.String())
	})
	c.specs = slices.CompactFunc(c.specs, func(a, b Specifier) bool {
		return a.String() == b.String()
	})
}

// Allows reports whether v satisfies every specifier.
func (c Constraint) Allows(v Version) bool {
	for _, s := range c.specs {
		if !s.Allows(v) {
			return false
		}
	}
	return true
}

// AllowsPrerelease reports whether any specifier explicitly names a pre-release.
func (c Constraint) AllowsPrerelease() bool {
	for _, s := range c.specs {
		if s.Op != "!=" && s.Version.IsValid() && s.Version.IsPrerelease() {
			return true
		}
	}
	return false
}

// IsAny reports whether the constraint has no specifiers.
func (c Constraint) IsAny() bool {
	return len(c.specs) == 0
}

// Intersect returns the conjunction of c and o.
func (c Constraint) Intersect(o Constraint) Constraint {
	out := Constraint{specs: make([]Specifier, 0, len(c.specs)+len(o.specs))}
	out.specs = append(out.specs, c.specs...)
	out.specs = append(out.specs, o.specs...)
	out.normalize()
	return out
}

// String returns the canonical, sorted text of the constraint.
func (c Constraint) String() string {
	parts := make([]string, len(c.specs))
	for i, s := range c.specs {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// MarshalText implements encoding.TextMarshaler.
func (c Constraint) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Constraint) UnmarshalText(text []byte) error {
	parsed, err := ParseConstraint(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
