package domain

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

var versionPattern = regexp.MustCompile(
	`^v?(?:(\d+)!)?(\d+(?:\.\d+)*)` +
		`(?:[-_.]?(alpha|beta|preview|pre|rc|a|b|c)[-_.]?(\d+)?)?` +
		`(?:-(\d+)|[-_.]?(post|rev|r)[-_.]?(\d+)?)?` +
		`(?:[-_.]?(dev)[-_.]?(\d+)?)?` +
		`(?:\+([a-z0-9]+(?:[-_.][a-z0-9]+)*))?$`,
)

const none = -1

// Version is a release version following the public PEP 440 scheme.
// The zero value is not a valid version; use ParseVersion.
type Version struct {
	epoch   int
	release []int
	preKind string
	preNum  int
	post    int
	dev     int
	local   string
}

// ParseVersion parses and normalizes a version string.
func ParseVersion(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return Version{}, zerr.With(zerr.Wrap(ErrInvalidVersion, "unrecognized version"), "version", s)
	}

	v := Version{post: none, dev: none, preNum: none}
	if m[1] != "" {
		v.epoch = atoi(m[1])
	}
	for _, seg := range strings.Split(m[2], ".") {
		v.release = append(v.release, atoi(seg))
	}

	if m[3] != "" {
		v.preKind = normalizePreKind(m[3])
		v.preNum = atoiOr(m[4], 0)
	}

	switch {
	case m[5] != "":
		v.post = atoi(m[5])
	case m[6] != "":
		v.post = atoiOr(m[7], 0)
	}

	if m[8] != "" {
		v.dev = atoiOr(m[9], 0)
	}

	if m[10] != "" {
		v.local = strings.NewReplacer("-", ".", "_", ".").Replace(m[10])
	}

	return v, nil
}

// MustParseVersion is like ParseVersion but panics on error. Intended for tests and constants.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func normalizePreKind(kind string) string {
	switch kind {
	case "alpha", "a":
		return "a"
	case "beta", "b":
		return "b"
	default:
		return "rc"
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	return atoi(s)
}

// IsValid reports whether v was produced by ParseVersion.
func (v Version) IsValid() bool {
	return len(v.release) > 0
}

// IsPrerelease reports whether v is a pre-release or a development release.
func (v Version) IsPrerelease() bool {
	return v.preKind != "" || v.dev != none
}

// IsPostrelease reports whether v carries a post-release segment.
func (v Version) IsPostrelease() bool {
	return v.post != none
}

// Release returns a copy of the release segments.
func (v Version) Release() []int {
	return slices.Clone(v.release)
}

// Public returns v without its local segment.
func (v Version) Public() Version {
	v.local = ""
	return v
}

// String returns the normalized form of the version.
func (v Version) String() string {
	var b strings.Builder
	if v.epoch != 0 {
		b.WriteString(strconv.Itoa(v.epoch))
		b.WriteByte('!')
	}
	for i, seg := range v.release {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(seg))
	}
	if v.preKind != "" {
		b.WriteString(v.preKind)
		b.WriteString(strconv.Itoa(v.preNum))
	}
	if v.post != none {
		b.WriteString(".post")
		b.WriteString(strconv.Itoa(v.post))
	}
	if v.dev != none {
		b.WriteString(".dev")
		b.WriteString(strconv.Itoa(v.dev))
	}
	if v.local != "" {
		b.WriteByte('+')
		b.WriteString(v.local)
	}
	return b.String()
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to, or after o.
// Trailing zero release segments are insignificant, so 1.0 == 1.0.0.
func (v Version) Compare(o Version) int {
	if c := cmp.Compare(v.epoch, o.epoch); c != 0 {
		return c
	}
	if c := compareRelease(v.release, o.release); c != 0 {
		return c
	}
	if c := compareKeys(v.preKey(), o.preKey()); c != 0 {
		return c
	}
	if c := cmp.Compare(v.post, o.post); c != 0 {
		return c
	}
	if c := cmp.Compare(v.devKey(), o.devKey()); c != 0 {
		return c
	}
	return compareLocal(v.local, o.local)
}

// Equal reports whether v and o compare equal.
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// preKey orders a development-only release before pre-releases, and final releases after both.
func (v Version) preKey() [3]int {
	switch {
	case v.preKind == "" && v.post == none && v.dev != none:
		return [3]int{0, 0, 0}
	case v.preKind != "":
		return [3]int{1, preRank(v.preKind), v.preNum}
	default:
		return [3]int{2, 0, 0}
	}
}

func (v Version) devKey() int {
	if v.dev == none {
		return int(^uint(0) >> 1)
	}
	return v.dev
}

func preRank(kind string) int {
	switch kind {
	case "a":
		return 0
	case "b":
		return 1
	default:
		return 2
	}
}

func compareKeys(a, b [3]int) int {
	for i := range a {
		if c := cmp.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareRelease(a, b []int) int {
	n := max(len(a), len(b))
	for i := range n {
		if c := cmp.Compare(segment(a, i), segment(b, i)); c != 0 {
			return c
		}
	}
	return 0
}

func segment(release []int, i int) int {
	if i < len(release) {
		return release[i]
	}
	return 0
}

func compareLocal(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}

	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := range min(len(as), len(bs)) {
		an, aErr := strconv.Atoi(as[i])
		bn, bErr := strconv.Atoi(bs[i])
		switch {
		case aErr == nil && bErr == nil:
			if c := cmp.Compare(an, bn); c != 0 {
				return c
			}
		case aErr == nil:
			return 1
		case bErr == nil:
			return -1
		default:
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
		}
	}
	return cmp.Compare(len(as), len(bs))
}

// SortVersionsDesc sorts versions from highest to lowest.
func SortVersionsDesc(vs []Version) {
	slices.SortStableFunc(vs, func(a, b Version) int {
		return b.Compare(a)
	})
}
