// Package resolver turns a manifest into a fully pinned lock by deterministic backtracking.
package resolver

import (
	"context"
	"errors"
	"maps"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxSteps bounds how many candidate versions one resolution may try.
const DefaultMaxSteps = 20000

// rootName marks requirements that come from the manifest.
const rootName = "<manifest>"

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxSteps overrides the search budget.
func WithMaxSteps(n int) Option {
	return func(r *Resolver) {
		r.maxSteps = n
	}
}

// Resolver resolves manifests against a package index for one target interpreter.
type Resolver struct {
	index    ports.PackageIndex
	python   domain.PythonConfig
	env      domain.MarkerEnv
	maxSteps int

	mu       sync.Mutex
	versions map[string][]domain.Version
	releases map[string]*domain.Release
}

// New creates a Resolver for the interpreter described by cfg.
func New(index ports.PackageIndex, cfg *domain.Config, opts ...Option) *Resolver {
	r := &Resolver{
		index:    index,
		python:   cfg.Python,
		env:      cfg.MarkerEnv(),
		maxSteps: DefaultMaxSteps,
		versions: make(map[string][]domain.Version),
		releases: make(map[string]*domain.Release),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// edge is one requirement declared by a pinned package or the manifest.
type edge struct {
	from string
	req  domain.Requirement
}

// pin is a chosen release and the extras its dependencies were expanded with.
type pin struct {
	release *domain.Release
	extras  []string
	deps    []string
}

type state struct {
	pins  map[string]pin
	edges []edge
}

// conflict describes the package the search could not place.
type conflict struct {
	name        string
	constraints []string
}

type search struct {
	r        *Resolver
	steps    int
	conflict *conflict
	python   domain.Version
}

var errBudgetExhausted = errors.New("search budget exhausted")

// Resolve computes the lock for manifest. The result depends only on the manifest
// and the index contents, never on fetch order.
func (r *Resolver) Resolve(ctx context.Context, manifest *domain.Manifest) (*domain.Lock, error) {
	manifestDigest := digest.FromString(manifest.Canonical()).String()

	python, err := domain.ParseVersion(r.env.PythonFullVersion)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "invalid python version"), "python", r.python.Version)
	}
	if !manifest.RequiresPython.IsAny() && !manifest.RequiresPython.Allows(python) {
		err := zerr.With(zerr.Wrap(domain.ErrUnresolvableConstraint, "target python is excluded by the manifest"), "python", r.python.Version)
		return nil, zerr.With(err, "requires_python", manifest.RequiresPython.String())
	}

	root := state{pins: map[string]pin{}}
	for _, req := range manifest.Requirements {
		if req.Marker.Evaluate(r.env) {
			root.edges = append(root.edges, edge{from: rootName, req: req})
		}
	}

	if err := r.prefetch(ctx, root.edges); err != nil {
		return nil, err
	}

	s := &search{r: r, python: python}
	final, err := s.solve(ctx, root)
	if err != nil {
		if errors.Is(err, errBudgetExhausted) {
			return nil, zerr.With(zerr.Wrap(domain.ErrUnresolvableConstraint, err.Error()), "steps", s.steps)
		}
		return nil, err
	}
	if final == nil {
		return nil, s.unresolvable()
	}

	pkgs := make([]domain.LockedPackage, 0, len(final.pins))
	for _, name := range slices.Sorted(maps.Keys(final.pins)) {
		p := final.pins[name]
		pkgs = append(pkgs, domain.LockedPackage{
			Name:     name,
			Version:  p.release.Version.String(),
			Requires: p.deps,
			Hashes:   p.release.Hashes,
		})
	}
	return domain.NewLock(manifestDigest, r.python.Version, pkgs), nil
}

// prefetch loads the version lists of the direct requirements concurrently.
// Failures are not reported here; the search repeats the lookup in its own order.
func (r *Resolver) prefetch(ctx context.Context, edges []edge) error {
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	seen := map[string]bool{}
	for _, e := range edges {
		name := e.req.Name.String()
		if seen[name] {
			continue
		}
		seen[name] = true
		g.Go(func() error {
			_, _ = r.lookupVersions(ctx, name)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func (r *Resolver) lookupVersions(ctx context.Context, name string) ([]domain.Version, error) {
	r.mu.Lock()
	cached, ok := r.versions[name]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	versions, err := r.index.Versions(ctx, name)
	if err != nil {
		return nil, err
	}
	versions = slices.Clone(versions)
	domain.SortVersionsDesc(versions)

	r.mu.Lock()
	r.versions[name] = versions
	r.mu.Unlock()
	return versions, nil
}

func (r *Resolver) lookupRelease(ctx context.Context, name string, v domain.Version) (*domain.Release, error) {
	key := name + "@" + v.String()
	r.mu.Lock()
	cached, ok := r.releases[key]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	rel, err := r.index.Release(ctx, name, v)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.releases[key] = rel
	r.mu.Unlock()
	return rel, nil
}

// solve returns the completed state, nil when st cannot be completed, or a fatal error.
func (s *search) solve(ctx context.Context, st state) (*state, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, ok := nextUndecided(st)
	if !ok {
		return &st, nil
	}

	constraint, extras, sources := requirementsOn(st, name)

	versions, err := s.r.lookupVersions(ctx, name)
	if err != nil {
		return nil, err
	}

	candidates := candidatesFor(versions, constraint)
	if len(candidates) == 0 {
		s.recordConflict(name, sources)
		return nil, nil
	}

	for _, v := range candidates {
		s.steps++
		if s.steps > s.r.maxSteps {
			return nil, errBudgetExhausted
		}

		rel, err := s.r.lookupRelease(ctx, name, v)
		if err != nil {
			return nil, err
		}
		if !s.pythonCompatible(rel) {
			continue
		}

		deps, err := s.r.dependencies(rel, extras)
		if err != nil {
			return nil, err
		}
		if !consistent(st, deps) {
			s.recordConflict(name, sources)
			continue
		}

		next := st.with(name, pin{release: rel, extras: extras, deps: depNames(name, deps)}, deps)
		ok, err := s.r.expandExtras(next, deps)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.recordConflict(name, sources)
			continue
		}

		done, err := s.solve(ctx, *next)
		if err != nil {
			return nil, err
		}
		if done != nil {
			return done, nil
		}
	}

	s.recordConflict(name, sources)
	return nil, nil
}

// nextUndecided returns the alphabetically first required but unpinned name.
func nextUndecided(st state) (string, bool) {
	var best string
	for _, e := range st.edges {
		name := e.req.Name.String()
		if _, pinned := st.pins[name]; pinned {
			continue
		}
		if best == "" || name < best {
			best = name
		}
	}
	return best, best != ""
}

// requirementsOn collects the combined constraint and extras placed on name.
func requirementsOn(st state, name string) (domain.Constraint, []string, []string) {
	var constraint domain.Constraint
	var extras, sources []string
	for _, e := range st.edges {
		if e.req.Name.String() != name {
			continue
		}
		constraint = constraint.Intersect(e.req.Constraint)
		extras = append(extras, e.req.Extras...)
		sources = append(sources, describe(e))
	}
	slices.Sort(extras)
	slices.Sort(sources)
	return constraint, slices.Compact(extras), slices.Compact(sources)
}

func describe(e edge) string {
	text := e.req.Name.String() + e.req.Constraint.String()
	if text == e.req.Name.String() {
		text += " (any)"
	}
	return text + " from " + e.from
}

// candidatesFor returns allowed versions, highest first. Pre-releases are only
// considered when the constraint names one or when nothing else matches.
func candidatesFor(versions []domain.Version, constraint domain.Constraint) []domain.Version {
	var finals, pre []domain.Version
	for _, v := range versions {
		if !constraint.Allows(v) {
			continue
		}
		if v.IsPrerelease() {
			pre = append(pre, v)
			continue
		}
		finals = append(finals, v)
	}
	if constraint.AllowsPrerelease() {
		all := append(finals, pre...)
		domain.SortVersionsDesc(all)
		return all
	}
	if len(finals) == 0 {
		return pre
	}
	return finals
}

func (s *search) pythonCompatible(rel *domain.Release) bool {
	if strings.TrimSpace(rel.RequiresPython) == "" {
		return true
	}
	c, err := domain.ParseConstraint(rel.RequiresPython)
	if err != nil {
		// Unparsable metadata does not exclude a release.
		return true
	}
	return c.Allows(s.python)
}

// dependencies parses the release's requirements and keeps those whose markers
// hold for the target with the given extras active.
func (r *Resolver) dependencies(rel *domain.Release, extras []string) ([]domain.Requirement, error) {
	env := r.env.WithExtras(extras)
	var deps []domain.Requirement
	for _, text := range rel.Requires {
		req, err := domain.ParseRequirement(text)
		if err != nil {
			err = zerr.With(zerr.Wrap(domain.ErrUnresolvableConstraint, err.Error()), "package", rel.Name)
			return nil, zerr.With(err, "version", rel.Version.String())
		}
		if !req.Marker.Evaluate(env) {
			continue
		}
		deps = append(deps, req)
	}
	return deps, nil
}

// consistent reports whether deps are satisfied by the versions already pinned.
func consistent(st state, deps []domain.Requirement) bool {
	for _, d := range deps {
		p, pinned := st.pins[d.Name.String()]
		if pinned && !d.Constraint.Allows(p.release.Version) {
			return false
		}
	}
	return true
}

// depNames returns the sorted names of deps, leaving out self references
// such as "pkg[all]" requiring "pkg[extra]".
func depNames(self string, deps []domain.Requirement) []string {
	names := make([]string, 0, len(deps))
	for _, d := range deps {
		if n := d.Name.String(); n != self {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// with returns a copy of st with name pinned and its dependencies added.
func (st state) with(name string, p pin, deps []domain.Requirement) *state {
	next := &state{
		pins:  maps.Clone(st.pins),
		edges: slices.Clone(st.edges),
	}
	next.pins[name] = p
	for _, d := range deps {
		next.edges = append(next.edges, edge{from: name + "==" + p.release.Version.String(), req: d})
	}
	return next
}

// expandExtras re-expands pinned packages that deps request with extras they were
// not yet expanded with. It reports false if the added requirements contradict a pin.
func (r *Resolver) expandExtras(st *state, deps []domain.Requirement) (bool, error) {
	queue := slices.Clone(deps)
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]

		name := d.Name.String()
		p, pinned := st.pins[name]
		if !pinned || len(d.Extras) == 0 {
			continue
		}
		merged := append(slices.Clone(p.extras), d.Extras...)
		slices.Sort(merged)
		merged = slices.Compact(merged)
		if slices.Equal(merged, p.extras) {
			continue
		}

		extraDeps, err := r.dependencies(p.release, merged)
		if err != nil {
			return false, err
		}
		if !consistent(*st, extraDeps) {
			return false, nil
		}
		p.extras = merged
		p.deps = depNames(name, extraDeps)
		st.pins[name] = p
		for _, ed := range extraDeps {
			st.edges = append(st.edges, edge{from: name + "==" + p.release.Version.String(), req: ed})
		}
		queue = append(queue, extraDeps...)
	}
	return true, nil
}

func (s *search) recordConflict(name string, sources []string) {
	if s.conflict == nil {
		s.conflict = &conflict{name: name, constraints: sources}
	}
}

func (s *search) unresolvable() error {
	err := zerr.Wrap(domain.ErrUnresolvableConstraint, "no versions satisfy all constraints")
	if s.conflict == nil {
		return err
	}
	err = zerr.With(err, "package", s.conflict.name)
	return zerr.With(err, "constraints", strings.Join(s.conflict.constraints, "; "))
}
