package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/berth/internal/core/domain"
)

func TestParseVersion_Normalizes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.0", "1.0"},
		{"v2.0.0", "2.0.0"},
		{"1.0-alpha1", "1.0a1"},
		{"1.0.beta.2", "1.0b2"},
		{"1.0c1", "1.0rc1"},
		{"1.0-1", "1.0.post1"},
		{"1.0.post", "1.0.post0"},
		{"1.0.dev", "1.0.dev0"},
		{"1!2.0", "1!2.0"},
		{"1.0+Ubuntu-1", "1.0+ubuntu.1"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := domain.ParseVersion(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestParseVersion_Invalid(t *testing.T) {
	for _, in := range []string{"", "not-a-version", "1.0.x", "==1.0"} {
		_, err := domain.ParseVersion(in)
		require.Error(t, err, in)
		assert.ErrorIs(t, err, domain.ErrInvalidVersion)
	}
}

func TestVersion_Compare(t *testing.T) {
	ordered := []string{
		"0.9", "1.0.dev0", "1.0a1", "1.0a2.dev1", "1.0a2", "1.0b2", "1.0rc1",
		"1.0", "1.0+local.1", "1.0.post1.dev0", "1.0.post1", "1.1", "1!0.5",
	}

	for i := range len(ordered) - 1 {
		a := domain.MustParseVersion(ordered[i])
		b := domain.MustParseVersion(ordered[i+1])
		assert.Equal(t, -1, a.Compare(b), "%s < %s", ordered[i], ordered[i+1])
		assert.Equal(t, 1, b.Compare(a), "%s > %s", ordered[i+1], ordered[i])
	}

	assert.True(t, domain.MustParseVersion("1.0").Equal(domain.MustParseVersion("1.0.0")))
}

func TestSortVersionsDesc(t *testing.T) {
	vs := []domain.Version{
		domain.MustParseVersion("1.2.0"),
		domain.MustParseVersion("1.10.0"),
		domain.MustParseVersion("1.5.0"),
	}
	domain.SortVersionsDesc(vs)

	got := make([]string, len(vs))
	for i, v := range vs {
		got[i] = v.String()
	}
	assert.Equal(t, []string{"1.10.0", "1.5.0", "1.2.0"}, got)
}

func TestConstraint_Allows(t *testing.T) {
	tests := []struct {
		constraint string
		allowed    []string
		rejected   []string
	}{
		{">=1.0,<2.0", []string{"1.0", "1.2.0", "1.5.0", "1.99"}, []string{"0.9", "2.0", "2.0rc1", "2.1"}},
		{"~=1.4.2", []string{"1.4.2", "1.4.9"}, []string{"1.4.1", "1.5.0"}},
		{"~=1.4", []string{"1.4", "1.9"}, []string{"1.3", "2.0"}},
		{"==1.2.*", []string{"1.2", "1.2.7"}, []string{"1.3", "1.20"}},
		{"!=1.5.0", []string{"1.4", "1.5.1"}, []string{"1.5"}},
		{">1.7", []string{"1.8", "1.7.1"}, []string{"1.7", "1.7.post1", "1.7+local"}},
		{">1.0rc1", []string{"1.0", "1.0rc2"}, []string{"1.0rc1", "1.0.post1"}},
		{">1.0a1", []string{"1.0b1", "1.0"}, []string{"1.0a1"}},
		{">1.0.dev0", []string{"1.0", "1.0a1"}, []string{"1.0.dev0"}},
		{">1.7.post1", []string{"1.7.post2", "1.8"}, []string{"1.7.post1", "1.7"}},
		{"==1.0", []string{"1.0", "1.0.0", "1.0+local"}, []string{"1.0.1"}},
		{"", []string{"0.1", "99"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			c, err := domain.ParseConstraint(tt.constraint)
			require.NoError(t, err)

			for _, v := range tt.allowed {
				assert.True(t, c.Allows(domain.MustParseVersion(v)), "%s should allow %s", tt.constraint, v)
			}
			for _, v := range tt.rejected {
				assert.False(t, c.Allows(domain.MustParseVersion(v)), "%s should reject %s", tt.constraint, v)
			}
		})
	}
}

func TestConstraint_Canonical(t *testing.T) {
	c := domain.MustParseConstraint("<2.0, >=1.0, >=1.0")
	assert.Equal(t, "<2.0,>=1.0", c.String())

	merged := domain.MustParseConstraint(">=1.0").Intersect(domain.MustParseConstraint("<2.0"))
	assert.Equal(t, c.String(), merged.String())

	assert.True(t, domain.MustParseConstraint(">=2.0b1").AllowsPrerelease())
	assert.False(t, domain.MustParseConstraint(">=2.0").AllowsPrerelease())
	assert.True(t, domain.Constraint{}.IsAny())
}

func TestConstraint_Invalid(t *testing.T) {
	for _, in := range []string{"1.0", ">>1", ">=", "<=1.*", "~=1"} {
		_, err := domain.ParseConstraint(in)
		require.Error(t, err, in)
		assert.ErrorIs(t, err, domain.ErrInvalidConstraint, in)
	}
}

func TestMarker_Evaluate(t *testing.T) {
	env := domain.DefaultConfig().MarkerEnv()
	env.PlatformMachine = "x86_64"

	tests := []struct {
		marker string
		want   bool
	}{
		{`python_version >= "3.8"`, true},
		{`python_version < "3.8"`, false},
		{`python_full_version >= "3.12.0"`, true},
		{`sys_platform == "win32"`, false},
		{`platform_system == "Windows" or python_version >= "3.10"`, true},
		{`(sys_platform == "linux" and platform_machine == "x86_64")`, true},
		{`sys_platform == "linux" and (os_name == "nt" or platform_machine == "arm64")`, false},
		{`"linux" in sys_platform`, true},
		{`implementation_name not in "pypy"`, true},
		{`extra == "socks"`, false},
		{``, true},
	}

	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			m, err := domain.ParseMarker(tt.marker)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Evaluate(env))
		})
	}
}

func TestMarker_Extras(t *testing.T) {
	m, err := domain.ParseMarker(`extra == "Socks"`)
	require.NoError(t, err)

	env := domain.DefaultConfig().MarkerEnv()
	assert.False(t, m.Evaluate(env))
	assert.True(t, m.Evaluate(env.WithExtras([]string{"socks"})))
}

func TestMarker_Invalid(t *testing.T) {
	for _, in := range []string{`python_version >=`, `foo == "1"`, `(python_version == "3.8"`, `python_version == "3.8`} {
		_, err := domain.ParseMarker(in)
		require.Error(t, err, in)
		assert.ErrorIs(t, err, domain.ErrInvalidMarker, in)
	}
}

func TestParseRequirement(t *testing.T) {
	req, err := domain.ParseRequirement(`Requests[socks, Security] >= 2.31, <3 ; python_version >= "3.8"`)
	require.NoError(t, err)

	assert.Equal(t, "requests", req.Name.String())
	assert.Equal(t, []string{"security", "socks"}, req.Extras)
	assert.Equal(t, "<3,>=2.31", req.Constraint.String())
	assert.False(t, req.Marker.IsEmpty())
	assert.Equal(t, `requests[security,socks]<3,>=2.31; python_version >= "3.8"`, req.String())

	legacy, err := domain.ParseRequirement("Foo_Bar.baz (>=1.0)")
	require.NoError(t, err)
	assert.Equal(t, "foo-bar-baz", legacy.Name.String())
	assert.Equal(t, ">=1.0", legacy.Constraint.String())

	bare, err := domain.ParseRequirement("uvicorn")
	require.NoError(t, err)
	assert.True(t, bare.Constraint.IsAny())
}

func TestParseRequirement_Invalid(t *testing.T) {
	for _, in := range []string{"", "pkg @ https://example.com/pkg.whl", "-e .", "pkg >=", "pkg; foo == 1"} {
		_, err := domain.ParseRequirement(in)
		require.Error(t, err, in)
		assert.ErrorIs(t, err, domain.ErrInvalidRequirement, in)
	}
}

func TestManifest_AddMergesDuplicates(t *testing.T) {
	var m domain.Manifest
	m.Add(domain.MustParseRequirement("x>=1.0"))
	m.Add(domain.MustParseRequirement("y"))
	m.Add(domain.MustParseRequirement("X[extra]<2.0"))

	require.Len(t, m.Requirements, 2)
	assert.Equal(t, "x", m.Requirements[0].Name.String())
	assert.Equal(t, "<2.0,>=1.0", m.Requirements[0].Constraint.String())
	assert.Equal(t, []string{"extra"}, m.Requirements[0].Extras)
	assert.Equal(t, "x[extra]<2.0,>=1.0\ny", m.Canonical())
}

func TestManifest_AddKeepsDistinctMarkers(t *testing.T) {
	var m domain.Manifest
	m.Add(domain.MustParseRequirement(`x<2.0; python_version < "3.8"`))
	m.Add(domain.MustParseRequirement(`x>=2.0; python_version >= "3.8"`))
	m.Add(domain.MustParseRequirement(`x!=2.1; python_version >= "3.8"`))

	require.Len(t, m.Requirements, 2)
	assert.Equal(t, "<2.0", m.Requirements[0].Constraint.String())
	assert.Equal(t, `python_version < "3.8"`, m.Requirements[0].Marker.String())
	assert.Equal(t, "!=2.1,>=2.0", m.Requirements[1].Constraint.String())
	assert.Equal(t, `python_version >= "3.8"`, m.Requirements[1].Marker.String())

	env := domain.DefaultConfig().MarkerEnv()
	env.PythonVersion = "3.12"
	var applied []string
	for _, r := range m.Requirements {
		if r.Marker.Evaluate(env) {
			applied = append(applied, r.Constraint.String())
		}
	}
	assert.Equal(t, []string{"!=2.1,>=2.0"}, applied)
}

func TestLock_SortsAndLooksUp(t *testing.T) {
	lock := domain.NewLock("sha256:abc", "3.12", []domain.LockedPackage{
		{Name: "uvicorn", Version: "0.30.0", Requires: []string{"h11", "click", "h11"}},
		{Name: "click", Version: "8.1.7"},
		{Name: "h11", Version: "0.14.0", Hashes: []string{"bb", "aa"}},
	})

	assert.Equal(t, []string{"click", "h11", "uvicorn"}, lock.Names())
	assert.Equal(t, 3, lock.Len())
	assert.Equal(t, domain.LockSchemaVersion, lock.SchemaVersion)

	uv, ok := lock.Get("uvicorn")
	require.True(t, ok)
	assert.Equal(t, []string{"click", "h11"}, uv.Requires)

	h11, _ := lock.Get("h11")
	assert.Equal(t, []string{"aa", "bb"}, h11.Hashes)

	click, _ := lock.Get("click")
	assert.NotNil(t, click.Requires)

	_, ok = lock.Get("fastapi")
	assert.False(t, ok)

	assert.Equal(t, map[string]string{"click": "8.1.7", "h11": "0.14.0", "uvicorn": "0.30.0"}, lock.Pins())
	assert.False(t, lock.FullyHashed())
	assert.False(t, domain.NewLock("", "3.12", nil).FullyHashed())
}

func TestStateMachine_ForwardOnly(t *testing.T) {
	m := domain.NewStateMachine(domain.StateUnresolved)

	require.NoError(t, m.Advance(domain.StateLocked))
	assert.Equal(t, domain.StateLocked, m.Current())

	err := m.Advance(domain.StateRunning)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	err = m.Advance(domain.StateUnresolved)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StateLocked, m.Current())

	require.NoError(t, m.Advance(domain.StateAssembled))
	require.NoError(t, m.Advance(domain.StateRunning))
	require.ErrorIs(t, m.Advance(domain.StateRunning+1), domain.ErrInvalidTransition)
}

func TestStageFor(t *testing.T) {
	assert.Equal(t, domain.StageResolve, domain.StageFor(domain.StateUnresolved))
	assert.Equal(t, domain.StageAssemble, domain.StageFor(domain.StateLocked))
	assert.Equal(t, domain.StageLaunch, domain.StageFor(domain.StateAssembled))
}

func TestStageError(t *testing.T) {
	err := error(&domain.StageError{
		Stage: domain.StageLaunch,
		State: domain.StateAssembled,
		Err:   domain.ErrBindError,
	})

	assert.ErrorIs(t, err, domain.ErrBindError)
	assert.Equal(t, "launch stage failed (halted at assembled): failed to bind listening address", err.Error())

	var stageErr *domain.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, domain.StageLaunch, stageErr.Stage)
}

func TestConfig_Validate(t *testing.T) {
	cfg := domain.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:8000", cfg.Address())

	tests := []struct {
		name   string
		mutate func(*domain.Config)
	}{
		{"port zero", func(c *domain.Config) { c.Port = 0 }},
		{"port too large", func(c *domain.Config) { c.Port = 70000 }},
		{"bad host", func(c *domain.Config) { c.Host = "not a host" }},
		{"entrypoint without attribute", func(c *domain.Config) { c.Entrypoint = "main" }},
		{"empty server command", func(c *domain.Config) { c.ServerCommand = nil }},
		{"zero timeout", func(c *domain.Config) { c.ReadyTimeout = 0 }},
		{"bad python", func(c *domain.Config) { c.Python.Version = "three" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := domain.DefaultConfig()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), domain.ErrInvalidConfig)
		})
	}
}

func TestConfig_MarkerEnv(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Python.Version = "3.11.4"

	env := cfg.MarkerEnv()
	assert.Equal(t, "3.11", env.PythonVersion)
	assert.Equal(t, "3.11.4", env.PythonFullVersion)
	assert.Equal(t, "Linux", env.PlatformSystem)
	assert.Equal(t, "posix", env.OSName)
}

func TestComputeImageID_Deterministic(t *testing.T) {
	a := domain.ComputeImageID("sha256:lock", "abcd", []string{"libgomp1", "libssl3"}, "main:app")
	b := domain.ComputeImageID("sha256:lock", "abcd", []string{"libssl3", "libgomp1"}, "main:app")
	c := domain.ComputeImageID("sha256:lock", "abce", []string{"libgomp1", "libssl3"}, "main:app")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestImage_RuntimeEnv(t *testing.T) {
	img := &domain.Image{Root: "/images/abc", WorkingDir: domain.AppDirName, Host: "0.0.0.0", Port: 8000}

	env := img.RuntimeEnv()
	assert.Contains(t, env, "PYTHONPATH=/images/abc/site-packages")
	assert.Equal(t, "/images/abc/app", img.AppDir())
	assert.Equal(t, "0.0.0.0:8000", img.Address())
}

func TestInternedString(t *testing.T) {
	a := domain.NewInternedString("fastapi")
	b := domain.NewInternedString("fastapi")
	assert.Equal(t, a, b)
	assert.Equal(t, "fastapi", a.String())
	assert.Empty(t, domain.InternedString{}.String())

	var decoded domain.InternedString
	require.NoError(t, decoded.UnmarshalText([]byte("uvicorn")))
	assert.Equal(t, "uvicorn", decoded.String())
}
