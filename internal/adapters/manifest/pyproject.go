package manifest

import (
	"errors"

	"github.com/BurntSushi/toml"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/zerr"
)

type pyprojectFile struct {
	Project struct {
		Name                 string              `toml:"name"`
		RequiresPython       string              `toml:"requires-python"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Berth struct {
			// Extras selects optional dependency groups that are installed as well.
			Extras   []string `toml:"extras"`
			IndexURL string   `toml:"index-url"`
		} `toml:"berth"`
	} `toml:"tool"`
}

func loadPyproject(path string, m *domain.Manifest) error {
	data, err := readManifestFile(path)
	if err != nil {
		return err
	}

	var file pyprojectFile
	if _, err := toml.Decode(string(data), &file); err != nil {
		line := 0
		var perr toml.ParseError
		if errors.As(err, &perr) {
			line = perr.Position.Line
		}
		return zerr.With(invalidAt(path, line, "invalid TOML"), "cause", err.Error())
	}

	if file.Project.RequiresPython != "" {
		c, err := domain.ParseConstraint(file.Project.RequiresPython)
		if err != nil {
			return zerr.With(invalidAt(path, 0, "invalid requires-python"), "requires-python", file.Project.RequiresPython)
		}
		m.RequiresPython = c
	}
	m.IndexURL = file.Tool.Berth.IndexURL

	deps := file.Project.Dependencies
	for _, extra := range file.Tool.Berth.Extras {
		group, ok := file.Project.OptionalDependencies[extra]
		if !ok {
			return zerr.With(invalidAt(path, 0, "unknown optional dependency group"), "extra", extra)
		}
		deps = append(deps, group...)
	}

	for _, dep := range deps {
		req, err := domain.ParseRequirement(dep)
		if err != nil {
			return zerr.With(invalidAt(path, 0, "invalid dependency"), "dependency", dep)
		}
		m.Add(req)
	}
	return nil
}
