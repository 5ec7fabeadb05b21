package launcher

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/zerr"
)

var (
	defPattern    = regexp.MustCompile(`^(?:async\s+)?(?:def|class)\s+([A-Za-z_]\w*)`)
	assignPattern = regexp.MustCompile(`^([A-Za-z_][\w\s,]*?)\s*(?::[^=]*)?=[^=]`)
	fromPattern   = regexp.MustCompile(`^from\s+\S+\s+import\s+\(?([^)#]*)`)
	importPattern = regexp.MustCompile(`^import\s+([^#]*)`)
)

// checkEntrypoint verifies that module:attr names a source file under one of dirs
// that defines attr at top level. Nothing is executed.
func checkEntrypoint(entrypoint string, dirs ...string) error {
	module, attr, ok := strings.Cut(entrypoint, ":")
	if !ok || module == "" || attr == "" {
		return zerr.With(zerr.Wrap(domain.ErrApplicationImportError, "entrypoint must be module:attribute"), "entrypoint", entrypoint)
	}

	path, err := findModule(module, dirs)
	if err != nil {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrApplicationImportError, "module not found"), "entrypoint", entrypoint), "module", module)
	}

	defined, err := definesName(path, attr)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrApplicationImportError, err.Error()), "path", path)
	}
	if !defined {
		err := zerr.With(zerr.Wrap(domain.ErrApplicationImportError, "attribute not defined at module top level"), "entrypoint", entrypoint)
		return zerr.With(err, "path", path)
	}
	return nil
}

// findModule maps a dotted module name to pkg/mod.py or pkg/mod/__init__.py.
func findModule(module string, dirs []string) (string, error) {
	rel := filepath.Join(strings.Split(module, ".")...)
	for _, dir := range dirs {
		for _, candidate := range []string{
			filepath.Join(dir, rel+".py"),
			filepath.Join(dir, rel, "__init__.py"),
		} {
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, nil
			}
		}
	}
	return "", fs.ErrNotExist
}

func definesName(path, name string) (bool, error) {
	f, err := os.Open(path) //nolint:gosec // path is inside the image
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '#' {
			continue
		}
		if strings.HasPrefix(line, "from ") && strings.Contains(line, "(") {
			line = joinParenthesised(scanner, line)
		}
		if topLevelNames(line, name) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, err
	}
	return false, nil
}

// joinParenthesised folds the continuation lines of `from x import (` onto
// first until the closing parenthesis. Comments are dropped.
func joinParenthesised(scanner *bufio.Scanner, first string) string {
	joined := stripComment(first)
	for !strings.Contains(joined, ")") && scanner.Scan() {
		joined += " " + strings.TrimSpace(stripComment(scanner.Text()))
	}
	return joined
}

func stripComment(line string) string {
	code, _, _ := strings.Cut(line, "#")
	return code
}

// topLevelNames reports whether an unindented source line binds name.
func topLevelNames(line, name string) bool {
	if m := defPattern.FindStringSubmatch(line); m != nil {
		return m[1] == name
	}
	if m := fromPattern.FindStringSubmatch(line); m != nil {
		return importBinds(m[1], name, false)
	}
	if m := importPattern.FindStringSubmatch(line); m != nil {
		return importBinds(m[1], name, true)
	}
	if m := assignPattern.FindStringSubmatch(line); m != nil {
		for target := range strings.SplitSeq(m[1], ",") {
			if strings.TrimSpace(target) == name {
				return true
			}
		}
	}
	return false
}

// importBinds parses "a, b as c" and reports whether name is bound.
// A plain "import pkg.mod" binds only "pkg".
func importBinds(list, name string, dotted bool) bool {
	for item := range strings.SplitSeq(list, ",") {
		fields := strings.Fields(item)
		var bound string
		switch {
		case len(fields) == 3 && fields[1] == "as":
			bound = fields[2]
		case len(fields) == 1:
			bound = fields[0]
			if dotted {
				bound, _, _ = strings.Cut(bound, ".")
			}
		default:
			continue
		}
		if bound == name {
			return true
		}
	}
	return false
}
