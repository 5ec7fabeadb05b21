package manifest

import (
	"bufio"
	"bytes"
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/zerr"
)

var commentRe = regexp.MustCompile(`(^|\s)#.*$`)

// logicalLine is a requirements line after joining backslash continuations.
type logicalLine struct {
	text string
	num  int
}

// loadRequirements parses a requirements file into m, following -r includes.
// visiting holds the absolute paths of files on the current include chain.
func loadRequirements(path string, m *domain.Manifest, visiting map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if visiting[abs] {
		return zerr.With(zerr.Wrap(domain.ErrManifestIncludeCycle, "file includes itself"), "file", path)
	}
	visiting[abs] = true
	defer delete(visiting, abs)

	data, err := readManifestFile(path)
	if err != nil {
		return err
	}

	for _, line := range logicalLines(data) {
		text := strings.TrimSpace(commentRe.ReplaceAllString(line.text, ""))
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "-") {
			if err := applyOption(path, line.num, text, m, visiting); err != nil {
				return err
			}
			continue
		}

		req, err := domain.ParseRequirement(text)
		if err != nil {
			return zerr.With(invalidAt(path, line.num, "invalid requirement"), "cause", err.Error())
		}
		m.Add(req)
	}
	return nil
}

func applyOption(path string, num int, text string, m *domain.Manifest, visiting map[string]bool) error {
	opt, value := splitOption(text)
	if value == "" {
		return zerr.With(invalidAt(path, num, "option requires a value"), "option", opt)
	}

	switch opt {
	case "-r", "--requirement":
		include := value
		if !filepath.IsAbs(include) {
			include = filepath.Join(filepath.Dir(path), include)
		}
		return loadRequirements(include, m, visiting)
	case "-i", "--index-url":
		m.IndexURL = value
		return nil
	default:
		return zerr.With(invalidAt(path, num, "unsupported option"), "option", opt)
	}
}

// splitOption splits "-r file", "-rfile", "--requirement file" and "--requirement=file".
func splitOption(text string) (opt, value string) {
	if strings.HasPrefix(text, "--") {
		if name, val, ok := strings.Cut(text, "="); ok && !strings.ContainsAny(name, " \t") {
			return name, strings.TrimSpace(val)
		}
		name, val, _ := strings.Cut(text, " ")
		return name, strings.TrimSpace(val)
	}

	if len(text) < 2 {
		return text, ""
	}
	return text[:2], strings.TrimSpace(text[2:])
}

func logicalLines(data []byte) []logicalLine {
	var (
		lines   []logicalLine
		current strings.Builder
		start   int
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for num := 1; scanner.Scan(); num++ {
		raw := scanner.Text()
		if current.Len() == 0 {
			start = num
		}
		if before, ok := strings.CutSuffix(raw, `\`); ok {
			current.WriteString(before)
			current.WriteByte(' ')
			continue
		}
		current.WriteString(raw)
		lines = append(lines, logicalLine{text: current.String(), num: start})
		current.Reset()
	}
	if current.Len() > 0 {
		lines = append(lines, logicalLine{text: current.String(), num: start})
	}
	return lines
}
