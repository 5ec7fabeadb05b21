// Package detector selects the output mode from the terminal and CI environment.
package detector

import (
	"os"

	"github.com/muesli/termenv"
	"go.trai.ch/berth/internal/core/domain"
	"go.trai.ch/berth/internal/ui/output"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// OutputMode represents how progress and logs are rendered.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeColor renders styled output.
	ModeColor
	// ModePlain renders output without escape sequences.
	ModePlain
	// ModeJSON emits structured JSON logs.
	ModeJSON
	// ModeTUI renders the interactive terminal interface.
	ModeTUI
)

func (m OutputMode) String() string {
	switch m {
	case ModeColor:
		return "color"
	case ModePlain:
		return "plain"
	case ModeJSON:
		return "json"
	case ModeTUI:
		return "tui"
	default:
		return "auto"
	}
}

// DetectEnvironment returns the recommended output mode.
// The interactive interface is used only on a terminal outside CI.
func DetectEnvironment() OutputMode {
	if isTerminal() && !isCI() {
		return ModeTUI
	}
	return ModePlain
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func isCI() bool {
	ci := os.Getenv("CI")
	return ci == "true" || ci == "1"
}

// ResolveMode applies the --output flag to the auto-detected mode.
// userFlag should be one of: "auto", "tui", "color", "plain", "json", or empty.
func ResolveMode(autoDetected OutputMode, userFlag string) (OutputMode, error) {
	switch userFlag {
	case "tui":
		return ModeTUI, nil
	case "color":
		return ModeColor, nil
	case "plain":
		return ModePlain, nil
	case "json":
		return ModeJSON, nil
	case "auto", "":
		return autoDetected, nil
	default:
		return ModeAuto, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "unknown output mode"), "output", userFlag)
	}
}

// Profile returns the color profile function for mode.
// Forced color on a non-terminal falls back to basic ANSI colors.
func Profile(mode OutputMode) func() termenv.Profile {
	if mode != ModeColor && mode != ModeTUI {
		return output.PlainProfile
	}
	if isTerminal() {
		return output.ColorProfile
	}
	return output.ColorProfileANSI
}
