package detector_test

import (
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/berth/internal/adapters/detector"
	"go.trai.ch/berth/internal/core/domain"
)

func TestDetectEnvironment_CI(t *testing.T) {
	for _, ci := range []string{"true", "1"} {
		t.Run("CI="+ci, func(t *testing.T) {
			t.Setenv("CI", ci)
			assert.Equal(t, detector.ModePlain, detector.DetectEnvironment())
		})
	}
}

func TestDetectEnvironment_NotATerminal(t *testing.T) {
	// go test never attaches stderr to a terminal.
	t.Setenv("CI", "")
	assert.Equal(t, detector.ModePlain, detector.DetectEnvironment())
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		flag     string
		auto     detector.OutputMode
		expected detector.OutputMode
	}{
		{"", detector.ModeColor, detector.ModeColor},
		{"auto", detector.ModePlain, detector.ModePlain},
		{"color", detector.ModePlain, detector.ModeColor},
		{"plain", detector.ModeColor, detector.ModePlain},
		{"json", detector.ModeColor, detector.ModeJSON},
		{"tui", detector.ModePlain, detector.ModeTUI},
		{"", detector.ModeTUI, detector.ModeTUI},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			mode, err := detector.ResolveMode(tt.auto, tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}
}

func TestResolveMode_Unknown(t *testing.T) {
	_, err := detector.ResolveMode(detector.ModeColor, "fancy")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestProfile(t *testing.T) {
	t.Setenv("NO_COLOR", "")

	assert.Equal(t, termenv.Ascii, detector.Profile(detector.ModePlain)())
	assert.Equal(t, termenv.Ascii, detector.Profile(detector.ModeJSON)())
	assert.Equal(t, termenv.ANSI, detector.Profile(detector.ModeColor)())
	assert.Equal(t, termenv.ANSI, detector.Profile(detector.ModeTUI)())

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, detector.Profile(detector.ModeColor)())
}

func TestOutputMode_String(t *testing.T) {
	assert.Equal(t, "json", detector.ModeJSON.String())
	assert.Equal(t, "auto", detector.ModeAuto.String())
	assert.Equal(t, "tui", detector.ModeTUI.String())
}
