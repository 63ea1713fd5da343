package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Skin is the dashboard color palette. Values are lipgloss color strings
// (ANSI codes or hex).
type Skin struct {
	Border    string `yaml:"border"`
	Glow      string `yaml:"glow"`
	Accent    string `yaml:"accent"`
	ConnOK    string `yaml:"conn-ok"`
	ConnBad   string `yaml:"conn-bad"`
	Muted     string `yaml:"muted"`
	Text      string `yaml:"text"`
	ActiveDot string `yaml:"active-dot"`
}

// DefaultSkin returns the built-in palette.
func DefaultSkin() Skin {
	return Skin{
		Border:    "240",
		Glow:      "220",
		Accent:    "39",
		ConnOK:    "#44FF44",
		ConnBad:   "#FF4444",
		Muted:     "244",
		Text:      "252",
		ActiveDot: "208",
	}
}

// LoadSkin reads a palette override from path. A missing file is not an
// error: the default palette is returned. Fields absent from the file keep
// their defaults.
func LoadSkin(path string) (Skin, error) {
	skin := DefaultSkin()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return skin, nil
		}
		return skin, fmt.Errorf("skin: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &skin); err != nil {
		return DefaultSkin(), fmt.Errorf("skin: parse %s: %w", path, err)
	}
	return skin, nil
}

// Style accessors. The renderer builds these per pass; lipgloss styles are
// cheap value types.

func (s Skin) cellStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(s.Border)).
		Padding(0, 1)
}

func (s Skin) glowCellStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(lipgloss.Color(s.Glow)).
		Padding(0, 1)
}

func (s Skin) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(s.Accent))
}

func (s Skin) mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(s.Muted))
}

func (s Skin) textStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(s.Text))
}

func (s Skin) connStyle(connected bool) lipgloss.Style {
	c := s.ConnBad
	if connected {
		c = s.ConnOK
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}

func (s Skin) activeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(s.ActiveDot))
}
