package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Theme is a named colour palette applied through CSS custom properties.
type Theme struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Scheme string `yaml:"scheme"` // "dark" or "light"
	Colors struct {
		Background string `yaml:"background"`
		Surface    string `yaml:"surface"`
		Header     string `yaml:"header"`
		Primary    string `yaml:"primary"`
		Danger     string `yaml:"danger"`
		Text       string `yaml:"text"`
	} `yaml:"colors"`
}

type themesFile struct {
	Themes []Theme `yaml:"themes"`
}

// LoadThemes reads themes from path. When the file is missing the embedded
// YAML is used, and when that is empty too the built-in palette is returned.
func LoadThemes(path string, embedded []byte) ([]Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read themes file: %w", err)
		}
		data = embedded
	}
	if len(data) == 0 {
		return DefaultThemes(), nil
	}

	var f themesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse themes file: %w", err)
	}
	if len(f.Themes) == 0 {
		return DefaultThemes(), nil
	}
	return f.Themes, nil
}

// FindTheme looks up a theme by ID, falling back to the first one.
func FindTheme(themes []Theme, id string) Theme {
	for _, t := range themes {
		if t.ID == id {
			return t
		}
	}
	if len(themes) > 0 {
		return themes[0]
	}
	return DefaultThemes()[0]
}

// DefaultThemes returns the palette used when no themes file is available.
func DefaultThemes() []Theme {
	var dark, light Theme

	dark.ID, dark.Name, dark.Scheme = "soft-dark", "Soft Dark", "dark"
	dark.Colors.Background = "#222b35"
	dark.Colors.Surface = "#2b3642"
	dark.Colors.Header = "#1b232b"
	dark.Colors.Primary = "#447163"
	dark.Colors.Danger = "#b5524a"
	dark.Colors.Text = "#e9efea"

	light.ID, light.Name, light.Scheme = "newsprint", "Newsprint", "light"
	light.Colors.Background = "#f3f1ea"
	light.Colors.Surface = "#ffffff"
	light.Colors.Header = "#2d323b"
	light.Colors.Primary = "#3c6c60"
	light.Colors.Danger = "#c0392b"
	light.Colors.Text = "#2d323b"

	return []Theme{dark, light}
}

// ResolveThemeCSS renders the theme as custom property declarations for
// injection inside :root { ... }.
func ResolveThemeCSS(t Theme) string {
	c := t.Colors
	bg := parseHex(c.Background)
	surface := parseHex(c.Surface)
	header := parseHex(c.Header)
	text := parseHex(c.Text)

	border := blend(surface, text, 0.20)
	muted := blend(text, bg, 0.40)
	hover := scale(surface, 0.94)
	if t.Scheme == "dark" {
		hover = lift(surface, 0.06)
	}

	headerText := "#ffffff"
	if luminance(header) > 0.5 {
		headerText = "#2d323b"
	}

	var b strings.Builder
	prop := func(name, value string) {
		fmt.Fprintf(&b, "--%s: %s; ", name, value)
	}
	prop("bg", c.Background)
	prop("bg-surface", c.Surface)
	prop("bg-surface-hover", hex(hover))
	prop("bg-header", c.Header)
	prop("header-text", headerText)
	prop("border", hex(border))
	prop("primary", c.Primary)
	prop("danger", c.Danger)
	prop("text", c.Text)
	prop("text-muted", hex(muted))
	fmt.Fprintf(&b, "color-scheme: %s;", t.Scheme)
	return b.String()
}

type rgb struct{ r, g, b uint8 }

func parseHex(s string) rgb {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	var c rgb
	fmt.Sscanf(s, "%02x%02x%02x", &c.r, &c.g, &c.b)
	return c
}

func hex(c rgb) string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

func blend(a, b rgb, ratio float64) rgb {
	mix := func(x, y uint8) uint8 { return uint8(float64(x)*(1-ratio) + float64(y)*ratio) }
	return rgb{mix(a.r, b.r), mix(a.g, b.g), mix(a.b, b.b)}
}

func scale(c rgb, factor float64) rgb {
	f := func(x uint8) uint8 { return uint8(math.Min(255, math.Max(0, float64(x)*factor))) }
	return rgb{f(c.r), f(c.g), f(c.b)}
}

func lift(c rgb, amount float64) rgb {
	f := func(x uint8) uint8 { return uint8(math.Min(255, float64(x)+amount*255)) }
	return rgb{f(c.r), f(c.g), f(c.b)}
}

func luminance(c rgb) float64 {
	return 0.2126*float64(c.r)/255 + 0.7152*float64(c.g)/255 + 0.0722*float64(c.b)/255
}
