package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
backend:
  base_url: https://news.internal:9000
logging:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://news.internal:9000", cfg.Backend.BaseURL)
	require.Equal(t, 300, cfg.Backend.TimeoutSeconds)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad url", "backend:\n  base_url: ftp://x\n", "http(s) URL"},
		{"empty url", "backend:\n  base_url: \"\"\n", "must be set"},
		{"bad timeout", "backend:\n  timeout_seconds: 0\n", "timeout_seconds"},
		{"bad port", "server:\n  port: 70000\n", "out of range"},
		{"not yaml", "server: [", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", tt.yaml))
			require.Error(t, err)
			require.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel(" warn "))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLoadThemes(t *testing.T) {
	embedded := []byte(`
themes:
  - id: paper
    name: Paper
    scheme: light
    colors: {background: "#ffffff", surface: "#fafafa", header: "#eeeeee", primary: "#336699", danger: "#cc0000", text: "#111111"}
`)

	themes, err := LoadThemes(filepath.Join(t.TempDir(), "none.yaml"), embedded)
	require.NoError(t, err)
	require.Len(t, themes, 1)
	require.Equal(t, "paper", themes[0].ID)

	themes, err = LoadThemes(filepath.Join(t.TempDir(), "none.yaml"), nil)
	require.NoError(t, err)
	require.Equal(t, DefaultThemes(), themes)

	onDisk := writeFile(t, "themes.yaml", "themes: []\n")
	themes, err = LoadThemes(onDisk, embedded)
	require.NoError(t, err)
	require.Equal(t, DefaultThemes(), themes)
}

func TestFindTheme(t *testing.T) {
	themes := DefaultThemes()
	require.Equal(t, "newsprint", FindTheme(themes, "newsprint").ID)
	require.Equal(t, "soft-dark", FindTheme(themes, "missing").ID)
	require.Equal(t, "soft-dark", FindTheme(nil, "missing").ID)
}

func TestResolveThemeCSS(t *testing.T) {
	dark := FindTheme(DefaultThemes(), "soft-dark")
	css := ResolveThemeCSS(dark)
	require.Contains(t, css, "--bg: #222b35;")
	require.Contains(t, css, "--header-text: #ffffff;")
	require.Contains(t, css, "color-scheme: dark;")

	light := FindTheme(DefaultThemes(), "newsprint")
	light.Colors.Header = "#f0f0f0"
	require.Contains(t, ResolveThemeCSS(light), "--header-text: #2d323b;")
}
