package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
	assert.NoError(t, s.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server: http://scriptures.example.com/
filter_mode: incoming
include_suggested: true
request_timeout: 5s
`), 0o644))
	t.Setenv("XREF_THEME", "dracula")
	t.Setenv("XREF_DEFAULT_VERSE", "Moro. 10:4")

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://scriptures.example.com/", s.Server)
	assert.Equal(t, "incoming", s.FilterMode)
	assert.True(t, s.IncludeSuggested)
	assert.Equal(t, 5*time.Second, s.RequestTimeout)
	assert.Equal(t, "dracula", s.Theme)
	assert.Equal(t, "Moro. 10:4", s.DefaultVerse)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := Default()
	want.Theme = "classic"
	want.FilterMode = "outgoing"
	want.CacheTree = true

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"relative server", func(s *Settings) { s.Server = "/elements" }},
		{"empty verse", func(s *Settings) { s.DefaultVerse = " " }},
		{"bad filter", func(s *Settings) { s.FilterMode = "both" }},
		{"negative timeout", func(s *Settings) { s.RequestTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestSavePreferences_OnlyTouchesPreferenceKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server: http://scriptures.example.com/
theme: dracula
request_timeout: 5s
`), 0o644))

	require.NoError(t, SavePreferences(path, Preferences{
		Theme:            "solarized-dark",
		FilterMode:       "outgoing",
		IncludeSuggested: true,
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "log_file")
	assert.NotContains(t, string(raw), "default_verse")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://scriptures.example.com/", s.Server)
	assert.Equal(t, 5*time.Second, s.RequestTimeout)
	assert.Equal(t, "solarized-dark", s.Theme)
	assert.Equal(t, "outgoing", s.FilterMode)
	assert.True(t, s.IncludeSuggested)
}

func TestSavePreferences_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, SavePreferences(path, Preferences{Theme: "classic", FilterMode: "all"}))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "classic", s.Theme)
	assert.Equal(t, Default().Server, s.Server)
}
