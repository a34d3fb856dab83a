package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	cfgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"DATA_DIR", "MAX_BACKUPS", "LOG_LEVEL", "COLUMN_WIDTH"} {
		t.Setenv(envPrefix+"_"+key, "")
	}
	return cfgHome
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	s, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal(t, Settings{MaxBackups: 20, LogLevel: "info", ColumnWidth: 40}, s)
}

func TestLoad_ConfigFileAndEnv(t *testing.T) {
	cfgHome := isolate(t)
	dir := filepath.Join(cfgHome, "sticky-notes")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("data_dir: /srv/notes\nmax_backups: 5\ncolumn_width: 60\n"), 0o644))

	t.Setenv("STICKYNOTES_LOG_LEVEL", "debug")
	t.Setenv("STICKYNOTES_MAX_BACKUPS", "7")

	s, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "/srv/notes", s.DataDir)
	assert.Equal(t, 7, s.MaxBackups)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 60, s.ColumnWidth)
}

func TestLoad_FallsBackOnNonsense(t *testing.T) {
	isolate(t)
	t.Setenv("STICKYNOTES_MAX_BACKUPS", "0")
	t.Setenv("STICKYNOTES_COLUMN_WIDTH", "3")

	s, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxBackups, s.MaxBackups)
	assert.Equal(t, DefaultColumnWidth, s.ColumnWidth)
}

func TestLoad_BrokenConfigFileIsAnError(t *testing.T) {
	cfgHome := isolate(t)
	dir := filepath.Join(cfgHome, "sticky-notes")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("max_backups: [\n"), 0o644))

	_, err := Load(NewViper())
	assert.ErrorContains(t, err, "read config")
}

func TestResolvePaths_CreatesDirectoriesButNotNotes(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")

	p, err := ResolvePaths(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "notes.json"), p.Notes)
	assert.Equal(t, filepath.Join(root, "sticky-notes.log"), p.Log)
	for _, dir := range []string{p.Root, p.Backups, p.Attachments} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	_, err = os.Stat(p.Notes)
	assert.True(t, os.IsNotExist(err))
}

func TestDefaultRoot(t *testing.T) {
	home := func() (string, error) { return "/home/ann", nil }
	env := func(vals map[string]string) func(string) string {
		return func(k string) string { return vals[k] }
	}

	tests := []struct {
		name string
		goos string
		env  map[string]string
		want string
	}{
		{"linux default", "linux", nil, filepath.Join("/home/ann", ".local", "share", "sticky-notes")},
		{"linux xdg", "linux", map[string]string{"XDG_DATA_HOME": "/xdg"}, filepath.Join("/xdg", "sticky-notes")},
		{"darwin", "darwin", nil, filepath.Join("/home/ann", "Library", "Application Support", "StickyNotes")},
		{"windows appdata", "windows", map[string]string{"APPDATA": "/appdata"}, filepath.Join("/appdata", "StickyNotes")},
		{"windows fallback", "windows", nil, filepath.Join("/home/ann", "AppData", "Roaming", "StickyNotes")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := defaultRoot(tt.goos, env(tt.env), home)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := defaultRoot("linux", env(nil), func() (string, error) { return "", errors.New("no home") })
	assert.ErrorContains(t, err, "home")
}
