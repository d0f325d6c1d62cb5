package dune

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "foo", "bar"), ExpandHome("~/foo/bar"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "", ExpandHome(""))
}

func Test_LoadConfig_missingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func Test_LoadConfig_fileOverridesNewFields(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	rc := `
start_dir = "~/projects"
history_file = "~/.custom_history"
history_size = 50
force_direct = true
`
	require.NoError(t, os.WriteFile(filepath.Join(home, ".dunerc.toml"), []byte(rc), 0o644))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "~/projects", cfg.StartDir)
	assert.Equal(t, "~/.custom_history", cfg.HistoryFile)
	assert.Equal(t, 50, cfg.HistorySize)
	assert.True(t, cfg.ForceDirect)
	// untouched fields still come from the default
	assert.Equal(t, DefaultConfig().Prompt, cfg.Prompt)
}
