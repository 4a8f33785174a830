// config_test.go
package ebscript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Config_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ebs.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
history_file = "/tmp/hist"
library_path = "/opt/ebs/lib"
safe_directories = ["/srv/data", "/tmp"]
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/hist", cfg.HistoryFile)
	assert.Equal(t, "/opt/ebs/lib", cfg.LibraryPath)
	assert.Equal(t, []string{"/srv/data", "/tmp"}, cfg.SafeDirs)
	assert.Equal(t, "/tmp/hist", cfg.History())
}

func Test_Config_Missing_Explicit_Path_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func Test_Config_Bad_TOML_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`history_file = [`), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func Test_Config_History_Default_NonEmpty(t *testing.T) {
	cfg := &Config{}
	assert.NotEmpty(t, cfg.History())
}
