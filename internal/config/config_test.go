package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDefaultResolvesAgainstBaseDir(t *testing.T) {
	dir := t.TempDir()
	c, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bot.py"), c.ScriptPath)
	assert.Equal(t, filepath.Join(dir, "logs/bot.log"), c.LogFile)
	assert.Equal(t, filepath.Join(dir, "logs/bot.pid"), c.PIDFile)
	assert.Equal(t, "DISCORD_TOKEN", c.SecretKey)
	assert.Equal(t, 10*time.Second, c.StopTimeout)
}

func TestLoadTOMLOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "gojoctl.toml")
	writeFile(t, cfgPath, `
script = "main.py"
python = "/usr/bin/python3.12"
stop_timeout = "30s"
tail_lines = 40
`)
	c, err := Load(cfgPath, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "main.py"), c.ScriptPath)
	assert.Equal(t, "/usr/bin/python3.12", c.Python)
	assert.Equal(t, 30*time.Second, c.StopTimeout)
	assert.Equal(t, 40, c.TailLines)
	// untouched fields keep defaults
	assert.Equal(t, filepath.Join(dir, "logs/bot.pid"), c.PIDFile)
}

func TestLoadImplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "gojoctl.toml"), `secret_key = "BOT_TOKEN"`)
	c, err := Load("", dir)
	require.NoError(t, err)
	assert.Equal(t, "BOT_TOKEN", c.SecretKey)
}

func TestLoadBadTOML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "broken.toml")
	writeFile(t, cfgPath, `script = [unclosed`)
	_, err := Load(cfgPath, dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestCheckSecret(t *testing.T) {
	dir := t.TempDir()
	c := Default(dir)
	c.resolve()

	// no env file at all
	err := c.CheckSecret()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))

	// present but empty value
	writeFile(t, c.EnvFile, "DISCORD_TOKEN=\n")
	err = c.CheckSecret()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))

	// good
	writeFile(t, c.EnvFile, "DISCORD_TOKEN=abc\n")
	assert.NoError(t, c.CheckSecret())
}

func TestChildEnvMergesDotenv(t *testing.T) {
	dir := t.TempDir()
	c := Default(dir)
	c.resolve()
	writeFile(t, c.EnvFile, "DISCORD_TOKEN=abc\nEXTRA=1\n")
	envv, err := c.ChildEnv()
	require.NoError(t, err)
	assert.Contains(t, envv, "DISCORD_TOKEN=abc")
	assert.Contains(t, envv, "EXTRA=1")
}
