package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/gojo-bot/gojoctl/internal/env"
)

// ErrConfig marks configuration problems that must stop a start before any
// process is launched (missing env file, empty secret, missing script).
var ErrConfig = errors.New("config error")

// Config gathers every path and tunable the supervisor touches. It is built
// once per invocation and passed down; no component reads its own location
// or hardcoded relative paths.
type Config struct {
	// Paths. Relative entries are resolved against BaseDir.
	BaseDir    string `mapstructure:"base_dir"`
	Python     string `mapstructure:"python"`
	ScriptPath string `mapstructure:"script"`
	EnvFile    string `mapstructure:"env_file"`
	LogDir     string `mapstructure:"log_dir"`
	LogFile    string `mapstructure:"log_file"`
	PIDFile    string `mapstructure:"pid_file"`
	LockFile   string `mapstructure:"lock_file"`
	HistoryDB  string `mapstructure:"history_db"`

	// SecretKey is the env-file key that must be present and non-empty
	// before a start is attempted.
	SecretKey string `mapstructure:"secret_key"`

	// Lifecycle tunables. The stop deadline and the forced-kill grace are
	// explicit so operators can widen them for slow shutdown paths.
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
	StopTimeout  time.Duration `mapstructure:"stop_timeout"`
	KillWait     time.Duration `mapstructure:"kill_wait"`
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// TailLines is the diagnostic tail length shown on a failed start.
	TailLines int `mapstructure:"tail_lines"`
}

// Default returns the stock configuration rooted at baseDir.
func Default(baseDir string) Config {
	return Config{
		BaseDir:      baseDir,
		Python:       "python3",
		ScriptPath:   "bot.py",
		EnvFile:      ".env",
		LogDir:       "logs",
		LogFile:      "logs/bot.log",
		PIDFile:      "logs/bot.pid",
		LockFile:     "logs/bot.lock",
		HistoryDB:    "logs/history.db",
		SecretKey:    "DISCORD_TOKEN",
		SettleDelay:  2 * time.Second,
		StopTimeout:  10 * time.Second,
		KillWait:     2 * time.Second,
		PollInterval: 200 * time.Millisecond,
		TailLines:    15,
	}
}

// Load builds the configuration: defaults, then an optional TOML file, then
// GOJOCTL_* environment overrides. path may be empty, in which case
// <baseDir>/gojoctl.toml is used when present.
func Load(path, baseDir string) (Config, error) {
	d := Default(baseDir)

	v := viper.New()
	v.SetEnvPrefix("GOJOCTL")
	v.AutomaticEnv()
	// Register every key so env overrides resolve even without a file.
	v.SetDefault("base_dir", d.BaseDir)
	v.SetDefault("python", d.Python)
	v.SetDefault("script", d.ScriptPath)
	v.SetDefault("env_file", d.EnvFile)
	v.SetDefault("log_dir", d.LogDir)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("pid_file", d.PIDFile)
	v.SetDefault("lock_file", d.LockFile)
	v.SetDefault("history_db", d.HistoryDB)
	v.SetDefault("secret_key", d.SecretKey)
	v.SetDefault("settle_delay", d.SettleDelay)
	v.SetDefault("stop_timeout", d.StopTimeout)
	v.SetDefault("kill_wait", d.KillWait)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("tail_lines", d.TailLines)

	if path == "" {
		candidate := filepath.Join(baseDir, "gojoctl.toml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: read %s: %v", ErrConfig, path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %v", ErrConfig, path, err)
	}
	// base_dir from file/env moves the root only when explicitly set.
	if c.BaseDir == "" {
		c.BaseDir = baseDir
	}
	c.resolve()
	return c, nil
}

// resolve makes every relative path absolute with respect to BaseDir.
func (c *Config) resolve() {
	if c.BaseDir == "" {
		c.BaseDir = "."
	}
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.BaseDir, p)
	}
	c.ScriptPath = abs(c.ScriptPath)
	c.EnvFile = abs(c.EnvFile)
	c.LogDir = abs(c.LogDir)
	c.LogFile = abs(c.LogFile)
	c.PIDFile = abs(c.PIDFile)
	c.LockFile = abs(c.LockFile)
	c.HistoryDB = abs(c.HistoryDB)
}

// CheckSecret verifies the env file exists and carries a non-empty value for
// SecretKey. The value itself is never read beyond the emptiness check.
func (c Config) CheckSecret() error {
	vars, err := env.ParseFile(c.EnvFile)
	if err != nil {
		return fmt.Errorf("%w: env file %s: %v", ErrConfig, c.EnvFile, err)
	}
	if vars[c.SecretKey] == "" {
		return fmt.Errorf("%w: %s is not set in %s", ErrConfig, c.SecretKey, c.EnvFile)
	}
	return nil
}

// ChildEnv returns the merged environment for the supervised process.
func (c Config) ChildEnv() ([]string, error) {
	vars, err := env.ParseFile(c.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("%w: env file %s: %v", ErrConfig, c.EnvFile, err)
	}
	return env.Merge(vars), nil
}
