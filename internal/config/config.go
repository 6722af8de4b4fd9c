package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "config.yaml"

// Environment overrides applied after the file is read.
const (
	EnvConfigPath = "CONFIG_PATH"
	EnvOutputDir  = "MEMFORENSICS_OUTPUT_DIR"
	EnvLogLevel   = "MEMFORENSICS_LOG_LEVEL"
	EnvHistoryDSN = "MEMFORENSICS_HISTORY_DSN"
)

// Duration unmarshals Go duration strings such as "90s" or "1h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", n.Line, s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return time.Duration(d).String(), nil }

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Toolkit struct {
		Root string `yaml:"root"`
	} `yaml:"toolkit"`

	Legacy struct {
		Interpreter string   `yaml:"interpreter"`
		Script      string   `yaml:"script"`
		PluginDirs  []string `yaml:"pluginDirs"`
	} `yaml:"legacy"`

	Modern struct {
		Interpreter string `yaml:"interpreter"`
		Script      string `yaml:"script"`
		Root        string `yaml:"root"`
	} `yaml:"modern"`

	Sessions struct {
		TTL Duration `yaml:"ttl"`
	} `yaml:"sessions"`

	Timeouts struct {
		Run  Duration `yaml:"run"`
		File Duration `yaml:"file"`
		Dump Duration `yaml:"dump"`
		Help Duration `yaml:"help"`
	} `yaml:"timeouts"`

	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`

	Runner struct {
		MaxConcurrent int      `yaml:"maxConcurrent"`
		WaitDelay     Duration `yaml:"waitDelay"`
	} `yaml:"runner"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	History struct {
		Driver string `yaml:"driver"` // sqlite, mysql, postgres; empty disables
		DSN    string `yaml:"dsn"`
	} `yaml:"history"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Load baca file config. A missing file at DefaultPath yields defaults; any
// other missing path is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvHistoryDSN); v != "" {
		c.History.DSN = v
	}
}

// ApplyDefaults fills unset fields. Toolchain paths are derived from the
// toolkit root layout:
//
//	<root>/python27/python.exe            legacy interpreter
//	<root>/volatility2_python/vol.py      legacy script
//	<root>/volatility2_plugin, vol2plugin legacy plugin dirs
//	<root>/python3/python.exe             modern interpreter
//	<root>/volatility3/vol.py             modern script (volshell.py fallback)
func (c *Config) ApplyDefaults() {
	if c.Toolkit.Root == "" {
		c.Toolkit.Root = "tools"
	}
	root := c.Toolkit.Root

	if c.Legacy.Interpreter == "" {
		c.Legacy.Interpreter = filepath.Join(root, "python27", "python.exe")
	}
	if c.Legacy.Script == "" {
		c.Legacy.Script = filepath.Join(root, "volatility2_python", "vol.py")
	}
	if c.Legacy.PluginDirs == nil {
		c.Legacy.PluginDirs = []string{
			filepath.Join(root, "volatility2_plugin"),
			filepath.Join(root, "vol2plugin"),
		}
	}

	if c.Modern.Root == "" {
		c.Modern.Root = filepath.Join(root, "volatility3")
	}
	if c.Modern.Interpreter == "" {
		c.Modern.Interpreter = filepath.Join(root, "python3", "python.exe")
	}
	if c.Modern.Script == "" {
		c.Modern.Script = filepath.Join(c.Modern.Root, "vol.py")
		if _, err := os.Stat(c.Modern.Script); err != nil {
			alt := filepath.Join(c.Modern.Root, "volshell.py")
			if _, err := os.Stat(alt); err == nil {
				c.Modern.Script = alt
			}
		}
	}

	if c.Sessions.TTL == 0 {
		c.Sessions.TTL = Duration(time.Hour)
	}
	if c.Timeouts.Run == 0 {
		c.Timeouts.Run = Duration(300 * time.Second)
	}
	if c.Timeouts.File == 0 {
		c.Timeouts.File = Duration(600 * time.Second)
	}
	if c.Timeouts.Dump == 0 {
		c.Timeouts.Dump = Duration(600 * time.Second)
	}
	if c.Timeouts.Help == 0 {
		c.Timeouts.Help = Duration(30 * time.Second)
	}
	if c.Runner.WaitDelay == 0 {
		c.Runner.WaitDelay = Duration(5 * time.Second)
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.History.Driver == "sqlite" && c.History.DSN == "" {
		c.History.DSN = filepath.Join(c.Output.Dir, "history.db")
	}
	if c.Minio.Region == "" {
		c.Minio.Region = "us-east-1"
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.History.Driver {
	case "", "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("history.driver: unknown driver %q (allowed: sqlite, mysql, postgres)", c.History.Driver)
	}
	if c.History.Driver != "" && c.History.DSN == "" {
		return fmt.Errorf("history.dsn is required for driver %s", c.History.Driver)
	}
	if c.Runner.MaxConcurrent < 0 {
		return fmt.Errorf("runner.maxConcurrent must be >= 0")
	}
	for name, d := range map[string]Duration{
		"sessions.ttl": c.Sessions.TTL, "timeouts.run": c.Timeouts.Run, "timeouts.file": c.Timeouts.File,
		"timeouts.dump": c.Timeouts.Dump, "timeouts.help": c.Timeouts.Help,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		return fmt.Errorf("minio.endpoint and minio.bucketName are required when minio.enabled is true")
	}
	return nil
}
