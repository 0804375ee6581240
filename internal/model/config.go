package model

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Role names one of the two supervised services.
type Role string

const (
	RoleBackend  Role = "backend"
	RoleFrontend Role = "frontend"
)

// Invocation is a single launch command: a program and its arguments.
type Invocation struct {
	Name string   `mapstructure:"name" yaml:"name"`
	Args []string `mapstructure:"args" yaml:"args,omitempty"`
}

// Backend describes the API server role: a uvicorn app started with the
// first interpreter that spawns. The project virtualenv interpreter, when
// present under Dir, is always tried before Interpreters.
type Backend struct {
	Dir          string   `mapstructure:"dir" yaml:"dir"`
	App          string   `mapstructure:"app" yaml:"app"`
	Host         string   `mapstructure:"host" yaml:"host"`
	Port         int      `mapstructure:"port" yaml:"port"`
	Interpreters []string `mapstructure:"interpreters" yaml:"interpreters"`
	ProbePath    string   `mapstructure:"probe_path" yaml:"probe_path"`
}

// URL is the base URL the backend listens on.
func (b Backend) URL() string {
	return "http://" + b.Host + ":" + strconv.Itoa(b.Port)
}

// ProbeURL is the liveness endpoint polled by the readiness gate.
func (b Backend) ProbeURL() string {
	u, err := url.JoinPath(b.URL(), b.ProbePath)
	if err != nil {
		return b.URL()
	}
	return u
}

// Frontend describes the dev-server role: the first package manager from
// Launchers that spawns. The gate probes the root of URL.
type Frontend struct {
	Dir       string       `mapstructure:"dir" yaml:"dir"`
	URL       string       `mapstructure:"url" yaml:"url"`
	Launchers []Invocation `mapstructure:"launchers" yaml:"launchers"`
}

// Gate configures the readiness polling loop.
type Gate struct {
	Interval     time.Duration `mapstructure:"interval" yaml:"interval"`
	MaxAttempts  int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
}

// Shell configures the display surface bridge.
type Shell struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type Config struct {
	Version  int      `mapstructure:"version" yaml:"version"` // fixed 0 for now
	Backend  Backend  `mapstructure:"backend" yaml:"backend"`
	Frontend Frontend `mapstructure:"frontend" yaml:"frontend"`
	Gate     Gate     `mapstructure:"gate" yaml:"gate"`
	Shell    Shell    `mapstructure:"shell" yaml:"shell"`
	Verbose  bool     `mapstructure:"verbose" yaml:"verbose,omitempty"`
	LogDir   string   `mapstructure:"log_dir" yaml:"log_dir,omitempty"`
}

// DefaultConfig mirrors the layout of the packaged application: the backend
// and frontend checkouts are siblings of the shell's working directory.
func DefaultConfig() Config {
	return Config{
		Backend: Backend{
			Dir:          "../backend",
			App:          "app.main_complete:app",
			Host:         "127.0.0.1",
			Port:         8000,
			Interpreters: []string{"python3", "python", "py"},
			ProbePath:    "/docs",
		},
		Frontend: Frontend{
			Dir: "../frontend",
			URL: "http://127.0.0.1:3000",
			Launchers: []Invocation{
				{Name: "npm", Args: []string{"run", "start"}},
				{Name: "yarn", Args: []string{"start"}},
				{Name: "pnpm", Args: []string{"start"}},
				{Name: "bun", Args: []string{"run", "start"}},
			},
		},
		Gate: Gate{
			Interval:    time.Second,
			MaxAttempts: 60,
		},
		Shell: Shell{
			Addr: "127.0.0.1:7733",
		},
	}
}

// LoadConfig reads path over DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Version != 0 {
		return fmt.Errorf("config version %d is not supported, expected 0", c.Version)
	}
	if c.Backend.Host == "" || c.Backend.Port <= 0 {
		return fmt.Errorf("backend.host and backend.port are required")
	}
	if _, err := url.Parse(c.Frontend.URL); c.Frontend.URL == "" || err != nil {
		return fmt.Errorf("frontend.url %q is not a valid URL", c.Frontend.URL)
	}
	if c.Gate.Interval <= 0 {
		return fmt.Errorf("gate.interval must be positive")
	}
	if c.Gate.MaxAttempts <= 0 {
		return fmt.Errorf("gate.max_attempts must be positive")
	}
	if c.Gate.ProbeTimeout < 0 || c.Gate.ProbeTimeout > c.Gate.Interval {
		return fmt.Errorf("gate.probe_timeout must be between 0 and gate.interval")
	}
	return nil
}
