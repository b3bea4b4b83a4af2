// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// ZINE_VERIFY_TARGET_URL overrides target.url.
const EnvPrefix = "ZINE_VERIFY"

// Config holds the entire application configuration.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"logger" yaml:"logger"`
	Target       TargetConfig       `mapstructure:"target" yaml:"target"`
	Browser      BrowserConfig      `mapstructure:"browser" yaml:"browser"`
	Verification VerificationConfig `mapstructure:"verification" yaml:"verification"`
	Scenarios    ScenariosConfig    `mapstructure:"scenarios" yaml:"scenarios"`
	// Run gets its marching orders from CLI flags, not the config file.
	Run RunConfig `mapstructure:"-" yaml:"-"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// TargetConfig points at the running web application under verification.
// The application must already be serving; starting it is out of scope.
type TargetConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// BrowserConfig holds settings for the headless browser process.
type BrowserConfig struct {
	Headless        bool           `mapstructure:"headless" yaml:"headless"`
	DisableCache    bool           `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	ExecPath        string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args            []string       `mapstructure:"args" yaml:"args"`
	Viewport        map[string]int `mapstructure:"viewport" yaml:"viewport"`
	Debug           bool           `mapstructure:"debug" yaml:"debug"`

	// LaunchTimeout bounds process start plus the first about:blank round trip.
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	// NavigationTimeout bounds page.goto equivalents.
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// ElementTimeout bounds selector resolution for actions that are not
	// explicit wait conditions (upload, click, clear, type, text read).
	ElementTimeout time.Duration `mapstructure:"element_timeout" yaml:"element_timeout"`
	// ScreenshotTimeout bounds a single capture, success or fallback.
	ScreenshotTimeout time.Duration `mapstructure:"screenshot_timeout" yaml:"screenshot_timeout"`
	// CloseTimeout bounds session teardown.
	CloseTimeout time.Duration `mapstructure:"close_timeout" yaml:"close_timeout"`
}

// VerificationConfig controls where fixtures are read from and where
// screenshots are written.
type VerificationConfig struct {
	OutputDir          string        `mapstructure:"output_dir" yaml:"output_dir"`
	FixturesDir        string        `mapstructure:"fixtures_dir" yaml:"fixtures_dir"`
	FallbackScreenshot string        `mapstructure:"fallback_screenshot" yaml:"fallback_screenshot"`
	TypeDelay          time.Duration `mapstructure:"type_delay" yaml:"type_delay"`
	SettleDelay        time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	DefaultGridColumns int           `mapstructure:"default_grid_columns" yaml:"default_grid_columns"`
}

// ScenariosConfig points at an optional YAML file of extra scenarios.
type ScenariosConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// RunConfig holds settings populated from CLI flags for a specific invocation.
type RunConfig struct {
	Scenarios  []string
	All        bool
	Strict     bool
	ReportPath string
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "zine-verify")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Target --
	v.SetDefault("target.url", "http://localhost:8000")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_cache", false)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport", map[string]int{"width": 1280, "height": 720})
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.launch_timeout", "30s")
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.element_timeout", "10s")
	v.SetDefault("browser.screenshot_timeout", "15s")
	v.SetDefault("browser.close_timeout", "10s")

	// -- Verification --
	v.SetDefault("verification.output_dir", "verification")
	v.SetDefault("verification.fixtures_dir", ".")
	v.SetDefault("verification.fallback_screenshot", "verification/error.png")
	v.SetDefault("verification.type_delay", "100ms")
	v.SetDefault("verification.settle_delay", "1000ms")
	v.SetDefault("verification.default_grid_columns", 4)

	// -- Scenarios --
	v.SetDefault("scenarios.file", "")
}

// ConfigureEnv enables ZINE_VERIFY_* environment overrides on v.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in every filesystem path.
func (c *Config) expandPaths() error {
	paths := []*string{
		&c.Logger.LogFile,
		&c.Browser.ExecPath,
		&c.Verification.OutputDir,
		&c.Verification.FixturesDir,
		&c.Verification.FallbackScreenshot,
		&c.Scenarios.File,
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Target.URL == "" {
		return fmt.Errorf("target.url is required")
	}
	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.Verification.Validate(); err != nil {
		return fmt.Errorf("verification configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the browser timeouts.
func (b *BrowserConfig) Validate() error {
	timeouts := map[string]time.Duration{
		"launch_timeout":     b.LaunchTimeout,
		"navigation_timeout": b.NavigationTimeout,
		"element_timeout":    b.ElementTimeout,
		"screenshot_timeout": b.ScreenshotTimeout,
		"close_timeout":      b.CloseTimeout,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("%s must be a positive duration", name)
		}
	}
	return nil
}

// Validate checks the verification settings.
func (vc *VerificationConfig) Validate() error {
	if vc.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if vc.FallbackScreenshot == "" {
		return fmt.Errorf("fallback_screenshot is required")
	}
	if vc.TypeDelay < 0 {
		return fmt.Errorf("type_delay must not be negative")
	}
	if vc.SettleDelay < 0 {
		return fmt.Errorf("settle_delay must not be negative")
	}
	if vc.DefaultGridColumns <= 0 {
		return fmt.Errorf("default_grid_columns must be a positive integer")
	}
	return nil
}
