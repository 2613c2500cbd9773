// File: internal/config/config.go
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Ambient() AmbientConfig
	RayTrace() RayTraceConfig
	GhostFocus() GhostFocusConfig
	Analysis() AnalysisConfig
	SetAnalysisConfig(ac AnalysisConfig)

	// RayTrace Setters
	SetRayTraceMaxBounces(int)
	SetRayTraceMinEnergy(float64)

	// GhostFocus Setters
	SetGhostFocusMaxBounces(int)
}

// Config holds the entire application configuration. Fields are exported
// so viper can unmarshal into them; consumers go through the Interface's
// getter methods.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	AmbientCfg    AmbientConfig    `mapstructure:"ambient" yaml:"ambient"`
	RayTraceCfg   RayTraceConfig   `mapstructure:"ray_trace" yaml:"ray_trace"`
	GhostFocusCfg GhostFocusConfig `mapstructure:"ghost_focus" yaml:"ghost_focus"`
	// AnalysisCfg gets its marching orders from CLI flags, not the config file.
	AnalysisCfg AnalysisConfig `mapstructure:"-" yaml:"-"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Ambient() AmbientConfig       { return c.AmbientCfg }
func (c *Config) RayTrace() RayTraceConfig     { return c.RayTraceCfg }
func (c *Config) GhostFocus() GhostFocusConfig { return c.GhostFocusCfg }
func (c *Config) Analysis() AnalysisConfig     { return c.AnalysisCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetAnalysisConfig(ac AnalysisConfig) { c.AnalysisCfg = ac }

// RayTrace Setters
func (c *Config) SetRayTraceMaxBounces(b int)    { c.RayTraceCfg.MaxBounces = b }
func (c *Config) SetRayTraceMinEnergy(j float64) { c.RayTraceCfg.MinEnergyJoules = j }

// GhostFocus Setters
func (c *Config) SetGhostFocusMaxBounces(b int) { c.GhostFocusCfg.MaxBounces = b }

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

// AmbientConfig describes the medium the scenery sits in.
type AmbientConfig struct {
	// RefractiveIndex of the space between nodes. Vacuum is 1.0.
	RefractiveIndex float64 `mapstructure:"refractive_index" yaml:"refractive_index"`
	// AlignmentWavelengthNm is used when a node needs a wavelength
	// outside a geometric trace.
	AlignmentWavelengthNm float64 `mapstructure:"alignment_wavelength_nm" yaml:"alignment_wavelength_nm"`
}

// RayTraceConfig bounds geometric traces.
type RayTraceConfig struct {
	// MissedSurface decides the fate of rays missing a surface:
	// "stop" drops them, "ignore" lets them continue unchanged.
	MissedSurface string `mapstructure:"missed_surface" yaml:"missed_surface"`
	// MinEnergyJoules drops rays below this floor after each node.
	MinEnergyJoules float64 `mapstructure:"min_energy_joules" yaml:"min_energy_joules"`
	// MaxBounces filters rays exceeding this reflection count.
	MaxBounces int `mapstructure:"max_bounces" yaml:"max_bounces"`
	// MaxRefractions filters rays exceeding this refraction count.
	MaxRefractions int `mapstructure:"max_refractions" yaml:"max_refractions"`
}

// GhostFocusConfig bounds ghost-focus runs.
type GhostFocusConfig struct {
	// MaxBounces is the highest reflection order followed. Zero admits
	// only the direct path.
	MaxBounces int `mapstructure:"max_bounces" yaml:"max_bounces"`
}

// AnalysisConfig holds settings populated from CLI flags for a specific
// analysis job.
type AnalysisConfig struct {
	Analyzer string
	Scenery  string
	Output   string
	Format   string
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "beamline-cli")
	v.SetDefault("logger.log_file", "beamline.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Ambient --
	v.SetDefault("ambient.refractive_index", 1.0)
	v.SetDefault("ambient.alignment_wavelength_nm", 1054.0)

	// -- Ray trace --
	v.SetDefault("ray_trace.missed_surface", "stop")
	v.SetDefault("ray_trace.min_energy_joules", 1e-12)
	v.SetDefault("ray_trace.max_bounces", 1000)
	v.SetDefault("ray_trace.max_refractions", 1000)

	// -- Ghost focus --
	v.SetDefault("ghost_focus.max_bounces", 2)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.AmbientCfg.RefractiveIndex < 1.0 {
		return fmt.Errorf("ambient.refractive_index must be at least 1.0")
	}
	if c.AmbientCfg.AlignmentWavelengthNm <= 0 {
		return fmt.Errorf("ambient.alignment_wavelength_nm must be a positive length")
	}
	if err := c.RayTraceCfg.Validate(); err != nil {
		return fmt.Errorf("ray_trace configuration invalid: %w", err)
	}
	if c.GhostFocusCfg.MaxBounces < 0 {
		return fmt.Errorf("ghost_focus.max_bounces must not be negative")
	}
	return nil
}

// Validate checks the ray-trace bounds.
func (r *RayTraceConfig) Validate() error {
	switch r.MissedSurface {
	case "stop", "ignore":
	default:
		return fmt.Errorf("missed_surface must be stop or ignore, got %q", r.MissedSurface)
	}
	if r.MinEnergyJoules < 0 {
		return fmt.Errorf("min_energy_joules must not be negative")
	}
	if r.MaxBounces < 0 {
		return fmt.Errorf("max_bounces must not be negative")
	}
	if r.MaxRefractions < 0 {
		return fmt.Errorf("max_refractions must not be negative")
	}
	return nil
}
