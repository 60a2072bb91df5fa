package optionlab

import (
	"fmt"
	"os"
	"runtime"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/golang/glog"
	"gopkg.in/yaml.v3"
)

// ImpliedVolConfig bounds the bisection search for implied volatility.
type ImpliedVolConfig struct {
	Tolerance float64 `yaml:"tolerance" default:"0.001" validate:"gt=0"`
	Lower     float64 `yaml:"lower" default:"0.001" validate:"gt=0,ltfield=Upper"`
	Upper     float64 `yaml:"upper" default:"2.0" validate:"gt=0"`
}

// MonteCarloConfig holds the sampling budget of the Monte Carlo engine.
type MonteCarloConfig struct {
	// CheckSamples is the size of the reference run used by CheckValue.
	CheckSamples int `yaml:"check_samples" default:"100000" validate:"gt=0"`
	// Workers caps the goroutines evaluating payoffs. Zero means GOMAXPROCS.
	Workers   int `yaml:"workers" default:"0" validate:"gte=0"`
	ChunkSize int `yaml:"chunk_size" default:"4096" validate:"gt=0"`
}

// GarchConfig holds the starting point and budgets of both GARCH fitters.
type GarchConfig struct {
	InitialOmega float64 `yaml:"initial_omega" default:"0.000001347" validate:"gte=0"`
	InitialAlpha float64 `yaml:"initial_alpha" default:"0.08339" validate:"gte=0,lt=1"`
	InitialBeta  float64 `yaml:"initial_beta" default:"0.9101" validate:"gte=0,lt=1"`

	Restarts        int     `yaml:"restarts" default:"30" validate:"gt=0"`
	Steps           int     `yaml:"steps" default:"50" validate:"gt=0"`
	MinPerturbation float64 `yaml:"min_perturbation" default:"0.01" validate:"gt=0,ltfield=MaxPerturbation"`
	MaxPerturbation float64 `yaml:"max_perturbation" default:"0.20" validate:"gt=0,lt=1"`

	// MaxEvaluations is the likelihood evaluation budget of the bounded
	// optimizer.
	MaxEvaluations int `yaml:"max_evaluations" default:"5000" validate:"gt=0"`
}

// InitialGuess returns the configured starting parameters.
func (c GarchConfig) InitialGuess() GarchParameters {
	return GarchParameters{Omega: c.InitialOmega, Alpha: c.InitialAlpha, Beta: c.InitialBeta}
}

// PDEConfig controls the explicit finite-difference solver.
type PDEConfig struct {
	// StrictStability rejects grids with σ²m²Δt > 1 before stepping.
	// Without it only a diverging grid is rejected.
	StrictStability bool `yaml:"strict_stability" default:"false"`
}

// Config collects every tunable constant of the engines.
type Config struct {
	TradingDaysPerYear int              `yaml:"trading_days_per_year" default:"252" validate:"gt=0"`
	ImpliedVol         ImpliedVolConfig `yaml:"implied_vol"`
	MonteCarlo         MonteCarloConfig `yaml:"monte_carlo"`
	Garch              GarchConfig      `yaml:"garch"`
	PDE                PDEConfig        `yaml:"pde"`
}

// DefaultConfig returns a Config with every documented default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		// Tags are static, so this only fires on a programming error.
		panic(fmt.Sprintf("optionlab: bad config defaults: %v", err))
	}
	return cfg
}

// ParseConfig decodes YAML on top of the defaults and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		msg := fmt.Sprintf("Parsing config failed. %v", err)
		glog.Error(msg)
		return nil, fmt.Errorf("%w: %s", ErrInvalidParameter, msg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		glog.Errorf("Reading config %s failed. %v", path, err)
		return nil, err
	}
	return ParseConfig(data)
}

// Validate checks every field of the config.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		field := verrs[0]
		return invalidParameterf("Config field %s=%v failed rule %s=%s.",
			field.Namespace(), field.Value(), field.Tag(), field.Param())
	}
	return invalidParameterf("Config is invalid. %v", err)
}

func (c *Config) workers() int {
	if c.MonteCarlo.Workers > 0 {
		return c.MonteCarlo.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func orDefault(cfg *Config) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return cfg
}
