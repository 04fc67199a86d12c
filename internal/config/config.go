// Package config loads scenario parameters from YAML with defaults,
// normalization, and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/epiworld/internal/agents"
	"github.com/talgya/epiworld/internal/mixing"
)

// Config is a full scenario description.
type Config struct {
	Seed           int64 `yaml:"seed"`
	Years          int   `yaml:"years"`
	PopulationSize int   `yaml:"population_size"`
	Workers        int   `yaml:"workers"` // query-phase goroutines, 0 = GOMAXPROCS

	// Index dimensions and eligibility window.
	Locations       int `yaml:"locations"`
	AgeBands        int `yaml:"age_bands"`
	SocioBehaviours int `yaml:"socio_behaviours"`
	Biomedicals     int `yaml:"biomedicals"`
	MinAge          int `yaml:"min_age"`
	MaxAge          int `yaml:"max_age"`

	// Epidemic seeding and demographics.
	InitialPrevalence float64 `yaml:"initial_prevalence"`
	BirthRate         float64 `yaml:"birth_rate"`     // births per eligible woman per step
	MortalityRate     float64 `yaml:"mortality_rate"` // baseline death probability per step
	LifeExpectancy    int     `yaml:"life_expectancy"`

	// Location mixing. Policy rows are relative weights, one row per own
	// location; mixing_fallback selects what happens to a row whose weighted
	// destinations are all empty ("uniform" or "none").
	MixingPolicy   [][]float64 `yaml:"mixing_policy"`
	MixingFallback string      `yaml:"mixing_fallback"`

	// Mean casual partners per step, one entry per socio-behaviour category.
	PartnerRates []float64 `yaml:"partner_rates"`

	Disease agents.DiseaseParams `yaml:"disease"`
}

// Load reads a scenario file. An empty path yields the default scenario.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("scenario: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("scenario: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Seed:              42,
		Years:             60,
		PopulationSize:    50000,
		Locations:         8,
		AgeBands:          1,
		SocioBehaviours:   2,
		Biomedicals:       2,
		MinAge:            15,
		MaxAge:            40,
		InitialPrevalence: 0.01,
		BirthRate:         0.18,
		MortalityRate:     0.008,
		LifeExpectancy:    75,
		MixingFallback:    "uniform",
		Disease:           agents.DefaultDiseaseParams(),
	}
}

// Normalize fills derived defaults that depend on the declared dimensions.
func (c *Config) Normalize() {
	if len(c.MixingPolicy) == 0 {
		// Diagonal-heavy default: most pairing stays local, the remainder
		// spreads evenly over the other locations.
		c.MixingPolicy = make([][]float64, c.Locations)
		for i := range c.MixingPolicy {
			row := make([]float64, c.Locations)
			for j := range row {
				if i == j {
					row[j] = 0.8
				} else if c.Locations > 1 {
					row[j] = 0.2 / float64(c.Locations-1)
				}
			}
			c.MixingPolicy[i] = row
		}
	}
	if len(c.PartnerRates) == 0 {
		// Each higher risk category doubles the mean partner count.
		c.PartnerRates = make([]float64, c.SocioBehaviours)
		rate := 0.5
		for i := range c.PartnerRates {
			c.PartnerRates[i] = rate
			rate *= 2
		}
	}
	if c.Workers < 0 {
		c.Workers = 0
	}
	if c.Biomedicals <= 0 {
		c.Biomedicals = 1
	}
}

// Validate rejects scenarios the engine cannot run.
func (c *Config) Validate() error {
	if c.Locations <= 0 || c.AgeBands <= 0 || c.SocioBehaviours <= 0 {
		return fmt.Errorf("dimensions must be positive: locations=%d age_bands=%d socio_behaviours=%d",
			c.Locations, c.AgeBands, c.SocioBehaviours)
	}
	if c.MinAge < 0 || c.MaxAge < c.MinAge {
		return fmt.Errorf("invalid eligibility window [%d, %d]", c.MinAge, c.MaxAge)
	}
	if c.PopulationSize <= 0 {
		return fmt.Errorf("population_size must be positive, got %d", c.PopulationSize)
	}
	if c.Years <= 0 {
		return fmt.Errorf("years must be positive, got %d", c.Years)
	}
	if c.InitialPrevalence < 0 || c.InitialPrevalence > 1 {
		return fmt.Errorf("initial_prevalence must be in [0, 1], got %g", c.InitialPrevalence)
	}
	if len(c.MixingPolicy) != c.Locations {
		return fmt.Errorf("mixing_policy has %d rows, want %d", len(c.MixingPolicy), c.Locations)
	}
	for i, row := range c.MixingPolicy {
		if len(row) != c.Locations {
			return fmt.Errorf("mixing_policy row %d has %d columns, want %d", i, len(row), c.Locations)
		}
		for j, w := range row {
			if w < 0 {
				return fmt.Errorf("mixing_policy[%d][%d] is negative: %g", i, j, w)
			}
		}
	}
	if len(c.PartnerRates) != c.SocioBehaviours {
		return fmt.Errorf("partner_rates has %d entries, want %d", len(c.PartnerRates), c.SocioBehaviours)
	}
	switch c.MixingFallback {
	case "uniform", "none":
	default:
		return fmt.Errorf("mixing_fallback must be %q or %q, got %q", "uniform", "none", c.MixingFallback)
	}
	return nil
}

// Fallback maps the configured fallback name to the mixing policy constant.
// Call only after Validate.
func (c *Config) Fallback() mixing.Fallback {
	if c.MixingFallback == "none" {
		return mixing.FallbackNone
	}
	return mixing.FallbackUniform
}
