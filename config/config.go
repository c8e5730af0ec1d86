// Package config loads the validation engine's configuration: scoring
// weights, grade thresholds, matcher budgets and import caps. Everything
// the algorithms consume lives here so policy can be tuned without code
// change.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the rule validation engine.
type Config struct {
	Scoring struct {
		Weights struct {
			Precision float64 `mapstructure:"precision" validate:"gte=0,lte=1"`
			Recall    float64 `mapstructure:"recall" validate:"gte=0,lte=1"`
			F1        float64 `mapstructure:"f1" validate:"gte=0,lte=1"`
			Evasion   float64 `mapstructure:"evasion" validate:"gte=0,lte=1"`
		} `mapstructure:"weights"`
		// GradeThresholds maps letter grades to minimum composite scores.
		GradeThresholds map[string]float64 `mapstructure:"grade_thresholds" validate:"required,dive,gte=0,lte=1"`
	} `mapstructure:"scoring"`

	Matcher struct {
		RegexTimeout      time.Duration `mapstructure:"regex_timeout" validate:"gt=0"`
		MaxPatternLength  int           `mapstructure:"max_pattern_length" validate:"gt=0"`
		MaxFieldValueSize int           `mapstructure:"max_field_value_size" validate:"gt=0"`
	} `mapstructure:"matcher"`

	Parser struct {
		MaxTreeDepth int `mapstructure:"max_tree_depth" validate:"gt=0"`
		MaxTreeNodes int `mapstructure:"max_tree_nodes" validate:"gt=0"`
	} `mapstructure:"parser"`

	Import struct {
		MaxBytes int64 `mapstructure:"max_bytes" validate:"gt=0"`
		MaxRows  int   `mapstructure:"max_rows" validate:"gt=0"`
	} `mapstructure:"import"`

	Runner struct {
		// Workers is the evaluation pool size; 0 means one per CPU.
		Workers int `mapstructure:"workers" validate:"gte=0"`
	} `mapstructure:"runner"`

	Logging struct {
		Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	} `mapstructure:"logging"`
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("scoring.weights.precision", 0.2)
	viper.SetDefault("scoring.weights.recall", 0.1)
	viper.SetDefault("scoring.weights.f1", 0.4)
	viper.SetDefault("scoring.weights.evasion", 0.3)
	viper.SetDefault("scoring.grade_thresholds", map[string]float64{
		"A": 0.9,
		"B": 0.8,
		"C": 0.7,
		"D": 0.6,
	})

	viper.SetDefault("matcher.regex_timeout", 100*time.Millisecond)
	viper.SetDefault("matcher.max_pattern_length", 512)
	viper.SetDefault("matcher.max_field_value_size", 65536)

	viper.SetDefault("parser.max_tree_depth", 25)
	viper.SetDefault("parser.max_tree_nodes", 200)

	viper.SetDefault("import.max_bytes", 10*1024*1024)
	viper.SetDefault("import.max_rows", 5000)

	viper.SetDefault("runner.workers", 0)

	viper.SetDefault("logging.level", "info")
}

// Load reads configuration from ruleforge.yaml (working directory or
// /etc/ruleforge), with RULEFORGE_* environment variables taking
// precedence over file values and defaults filling the rest.
func Load() (*Config, error) {
	viper.SetConfigName("ruleforge")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/ruleforge")

	viper.SetEnvPrefix("RULEFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural constraints plus the cross-field rules the
// tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	w := c.Scoring.Weights
	total := w.Precision + w.Recall + w.F1 + w.Evasion
	if total <= 0 {
		return fmt.Errorf("scoring weights must sum to a positive value, got %v", total)
	}
	for grade := range c.Scoring.GradeThresholds {
		// F is the fall-through grade and carries no threshold.
		switch grade {
		case "A", "B", "C", "D":
		default:
			return fmt.Errorf("grade threshold key %q is not a letter grade", grade)
		}
	}
	return nil
}
