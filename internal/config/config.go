// Package config loads capsched configuration from a YAML file, the
// environment (CAPSCHED_ prefix) and command-line flags, in that order of
// precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/capsched/capsched/internal/planner"
	"github.com/capsched/capsched/internal/srs"
)

// SRS is the scheduling policy section.
type SRS struct {
	Intervals       []int   `koanf:"intervals"`
	RetentionFactor float64 `koanf:"retention_factor" validate:"gt=0"`
	RecencyRatio    float64 `koanf:"recency_ratio" validate:"gt=0,lte=1"`
	GraceDays       int     `koanf:"grace_days" validate:"gte=0"`
}

// Planner is the study-time cost model section.
type Planner struct {
	BaseMinutes      int     `koanf:"base_minutes" validate:"gte=0"`
	ConceptMinutes   float64 `koanf:"concept_minutes" validate:"gte=0"`
	FlashcardMinutes float64 `koanf:"flashcard_minutes" validate:"gte=0"`
	QuizMinutes      float64 `koanf:"quiz_minutes" validate:"gte=0"`
	QuizThreshold    float64 `koanf:"quiz_threshold" validate:"gte=0,lte=100"`
}

// Config is the full application configuration.
type Config struct {
	DBPath       string  `koanf:"db_path" validate:"required"`
	ReposDir     string  `koanf:"repos_dir" validate:"required"`
	DailyMinutes int     `koanf:"daily_minutes" validate:"gte=1"`
	SRS          SRS     `koanf:"srs"`
	Planner      Planner `koanf:"planner"`
}

// Default returns the configuration used when nothing overrides it. The
// policy sections mirror the engine defaults so a configless run behaves
// exactly like srs.DefaultPolicy / planner.DefaultPolicy.
func Default() Config {
	sp := srs.DefaultPolicy()
	pp := planner.DefaultPolicy()
	return Config{
		DBPath:       "capsched.db",
		ReposDir:     "repos",
		DailyMinutes: 60,
		SRS: SRS{
			Intervals:       sp.Intervals,
			RetentionFactor: sp.RetentionFactor,
			RecencyRatio:    sp.RecencyRatio,
			GraceDays:       sp.GraceDays,
		},
		Planner: Planner{
			BaseMinutes:      pp.BaseMinutes,
			ConceptMinutes:   pp.ConceptMinutes,
			FlashcardMinutes: pp.FlashcardMinutes,
			QuizMinutes:      pp.QuizMinutes,
			QuizThreshold:    pp.QuizThreshold,
		},
	}
}

// Load merges defaults, the optional config file, CAPSCHED_* environment
// variables and any set flags, then validates the result. Flag names map to
// keys with dashes turned into underscores (--daily-minutes → daily_minutes).
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", configFile, err)
		}
	}

	if err := k.Load(env.Provider("CAPSCHED_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "CAPSCHED_")), "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		p := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, interface{}) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(p, nil); err != nil {
			return Config{}, fmt.Errorf("loading flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and the interval ladder shape.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if len(c.SRS.Intervals) == 0 || c.SRS.Intervals[0] != 0 {
		return fmt.Errorf("invalid configuration: srs.intervals must start at 0")
	}
	for i := 1; i < len(c.SRS.Intervals); i++ {
		if c.SRS.Intervals[i] < c.SRS.Intervals[i-1] {
			return fmt.Errorf("invalid configuration: srs.intervals must be non-decreasing (index %d)", i)
		}
	}
	return nil
}

// SRSPolicy builds the scheduling policy from the configuration.
func (c Config) SRSPolicy() *srs.Policy {
	return &srs.Policy{
		Intervals:       c.SRS.Intervals,
		RetentionFactor: c.SRS.RetentionFactor,
		RecencyRatio:    c.SRS.RecencyRatio,
		GraceDays:       c.SRS.GraceDays,
	}
}

// PlannerPolicy builds the cost model from the configuration.
func (c Config) PlannerPolicy() *planner.Policy {
	return &planner.Policy{
		BaseMinutes:      c.Planner.BaseMinutes,
		ConceptMinutes:   c.Planner.ConceptMinutes,
		FlashcardMinutes: c.Planner.FlashcardMinutes,
		QuizMinutes:      c.Planner.QuizMinutes,
		QuizThreshold:    c.Planner.QuizThreshold,
	}
}
