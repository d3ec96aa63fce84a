package config

import (
	"fmt"
	"os"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envTag        = "env"
	envDefaultTag = "env-default"
)

// Load reads envFile when it exists, then the process environment. Every
// Config field falls back to its env-default tag.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	v := viper.New()
	if err := bindFields(v, reflect.TypeOf(Config{})); err != nil {
		return nil, err
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = envTag
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func bindFields(v *viper.Viper, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get(envTag)
		if name == "" {
			continue
		}
		if err := v.BindEnv(name, name); err != nil {
			return fmt.Errorf("failed to bind %s: %w", name, err)
		}
		v.SetDefault(name, field.Tag.Get(envDefaultTag))
	}
	return nil
}

func (c *Config) Validate() error {
	if c.MatchMinScore < 0 || c.MatchMinScore > 100 {
		return fmt.Errorf("MATCH_MIN_SCORE must be between 0 and 100, got %d", c.MatchMinScore)
	}
	if c.MatchMaxCandidates < 1 {
		return fmt.Errorf("MATCH_MAX_CANDIDATES must be positive, got %d", c.MatchMaxCandidates)
	}
	if c.AutoMatchLimit < 1 {
		return fmt.Errorf("AUTO_MATCH_LIMIT must be positive, got %d", c.AutoMatchLimit)
	}
	if c.AuthEnabled && c.AuthIssuerURL == "" {
		return fmt.Errorf("AUTH_ISSUER_URL is required when AUTH_ENABLED is set")
	}
	return nil
}
