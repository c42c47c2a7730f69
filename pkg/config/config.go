package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/cryptellation/depscout/pkg/status"
)

// Policy holds the advisory policy knobs.
type Policy struct {
	MajorUpdateProtection bool   `mapstructure:"majorUpdateProtection"`
	MinimumBumpLevel      string `mapstructure:"minimumBumpLevel"`
}

// Config is the full depscout configuration.
type Config struct {
	RegistryURL      string        `mapstructure:"registryURL"`
	VersionsTTL      time.Duration `mapstructure:"versionsTTL"`
	AdvisoriesTTL    time.Duration `mapstructure:"advisoriesTTL"`
	ConcurrencyLimit int64         `mapstructure:"concurrencyLimit"`
	DebounceWait     time.Duration `mapstructure:"debounceWait"`
	DebounceDelay    time.Duration `mapstructure:"debounceDelay"`
	Policy           Policy        `mapstructure:"policy"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("registryURL", "")
	v.SetDefault("versionsTTL", 30*time.Minute)
	v.SetDefault("advisoriesTTL", 30*time.Minute)
	v.SetDefault("concurrencyLimit", 4)
	v.SetDefault("debounceWait", 500*time.Millisecond)
	v.SetDefault("debounceDelay", time.Second)
	v.SetDefault("policy.majorUpdateProtection", true)
	v.SetDefault("policy.minimumBumpLevel", string(status.BumpPatch))
}

// Load reads the configuration file at configPath, falling back to defaults
// for anything unset. An empty configPath yields the pure defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	switch status.BumpLevel(c.Policy.MinimumBumpLevel) {
	case status.BumpPatch, status.BumpMinor, status.BumpMajor:
	default:
		return fmt.Errorf("invalid minimumBumpLevel: %q", c.Policy.MinimumBumpLevel)
	}
	if c.ConcurrencyLimit < 0 {
		return fmt.Errorf("concurrencyLimit must not be negative: %d", c.ConcurrencyLimit)
	}
	return nil
}

// StatusPolicy converts the configured policy into classification terms.
func (c *Config) StatusPolicy() status.Policy {
	return status.Policy{
		MajorUpdateProtection: c.Policy.MajorUpdateProtection,
		MinimumBumpLevel:      status.BumpLevel(c.Policy.MinimumBumpLevel),
	}
}
