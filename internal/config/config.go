package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/gitlanes/gitlanes/internal/graph"
)

const (
	defaultRefsAll      = true
	defaultSortDate     = true
	defaultStatusClean  = false
	defaultGraphVisible = true
	defaultCompact      = false
	defaultWatch        = true
)

// Config holds the persisted settings. Command line flags override the
// file values after loading.
type Config struct {
	Refs struct {
		All bool `mapstructure:"all"`
	} `mapstructure:"refs"`
	Sort struct {
		Date bool `mapstructure:"date"`
	} `mapstructure:"sort"`
	Status struct {
		Clean bool `mapstructure:"clean"`
	} `mapstructure:"status"`
	Graph struct {
		Visible bool `mapstructure:"visible"`
	} `mapstructure:"graph"`
	Compact bool `mapstructure:"compact"`
	Watch   bool `mapstructure:"watch"`
}

func defaultConfig() *Config {
	cfg := &Config{Compact: defaultCompact, Watch: defaultWatch}
	cfg.Refs.All = defaultRefsAll
	cfg.Sort.Date = defaultSortDate
	cfg.Status.Clean = defaultStatusClean
	cfg.Graph.Visible = defaultGraphVisible
	return cfg
}

// Load reads config.yaml from $XDG_CONFIG_HOME/gitlanes or
// ~/.config/gitlanes. A missing file yields the defaults.
func Load() (*Config, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, "gitlanes"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "gitlanes"))
	}

	v.SetDefault("refs.all", defaultRefsAll)
	v.SetDefault("sort.date", defaultSortDate)
	v.SetDefault("status.clean", defaultStatusClean)
	v.SetDefault("graph.visible", defaultGraphVisible)
	v.SetDefault("compact", defaultCompact)
	v.SetDefault("watch", defaultWatch)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Settings converts the persisted values into the builder's snapshot.
func (c *Config) Settings() graph.Settings {
	return graph.Settings{
		RefsAll:      c.Refs.All,
		SortDate:     c.Sort.Date,
		CleanStatus:  c.Status.Clean,
		GraphVisible: c.Graph.Visible,
		Compact:      c.Compact,
	}
}
