// Package config loads server/client configuration from an optional YAML
// file and environment variables, layered over the built-in defaults from
// internal/server. Command-line flags are not read here.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/crossy/crossy-go/internal/server"
)

// ServerConfig is the on-disk/env shape for a server.Config, expressed in
// plain types viper can bind cleanly (time.Duration parses from a
// "14ms"-style string, matching DesiredTickTime's own unit).
type ServerConfig struct {
	Port               int           `mapstructure:"port"`
	MaxPlayers         int           `mapstructure:"max_players"`
	TickIntervalUs     uint32        `mapstructure:"tick_interval_us"`
	DesiredTickTime    time.Duration `mapstructure:"desired_tick_time"`
	EmptyTicksShutdown int           `mapstructure:"empty_ticks_shutdown"`
	StaticDir          string        `mapstructure:"static_dir"`
}

// Load reads server configuration from path (if non-empty) and from
// CROSSY_-prefixed environment variables, falling back to
// server.DefaultConfig for anything unset.
func Load(path string) (ServerConfig, error) {
	def := server.DefaultConfig()
	cfg := ServerConfig{
		Port:               def.Port,
		MaxPlayers:         def.MaxPlayers,
		TickIntervalUs:     def.TickIntervalUs,
		DesiredTickTime:    def.DesiredTickTime,
		EmptyTicksShutdown: def.EmptyTicksShutdown,
	}

	vp := viper.New()
	vp.SetEnvPrefix("crossy")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	vp.SetDefault("port", cfg.Port)
	vp.SetDefault("max_players", cfg.MaxPlayers)
	vp.SetDefault("tick_interval_us", cfg.TickIntervalUs)
	vp.SetDefault("desired_tick_time", cfg.DesiredTickTime)
	vp.SetDefault("empty_ticks_shutdown", cfg.EmptyTicksShutdown)
	vp.SetDefault("static_dir", cfg.StaticDir)

	if path != "" {
		vp.SetConfigFile(path)
		vp.SetConfigType("yaml")
		vp.AddConfigPath(filepath.Dir(path))
		if err := vp.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := vp.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// ToServerConfig projects back to server.Config for NewServer/Registry.
func (c ServerConfig) ToServerConfig() server.Config {
	return server.Config{
		Port:               c.Port,
		MaxPlayers:         c.MaxPlayers,
		TickIntervalUs:     c.TickIntervalUs,
		DesiredTickTime:    c.DesiredTickTime,
		EmptyTicksShutdown: c.EmptyTicksShutdown,
	}
}
