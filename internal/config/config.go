// Package config loads runtime configuration from the environment and
// static game assets from YAML files.
package config

import (
	"time"

	"github.com/louisbranch/gavel/internal/platform/config"
)

// Config holds env-parsed server configuration. Variables carry the
// GAVEL_ prefix in the environment; the parser adds it.
//
// These values are read once at startup so operator-controlled knobs can
// be tuned without changing runtime code paths.
type Config struct {
	Addr          string `env:"ADDR"           envDefault:":27016"`
	WebSocketAddr string `env:"WEBSOCKET_ADDR" envDefault:""`

	Hostname    string `env:"HOSTNAME"     envDefault:"$H"`
	ServerName  string `env:"SERVER_NAME"  envDefault:"An Unnamed Server"`
	Description string `env:"DESCRIPTION"  envDefault:""`
	PlayerLimit int    `env:"PLAYER_LIMIT" envDefault:"100"`
	ModPassword string `env:"MOD_PASSWORD" envDefault:""`

	// Timeout disconnects a client that never completes the handshake.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"250s"`

	// Extra client features advertised on top of the base set.
	ModcallReason bool `env:"FEATURE_MODCALL_REASON" envDefault:"false"`

	MusicFloodTimes  int           `env:"MUSIC_FLOOD_TIMES"  envDefault:"1"`
	MusicFloodWindow time.Duration `env:"MUSIC_FLOOD_WINDOW" envDefault:"2s"`
	WTCEFloodTimes   int           `env:"WTCE_FLOOD_TIMES"   envDefault:"5"`
	WTCEFloodWindow  time.Duration `env:"WTCE_FLOOD_WINDOW"  envDefault:"10s"`

	AssetDir   string `env:"ASSET_DIR"   envDefault:"config"`
	LogDir     string `env:"LOG_DIR"     envDefault:"logs"`
	StorageDir string `env:"STORAGE_DIR" envDefault:"storage"`

	Debug bool `env:"DEBUG" envDefault:"false"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
