package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_ADDR points the suite at an already-running relay (ws://host:port).
	// When empty the suite starts a full relay in-process.
	RelayAddr string `envconfig:"RELAY_ADDR"`
	// E2E_DEBUG_JSON allows dumping every frame exchanged with the relay
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
