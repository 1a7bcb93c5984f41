package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	CommandAddr string `envconfig:"COMMAND_ADDR"`
	QueryAddr   string `envconfig:"QUERY_ADDR"`
	HealthAddr  string `envconfig:"HEALTH_ADDR"`
	// E2E_DEBUG_JSON dumps gRPC health request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_TIMEOUT bounds how long a scenario waits for the projection to catch up
	Timeout int `envconfig:"E2E_TIMEOUT_SECONDS" default:"30"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
