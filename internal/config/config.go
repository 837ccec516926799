package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"

	"pairlink/internal/cascade"
	"pairlink/internal/constants"
	"pairlink/internal/store"
	"pairlink/internal/utils"
)

// Config holds everything the client needs to reach a hub: the ordered
// direct addresses, the relay fallback, and where sessions live.
type Config struct {
	// DirectAddrs are tried in order before the relay.
	DirectAddrs []string

	// RelayURL is the relay service base (http or ws scheme); RelayCode
	// is the room to join there. Both must be set for the relay
	// candidate to exist.
	RelayURL  string
	RelayCode string

	StorePath string
	StoreKey  string
	Hostname  string
}

// Load reads .env if present, then the environment, then fills
// defaults. Env always wins over .env, matching godotenv semantics.
func Load() *Config {
	godotenv.Load()

	cfg := &Config{
		RelayURL:  utils.GetEnv(constants.EnvRelayURL, constants.DefaultRelayURL),
		RelayCode: utils.GetEnv(constants.EnvRelayCode, ""),
		StorePath: utils.GetEnv(constants.EnvStorePath, store.DefaultPath()),
		StoreKey:  utils.GetEnv(constants.EnvStoreKey, ""),
		Hostname:  utils.GetEnv(constants.EnvHostname, utils.Hostname()),
	}

	for _, addr := range strings.Split(utils.GetEnv(constants.EnvDirectAddrs, constants.DefaultDirectAddr), ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			cfg.DirectAddrs = append(cfg.DirectAddrs, addr)
		}
	}
	return cfg
}

// Validate rejects configurations with nowhere to connect.
func (c *Config) Validate() error {
	if len(c.DirectAddrs) == 0 && (c.RelayURL == "" || c.RelayCode == "") {
		return fmt.Errorf("no direct address and no relay room configured")
	}
	return nil
}

// DisplayMasked renders the effective configuration with secrets
// masked, for the status listing.
func (c *Config) DisplayMasked() string {
	key := "(not set)"
	if c.StoreKey != "" {
		key = "********"
	}
	relay := c.RelayURL
	if c.RelayCode != "" {
		relay += " (room " + c.RelayCode + ")"
	}
	return fmt.Sprintf("direct      %s\nrelay       %s\nstore       %s\nstore key   %s\nhostname    %s",
		strings.Join(c.DirectAddrs, ", "), relay, c.StorePath, key, c.Hostname)
}

// Endpoints builds the candidate list: direct addresses in configured
// order, then the relay room when one is configured.
func (c *Config) Endpoints() []cascade.Endpoint {
	var eps []cascade.Endpoint
	for i, addr := range c.DirectAddrs {
		name := "direct"
		if len(c.DirectAddrs) > 1 {
			name = fmt.Sprintf("direct-%d", i+1)
		}
		eps = append(eps, cascade.Endpoint{Name: name, URL: utils.WebSocketURL(addr)})
	}
	if c.RelayURL != "" && c.RelayCode != "" {
		eps = append(eps, cascade.Endpoint{Name: "relay", URL: utils.RelayClientURL(c.RelayURL, c.RelayCode)})
	}
	return eps
}
