package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configFile = ".charm-exchange-config.json"
	stateFile  = ".charm-exchange-state.json"
)

// Config represents the application configuration
type Config struct {
	RPCURLs []RPCUrl      `json:"rpc_urls"`
	Wallets []WalletEntry `json:"wallets"`
	Logger  bool          `json:"logger"`

	// StatePath is where the session is persisted. Empty means
	// DefaultStatePath.
	StatePath string `json:"state_path,omitempty"`
	// DebounceMS overrides the keystroke debounce per input instance
	// (sell, buy, recipient, agent, preview).
	DebounceMS map[string]int `json:"debounce_ms,omitempty"`
	// AutoCommitManual skips the confirmation for typed addresses.
	AutoCommitManual bool `json:"auto_commit_manual"`
}

// RPCUrl represents an RPC endpoint
type RPCUrl struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	ChainID int64  `json:"chain_id,omitempty"`
	Active  bool   `json:"active"`
}

// WalletEntry represents a wallet in the config
type WalletEntry struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Active  bool   `json:"active"`
}

// DefaultPath returns the config file in the user's home directory.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, configFile)
}

// DefaultStatePath returns the session file in the user's home directory.
func DefaultStatePath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, stateFile)
}

// Load reads the config from the specified path
func Load(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}

	return cfg
}

// Save writes the config to the specified path
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// DefaultConfig returns a new configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		RPCURLs: []RPCUrl{
			{Name: "Public Mainnet", URL: "https://ethereum-rpc.publicnode.com", ChainID: 1, Active: true},
			{Name: "Public Optimism", URL: "https://optimism-rpc.publicnode.com", ChainID: 10},
			{Name: "Public Polygon", URL: "https://polygon-bor-rpc.publicnode.com", ChainID: 137},
			{Name: "Public Base", URL: "https://base-rpc.publicnode.com", ChainID: 8453},
			{Name: "Public Sepolia", URL: "https://ethereum-sepolia-rpc.publicnode.com", ChainID: 11155111},
		},
		Wallets: []WalletEntry{
			{
				Name:    "vitalik.eth",
				Address: "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045",
				Active:  true,
			},
		},
		Logger: false,
	}
}

// LoadOrCreate loads config from path, or creates a default one if not found
func LoadOrCreate(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		cfg := DefaultConfig()
		_ = Save(path, cfg)
		return cfg
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		// Invalid config, return default
		return DefaultConfig()
	}

	return cfg
}

// ApplyEnv adds ETH_RPC_URL as the active endpoint when no RPC is
// configured.
func (c *Config) ApplyEnv() {
	rpcFromEnv := strings.TrimSpace(os.Getenv("ETH_RPC_URL"))
	if len(c.RPCURLs) == 0 && rpcFromEnv != "" {
		c.RPCURLs = []RPCUrl{{Name: "Default", URL: rpcFromEnv, Active: true}}
	}
}

// ActiveRPC returns the endpoint marked active.
func (c Config) ActiveRPC() (RPCUrl, bool) {
	for _, r := range c.RPCURLs {
		if r.Active {
			return r, true
		}
	}
	return RPCUrl{}, false
}

// RPCForChain returns the first endpoint known to serve chainID, preferring
// the active one.
func (c Config) RPCForChain(chainID int64) (RPCUrl, bool) {
	if r, ok := c.ActiveRPC(); ok && r.ChainID == chainID {
		return r, true
	}
	for _, r := range c.RPCURLs {
		if r.ChainID == chainID {
			return r, true
		}
	}
	return RPCUrl{}, false
}

// SetActiveRPC marks url active and every other endpoint inactive. It
// reports whether url is configured.
func (c *Config) SetActiveRPC(url string) bool {
	found := false
	for i := range c.RPCURLs {
		c.RPCURLs[i].Active = c.RPCURLs[i].URL == url
		found = found || c.RPCURLs[i].Active
	}
	return found
}

// SetChainID records the chain an endpoint answered with.
func (c *Config) SetChainID(url string, chainID int64) {
	for i := range c.RPCURLs {
		if c.RPCURLs[i].URL == url {
			c.RPCURLs[i].ChainID = chainID
		}
	}
}

// ActiveWallet returns the wallet marked active, or the first one.
func (c Config) ActiveWallet() (WalletEntry, bool) {
	for _, w := range c.Wallets {
		if w.Active {
			return w, true
		}
	}
	if len(c.Wallets) > 0 {
		return c.Wallets[0], true
	}
	return WalletEntry{}, false
}

// SetActiveWallet marks address active, case-insensitively.
func (c *Config) SetActiveWallet(address string) bool {
	found := false
	for i := range c.Wallets {
		c.Wallets[i].Active = strings.EqualFold(c.Wallets[i].Address, address)
		found = found || c.Wallets[i].Active
	}
	return found
}

// Debounce returns the configured debounce for instance, or zero.
func (c Config) Debounce(instance string) time.Duration {
	ms, ok := c.DebounceMS[instance]
	if !ok || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// ResolvedStatePath returns StatePath or the default.
func (c Config) ResolvedStatePath() string {
	if c.StatePath != "" {
		return c.StatePath
	}
	return DefaultStatePath()
}
