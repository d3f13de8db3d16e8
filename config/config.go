package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ClientGeth    = "geth"
	ClientJSONRPC = "jsonrpc"
)

// EVMConfig holds connection and signing settings for an EVM chain
type EVMConfig struct {
	RPCUrl     string
	PrivateKey string
	ChainID    uint64
	Client     string // "geth" or "jsonrpc"
}

// SolanaConfig holds connection and signing settings for Solana
type SolanaConfig struct {
	RPCUrl        string
	WSUrl         string
	PrivateKey    string
	Commitment    string
	SkipPreflight bool
}

// Config holds the application configuration
type Config struct {
	APIKey string
	APIURL string
	WSURL  string

	EVM    EVMConfig
	Solana SolanaConfig

	PollInterval time.Duration
	PollTimeout  time.Duration
	AutoConfirm  bool
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".fusion-swap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("api_url", "https://api.1inch.dev")
	viper.SetDefault("ws_url", "wss://api.1inch.dev/fusion/ws/v2.0")
	viper.SetDefault("evm_chain_id", 1)
	viper.SetDefault("evm_client", ClientGeth)
	viper.SetDefault("solana_rpc_url", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("solana_commitment", "confirmed")
	viper.SetDefault("poll_interval", "5s")
	viper.SetDefault("poll_timeout", "10m")

	// Read from environment variables
	viper.SetEnvPrefix("FUSION_SWAP")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	// Create config struct
	cfg := &Config{
		APIKey: viper.GetString("api_key"),
		APIURL: strings.TrimSuffix(viper.GetString("api_url"), "/"),
		WSURL:  viper.GetString("ws_url"),
		EVM: EVMConfig{
			RPCUrl:     viper.GetString("evm_rpc_url"),
			PrivateKey: viper.GetString("evm_private_key"),
			ChainID:    viper.GetUint64("evm_chain_id"),
			Client:     strings.ToLower(viper.GetString("evm_client")),
		},
		Solana: SolanaConfig{
			RPCUrl:        viper.GetString("solana_rpc_url"),
			WSUrl:         viper.GetString("solana_ws_url"),
			PrivateKey:    viper.GetString("solana_private_key"),
			Commitment:    viper.GetString("solana_commitment"),
			SkipPreflight: viper.GetBool("solana_skip_preflight"),
		},
		PollInterval: viper.GetDuration("poll_interval"),
		PollTimeout:  viper.GetDuration("poll_timeout"),
		AutoConfirm:  viper.GetBool("auto_confirm"),
	}

	// Validate API key before any client is constructed
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key not found. Please set FUSION_SWAP_API_KEY environment variable or create a .fusion-swap.yaml config file")
	}

	if cfg.EVM.Client != ClientGeth && cfg.EVM.Client != ClientJSONRPC {
		return nil, fmt.Errorf("invalid evm_client %q: must be %q or %q", cfg.EVM.Client, ClientGeth, ClientJSONRPC)
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll_interval must be greater than 0")
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
