package config

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"
)

// Config holds everything the service needs at startup. Values come from
// environment variables (SOLANAMINT_*) or an optional solanamint.yaml in the
// working directory; environment wins.
type Config struct {
	Listen  string `mapstructure:"listen"`
	Network string `mapstructure:"network"` // mainnet, devnet, testnet
	RPCURL  string `mapstructure:"rpc_url"`
	WSURL   string `mapstructure:"ws_url"`

	ServiceWallet string  `mapstructure:"service_wallet"`
	FeeSOL        float64 `mapstructure:"fee_sol"`

	AdminWallet string `mapstructure:"admin_wallet"`

	DBPath           string `mapstructure:"db_path"`
	MetadataEndpoint string `mapstructure:"metadata_endpoint"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("listen", ":8080")
	v.SetDefault("network", "devnet")
	v.SetDefault("fee_sol", 0.001)
	v.SetDefault("db_path", "solanamint.db")

	v.SetConfigName("solanamint")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SOLANAMINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.RPCURL == "" {
		cfg.RPCURL = defaultRPC(cfg.Network)
	}
	if cfg.WSURL == "" {
		cfg.WSURL = defaultWS(cfg.Network)
	}

	return &cfg, nil
}

func defaultRPC(network string) string {
	switch network {
	case "mainnet":
		return rpc.MainNetBeta_RPC
	case "testnet":
		return rpc.TestNet_RPC
	default:
		return rpc.DevNet_RPC
	}
}

func defaultWS(network string) string {
	switch network {
	case "mainnet":
		return rpc.MainNetBeta_WS
	case "testnet":
		return rpc.TestNet_WS
	default:
		return rpc.DevNet_WS
	}
}
