package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/dchesque/SolanaBuilder-sub000/chain"
	"github.com/dchesque/SolanaBuilder-sub000/config"
	"github.com/dchesque/SolanaBuilder-sub000/metastore"
	"github.com/dchesque/SolanaBuilder-sub000/mintflow"
	"github.com/dchesque/SolanaBuilder-sub000/server"
	"github.com/dchesque/SolanaBuilder-sub000/store"
	"github.com/dchesque/SolanaBuilder-sub000/wallet"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	feeCfg := mintflow.ServiceFeeConfig{
		ServiceWallet: cfg.ServiceWallet,
		FeeSOL:        cfg.FeeSOL,
	}
	if err := feeCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid service fee configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	chainClient, err := chain.New(ctx, chain.Config{
		RPCURL:  cfg.RPCURL,
		WSURL:   cfg.WSURL,
		Network: cfg.Network,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Solana RPC")
	}
	defer chainClient.Close()

	if err := chainClient.HealthCheck(ctx); err != nil {
		log.Fatal().Err(err).Msg("Solana health check failed")
	}
	log.Info().Str("network", cfg.Network).Str("rpc", cfg.RPCURL).Msg("Solana RPC connected")

	history, err := store.OpenHistory(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open history database")
	}

	var uploader metastore.Uploader
	if cfg.MetadataEndpoint != "" {
		uploader = metastore.NewHTTPUploader(cfg.MetadataEndpoint, log)
	}

	srv := server.New(
		server.Config{
			AdminWallet: cfg.AdminWallet,
			RPCURL:      cfg.RPCURL,
			FeeConfig:   feeCfg,
		},
		chainClient,
		store.NewRing(store.DefaultLogCapacity),
		store.NewStats(),
		history,
		uploader,
		wallet.NewChallengeVerifier(5*time.Minute),
		log,
	)

	log.Info().Str("listen", cfg.Listen).Msg("server starting")
	if err := http.ListenAndServe(cfg.Listen, srv.Router()); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
