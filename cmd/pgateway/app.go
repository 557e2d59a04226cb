package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/pushchain/svm-gateway/gatewayClient/chains/svm"
	"github.com/pushchain/svm-gateway/gatewayClient/config"
	"github.com/pushchain/svm-gateway/gatewayClient/constant"
	"github.com/pushchain/svm-gateway/gatewayClient/db"
	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
	"github.com/pushchain/svm-gateway/gatewayClient/logger"
)

const startupHealthTimeout = 5 * time.Second

// app holds what every network command needs.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	programs svm.ProgramConfig
	rpc      *svm.RPCClient
	database *db.DB
	journal  *db.Journal
	client   *svm.Client
}

// loadConfig reads the config under --home and applies flag and env overrides.
func loadConfig(v *viper.Viper) (config.Config, error) {
	cfg, err := config.LoadOrDefault(v.GetString(flagHome))
	if err != nil {
		return config.Config{}, err
	}
	if urls := v.GetStringSlice(flagRPCURL); len(urls) > 0 {
		cfg.RPCURLs = urls
	}
	if level := v.GetInt(flagLogLevel); level >= 0 {
		cfg.LogLevel = level
	}
	if err := config.Validate(&cfg); err != nil {
		return config.Config{}, gwerrors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// loadProgramsOnly is enough for offline commands.
func loadProgramsOnly(v *viper.Viper) (config.Config, svm.ProgramConfig, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return config.Config{}, svm.ProgramConfig{}, err
	}
	programs, err := svm.NewProgramConfig(cfg.GatewayProgramID, cfg.RegistryProgramID)
	if err != nil {
		return config.Config{}, svm.ProgramConfig{}, err
	}
	return cfg, programs, nil
}

// newApp wires config, RPC, fee payer and journal into a gateway client.
func newApp(ctx context.Context, v *viper.Viper) (*app, error) {
	cfg, programs, err := loadProgramsOnly(v)
	if err != nil {
		return nil, err
	}
	log := logger.Init(cfg)

	payer, err := svm.LoadFeePayer(cfg.FeePayerKeypairPath())
	if err != nil {
		return nil, err
	}

	rpcClient, err := svm.NewRPCClient(ctx, cfg.RPCURLs, cfg.GenesisHash, cfg.ReadRetryConfig(), log)
	if err != nil {
		return nil, err
	}
	if !rpcClient.IsHealthy(ctx, startupHealthTimeout) {
		rpcClient.Close()
		return nil, gwerrors.NewRPCError("solana", "no RPC endpoint answered the startup health check", nil)
	}

	database, err := db.OpenFileDB(cfg.JournalDir(), constant.JournalDBName, true)
	if err != nil {
		rpcClient.Close()
		return nil, gwerrors.Wrap(err, "failed to open journal")
	}
	journal := db.NewJournal(database)

	client := svm.NewClient(rpcClient, programs, payer, cfg.TokenDecimals, log).WithJournal(journal)
	log.Debug().
		Str("payer", payer.PublicKey().String()).
		Str("gateway", programs.Gateway.String()).
		Msg("gateway client ready")

	return &app{
		cfg:      cfg,
		log:      log,
		programs: programs,
		rpc:      rpcClient,
		database: database,
		journal:  journal,
		client:   client,
	}, nil
}

func (a *app) Close() {
	a.rpc.Close()
	if err := a.database.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close journal")
	}
}
