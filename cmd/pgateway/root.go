package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pushchain/svm-gateway/gatewayClient/constant"
)

const (
	envPrefix = "PGATEWAY"

	flagHome     = "home"
	flagRPCURL   = "rpc-url"
	flagLogLevel = "log-level"
)

func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "pgateway",
		Short:         "Solana gateway bridge client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String(flagHome, constant.DefaultNodeHome, "node home directory")
	flags.StringSlice(flagRPCURL, nil, "Solana RPC endpoint, repeatable (overrides config)")
	flags.Int(flagLogLevel, -1, "log level 0 (debug) to 5 (panic) (overrides config)")
	_ = v.BindPFlag(flagHome, flags.Lookup(flagHome))
	_ = v.BindPFlag(flagRPCURL, flags.Lookup(flagRPCURL))
	_ = v.BindPFlag(flagLogLevel, flags.Lookup(flagLogLevel))

	InitRootCmd(rootCmd, v)

	return rootCmd
}
