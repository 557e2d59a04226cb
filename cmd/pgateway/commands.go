package main

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pushchain/svm-gateway/gatewayClient/chains/svm"
	"github.com/pushchain/svm-gateway/gatewayClient/config"
)

// Set with -ldflags at build time.
var (
	Version = "dev"
	Commit  = ""
)

func InitRootCmd(rootCmd *cobra.Command, v *viper.Viper) {
	rootCmd.AddCommand(configCmd(v))
	rootCmd.AddCommand(deriveCmd(v))
	rootCmd.AddCommand(initCmd(v))
	rootCmd.AddCommand(initAccountCmd(v))
	rootCmd.AddCommand(mintCmd(v))
	rootCmd.AddCommand(burnCountCmd(v))
	rootCmd.AddCommand(burnCmd(v))
	rootCmd.AddCommand(burnLogCmd(v))
	rootCmd.AddCommand(gatewaysCmd(v))
	rootCmd.AddCommand(journalCmd(v))
	rootCmd.AddCommand(versionCmd())
}

func configCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the client configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the node home",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			home := v.GetString(flagHome)
			cfg, err := config.LoadDefaultConfig()
			if err != nil {
				return err
			}
			cfg.NodeHome = home
			if err := config.Save(cfg, home); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote default config to %s\n", home)
			return nil
		},
	})
	return cmd
}

func deriveCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "derive <selector>",
		Short: "Print the program addresses of a selector's gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, programs, err := loadProgramsOnly(v)
			if err != nil {
				return err
			}
			return printDerivation(cmd, svm.NewDeriver(programs), args[0])
		},
	}
}

func printDerivation(cmd *cobra.Command, d *svm.Deriver, selector string) error {
	hash, err := svm.HashSelector(selector)
	if err != nil {
		return err
	}
	state, err := d.GatewayState()
	if err != nil {
		return err
	}
	mint, err := d.TokenMint(hash)
	if err != nil {
		return err
	}
	authority, err := d.MintAuthority(mint.Address)
	if err != nil {
		return err
	}
	registry, err := d.RegistryState()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "selector hash:   %s\n", hash)
	fmt.Fprintf(out, "gateway state:   %s (bump %d)\n", state.Address, state.Bump)
	fmt.Fprintf(out, "token mint:      %s (bump %d)\n", mint.Address, mint.Bump)
	fmt.Fprintf(out, "mint authority:  %s (bump %d)\n", authority.Address, authority.Bump)
	fmt.Fprintf(out, "registry state:  %s (bump %d)\n", registry.Address, registry.Bump)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print pgateway version info",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:       %s\n", "pgateway")
			fmt.Fprintf(out, "Version:    %s\n", Version)
			fmt.Fprintf(out, "Commit:     %s\n", Commit)
			fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
		},
	}
}

// withApp runs fn with a wired app and the configured request deadline.
func withApp(cmd *cobra.Command, v *viper.Viper, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout())
	defer cancel()

	a, err := newApp(ctx, v)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func parseAmount(s string) (uint64, error) {
	amount, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if amount == 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

func parseCount(s string) (uint64, error) {
	count, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid burn count %q: %w", s, err)
	}
	return count, nil
}
