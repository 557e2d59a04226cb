package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pushchain/svm-gateway/gatewayClient/chains/svm"
)

const (
	flagAuthorityKey = "authority-key"
	flagPHash        = "p-hash"
	flagNHash        = "n-hash"
	flagCount        = "count"
	flagKind         = "kind"
	flagLimit        = "limit"
)

func initCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "init <authority-address> <selector>",
		Short: "Initialize a gateway for selector with the given mint authority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !common.IsHexAddress(args[0]) {
				return fmt.Errorf("invalid authority address %q", args[0])
			}
			authority := common.HexToAddress(args[0])
			return withApp(cmd, v, func(ctx context.Context, a *app) error {
				sig, err := a.client.Initialize(ctx, authority, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), sig)
				return nil
			})
		},
	}
}

func initAccountCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "init-account <selector>",
		Short: "Create the fee payer's token account for selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, v, func(ctx context.Context, a *app) error {
				sig, err := a.client.InitializeAccount(ctx, args[0])
				if err != nil {
					return err
				}
				ata, err := a.client.TokenAccount(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\ntoken account: %s\n", sig, ata)
				return nil
			})
		},
	}
}

func mintCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint <selector> <amount>",
		Short: "Mint to the fee payer, signing the authorization with a local authority key",
		Long: `Mint wrapped tokens to the fee payer's token account.

The authority key is read from --authority-key or PGATEWAY_AUTHORITY_KEY.
A local key is meant for devnets; production mints are signed by the
validator network.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			authority, err := svm.NewLocalAuthority(v.GetString(flagAuthorityKey))
			if err != nil {
				return err
			}
			pHash, err := parseHash32(v.GetString(flagPHash))
			if err != nil {
				return fmt.Errorf("invalid --%s: %w", flagPHash, err)
			}
			nHash, err := parseHash32(v.GetString(flagNHash))
			if err != nil {
				return fmt.Errorf("invalid --%s: %w", flagNHash, err)
			}

			req := svm.MintRequest{Selector: args[0], Amount: amount, PHash: pHash, NHash: nHash}
			return withApp(cmd, v, func(ctx context.Context, a *app) error {
				sig, err := a.client.Mint(ctx, req, authority)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), sig)
				return nil
			})
		},
	}
	cmd.Flags().String(flagAuthorityKey, "", "hex secp256k1 authority key")
	cmd.Flags().String(flagPHash, "", "hex payload hash (default zero)")
	cmd.Flags().String(flagNHash, "", "hex nonce hash (default zero)")
	bindFlags(v, cmd, flagAuthorityKey, flagPHash, flagNHash)
	return cmd
}

func burnCountCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "burn-count",
		Short: "Print the burn count the next burn will use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, v, func(ctx context.Context, a *app) error {
				next, err := a.client.NextBurnCount(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), next)
				return nil
			})
		},
	}
}

func burnCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "burn <selector> <amount> <recipient>",
		Short: "Burn tokens towards a recipient on the origin chain",
		Long: `Burn wrapped tokens from the fee payer's token account.

The recipient is taken as hex when prefixed with 0x, otherwise as its
UTF-8 bytes. Without --count the next burn count is read from the gateway.
Burns for one gateway must not run concurrently.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			recipient, err := parseRecipient(args[2])
			if err != nil {
				return err
			}

			return withApp(cmd, v, func(ctx context.Context, a *app) error {
				var record svm.BurnRecord
				if cmd.Flags().Changed(flagCount) {
					count, err := cmd.Flags().GetUint64(flagCount)
					if err != nil {
						return err
					}
					record, err = svm.NewBurnSequencer(a.client.Deriver()).Record(count)
					if err != nil {
						return err
					}
				} else {
					record, err = a.client.PrepareBurn(ctx)
					if err != nil {
						return err
					}
				}

				// a count held by an unfinished local burn is refused before signing
				if err := a.journal.CheckBurnAvailable(ctx, a.programs.Gateway.String(), record.Count); err != nil {
					return err
				}

				sig, err := a.client.Burn(ctx, args[0], record, amount, recipient)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\nburn count: %d\nburn log: %s\n", sig, record.Count, record.LogAddress)
				return nil
			})
		},
	}
	cmd.Flags().Uint64(flagCount, 0, "burn count to claim, as returned by burn-count")
	return cmd
}

func burnLogCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "burn-log <count>",
		Short: "Print the burn recorded under a burn count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := parseCount(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, v, func(ctx context.Context, a *app) error {
				log, err := a.client.BurnLog(ctx, count)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "amount:    %d\nrecipient: 0x%x\n", log.Amount, log.Recipient)
				return nil
			})
		},
	}
}

func gatewaysCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "gateways [selector]",
		Short: "List registered gateways, or the gateway of one selector",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, v, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					hash, err := svm.HashSelector(args[0])
					if err != nil {
						return err
					}
					gw, err := a.client.GatewayBySelectorHash(ctx, hash)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, gw)
					return nil
				}

				all, err := a.client.Gateways(ctx)
				if err != nil {
					return err
				}
				for hash, gw := range all {
					fmt.Fprintf(out, "%s %s\n", hash, gw)
				}
				return nil
			})
		},
	}
}

func journalCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List transactions recorded in the local journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString(flagKind)
			limit, _ := cmd.Flags().GetInt(flagLimit)
			return withApp(cmd, v, func(ctx context.Context, a *app) error {
				rows, err := a.journal.Recent(ctx, kind, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, row := range rows {
					count := "-"
					if row.BurnCount != nil {
						count = fmt.Sprint(*row.BurnCount)
					}
					fmt.Fprintf(out, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
						row.ID, row.Kind, row.Selector, row.Amount, count, row.Status, row.Signature)
				}
				return nil
			})
		},
	}
	cmd.Flags().String(flagKind, "", "only list this kind (mint, burn, initialize, init_account)")
	cmd.Flags().Int(flagLimit, 20, "maximum rows")
	return cmd
}

func bindFlags(v *viper.Viper, cmd *cobra.Command, names ...string) {
	for _, name := range names {
		_ = v.BindPFlag(name, cmd.Flags().Lookup(name))
	}
}

func parseHash32(s string) ([32]byte, error) {
	var out [32]byte
	if s == "" {
		return out, nil
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("want 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func parseRecipient(s string) ([]byte, error) {
	if strings.HasPrefix(s, "0x") {
		raw, err := hex.DecodeString(s[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", s, err)
		}
		return raw, nil
	}
	return []byte(s), nil
}
