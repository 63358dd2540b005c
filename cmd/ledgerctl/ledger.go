package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"financechain/internal/ledger"
)

func ledgerCmd() *cobra.Command {
	var asAddress string

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show the ledger as seen from the active account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			snapshot, err := newStoreClient().Snapshot(ctx)
			if err != nil {
				return err
			}

			current := asAddress
			if current == "" {
				shim, err := newShim(ctx)
				if err != nil {
					return err
				}
				if addr := shim.Address(ctx); addr != nil {
					current = addr.Hex()
				}
			}

			view := ledger.NewReconciler(viper.GetStringMapString("explorers")).View(snapshot, current)
			renderView(cmd.OutOrStdout(), view)
			return nil
		},
	}
	cmd.Flags().StringVar(&asAddress, "as", "", "classify entries for this address instead of the wallet account")
	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the finance contract records of the active account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			contract, err := contractAddress("finance")
			if err != nil {
				return err
			}
			shim, err := newShim(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := newSubmitter(shim).History(cmd.Context(), contract)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}
