package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"financechain/internal/wallet"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new account key",
		Long:  `Generate a secp256k1 key. Export the private key as LEDGERCTL_WALLET_KEY to use it.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := wallet.GenerateKey()
			if err != nil {
				return errors.Wrap(err, "generate key")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "address:     %s\n", key.Address)
			fmt.Fprintf(out, "private key: %s\n", key.PrivateKey)
			return nil
		},
	}
}

func connectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Authorize the wallet agent and show the active account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shim, err := newShim(cmd.Context())
			if err != nil {
				return err
			}
			session, err := shim.Connect(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "connect wallet")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "agent:   %s\n", session.Kind)
			if session.Address == nil {
				fmt.Fprintln(out, "account: none")
				return nil
			}
			fmt.Fprintf(out, "account: %s\n", session.Address.Hex())
			return nil
		},
	}
}

func addressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the active account without prompting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shim, err := newShim(cmd.Context())
			if err != nil {
				return err
			}
			addr := shim.Address(cmd.Context())
			if addr == nil {
				return errors.New("no active account")
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())
			return nil
		},
	}
}
