package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"financechain/internal/recorder"
	"financechain/models"
)

func parseMode(s string) (recorder.Mode, error) {
	switch s {
	case "", "off-chain", "offchain":
		return recorder.OffChain, nil
	case "contract":
		return recorder.Contract, nil
	case "transfer":
		return recorder.Transfer, nil
	}
	return 0, errors.Errorf("unknown mode %q (off-chain, contract, transfer)", s)
}

func recordCmd() *cobra.Command {
	var (
		entry recorder.Entry
		mode  string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a ledger entry, optionally on-chain first",
		Long: `Record a ledger entry.

In contract and transfer mode the entry is submitted on-chain first and the sender is the
wallet's account; the ledger store only receives it once the chain has accepted it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := parseMode(mode)
			if err != nil {
				return err
			}
			entry.Mode = m

			shim, err := newShim(ctx)
			if err != nil {
				return err
			}
			opts := []recorder.Option{
				recorder.WithSubmitter(newSubmitter(shim)),
				recorder.WithContract(viper.GetString("contracts.finance")),
			}
			if shim.Present() {
				opts = append(opts, recorder.WithSigner(shim))
			}
			rec := recorder.New(newStoreClient(), opts...)

			entry.OnState = func(s models.TxState) {
				logrus.WithField("state", string(s)).Info("on-chain submission")
			}

			outcome, err := rec.Record(ctx, entry)
			if err != nil {
				var phaseErr *recorder.PhaseError
				if errors.As(err, &phaseErr) && phaseErr.OnChain != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "on-chain transaction %s succeeded but the ledger store did not record it\n", phaseErr.OnChain.TxHash)
				}
				if errors.As(err, &phaseErr) && phaseErr.Retryable() {
					fmt.Fprintln(cmd.ErrOrStderr(), "the entry can be retried")
				}
				return err
			}

			out := cmd.OutOrStdout()
			if outcome.OnChain != nil {
				fmt.Fprintf(out, "tx hash:        %s\n", outcome.OnChain.TxHash)
			}
			fmt.Fprintf(out, "transaction id: %s\n", outcome.Response.TransactionID)
			fmt.Fprintf(out, "block id:       %s\n", outcome.Response.BlockID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&entry.Sender, "from", "", "sender (replaced by the wallet account on-chain)")
	flags.StringVar(&entry.Recipient, "to", "", "recipient")
	flags.StringVar(&entry.Amount, "amount", "", "amount, e.g. 12.5")
	flags.StringVar(&entry.Description, "desc", "", "description")
	flags.StringVar(&mode, "mode", "off-chain", "off-chain, contract or transfer")
	flags.BoolVar(&entry.Income, "income", false, "mark a contract entry as income")
	flags.BoolVar(&entry.Sign, "sign", false, "attach a wallet signature")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func anchorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "anchor <message>",
		Short: "Store the keccak256 hash of a message in the anchor contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := contractAddress("anchor")
			if err != nil {
				return err
			}
			shim, err := newShim(cmd.Context())
			if err != nil {
				return err
			}
			res, err := newSubmitter(shim).SubmitObserved(cmd.Context(), models.HashAnchor{
				ContractAddress: contract.Hex(),
				Message:         args[0],
			}, func(s models.TxState) {
				logrus.WithField("state", string(s)).Info("on-chain submission")
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tx hash: %s\n", res.TxHash)
			if !res.Succeeded() {
				return errors.Errorf("transaction %s reverted", res.TxHash)
			}
			return nil
		},
	}
}
