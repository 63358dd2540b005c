package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:               "ledgerctl",
		Short:             "Record and inspect personal finance entries on the ledger and on-chain",
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("store-url", "", "ledger store base URL")
	flags.String("rpc-url", "", "chain JSON-RPC endpoint")
	flags.String("agent", "", "wallet agent: key, keystore or rpc (default: key when a private key is set)")

	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("store.url", flags.Lookup("store-url"))
	_ = viper.BindPFlag("chain.rpc_url", flags.Lookup("rpc-url"))
	_ = viper.BindPFlag("wallet.agent", flags.Lookup("agent"))

	rootCmd.AddCommand(keygenCmd())
	rootCmd.AddCommand(connectCmd())
	rootCmd.AddCommand(addressCmd())
	rootCmd.AddCommand(recordCmd())
	rootCmd.AddCommand(ledgerCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(anchorCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("LEDGERCTL")
	viper.AutomaticEnv()

	viper.SetDefault("store.url", "http://127.0.0.1:8000")
	viper.SetDefault("store.retries", 3)
	viper.SetDefault("store.retry_delay", "500ms")
	viper.SetDefault("store.timeout", "15s")
	viper.SetDefault("chain.poll_interval", "2s")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "read config")
		}
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	logrus.SetLevel(level)
	return nil
}
