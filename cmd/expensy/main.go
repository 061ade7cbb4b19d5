package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Veraticus/expensy/internal/api"
	"github.com/Veraticus/expensy/internal/cli"
	"github.com/Veraticus/expensy/internal/common"
	"github.com/Veraticus/expensy/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(api.UserMessage(err)))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	var cfgFile, envFile string
	root := &cobra.Command{
		Use:   "expensy",
		Short: "💸 Track card expenses from your terminal",
		Long: `expensy is the terminal client of the expense tracking service.

It keeps a local session of your transactions, categories and budget, lets you
browse and edit them, and exports reports to OFX files or Google Sheets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile, envFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/expensy/config.yaml)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	flags.String("api-url", "", "base URL of the expense service")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")

	_ = v.BindPFlag("api.base_url", flags.Lookup("api-url"))
	_ = v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("logging.format", flags.Lookup("log-format"))

	root.AddCommand(loginCmd(v))
	root.AddCommand(registerCmd(v))
	root.AddCommand(logoutCmd(v))
	root.AddCommand(whoamiCmd(v))
	root.AddCommand(setupCmd(v))
	root.AddCommand(dashboardCmd(v))
	root.AddCommand(transactionsCmd(v))
	root.AddCommand(recurringCmd(v))
	root.AddCommand(categoriesCmd(v))
	root.AddCommand(historyCmd(v))
	root.AddCommand(browseCmd(v))
	root.AddCommand(exportCmd(v))
	root.AddCommand(versionCmd())
	return root
}

func initConfig(v *viper.Viper, cfgFile, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		v.AddConfigPath(fmt.Sprintf("%s/.config/expensy", home))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("EXPENSY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return setupLogging(v)
}

func setupLogging(v *viper.Viper) error {
	level, err := common.ParseLevel(v.GetString("logging.level"))
	if err != nil {
		return err
	}
	return common.SetupLogger(level, v.GetString("logging.format"))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "expensy %s\n", version)
		},
	}
}
