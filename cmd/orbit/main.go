package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/krishhsuri/Orbit/internal/cli"
	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/config"
)

var (
	cfgFile  string
	version  = "dev"
	settings *config.Settings
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "orbit",
		Short: "🪐 Job application tracker fed by your inbox",
		Long: `orbit watches your inbox for job application email, stages the
messages that matter, and keeps your application tracker up to date.

Cheap local checks run first; an LLM is only consulted for the messages
that need it.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/orbit/config.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console, json)")
	root.PersistentFlags().String("user", "", "user id whose inbox is processed")

	_ = viper.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(
		authCmd(),
		syncCmd(),
		processCmd(),
		pendingCmd(),
		reviewCmd(),
		confirmCmd(),
		rejectCmd(),
		appsCmd(),
		ghostCmd(),
		trainCmd(),
		classifyCmd(),
		workerCmd(),
		migrateCmd(),
		backupCmd(),
		versionCmd(),
	)
	return root
}

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
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, cli.FormatError(userErr.UserMessage))
		} else {
			fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		}
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.Dir())
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(config.EnvKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	s, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	// --user overrides user.id only when given.
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		s.User.ID = user
	}
	settings = s

	level, err := common.ParseLevel(s.Logging.Level)
	if err != nil {
		return err
	}
	if err := common.SetupLogger(level, s.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	slog.Debug("Configuration loaded", "config", viper.ConfigFileUsed(), "database", s.Database.Path, "llm", s.LLMEnabled())
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "orbit", version)
		},
	}
}
