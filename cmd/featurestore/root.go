package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/internal/config"
	"github.com/sarthak-bm-ai/Feature-Store-CRUD/internal/logging"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var (
	v = viper.New()

	settings  config.Settings
	logger    *slog.Logger
	logCloser io.Closer

	rootCmd = &cobra.Command{
		Use:   "featurestore",
		Short: "Category-partitioned feature store on DynamoDB",
		Long: `featurestore serves and maintains per-entity feature records kept in two
DynamoDB tables, one keyed by bright_uid and one keyed by account_id.

Settings come from flags, FEATURESTORE_<FLAG> environment variables (e.g.
FEATURESTORE_TABLE_BRIGHT_UID), the unprefixed names of earlier deployments
(TABLE_NAME_BRIGHT_UID, AWS_REGION, LOG_LEVEL, ...) and .env.<ENVIRONMENT> / .env files.`,
		SilenceUsage:       true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		// Overrides the root hook; printing the version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "featurestore %s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig loads .env files and environment bindings before flags are parsed.
func initConfig() {
	config.LoadEnvFiles("")
	if err := config.Bind(v); err != nil {
		// Bind only fails on an empty key, which would be a programming error.
		panic(err)
	}
}

// setup resolves settings and the logger for every command.
func setup(cmd *cobra.Command, _ []string) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	var err error
	settings, err = config.Load(v)
	if err != nil {
		return err
	}

	logger, logCloser, err = logging.New(logging.Options{
		Level:  settings.LogLevel,
		JSON:   !settings.IsDevelopment(),
		File:   settings.LogFile,
		Output: cmd.ErrOrStderr(),
		Attrs: []slog.Attr{
			slog.String("app", settings.AppName),
			slog.String("version", settings.AppVersion),
			slog.String("environment", settings.Environment),
		},
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func teardown(*cobra.Command, []string) error {
	if logCloser != nil {
		return logCloser.Close()
	}
	return nil
}
