package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/growthrates/internal/storage"
)

var (
	settings = viper.New()
	logger   log.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "growthsim",
		Short:         "microbial growth curve simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadSettings(); err != nil {
				return err
			}
			logger = newLogger(settings.GetString("log-level"))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("data", ".growthsim", "data directory")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("catalog", false, "index runs in a sqlite catalog inside the data directory")
	for _, name := range []string{"data", "log-level", "catalog"} {
		_ = settings.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newEvalCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCmd(),
		newExportCSVCmd(),
		newPresetsCmd(),
		newModelsCmd(),
		newSweepCmd(),
		newLiveCmd(),
		newScenarioCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadSettings layers GROWTHSIM_* environment variables and an optional
// growthsim.{toml,yaml} in the working directory under the flags.
func loadSettings() error {
	settings.SetEnvPrefix("GROWTHSIM")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()

	settings.SetConfigName("growthsim")
	settings.AddConfigPath(".")
	if err := settings.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read settings: %w", err)
		}
	}
	return nil
}

func newLogger(name string) log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	l = log.With(l, "ts", log.DefaultTimestampUTC)

	var opt level.Option
	switch strings.ToLower(name) {
	case "debug":
		opt = level.AllowDebug()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		opt = level.AllowInfo()
	}
	return level.NewFilter(l, opt)
}

// openStore returns the run store, attached to the sqlite catalog when
// enabled. The returned func releases the catalog.
func openStore() (*storage.Store, func(), error) {
	dir := settings.GetString("data")
	st := storage.New(dir)
	st.SetLogger(log.With(logger, "component", "storage"))

	if !settings.GetBool("catalog") {
		return st, func() {}, nil
	}

	if err := st.Init(); err != nil {
		return nil, nil, err
	}
	cat, err := storage.OpenCatalog(catalogPath(dir))
	if err != nil {
		return nil, nil, err
	}
	return st.WithCatalog(cat), func() { _ = cat.Close() }, nil
}

func catalogPath(dir string) string {
	return filepath.Join(dir, "runs.db")
}
