package cmd

import (
	"fmt"
	"os"

	"hourtrim/config"
	"hourtrim/logger"
	"hourtrim/server"

	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "hourtrim",
	Short:         "hourtrim browses hourly radio recordings and trims them to one hour.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		logger.InitLogger(logger.Config{
			Level:       logger.LogLevel(cfg.LogLevel),
			OutputPath:  cfg.LogFile,
			MaxSize:     cfg.LogMaxSizeMB,
			MaxBackups:  cfg.LogMaxBackups,
			MaxAge:      cfg.LogMaxAgeDays,
			Compress:    true,
			Development: !cfg.IsProduction(),
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "optional TOML config file (environment variables win)")
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
