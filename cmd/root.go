package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shriram-30/SpotifyClone/config"
	"github.com/shriram-30/SpotifyClone/logger"
	"github.com/shriram-30/SpotifyClone/server"
)

var (
	cfg        *config.Config
	consoleLog bool
)

var rootCmd = &cobra.Command{
	Use:   "spotify_clone",
	Short: "Spotify clone backend: catalog, search and per-user playback sessions.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		return logger.InitLogger(logger.Config{
			Level:      cfg.LogLevel,
			OutputPath: cfg.LogFile,
			Console:    consoleLog,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&consoleLog, "console", true, "使用可读格式输出日志")
}
