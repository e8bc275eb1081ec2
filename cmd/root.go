package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/markb/bazarbot/internal/log"
)

// Version information set via ldflags at build time
var (
	Version   = "dev"
	BuildTime = ""
	GitCommit = ""
)

var rootCmd = &cobra.Command{
	Use:     "bazarbot",
	Short:   "Bazarbot - Telegram marketplace bot for electronics",
	Long:    `A single-binary Telegram marketplace bot with SQLite storage, schema migrations, and a Mini App API.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		cfg := log.DefaultConfig()
		if level != "" {
			cfg.Level = level
		}
		if format != "" {
			cfg.Format = format
		}
		log.Init(cfg)
	},
}

func init() {
	rootCmd.SetVersionTemplate("bazarbot version {{.Version}}\n")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
