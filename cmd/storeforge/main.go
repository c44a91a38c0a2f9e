package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yangwenmai/storeforge/internal/config"
)

var version = "dev"

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "storeforge",
	Short: "Turn a product listing URL into a ready-to-publish storefront",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		cfg = config.Load()
		setupLogging(cfg)
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("storeforge version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func setupLogging(c config.Config) {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	var h slog.Handler
	if c.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
