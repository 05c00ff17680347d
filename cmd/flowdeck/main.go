package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/flowdeck/flowdeck/internal/browser"
	"github.com/flowdeck/flowdeck/internal/cli"
	"github.com/flowdeck/flowdeck/internal/config"
	"github.com/flowdeck/flowdeck/internal/httpserver"
	"github.com/flowdeck/flowdeck/internal/logging"
	"github.com/flowdeck/flowdeck/internal/otel"
	"github.com/flowdeck/flowdeck/internal/runner"
	"github.com/flowdeck/flowdeck/internal/state"
)

func main() {
	rootCmd := cli.NewRootCommand()

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		startServer(configPath)
		return nil
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func startServer(configPath string) {
	app := fx.New(
		config.Module(configPath),
		logging.Module(),
		otel.Module("flowdeck"),
		state.Module(),
		browser.Module(),
		runner.Module(),
		httpserver.Module(),
	)

	app.Run()
}
