// Command fddgate runs the FDD analyzer backend and the operator tooling
// around its purchase tokens.
//
//	fddgate serve
//	fddgate token inspect <session_id>
//	fddgate token consume <session_id>
//
// Configuration comes from the environment; a .env file in the working
// directory is loaded first when present.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/fdd-analyzer-backend/internal/config"
	"github.com/tbourn/fdd-analyzer-backend/internal/sysutil"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// @title       FDD Analyzer API
// @version     1.0
// @description Purchase-gated FDD analysis, negotiation practice and mailing list signups.
// @BasePath    /api
func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "fddgate",
		Short:         "FDD analyzer backend: purchase-gated analysis, negotiation practice and signups",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	// loadConfig is shared by subcommands; it runs after flag parsing.
	loadConfig := func() (config.Config, error) {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return config.Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
		cfg, err := config.Load()
		if err != nil {
			return cfg, err
		}
		sysutil.SetupLogger(os.Stderr, cfg.OTEL.ServiceName, cfg.LogLevel, cfg.LogPretty)
		log.Debug().Str("version", sysutil.FirstNonEmpty(Version, "dev")).Msg("config loaded")
		return cfg, nil
	}

	root.AddCommand(serveCmd(loadConfig))
	root.AddCommand(tokenCmd(loadConfig))
	return root
}
