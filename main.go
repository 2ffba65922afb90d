// main.go
//
// Entry point for the number baseball engine.
//   - serve: HTTP API backed by SQLite.
//   - play:  a session in the terminal.
//   - bench: self-play statistics for the solver strategies.
//
// Environment is read from .env when present; see internal/config for keys.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/edit0rsky/NumberGame/internal/config"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("numbergame")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		cfg     config.Config
	)
	root := &cobra.Command{
		Use:           "numbergame",
		Short:         "Number baseball: guess the secret code, or duel the computer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cfgPath == "" {
				cfgPath = os.Getenv("NUMBERGAME_CONFIG")
			}
			loaded, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			cfg = loaded
			zerolog.SetGlobalLevel(cfg.Level())
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to a TOML config file (default $NUMBERGAME_CONFIG)")

	root.AddCommand(
		newServeCmd(&cfg),
		newPlayCmd(&cfg),
		newBenchCmd(),
	)
	return root
}
