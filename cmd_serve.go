package main

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/edit0rsky/NumberGame/internal/config"
	"github.com/edit0rsky/NumberGame/internal/database"
	"github.com/edit0rsky/NumberGame/internal/httpserver"
	"github.com/edit0rsky/NumberGame/internal/record"
	"github.com/edit0rsky/NumberGame/internal/store"
)

const (
	recorderQueue = 64
	sessionIdle   = 2 * time.Hour
	sweepEvery    = 10 * time.Minute
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := database.Open(ctx, cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			results := record.NewAsync(record.NewSQLite(db), recorderQueue)
			defer func() {
				if err := results.Close(); err != nil {
					log.Error().Err(err).Msg("closing recorder")
				}
			}()

			sessions := store.NewMemory()
			go func() {
				t := time.NewTicker(sweepEvery)
				defer t.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-t.C:
						if n := sessions.Sweep(sessionIdle); n > 0 {
							log.Info().Int("dropped", n).Int("live", sessions.Len()).Msg("swept idle sessions")
						}
					}
				}
			}()

			log.Info().Str("addr", cfg.Addr).Str("db", cfg.DBPath).Msg("starting numbergame server")
			return httpserver.New(*cfg, sessions, results, db).Start(ctx)
		},
	}
}
