package main

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/edit0rsky/NumberGame/internal/config"
	"github.com/edit0rsky/NumberGame/internal/console"
	"github.com/edit0rsky/NumberGame/internal/database"
	"github.com/edit0rsky/NumberGame/internal/record"
	"github.com/edit0rsky/NumberGame/internal/session"
	"github.com/edit0rsky/NumberGame/internal/solver"
)

func newPlayCmd(cfg *config.Config) *cobra.Command {
	var (
		mode       string
		digits     int
		difficulty string
		player     string
		pace       time.Duration
		save       bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			m, err := session.ParseMode(mode)
			if err != nil {
				return err
			}
			g := cfg.Game
			if cmd.Flags().Changed("digits") {
				g.Digits = digits
			}
			if cmd.Flags().Changed("difficulty") {
				g.Difficulty = difficulty
			}
			if cmd.Flags().Changed("player") {
				g.Player = player
			}
			if cmd.Flags().Changed("pace") {
				g.Pace = config.Duration(pace)
			}

			var results record.Recorder = record.NewMemory()
			if save {
				db, err := database.Open(ctx, cfg.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()
				results = record.NewSQLite(db)
			}
			defer results.Close()

			sess, err := session.New(session.Config{
				Digits:     g.Digits,
				Difficulty: solver.Difficulty(g.Difficulty),
				Player:     g.Player,
				Mode:       m,
			}, session.WithRecorder(results))
			if err != nil {
				return err
			}

			c := &console.Console{In: cmd.InOrStdin(), Out: cmd.OutOrStdout(), Pace: g.Pace.Std()}
			err = c.Play(ctx, sess)
			if errors.Is(err, console.ErrInputClosed) {
				err = nil
			}
			if sum, ok := sess.Summary(); ok {
				log.Debug().Str("id", sum.ID.String()).Str("outcome", sum.Outcome()).Int("tries", sum.Tries).Msg("game recorded")
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVarP(&mode, "mode", "m", "single", "single or duel")
	f.IntVarP(&digits, "digits", "n", 3, "code length, 3 or 4")
	f.StringVarP(&difficulty, "difficulty", "d", "hard", "computer strategy in a duel: easy, hard or random")
	f.StringVarP(&player, "player", "p", session.DefaultPlayer, "name stored with the result")
	f.DurationVar(&pace, "pace", time.Second, "delay before each computer guess")
	f.BoolVar(&save, "save", false, "store the result in the configured database")
	return cmd
}
