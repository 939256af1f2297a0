// Command autoplay plays a complete game against a running server through
// the REST API, moving every seat with a greedy strategy. It is useful for
// smoke-testing a deployment and for producing sample move histories.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/mensch/game/engine"
	"github.com/wricardo/mcp-training/mensch/game/service"
)

var errTurnLimit = errors.New("turn limit reached before the game finished")

type playOptions struct {
	MaxTurns int
	Delay    time.Duration
	Verbose  bool
}

// play rolls and moves until the game finishes. It returns the final state
// and the number of rolls made.
func play(ctx context.Context, client *Client, strategy GreedyStrategy, opts playOptions) (*service.GameState, int, error) {
	state, err := client.GetState(ctx)
	if err != nil {
		return nil, 0, err
	}

	rolls := 0
	for state.Status != engine.StatusFinished {
		// A resumed game may already hold an unplayed roll
		if state.DiceValue == 0 || len(state.MovablePieces) == 0 {
			if rolls >= opts.MaxTurns {
				return state, rolls, errTurnLimit
			}
			roll, err := client.Roll(ctx)
			if err != nil {
				return state, rolls, err
			}
			rolls++
			state = roll.GameState
			if opts.Verbose {
				log.WithFields(log.Fields{
					"player":  roll.Player,
					"dice":    roll.Dice,
					"movable": roll.MovablePieces,
				}).Debug("rolled")
			}
			if roll.TurnPassed {
				continue
			}
		}

		pieceID := strategy.Choose(state, state.DiceValue)
		if pieceID == "" {
			return state, rolls, fmt.Errorf("no piece chosen for dice %d", state.DiceValue)
		}
		move, err := client.Move(ctx, pieceID, state.DiceValue)
		if err != nil {
			return state, rolls, err
		}
		state = move.GameState

		if len(move.Captured) > 0 {
			log.WithFields(log.Fields{"piece": pieceID, "captured": move.Captured}).Info("capture")
		}
		if opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return state, rolls, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
	}
	return state, rolls, nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Play a full game against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL"},
			&cli.StringFlag{Name: "config", Usage: "configuration to create the game from"},
			&cli.StringSliceFlag{Name: "player", Usage: "player name, repeat once per seat"},
			&cli.StringFlag{Name: "continue", Usage: "resume an existing game by ID"},
			&cli.IntFlag{Name: "max-turns", Value: 5000, Usage: "maximum number of rolls"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between moves"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log every roll"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("verbose") {
				log.SetLevel(log.DebugLevel)
			}

			client := NewClient(cmd.String("url"))
			if id := cmd.String("continue"); id != "" {
				client.gameID = id
				log.WithField("game", id).Info("resuming game")
			} else {
				game, err := client.CreateGame(ctx, cmd.String("config"), cmd.StringSlice("player"))
				if err != nil {
					return err
				}
				log.WithFields(log.Fields{"game": game.ID, "config": game.ConfigName}).Info("game created")
			}

			state, rolls, err := play(ctx, client, GreedyStrategy{}, playOptions{
				MaxTurns: int(cmd.Int("max-turns")),
				Delay:    cmd.Duration("delay"),
				Verbose:  cmd.Bool("verbose"),
			})
			if err != nil {
				return fmt.Errorf("game %s: %w", client.gameID, err)
			}

			log.WithFields(log.Fields{
				"game":   client.gameID,
				"winner": state.WinnerName,
				"rolls":  rolls,
				"moves":  state.TotalMoves,
			}).Info("game finished")
			return nil
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.WithError(err).Fatal("autoplay failed")
	}
}
