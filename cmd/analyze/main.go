// Command analyze prints quick, human-readable difficulty figures for the
// configuration files in a configs directory: deck size, flip-back delay and
// how many moves a player with perfect memory needs on average.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/memory-match-game/validate"
)

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Estimate how hard each memory game configuration is",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config-dir",
				Value: "configs",
				Usage: "directory holding *.json game configurations",
			},
			&cli.IntFlag{
				Name:  "games",
				Value: 100,
				Usage: "simulated games per configuration",
			},
			&cli.IntFlag{
				Name:  "seed",
				Value: 1,
				Usage: "seed of the first simulated shuffle",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(out, cmd.String("config-dir"), int(cmd.Int("games")), int64(cmd.Int("seed")))
		},
	}
}

func run(out io.Writer, dir string, games int, seed int64) error {
	analyses, err := validate.AnalyzeDir(dir, games, seed)
	if err != nil {
		return err
	}
	if len(analyses) == 0 {
		return fmt.Errorf("no valid configurations in %s", dir)
	}
	validate.WriteAnalyses(out, analyses)
	return nil
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
