package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	playerservice "github.com/Black-And-White-Club/tarok-bot/app/modules/player/application"
	sessionservice "github.com/Black-And-White-Club/tarok-bot/app/modules/session/application"
	sessiontypes "github.com/Black-And-White-Club/tarok-bot/app/modules/session/domain/types"
	sessionreport "github.com/Black-And-White-Club/tarok-bot/app/modules/session/infrastructure/report"
	sharedtypes "github.com/Black-And-White-Club/tarok-bot/app/shared/types"
	"github.com/urfave/cli/v2"
)

var renderers = map[string]func(io.Writer, sessionreport.Sheet) error{
	"text": sessionreport.RenderText,
	"html": sessionreport.RenderHTML,
	"xlsx": sessionreport.RenderXLSX,
	"png":  sessionreport.RenderChart,
}

func newScoreCommand() *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "replay round lines and print the report",
		ArgsUsage: "[rounds-file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Value: string(sessiontypes.ModeTarok), Usage: "tarok or table"},
			&cli.StringSliceFlag{Name: "players", Aliases: []string{"p"}, Usage: "registered player names", Required: true},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "text, html, xlsx or png"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write the report here instead of stdout"},
			&cli.BoolFlag{Name: "strict", Usage: "reject rounds that list a player twice"},
			&cli.BoolFlag{Name: "keep-going", Usage: "skip rejected rounds instead of stopping"},
		},
		Action: runScore,
	}
}

// scoreOptions are the inputs of one replay.
type scoreOptions struct {
	Mode      sessiontypes.Mode
	Players   []string
	Strict    bool
	KeepGoing bool
}

// rejection is a round line the engine refused.
type rejection struct {
	Line int
	Text string
	Err  error
}

func runScore(c *cli.Context) error {
	mode, ok := sessiontypes.ParseMode(c.String("mode"))
	if !ok {
		return fmt.Errorf("unknown mode %q", c.String("mode"))
	}
	render, ok := renderers[c.String("format")]
	if !ok {
		return fmt.Errorf("unknown format %q", c.String("format"))
	}

	in := io.Reader(os.Stdin)
	if path := c.Args().First(); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open rounds: %w", err)
		}
		defer f.Close()
		in = f
	}

	report, rejected, err := replay(c.Context, in, scoreOptions{
		Mode:      mode,
		Players:   c.StringSlice("players"),
		Strict:    c.Bool("strict"),
		KeepGoing: c.Bool("keep-going"),
	})
	for _, r := range rejected {
		fmt.Fprintf(c.App.ErrWriter, "line %d: %q rejected: %v\n", r.Line, r.Text, r.Err)
	}
	if err != nil {
		return err
	}

	out := c.App.Writer
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	return render(out, sessionreport.FromReport(report))
}

// replay feeds every non-empty, non-comment line of in to a fresh game. On the
// first rejection it stops unless KeepGoing is set; fatal engine errors always
// stop.
func replay(ctx context.Context, in io.Reader, opts scoreOptions) (sessiontypes.Report, []rejection, error) {
	dir := playerservice.NewMemoryDirectory(opts.Players...)
	game, err := sessionservice.NewGame(opts.Mode, dir, sessionservice.GameOptions{
		StrictDuplicates: opts.Strict,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return sessiontypes.Report{}, nil, err
	}

	var rejected []rejection
	scanner := bufio.NewScanner(in)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if _, err := game.Submit(ctx, text); err != nil {
			rejected = append(rejected, rejection{Line: line, Text: text, Err: err})
			if !opts.KeepGoing || !sharedtypes.IsRecoverable(err) {
				return sessiontypes.Report{}, rejected, fmt.Errorf("replay stopped at line %d", line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return sessiontypes.Report{}, rejected, fmt.Errorf("failed to read rounds: %w", err)
	}
	return game.End(), rejected, nil
}
