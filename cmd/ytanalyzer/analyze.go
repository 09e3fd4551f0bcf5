package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ytanalyzer/internal/enumerate"
	"ytanalyzer/internal/export"
	"ytanalyzer/internal/storage"
)

var (
	strategyName string
	resumeRef    string
	noSave       bool
	analyzeCSV   string
	analyzeLimit int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [channel-url]",
	Short: "Retrieve the videos of a channel",
	Long: `Retrieve the videos of a channel and report how many of the declared
videos were found.

Strategies:
  fast      ` + enumerate.Fast.Describe() + `
  smart     ` + enumerate.Smart.Describe() + `
  complete  ` + enumerate.Complete.Describe() + `

The channel may be given as a channel URL, an @handle URL, a /c/ or /user/
URL, or a bare channel ID. With --resume the stored session continues from
its saved listing position and no channel argument is needed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&strategyName, "strategy", "s", "smart", "fast, smart or complete")
	analyzeCmd.Flags().StringVar(&resumeRef, "resume", "", `continue a saved session (file path or "latest")`)
	analyzeCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the session afterwards")
	analyzeCmd.Flags().StringVar(&analyzeCSV, "csv", "", "also export the videos to this CSV file")
	analyzeCmd.Flags().IntVarP(&analyzeLimit, "limit", "n", 20, "videos to print (0 = all)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	strategy, err := enumerate.ParseStrategy(strategyName)
	if err != nil {
		return err
	}
	if len(args) == 0 && resumeRef == "" {
		return errors.New("missing channel-url (or --resume)")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	if a.pool.Size() == 0 {
		return fmt.Errorf("no API keys configured; add one with 'ytanalyzer keys add'")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if resumeRef != "" {
		sess, path, err := a.loadSession(resumeRef)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		a.engine.Restore(sess.Snapshot())
		log.Info().Str("session", path).Int("videos", len(sess.Videos)).Msg("session restored")
		if len(args) == 1 && args[0] != sess.ChannelURL {
			if _, err := a.runner.Analyze(ctx, args[0]); err != nil {
				return err
			}
		}
	} else if _, err := a.runner.Analyze(ctx, args[0]); err != nil {
		return err
	}

	ch := a.engine.Channel()
	if ch == nil {
		return enumerate.ErrNoChannel
	}
	printChannel(os.Stdout, ch)
	fmt.Fprintf(os.Stdout, "\nStrategy %s: %s\n", bold(string(strategy)), strategy.Describe())

	res, runErr := run(ctx, a, strategy)
	a.persistActiveKey()
	if res == nil {
		return runErr
	}

	printResult(os.Stdout, res)
	fmt.Fprintln(os.Stdout)
	printVideos(os.Stdout, res.Videos, analyzeLimit)

	if !noSave {
		path, err := a.sessions.Save(storage.NewSession(a.engine.Snapshot()))
		if err != nil {
			log.Error().Err(err).Msg("session not saved")
		} else {
			fmt.Fprintf(os.Stderr, "Session saved to %s\n", path)
		}
	}
	if analyzeCSV != "" {
		if err := export.SaveCSV(analyzeCSV, res.Videos); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Exported %d videos to %s\n", len(res.Videos), analyzeCSV)
	}

	var walkErr *enumerate.WalkError
	switch {
	case errors.As(runErr, &walkErr):
		fmt.Fprintln(os.Stderr, warn("Listing stopped early; run again with --resume latest to continue."))
	case errors.Is(runErr, context.Canceled):
		fmt.Fprintln(os.Stderr, warn("Interrupted; partial results kept."))
		return nil
	}
	return runErr
}

// run starts strategy in the background and streams its progress to stderr
// until it finishes.
func run(ctx context.Context, a *app, strategy enumerate.Strategy) (*enumerate.Result, error) {
	task, err := a.runner.Start(ctx, strategy)
	if err != nil {
		return nil, err
	}
	// On a terminal each event redraws one status line.
	live := term.IsTerminal(int(os.Stderr.Fd()))
	for ev := range task.Progress() {
		line := printer.Sprintf("%s %s (%d/%d, %d calls)",
			info("["+ev.Phase+"]"), ev.Message, ev.Retrieved, ev.Declared, ev.Calls)
		if live {
			fmt.Fprint(os.Stderr, "\r\033[K"+line)
		} else {
			fmt.Fprintln(os.Stderr, line)
		}
	}
	if live {
		fmt.Fprintln(os.Stderr)
	}
	return task.Wait()
}
