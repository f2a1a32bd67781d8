package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phanxgames/flipbook"
	"github.com/phanxgames/flipbook/internal/demo"
	"github.com/phanxgames/flipbook/player"
)

var (
	flagFPS   float64
	flagDebug bool
	flagJSON  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flipbook",
		Short: "Play, inspect and script flipbook presentations",
		Long: `Flipbook runs animations written as Go code. This command works on the
built-in sample deck: it can print the computed timeline, replay a JSON
script headlessly, or present the deck in a window.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Float64Var(&flagFPS, "fps", 60, "Frames per second")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Print scheduler statistics to stderr")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")

	rootCmd.AddCommand(timelineCmd())
	rootCmd.AddCommand(scriptCmd())
	rootCmd.AddCommand(presentCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newPlayback sets up the sample deck.
func newPlayback() *flipbook.PlaybackManager {
	pb := flipbook.NewPlaybackManager(flipbook.WithFPS(flagFPS))
	pb.SetDebugMode(flagDebug)
	pb.Setup(demo.Deck()...)
	return pb
}

func timelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline",
		Short: "Compute and print scene timing and slides",
		RunE: func(cmd *cobra.Command, args []string) error {
			pb := newPlayback()
			err := pb.Recalculate(cmd.Context())
			var sceneErr *flipbook.SceneError
			if err != nil && !errors.As(err, &sceneErr) {
				return err
			}
			return reportTimeline(cmd.OutOrStdout(), pb, err)
		},
	}
}

func scriptCmd() *cobra.Command {
	var maxFrames int
	cmd := &cobra.Command{
		Use:   "script <file>",
		Short: "Replay a JSON script against the deck and print its snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			s, err := flipbook.LoadScript(data)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			p := flipbook.NewPresenter(newPlayback())
			if err := p.Start(ctx, ""); err != nil {
				return err
			}
			snaps, err := flipbook.RunScript(ctx, p, s, maxFrames)
			if flagJSON {
				if jerr := outputJSON(cmd.OutOrStdout(), snaps); jerr != nil {
					return jerr
				}
			} else {
				printSnapshots(cmd.OutOrStdout(), snaps)
			}
			return err
		},
	}
	cmd.Flags().IntVar(&maxFrames, "max-frames", 100000, "Abort after this many frames")
	return cmd
}

func presentCmd() *cobra.Command {
	var cfg player.Config
	cmd := &cobra.Command{
		Use:   "present",
		Short: "Present the deck in a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := flipbook.NewPresenter(newPlayback())
			return player.Run(p, demo.NewRenderer(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Title, "title", "flipbook", "Window title")
	cmd.Flags().IntVar(&cfg.Width, "width", 1280, "Window width")
	cmd.Flags().IntVar(&cfg.Height, "height", 720, "Window height")
	cmd.Flags().StringVar(&cfg.StartSlide, "slide", "", "Slide to start at")
	cmd.Flags().BoolVar(&cfg.ShowInfo, "info", false, "Show the timing overlay")
	return cmd
}
