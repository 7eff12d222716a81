package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/DeafMist/score-inspector/internal/browser"
	"github.com/DeafMist/score-inspector/internal/config"
	"github.com/DeafMist/score-inspector/internal/pipeline"
	"github.com/DeafMist/score-inspector/internal/render"
)

func newRunCmd(log *slog.Logger, cfg *config.Inspect) *cobra.Command {
	var (
		out  string
		open bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the query once and print the ranked hits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if open && (cfg.Format != config.FormatHTML || out == "") {
				return fmt.Errorf("--open needs --format html and --out")
			}

			client, err := newClient(log, cfg)
			if err != nil {
				return err
			}
			runner, err := newRunner(log, cfg, pipeline.ClientSearcher{Client: client, Options: searchOptions(cfg)})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := runOnce(cmd.Context(), runner, cfg.Format, w); err != nil {
				return err
			}

			if open {
				u, err := browser.FileURL(out)
				if err != nil {
					return err
				}
				if err := browser.Open(u); err != nil {
					log.Warn("open browser", slog.Any("err", err), slog.String("url", u))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Format, "format", cfg.Format, "output format: text or html")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&open, "open", false, "open the html report in the browser")
	return cmd
}

// runOnce renders whatever was presented, then reports an early stop as
// errPresentation so the process exits non-zero.
func runOnce(ctx context.Context, runner *pipeline.Runner, format string, w io.Writer) error {
	rep, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	switch format {
	case config.FormatHTML:
		err = render.HTML(w, rep)
	default:
		err = render.Text(w, rep)
	}
	if err != nil {
		return err
	}

	if rep.Err != nil {
		return fmt.Errorf("%w: %v", errPresentation, rep.Err)
	}
	return nil
}
