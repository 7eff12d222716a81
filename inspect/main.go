package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeafMist/score-inspector/internal/config"
	"github.com/DeafMist/score-inspector/internal/elasticsearch"
	"github.com/DeafMist/score-inspector/internal/logger"
	"github.com/DeafMist/score-inspector/internal/pipeline"
)

// errPresentation marks a run whose report was rendered only in part.
var errPresentation = errors.New("presentation stopped early")

func main() {
	log := logger.New("inspect")
	cfg, err := config.LoadInspect()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := newRootCmd(log, cfg).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errPresentation) {
			log.Error("inspect failed", slog.Any("err", err))
		}
		os.Exit(1)
	}
}

func newRootCmd(log *slog.Logger, cfg *config.Inspect) *cobra.Command {
	root := &cobra.Command{
		Use:   "inspect",
		Short: "Run a scoring script against a content index and look at the ranking",
		Long: "inspect injects a painless scoring script into a query template, sends it to a\n" +
			"(usually tunnelled) Elasticsearch cluster and renders every hit for manual review.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return cfg.Validate()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&cfg.ElasticsearchAddr, "es-addr", cfg.ElasticsearchAddr, "Elasticsearch address")
	f.StringVar(&cfg.ElasticsearchIndex, "index", cfg.ElasticsearchIndex, "index to search")
	f.StringVar(&cfg.DocType, "doc-type", cfg.DocType, "mapping type path segment; empty for typeless clusters")
	f.StringVar(&cfg.Preference, "preference", cfg.Preference, "search preference parameter")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "search timeout; 0 waits indefinitely")
	f.StringSliceVar(&cfg.ScriptFiles, "script", cfg.ScriptFiles, "painless script file(s); several are joined with --join-op")
	f.StringVar(&cfg.ScriptDir, "script-dir", cfg.ScriptDir, "model artifact directory of *.painless files")
	f.StringToStringVar(&cfg.FieldScripts, "field-script", cfg.FieldScripts, "script_fields entry as name=file")
	f.StringVar(&cfg.QueryFile, "query", cfg.QueryFile, "JSON query template")
	f.BoolVar(&cfg.UseScript, "use-script", cfg.UseScript, "inject scripts into the template")
	f.StringVar(&cfg.JoinOp, "join-op", cfg.JoinOp, "operator joining script factors (+ or *)")

	root.AddCommand(newRunCmd(log, cfg))
	root.AddCommand(newServeCmd(log, cfg))
	root.AddCommand(newPingCmd(log, cfg))
	return root
}

func newClient(log *slog.Logger, cfg *config.Inspect) (*elasticsearch.Client, error) {
	return elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
}

func searchOptions(cfg *config.Inspect) elasticsearch.SearchOptions {
	return elasticsearch.SearchOptions{
		DocType:    cfg.DocType,
		Preference: cfg.Preference,
		Pretty:     true,
		Timeout:    cfg.Timeout,
	}
}

func newRunner(log *slog.Logger, cfg *config.Inspect, searcher pipeline.Searcher) (*pipeline.Runner, error) {
	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &pipeline.Runner{
		Searcher: searcher,
		Options:  opts,
		Now:      func() time.Time { return time.Now().UTC() },
		Log:      log,
	}, nil
}

func newPingCmd(log *slog.Logger, cfg *config.Inspect) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the cluster answers through the tunnel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(log, cfg)
			if err != nil {
				return err
			}
			if err := client.Ping(cmd.Context()); err != nil {
				return err
			}
			if err := client.Health(cmd.Context()); err != nil {
				return err
			}
			log.Info("elasticsearch reachable", slog.String("addr", cfg.ElasticsearchAddr))
			return nil
		},
	}
}
