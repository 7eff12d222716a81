package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/DeafMist/score-inspector/internal/config"
	"github.com/DeafMist/score-inspector/internal/models"
	"github.com/DeafMist/score-inspector/internal/presenter"
	"github.com/DeafMist/score-inspector/internal/query"
	"github.com/DeafMist/score-inspector/internal/script"
)

// Searcher sends an assembled body and returns the raw _search reply.
type Searcher interface {
	Search(ctx context.Context, body []byte) ([]byte, error)
}

// Options select the files a run reads.
type Options struct {
	Index string

	QueryFile string
	UseScript bool
	// ScriptDir, when set, wins over ScriptFiles.
	ScriptDir    string
	ScriptFiles  []string
	JoinOp       script.JoinOp
	FieldScripts map[string]string
}

// OptionsFromConfig maps the command configuration onto run options.
func OptionsFromConfig(cfg *config.Inspect) (Options, error) {
	op, err := script.ParseJoinOp(cfg.JoinOp)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Index:        cfg.ElasticsearchIndex,
		QueryFile:    cfg.QueryFile,
		UseScript:    cfg.UseScript,
		ScriptDir:    cfg.ScriptDir,
		ScriptFiles:  cfg.ScriptFiles,
		JoinOp:       op,
		FieldScripts: cfg.FieldScripts,
	}, nil
}

// Report is everything a renderer needs from one run.
type Report struct {
	RunID     string
	Index     string
	StartedAt time.Time
	Body      []byte
	Took      time.Duration
	Total     int64
	Hits      int
	Cards     []presenter.Card
	// Err is set when presentation stopped early; Cards holds the hits
	// presented before it.
	Err error
}

// Runner performs assemble, send and present for one query.
type Runner struct {
	Searcher Searcher
	Options  Options
	Now      func() time.Time
	Log      *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Log
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now()
}

// Assemble loads the template and injects the configured scripts.
func (r *Runner) Assemble() ([]byte, error) {
	tmpl, err := query.LoadTemplate(r.Options.QueryFile)
	if err != nil {
		return nil, err
	}

	if r.Options.UseScript {
		r.logger().Info("loading external painless script",
			slog.String("dir", r.Options.ScriptDir),
			slog.Any("files", r.Options.ScriptFiles),
		)

		var expr string
		if r.Options.ScriptDir != "" {
			expr, err = script.LoadDir(r.Options.ScriptDir, r.Options.JoinOp)
		} else {
			expr, err = script.LoadAll(r.Options.ScriptFiles, r.Options.JoinOp)
		}
		if err != nil {
			return nil, err
		}
		if err := tmpl.InjectScore(expr); err != nil {
			return nil, err
		}

		names := make([]string, 0, len(r.Options.FieldScripts))
		for name := range r.Options.FieldScripts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fieldExpr, err := script.Load(r.Options.FieldScripts[name])
			if err != nil {
				return nil, err
			}
			if err := tmpl.InjectField(name, fieldExpr); err != nil {
				return nil, err
			}
		}
	}

	return tmpl.Body()
}

// Run executes one inspection. Load, transport and decode failures are
// returned; a hit that cannot be presented is recorded in Report.Err.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.Searcher == nil {
		return nil, fmt.Errorf("run: no searcher configured")
	}

	rep := &Report{
		RunID:     uuid.NewString(),
		Index:     r.Options.Index,
		StartedAt: r.now(),
	}
	log := r.logger().With(slog.String("run_id", rep.RunID))

	body, err := r.Assemble()
	if err != nil {
		return nil, err
	}
	rep.Body = body

	raw, err := r.Searcher.Search(ctx, body)
	if err != nil {
		return nil, err
	}

	resp, err := models.DecodeSearchResponse(raw)
	if err != nil {
		return nil, err
	}
	rep.Took = time.Duration(resp.Took) * time.Millisecond
	rep.Total = int64(resp.Hits.Total)
	rep.Hits = len(resp.Hits.Hits)

	rep.Cards, rep.Err = presenter.PresentAll(resp.Hits.Hits, rep.StartedAt)

	for _, card := range rep.Cards {
		if card.Elapsed.Negative() {
			log.Warn("published_at is in the future",
				slog.String("id", card.Record.ID),
				slog.String("published_at", card.Record.PublishedAt),
			)
		}
	}
	if rep.Err != nil {
		log.Warn("presentation stopped early",
			slog.Any("err", rep.Err),
			slog.Int("presented", len(rep.Cards)),
			slog.Int("hits", rep.Hits),
		)
	}

	log.Info("inspection completed",
		slog.String("index", rep.Index),
		slog.Int64("total", rep.Total),
		slog.Int("hits", rep.Hits),
		slog.Duration("took", rep.Took),
	)
	return rep, nil
}
