package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/DeafMist/score-inspector/internal/browser"
	"github.com/DeafMist/score-inspector/internal/cache"
	"github.com/DeafMist/score-inspector/internal/config"
	"github.com/DeafMist/score-inspector/internal/pipeline"
	"github.com/DeafMist/score-inspector/internal/render"
)

type inspector interface {
	Run(ctx context.Context) (*pipeline.Report, error)
	Assemble() ([]byte, error)
}

type healthChecker interface {
	Health(ctx context.Context) error
}

func newServeCmd(log *slog.Logger, cfg *config.Inspect) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report locally; every reload re-reads the script and re-runs the query",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(log, cfg)
			if err != nil {
				return err
			}

			var searcher pipeline.Searcher = pipeline.ClientSearcher{Client: client, Options: searchOptions(cfg)}
			if cfg.CacheTTL > 0 {
				searcher = &pipeline.CachingSearcher{
					Next:  searcher,
					Cache: cache.New(cfg.CacheCapacity, cfg.CacheTTL),
					Log:   log,
				}
			}

			runner, err := newRunner(log, cfg, searcher)
			if err != nil {
				return err
			}

			pingCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			if err := client.Ping(pingCtx); err != nil {
				log.Warn("elasticsearch not reachable yet, is the tunnel up?", slog.Any("err", err))
			}
			cancel()

			srv := &server{log: log, runner: runner, es: client}
			return serve(cmd.Context(), log, cfg.BindAddr, srv.routes(), open)
		},
	}

	cmd.Flags().StringVar(&cfg.BindAddr, "addr", cfg.BindAddr, "listen address")
	cmd.Flags().DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "reuse responses for identical bodies; 0 disables")
	cmd.Flags().BoolVar(&open, "open", false, "open the page in the browser")
	return cmd
}

func serve(ctx context.Context, log *slog.Logger, addr string, h http.Handler, open bool) error {
	// no WriteTimeout: the search itself is not bounded unless --timeout is set
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("inspector serving", slog.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if open {
		if err := browser.Open("http://" + addr + "/"); err != nil {
			log.Warn("open browser", slog.Any("err", err))
		}
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

type server struct {
	log    *slog.Logger
	runner inspector
	es     healthChecker
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleReport)
	r.Get("/query", s.handleQuery)
	r.Get("/health", s.handleHealth)
	return r
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.runner.Run(r.Context())
	if err != nil {
		s.log.Warn("inspection failed", slog.Any("err", err), slog.String("request_id", middleware.GetReqID(r.Context())))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	var buf bytes.Buffer
	if err := render.HTML(&buf, rep); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *server) handleQuery(w http.ResponseWriter, _ *http.Request) {
	body, err := s.runner.Assemble()
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = pretty.WriteTo(w)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.es.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
