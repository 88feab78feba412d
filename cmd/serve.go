package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solo800/civic-stream/internal/runlog"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only API over run history and results",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		runs, err := runlog.Open(cfg.RunLog.Path)
		if err != nil {
			return err
		}
		defer runs.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(runs),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter builds the read API routes over the run log.
func newRouter(runs *runlog.Log) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/runs", func(w http.ResponseWriter, req *http.Request) {
		limit := 20
		if v := req.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}

		entries, err := runs.Recent(req.Context(), limit)
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		if entries == nil {
			entries = []runlog.Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	})

	r.Get("/api/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		entry, err := runs.Get(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			zap.L().Error("get run failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		if entry == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		writeJSON(w, http.StatusOK, entry)
	})

	r.Get("/api/runs/{id}/matters", func(w http.ResponseWriter, req *http.Request) {
		entry, err := runs.Get(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			zap.L().Error("get run failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		if entry == nil || entry.OutputPath == "" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no matters recorded for this run"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, req, entry.OutputPath)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
