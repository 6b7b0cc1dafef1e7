package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/codexwatch/codexwatch/codex"
	"github.com/codexwatch/codexwatch/dbopen"
)

// staleRunMaxAge is how long a run may sit in status=running before boot
// recovery declares the process that owned it dead.
const staleRunMaxAge = 6 * time.Hour

func main() {
	port := env("PORT", "8086")
	dbPath := env("DB_PATH", "db/codex.db")
	configPath := env("CONFIG", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := codex.LoadConfig(configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	// Environment overrides the config file.
	if v := os.Getenv("OVERVIEW_URL"); v != "" {
		cfg.OverviewURL = v
	}
	if v := os.Getenv("CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Concurrency = n
		}
	}

	db, err := dbopen.Open(dbPath, dbopen.WithMkdirAll(), dbopen.WithSchema(codex.Schema))
	if err != nil {
		slog.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	svc := codex.NewService(db, cfg, codex.WithLogger(logger))
	st := svc.Store()

	// A crash mid-run leaves its run row stuck at status=running; fail those
	// before accepting traffic.
	if n, err := st.FailStaleRuns(ctx, staleRunMaxAge); err != nil {
		slog.Warn("fail stale runs", "error", err)
	} else if n > 0 {
		slog.Info("failed stale runs", "count", n)
	}

	// Router.
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Trigger. Runs the orchestration synchronously; the once-daily scheduler
	// is an external caller of this same endpoint.
	r.Post("/combat/refresh", func(w http.ResponseWriter, r *http.Request) {
		var opts codex.RefreshOptions
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
				writeError(w, 400, err)
				return
			}
		}
		summary, err := svc.Refresh(r.Context(), opts)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, summary)
	})

	// Read-only status endpoints over the harvested state.
	r.Get("/combat/runs", func(w http.ResponseWriter, r *http.Request) {
		runs, err := st.ListRuns(r.Context(), queryInt(r, "limit", 50))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if runs == nil {
			runs = []*codex.Run{}
		}
		writeJSON(w, 200, runs)
	})

	r.Get("/combat/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		run, err := st.GetRun(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if run == nil {
			writeJSON(w, 404, map[string]string{"error": "run not found"})
			return
		}
		writeJSON(w, 200, run)
	})

	r.Get("/combat/runs/{id}/items", func(w http.ResponseWriter, r *http.Request) {
		items, err := st.RunItems(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if items == nil {
			items = []*codex.RunItem{}
		}
		writeJSON(w, 200, items)
	})

	r.Get("/combat/keywords", func(w http.ResponseWriter, r *http.Request) {
		kws, err := st.ListKeywords(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if kws == nil {
			kws = []*codex.Keyword{}
		}
		writeJSON(w, 200, kws)
	})

	r.Get("/combat/classes", func(w http.ResponseWriter, r *http.Request) {
		classes, err := st.ListClassMeta(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if classes == nil {
			classes = []*codex.ClassMeta{}
		}
		writeJSON(w, 200, classes)
	})

	r.Get("/combat/classes/{class}/skills", func(w http.ResponseWriter, r *http.Request) {
		skills, err := st.SkillsByClass(r.Context(), chi.URLParam(r, "class"))
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if skills == nil {
			skills = []*codex.Skill{}
		}
		writeJSON(w, 200, skills)
	})

	r.Get("/combat/sources", func(w http.ResponseWriter, r *http.Request) {
		sources, err := st.ListSources(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if sources == nil {
			sources = []*codex.Source{}
		}
		writeJSON(w, 200, sources)
	})

	// The only mutation besides refresh: sources are never deleted, only
	// toggled by an external actor.
	r.Put("/combat/sources/enabled", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL     string `json:"url"`
			Enabled bool   `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, 400, err)
			return
		}
		if err := st.SetSourceEnabled(r.Context(), req.URL, req.Enabled); err != nil {
			writeError(w, 404, err)
			return
		}
		writeJSON(w, 200, map[string]string{"status": "updated"})
	})

	r.Get("/combat/stats", func(w http.ResponseWriter, r *http.Request) {
		stats, err := st.Stats(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, stats)
	})

	// HTTP server.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Refresh runs synchronously inside the request and renders every
		// class page; give it room.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port, "overview_url", cfg.OverviewURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
