package site

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/jobboard-cli/internal/metrics"
)

// Handler serves a built site directory: the static files plus a small
// read-only JSON API over its data file. The data is loaded once.
func Handler(dir string, reg *prometheus.Registry) (http.Handler, error) {
	d, err := ReadData(dir)
	if err != nil {
		return nil, err
	}
	httpMetrics := metrics.NewHTTP(reg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(httpMetrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"status": "ok", "companies": len(d.Companies)})
	})
	r.Get("/api/companies", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, filterCompanies(d.Companies, r.URL.Query().Get("stage"), r.URL.Query().Get("hiring"),
			r.URL.Query().Get("tag"), r.URL.Query().Get("q")))
	})
	r.Get("/api/roles", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, filterRoles(d.Roles, r.URL.Query().Get("tag"), r.URL.Query().Get("q")))
	})
	r.Get("/api/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, d.Stats)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Handle("/*", http.FileServer(http.Dir(dir)))

	return r, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("site: encode response", zap.Error(err))
	}
}

func filterCompanies(cs []Company, stage, hiring, tag, q string) []Company {
	q = strings.ToLower(q)
	out := []Company{}
	for _, c := range cs {
		if stage != "" && c.Stage != stage {
			continue
		}
		if hiring != "" && c.Hiring != hiring {
			continue
		}
		if tag != "" && !slices.Contains(c.Tags, tag) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.Name+" "+c.Desc), q) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func filterRoles(rs []Role, tag, q string) []Role {
	q = strings.ToLower(q)
	out := []Role{}
	for _, r := range rs {
		if tag != "" && !slices.Contains(r.Tags, tag) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.Title+" "+r.Company), q) {
			continue
		}
		out = append(out, r)
	}
	return out
}
