package api

import (
	"net/http"

	"github.com/soaringjerry/mindbridge/internal/middleware"
	"github.com/soaringjerry/mindbridge/internal/utils"
)

// BuildInfo is stamped at link time and echoed by /health and /version.
type BuildInfo struct {
	Commit    string
	BuildTime string
}

func RegisterHealth(mux *http.ServeMux, info BuildInfo) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		locale := middleware.LocaleFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":         true,
			"name":       "MindBridge API",
			"locale":     locale,
			"msg":        utils.T(locale, "health.ok"),
			"commit":     info.Commit,
			"build_time": info.BuildTime,
		})
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"commit":     info.Commit,
			"build_time": info.BuildTime,
		})
	})
}
