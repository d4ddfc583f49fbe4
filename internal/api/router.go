package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/mindbridge/internal/llm"
	"github.com/soaringjerry/mindbridge/internal/middleware"
	"github.com/soaringjerry/mindbridge/internal/services"
)

// Options wires the router's services. Results, when set, replaces the
// store's own result methods (the valkey cache plugs in here).
type Options struct {
	Catalog   services.TestCatalog
	Results   services.ResultStore
	Provider  llm.Provider
	Signer    services.TokenSigner
	TokenTTL  time.Duration
	Companion services.CompanionOptions
	Log       *zap.Logger
}

type Router struct {
	sessions  *services.SessionService
	answers   *services.ResponseService
	results   *services.ResultService
	auth      *services.AuthService
	companion *services.CompanionService
	catalog   services.TestCatalog
	log       *zap.Logger
}

func NewRouter(store Store, opts Options) *Router {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("api")
	results := opts.Results
	if results == nil {
		results = store
	}
	return &Router{
		sessions:  services.NewSessionService(store, store, opts.Catalog, log),
		answers:   services.NewResponseService(store, store),
		results:   services.NewResultService(store, store, results, opts.Catalog, log),
		auth:      services.NewAuthService(store, opts.Signer, opts.TokenTTL),
		companion: services.NewCompanionService(store, results, opts.Provider, opts.Companion, log),
		catalog:   opts.Catalog,
		log:       log,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", rt.handleRegister)
	mux.HandleFunc("POST /api/auth/login", rt.handleLogin)
	mux.HandleFunc("GET /api/tests", rt.handleListTests)
	mux.HandleFunc("GET /api/tests/{testID}", rt.handleGetTest)

	authed := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.RequireAuth(h))
	}
	authed("GET /api/auth/user", rt.handleCurrentUser)
	authed("GET /api/sessions", rt.handleListSessions)
	authed("POST /api/sessions", rt.handleStartSession)
	authed("GET /api/sessions/{id}", rt.handleGetSession)
	authed("PATCH /api/sessions/{id}", rt.handleAdvanceSession)
	authed("POST /api/sessions/{id}/complete", rt.handleCompleteSession)
	authed("GET /api/sessions/{id}/resume", rt.handleResumeSession)
	authed("GET /api/sessions/{id}/responses", rt.handleListAnswers)
	authed("GET /api/sessions/{id}/export", rt.handleExportSession)
	authed("POST /api/sessions/{id}/calculate", rt.handleCalculate)
	authed("POST /api/responses", rt.handleRecordAnswer)
	authed("GET /api/results", rt.handleListResults)
	authed("GET /api/results/latest", rt.handleLatestResult)
	authed("GET /api/results/export", rt.handleExportResults)
	authed("GET /api/chat", rt.handleChatHistory)
	authed("POST /api/chat", rt.handleChat)
}

func userID(r *http.Request) string {
	uid, _ := middleware.UserIDFromContext(r.Context())
	return uid
}
