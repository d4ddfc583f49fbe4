package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func echoUser(w http.ResponseWriter, r *http.Request) {
	uid, _ := UserIDFromContext(r.Context())
	_, _ = w.Write([]byte(uid))
}

func TestAuthRoundTrip(t *testing.T) {
	a := NewAuth("s3cret")
	tok, err := a.SignToken("u1", "a@b.c", time.Hour)
	require.NoError(t, err)

	h := a.WithAuth(RequireAuth(http.HandlerFunc(echoUser)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsForeignAndExpiredTokens(t *testing.T) {
	a := NewAuth("s3cret")
	other := NewAuth("different")
	foreign, err := other.SignToken("u1", "a@b.c", time.Hour)
	require.NoError(t, err)

	past := NewAuth("s3cret")
	past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := past.SignToken("u1", "a@b.c", time.Hour)
	require.NoError(t, err)

	h := a.WithAuth(RequireAuth(http.HandlerFunc(echoUser)))
	for name, tok := range map[string]string{"foreign": foreign, "expired": expired, "garbage": "abc.def.ghi"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestNewAuthDevSecret(t *testing.T) {
	a := NewAuth("  ")
	tok, err := a.SignToken("u1", "", time.Minute)
	require.NoError(t, err)
	c, err := NewAuth(devSecret).parseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UID)
}

func TestHeaderMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := ResponseHeaders(CORS(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLocaleMiddleware(t *testing.T) {
	h := LocaleMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(LocaleFromContext(r.Context())))
	}))
	req := httptest.NewRequest(http.MethodGet, "/?lang=zh-CN", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "zh", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr-FR,zh;q=0.8")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "zh", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?lang=fr", nil))
	assert.Equal(t, "en", rec.Body.String())
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	a := NewAuth("k")
	tok, err := a.SignToken("u9", "", time.Hour)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ok", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("hi")) })
	mux.HandleFunc("GET /boom", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) })
	h := a.WithAuth(AccessLog(zap.New(core))(mux))

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "u9", entries[0].ContextMap()["user_id"])
	assert.EqualValues(t, 2, entries[0].ContextMap()["bytes"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.EqualValues(t, 502, entries[1].ContextMap()["status"])
}
