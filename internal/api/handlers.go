package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/soaringjerry/mindbridge/internal/middleware"
	"github.com/soaringjerry/mindbridge/internal/services"
)

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.auth.Register(r.Context(), services.RegisterRequest{
		Email: req.Email, Password: req.Password, FirstName: req.FirstName, LastName: req.LastName,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, err := rt.auth.CurrentUser(r.Context(), userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (rt *Router) handleListTests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.sessions.ListTests())
}

func (rt *Router) handleGetTest(w http.ResponseWriter, r *http.Request) {
	t, err := rt.sessions.GetTest(r.PathValue("testID"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (rt *Router) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := rt.sessions.List(r.Context(), userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (rt *Router) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TestID string `json:"test_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	sess, err := rt.sessions.Start(r.Context(), userID(r), strings.TrimSpace(req.TestID))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (rt *Router) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := rt.sessions.Get(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// PATCH /api/sessions/{id}
// { current_question?: int, is_completed?: bool, completed_at?: RFC3339 }
func (rt *Router) handleAdvanceSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentQuestion *int       `json:"current_question"`
		IsCompleted     bool       `json:"is_completed"`
		CompletedAt     *time.Time `json:"completed_at"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	id, uid := r.PathValue("id"), userID(r)
	pos := 0
	if req.CurrentQuestion != nil {
		pos = *req.CurrentQuestion
	} else {
		sess, err := rt.sessions.Get(r.Context(), id, uid)
		if err != nil {
			rt.writeError(w, r, err)
			return
		}
		pos = sess.CurrentQuestion
	}
	sess, err := rt.sessions.Advance(r.Context(), id, uid, services.AdvanceRequest{
		CurrentQuestion: pos,
		Complete:        req.IsCompleted,
		CompletedAt:     req.CompletedAt,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (rt *Router) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	sess, err := rt.sessions.Complete(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (rt *Router) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	state, err := rt.sessions.Resume(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (rt *Router) handleListAnswers(w http.ResponseWriter, r *http.Request) {
	rs, err := rt.answers.ListAnswers(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (rt *Router) handleExportSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b, err := rt.answers.ExportAnswersCSV(r.Context(), id, userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeCSV(w, "session-"+id+".csv", b)
}

// POST /api/responses
// { session_id, question_index, response }
// Question text and trait come from the catalog entry of the session's test.
func (rt *Router) handleRecordAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID     string `json:"session_id"`
		QuestionIndex *int   `json:"question_index"`
		Response      int    `json:"response"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	if req.QuestionIndex == nil {
		rt.writeError(w, r, services.NewInvalidError("question_index required"))
		return
	}
	uid := userID(r)
	sess, err := rt.sessions.Get(r.Context(), req.SessionID, uid)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	ans := services.AnswerRequest{
		SessionID:     sess.ID,
		QuestionIndex: *req.QuestionIndex,
		Response:      req.Response,
	}
	if t := rt.catalog.Test(sess.TestID); t != nil {
		if q := t.Question(ans.QuestionIndex); q != nil {
			ans.QuestionText, ans.Trait = q.Text, q.Trait
		}
	}
	saved, err := rt.answers.RecordAnswer(r.Context(), uid, ans)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (rt *Router) handleCalculate(w http.ResponseWriter, r *http.Request) {
	res, err := rt.results.ScoreSession(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) handleListResults(w http.ResponseWriter, r *http.Request) {
	rs, err := rt.results.ListResults(r.Context(), userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// GET /api/results/latest?type=big-five answers null when nothing matches.
func (rt *Router) handleLatestResult(w http.ResponseWriter, r *http.Request) {
	res, err := rt.results.LatestResult(r.Context(), userID(r), r.URL.Query().Get("type"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) handleExportResults(w http.ResponseWriter, r *http.Request) {
	b, err := rt.results.ExportResultsCSV(r.Context(), userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeCSV(w, "results.csv", b)
}

func (rt *Router) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	msgs, err := rt.companion.History(r.Context(), userID(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (rt *Router) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	ex, err := rt.companion.Chat(r.Context(), userID(r), req.Message, locale)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}
