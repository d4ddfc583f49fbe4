package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/soaringjerry/mindbridge/internal/api"
	"github.com/soaringjerry/mindbridge/internal/models"
	"github.com/soaringjerry/mindbridge/internal/services"
)

// timeLayout is fixed width so TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLStore implements api.Store on database/sql. Queries are written with
// '?' placeholders and rebound for Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

var _ api.Store = (*SQLStore)(nil)

func NewSQLStore(db *sql.DB, driver string) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db, dialect: d}, nil
}

func (s *SQLStore) q(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

const sessionCols = `id, user_id, test_id, current_question, total_questions, is_completed, started_at, completed_at`

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		sess      models.Session
		started   string
		completed sql.NullString
	)
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.TestID, &sess.CurrentQuestion, &sess.TotalQuestions,
		&sess.IsCompleted, &started, &completed); err != nil {
		return nil, err
	}
	t, err := parseTime(started)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	sess.StartedAt = t
	if completed.Valid {
		at, err := parseTime(completed.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		sess.CompletedAt = &at
	}
	return &sess, nil
}

func (s *SQLStore) InsertSession(ctx context.Context, sess *models.Session) error {
	var completed any
	if sess.CompletedAt != nil {
		completed = formatTime(*sess.CompletedAt)
	}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO test_sessions (`+sessionCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		sess.ID, sess.UserID, sess.TestID, sess.CurrentQuestion, sess.TotalQuestions, sess.IsCompleted,
		formatTime(sess.StartedAt), completed)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+sessionCols+` FROM test_sessions WHERE id = ?`), id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return sess, err
}

// UpdateSession applies upd in one statement. Completion only ever turns
// on and completed_at keeps its first value.
func (s *SQLStore) UpdateSession(ctx context.Context, id string, upd services.SessionUpdate) (*models.Session, error) {
	var pos sql.NullInt64
	if upd.CurrentQuestion != nil {
		pos = sql.NullInt64{Int64: int64(*upd.CurrentQuestion), Valid: true}
	}
	var completedAt sql.NullString
	if upd.CompletedAt != nil {
		completedAt = sql.NullString{String: formatTime(*upd.CompletedAt), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, s.q(`UPDATE test_sessions SET
		current_question = COALESCE(?, current_question),
		is_completed = (is_completed OR ?),
		completed_at = COALESCE(completed_at, ?)
		WHERE id = ?`),
		pos, completedAt.Valid, completedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return s.GetSession(ctx, id)
}

func (s *SQLStore) ListSessionsByUser(ctx context.Context, userID string) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+sessionCols+` FROM test_sessions WHERE user_id = ? ORDER BY started_at DESC, id DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	out := []*models.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

const responseCols = `id, session_id, question_index, question_text, response, trait, created_at`

func scanResponse(row rowScanner) (*models.Response, error) {
	var (
		r       models.Response
		created string
	)
	if err := row.Scan(&r.ID, &r.SessionID, &r.QuestionIndex, &r.QuestionText, &r.Response, &r.Trait, &created); err != nil {
		return nil, err
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	r.CreatedAt = t
	return &r, nil
}

// UpsertResponse keeps the original row id on overwrite.
func (s *SQLStore) UpsertResponse(ctx context.Context, r *models.Response) (*models.Response, error) {
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO test_responses (`+responseCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, question_index) DO UPDATE SET
			question_text = excluded.question_text,
			response = excluded.response,
			trait = excluded.trait,
			created_at = excluded.created_at`),
		r.ID, r.SessionID, r.QuestionIndex, r.QuestionText, r.Response, r.Trait, formatTime(r.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("upsert response: %w", err)
	}
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+responseCols+` FROM test_responses WHERE session_id = ? AND question_index = ?`),
		r.SessionID, r.QuestionIndex)
	return scanResponse(row)
}

func (s *SQLStore) ListResponses(ctx context.Context, sessionID string) ([]*models.Response, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+responseCols+` FROM test_responses WHERE session_id = ? ORDER BY question_index`), sessionID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()
	out := []*models.Response{}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const resultCols = `id, user_id, session_id, test_type, scores, personality_type, created_at`

func scanResult(row rowScanner) (*models.Result, error) {
	var (
		r       models.Result
		scores  string
		created string
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.SessionID, &r.TestType, &scores, &r.PersonalityType, &created); err != nil {
		return nil, err
	}
	r.Scores = map[string]float64{}
	if err := json.Unmarshal([]byte(scores), &r.Scores); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	r.CreatedAt = t
	return &r, nil
}

func (s *SQLStore) CreateResultOnce(ctx context.Context, r *models.Result) (*models.Result, bool, error) {
	scores := r.Scores
	if scores == nil {
		scores = map[string]float64{}
	}
	raw, err := json.Marshal(scores)
	if err != nil {
		return nil, false, fmt.Errorf("encode scores: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.q(`INSERT INTO personality_results (`+resultCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO NOTHING`),
		r.ID, r.UserID, r.SessionID, r.TestType, string(raw), r.PersonalityType, formatTime(r.CreatedAt))
	if err != nil {
		return nil, false, fmt.Errorf("insert result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert result: %w", err)
	}
	stored, err := s.GetResultBySession(ctx, r.SessionID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("result for session %s vanished after insert", r.SessionID)
	}
	return stored, n > 0, nil
}

func (s *SQLStore) GetResultBySession(ctx context.Context, sessionID string) (*models.Result, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+resultCols+` FROM personality_results WHERE session_id = ?`), sessionID)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *SQLStore) LatestResult(ctx context.Context, userID, testType string) (*models.Result, error) {
	query := `SELECT ` + resultCols + ` FROM personality_results WHERE user_id = ?`
	args := []any{userID}
	if testType != "" {
		query += ` AND test_type = ?`
		args = append(args, testType)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT 1`
	r, err := scanResult(s.db.QueryRowContext(ctx, s.q(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *SQLStore) ListResults(ctx context.Context, userID string) ([]*models.Result, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+resultCols+` FROM personality_results WHERE user_id = ? ORDER BY created_at DESC, id DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	out := []*models.Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const userCols = `id, email, first_name, last_name, pass_hash, created_at`

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u       models.User
		hash    string
		created string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &hash, &created); err != nil {
		return nil, err
	}
	u.PassHash = []byte(hash)
	t, err := parseTime(created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	u.CreatedAt = t
	return &u, nil
}

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.q(`SELECT `+userCols+` FROM users WHERE email = ?`), strings.ToLower(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.q(`SELECT `+userCols+` FROM users WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (s *SQLStore) AddUser(ctx context.Context, u *models.User) error {
	res, err := s.db.ExecContext(ctx, s.q(`INSERT INTO users (`+userCols+`) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (email) DO NOTHING`),
		u.ID, strings.ToLower(u.Email), u.FirstName, u.LastName, string(u.PassHash), formatTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.NewConflictError("email exists")
	}
	return nil
}

func (s *SQLStore) AddChatMessage(ctx context.Context, m *models.ChatMessage) error {
	var pctx sql.NullString
	if m.PersonalityContext != nil {
		raw, err := json.Marshal(m.PersonalityContext)
		if err != nil {
			return fmt.Errorf("encode personality context: %w", err)
		}
		pctx = sql.NullString{String: string(raw), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO ai_conversations (id, user_id, message, is_from_user, personality_context, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		m.ID, m.UserID, m.Message, m.IsFromUser, pctx, formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (s *SQLStore) ListChatMessages(ctx context.Context, userID string, limit int) ([]*models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id, user_id, message, is_from_user, personality_context, created_at
		FROM ai_conversations WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()
	out := []*models.ChatMessage{}
	for rows.Next() {
		var (
			m       models.ChatMessage
			pctx    sql.NullString
			created string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Message, &m.IsFromUser, &pctx, &created); err != nil {
			return nil, err
		}
		if pctx.Valid && pctx.String != "" {
			if err := json.Unmarshal([]byte(pctx.String), &m.PersonalityContext); err != nil {
				return nil, fmt.Errorf("decode personality context: %w", err)
			}
		}
		t, err := parseTime(created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		m.CreatedAt = t
		out = append(out, &m)
	}
	return out, rows.Err()
}
