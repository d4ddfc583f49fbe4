package models

import "time"

// Test types understood by the catalog. The set is open; unknown types
// are accepted and score to an empty result.
const (
	TestTypeBigFive               = "big-five"
	TestTypeMBTI                  = "mbti"
	TestTypeEmotionalIntelligence = "emotional-intelligence"
)

// Big Five traits.
const (
	TraitOpenness          = "openness"
	TraitConscientiousness = "conscientiousness"
	TraitExtraversion      = "extraversion"
	TraitAgreeableness     = "agreeableness"
	TraitNeuroticism       = "neuroticism"
)

// BigFiveTraits lists the Big Five buckets in scoring order.
var BigFiveTraits = []string{
	TraitOpenness,
	TraitConscientiousness,
	TraitExtraversion,
	TraitAgreeableness,
	TraitNeuroticism,
}

// Question is one Likert item. It has no identity beyond its index in a Test.
type Question struct {
	Text  string `json:"text" yaml:"text"`
	Trait string `json:"trait,omitempty" yaml:"trait"`
}

// Test is an immutable catalog entry.
type Test struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Type        string     `json:"type" yaml:"type"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// TotalQuestions is the length of the question sequence.
func (t *Test) TotalQuestions() int { return len(t.Questions) }

// Question returns the question at idx, or nil when idx is out of range.
func (t *Test) Question(idx int) *Question {
	if idx < 0 || idx >= len(t.Questions) {
		return nil
	}
	q := t.Questions[idx]
	return &q
}

// Session is one user's attempt at a test.
// Invariants: 0 <= CurrentQuestion <= TotalQuestions, CompletedAt != nil iff IsCompleted.
type Session struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	TestID          string     `json:"test_id"`
	CurrentQuestion int        `json:"current_question"`
	TotalQuestions  int        `json:"total_questions"`
	IsCompleted     bool       `json:"is_completed"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Response is a single recorded answer. QuestionText is a denormalized copy
// so the ledger stays readable if the catalog changes.
type Response struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	QuestionIndex int       `json:"question_index"`
	QuestionText  string    `json:"question_text"`
	Response      int       `json:"response"`
	Trait         string    `json:"trait,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Result is the immutable scoring outcome of a completed session.
type Result struct {
	ID              string             `json:"id"`
	UserID          string             `json:"user_id"`
	SessionID       string             `json:"session_id"`
	TestType        string             `json:"test_type"`
	Scores          map[string]float64 `json:"scores"`
	PersonalityType string             `json:"personality_type,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

// User is an account holder.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	PassHash  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is one turn of a companion conversation.
type ChatMessage struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	Message            string             `json:"message"`
	IsFromUser         bool               `json:"is_from_user"`
	PersonalityContext map[string]float64 `json:"personality_context,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}
