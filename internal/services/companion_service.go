package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/mindbridge/internal/llm"
	"github.com/soaringjerry/mindbridge/internal/models"
	"github.com/soaringjerry/mindbridge/internal/utils"
)

const (
	companionMaxTokens   = 500
	companionTemperature = 0.7
	chatHistoryLimit     = 50
	maxChatMessageLen    = 4000
)

const companionPrompt = `You are MindBridge, a compassionate and knowledgeable AI psychology companion. Your role is to:

1. Provide thoughtful, supportive responses based on psychological principles
2. Help users understand themselves better through their personality assessments
3. Offer gentle guidance and insights without replacing professional therapy
4. Be empathetic, non-judgmental, and encouraging
5. Use evidence-based psychological concepts when appropriate
%s
Always maintain a warm, professional tone and remember you are a supportive companion, not a licensed therapist. If someone expresses serious mental health concerns, gently suggest they seek professional help.`

// CompanionOptions tune the model call. A zero MaxTokens or a nil
// Temperature takes the default; an explicit 0 temperature is honored.
type CompanionOptions struct {
	MaxTokens   int
	Temperature *float64
}

// ChatExchange is one round trip: the stored user message and the reply.
type ChatExchange struct {
	UserMessage *models.ChatMessage `json:"user_message"`
	Reply       *models.ChatMessage `json:"reply"`
}

// CompanionService relays chat messages to the model with the user's latest
// scores as context. Provider failures never reach the caller; the reply
// degrades to a fixed apology instead.
type CompanionService struct {
	store    ChatStore
	results  ResultStore
	provider llm.Provider
	opts     CompanionOptions
	log      *zap.Logger
	now      func() time.Time
	idGen    func() string
}

func NewCompanionService(store ChatStore, results ResultStore, provider llm.Provider, opts CompanionOptions, log *zap.Logger) *CompanionService {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = companionMaxTokens
	}
	if opts.Temperature == nil {
		t := companionTemperature
		opts.Temperature = &t
	}
	return &CompanionService{
		store:    store,
		results:  results,
		provider: provider,
		opts:     opts,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
		idGen:    newID,
	}
}

func (s *CompanionService) Chat(ctx context.Context, userID, message, locale string) (*ChatExchange, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, NewInvalidError("message required")
	}
	if len(message) > maxChatMessageLen {
		return nil, NewInvalidError(fmt.Sprintf("message exceeds %d bytes", maxChatMessageLen))
	}

	latest, err := s.results.LatestResult(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("latest result: %w", err)
	}
	var scores map[string]float64
	if latest != nil && len(latest.Scores) > 0 {
		scores = latest.Scores
	}

	userMsg := &models.ChatMessage{
		ID:                 s.idGen(),
		UserID:             userID,
		Message:            message,
		IsFromUser:         true,
		PersonalityContext: scores,
		CreatedAt:          s.now(),
	}
	if err := s.store.AddChatMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("store chat message: %w", err)
	}

	reply := &models.ChatMessage{
		ID:                 s.idGen(),
		UserID:             userID,
		Message:            s.generate(ctx, message, scores, locale),
		PersonalityContext: scores,
		CreatedAt:          s.now(),
	}
	// Keep the reply strictly after the user message so newest-first
	// ordering is stable when the clock is coarse.
	if !reply.CreatedAt.After(userMsg.CreatedAt) {
		reply.CreatedAt = userMsg.CreatedAt.Add(time.Microsecond)
	}
	if err := s.store.AddChatMessage(ctx, reply); err != nil {
		return nil, fmt.Errorf("store chat reply: %w", err)
	}
	return &ChatExchange{UserMessage: userMsg, Reply: reply}, nil
}

// History returns the user's conversation, newest first.
func (s *CompanionService) History(ctx context.Context, userID string) ([]*models.ChatMessage, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("unauthorized")
	}
	msgs, err := s.store.ListChatMessages(ctx, userID, chatHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return msgs, nil
}

func (s *CompanionService) generate(ctx context.Context, message string, scores map[string]float64, locale string) string {
	if s.provider == nil {
		return utils.T(locale, "companion.unavailable")
	}
	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      BuildCompanionPrompt(scores),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: message}},
		MaxTokens:   s.opts.MaxTokens,
		Temperature: *s.opts.Temperature,
	})
	if err != nil {
		s.log.Warn("companion reply failed", zap.Error(err))
		return utils.T(locale, "companion.unavailable")
	}
	if strings.TrimSpace(resp.Text) == "" {
		return utils.T(locale, "companion.empty")
	}
	return resp.Text
}

// BuildCompanionPrompt renders the system prompt, listing scores as
// "- trait: value/5" lines in trait order.
func BuildCompanionPrompt(scores map[string]float64) string {
	if len(scores) == 0 {
		return fmt.Sprintf(companionPrompt, "")
	}
	traits := make([]string, 0, len(scores))
	for t := range scores {
		traits = append(traits, t)
	}
	sort.Strings(traits)
	var b strings.Builder
	b.WriteString("\nThe user has the following personality profile based on their assessment results:\n")
	for _, t := range traits {
		fmt.Fprintf(&b, "- %s: %g/5\n", t, scores[t])
	}
	b.WriteString("\nPlease tailor your response to be appropriate for someone with this personality profile.\n")
	return fmt.Sprintf(companionPrompt, b.String())
}
