package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soaringjerry/mindbridge/internal/llm"
	"github.com/soaringjerry/mindbridge/internal/models"
)

func TestCompanionChatUsesLatestScores(t *testing.T) {
	ctx := context.Background()
	store := newLedgerStub()
	_, _, err := store.CreateResultOnce(ctx, &models.Result{
		ID: "R1", UserID: "u1", SessionID: "S1", TestType: "big-five",
		Scores:    map[string]float64{"openness": 4.25, "neuroticism": 2},
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	provider := llm.NewMockProvider("You seem curious.")
	svc := NewCompanionService(store, store, provider, CompanionOptions{}, nil)

	ex, err := svc.Chat(ctx, "u1", "  What suits me?  ", "en")
	require.NoError(t, err)
	assert.Equal(t, "What suits me?", ex.UserMessage.Message)
	assert.True(t, ex.UserMessage.IsFromUser)
	assert.Equal(t, "You seem curious.", ex.Reply.Message)
	assert.False(t, ex.Reply.IsFromUser)
	assert.Equal(t, 4.25, ex.Reply.PersonalityContext["openness"])

	require.Len(t, provider.Calls, 1)
	call := provider.Calls[0]
	assert.Equal(t, 500, call.MaxTokens)
	assert.Equal(t, 0.7, call.Temperature)
	assert.Contains(t, call.System, "- openness: 4.25/5")
	assert.Contains(t, call.System, "- neuroticism: 2/5")
	require.Len(t, call.Messages, 1)
	assert.Equal(t, llm.RoleUser, call.Messages[0].Role)

	history, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.False(t, history[0].IsFromUser, "newest first")
	assert.True(t, history[1].IsFromUser)
}

func TestCompanionChatFallsBackOnProviderError(t *testing.T) {
	ctx := context.Background()
	store := newLedgerStub()
	provider := llm.NewMockProvider()
	provider.Err = errors.New("upstream down")
	greedy := 0.0
	svc := NewCompanionService(store, store, provider, CompanionOptions{MaxTokens: 100, Temperature: &greedy}, nil)

	ex, err := svc.Chat(ctx, "u1", "hello", "en")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ex.Reply.Message, "I apologize"))
	assert.Nil(t, ex.Reply.PersonalityContext)
	assert.Equal(t, 100, provider.Calls[0].MaxTokens)
	assert.Zero(t, provider.Calls[0].Temperature, "an explicit 0 is not replaced by the default")
	assert.NotContains(t, provider.Calls[0].System, "personality profile")

	provider.Err = nil
	provider.Fallback = "   "
	ex, err = svc.Chat(ctx, "u1", "hello again", "zh")
	require.NoError(t, err)
	assert.NotEqual(t, "companion.empty", ex.Reply.Message)
}

func TestCompanionChatValidation(t *testing.T) {
	ctx := context.Background()
	store := newLedgerStub()
	svc := NewCompanionService(store, store, llm.NewMockProvider(), CompanionOptions{}, nil)

	_, err := svc.Chat(ctx, "", "hi", "en")
	assert.True(t, IsCode(err, ErrorUnauthorized))
	_, err = svc.Chat(ctx, "u1", "   ", "en")
	assert.True(t, IsCode(err, ErrorInvalid))
	_, err = svc.Chat(ctx, "u1", strings.Repeat("x", 4001), "en")
	assert.True(t, IsCode(err, ErrorInvalid))
	assert.Empty(t, store.chat)
}

func TestBuildCompanionPromptSortsTraits(t *testing.T) {
	p := BuildCompanionPrompt(map[string]float64{"openness": 3, "agreeableness": 4})
	a := strings.Index(p, "agreeableness")
	o := strings.Index(p, "openness")
	require.True(t, a > 0 && o > 0)
	assert.Less(t, a, o)
	assert.True(t, strings.HasPrefix(BuildCompanionPrompt(nil), "You are MindBridge"))
}
