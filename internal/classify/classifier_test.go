package classify

import (
	"context"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/oncall/internal/conversation"
	"github.com/Zereker/oncall/internal/domain"
	pkggenkit "github.com/Zereker/oncall/pkg/genkit"
)

func TestLLMClassifier(t *testing.T) {
	ctx := context.Background()

	mock := pkggenkit.InitForTest(ctx, pkggenkit.DefaultMockConfig(), "testdata/prompts")

	t.Run("structured output parsed", func(t *testing.T) {
		mock.SetModelJSONResponse("test-llm", map[string]any{
			"type":       "incident",
			"severity":   "critical",
			"urgency":    "high",
			"category":   "database",
			"confidence": 0.95,
		})

		classifier := NewLLMClassifier()
		classification, err := classifier.Classify(ctx, "production database is down", nil)
		require.NoError(t, err)

		assert.Equal(t, domain.ClassIncident, classification.Type)
		assert.Equal(t, domain.SeverityCritical, classification.Severity)
		assert.Equal(t, "high", classification.Urgency)
		assert.Equal(t, "database", classification.Category)
		assert.Equal(t, 0.95, classification.Confidence)
	})

	t.Run("unparseable output degrades to general inquiry", func(t *testing.T) {
		mock.SetModelResponse("test-llm", func(ctx context.Context, req *ai.ModelRequest) (*ai.ModelResponse, error) {
			return &ai.ModelResponse{
				Request: req,
				Message: ai.NewModelTextMessage("sorry, I cannot classify that"),
			}, nil
		})

		classifier := NewLLMClassifier()
		classification, err := classifier.Classify(ctx, "hello", nil)
		require.NoError(t, err)

		assert.Equal(t, domain.ClassGeneralInquiry, classification.Type)
		assert.Equal(t, 0.5, classification.Confidence)
	})

	t.Run("code-fenced json still parsed", func(t *testing.T) {
		mock.SetModelResponse("test-llm", func(ctx context.Context, req *ai.ModelRequest) (*ai.ModelResponse, error) {
			return &ai.ModelResponse{
				Request: req,
				Message: ai.NewModelTextMessage("```json\n{\"type\": \"knowledge_query\", \"confidence\": 0.8}\n```"),
			}, nil
		})

		classifier := NewLLMClassifier()
		classification, err := classifier.Classify(ctx, "how do I rotate certs?", nil)
		require.NoError(t, err)

		assert.Equal(t, domain.ClassKnowledgeQuery, classification.Type)
		assert.Equal(t, 0.8, classification.Confidence)
	})

	t.Run("transport error returned", func(t *testing.T) {
		mock.SetModelResponse("test-llm", func(ctx context.Context, req *ai.ModelRequest) (*ai.ModelResponse, error) {
			return nil, assert.AnError
		})

		classifier := NewLLMClassifier()
		_, err := classifier.Classify(ctx, "hello", nil)
		require.Error(t, err)
	})

	t.Run("empty type defaults to general inquiry", func(t *testing.T) {
		mock.SetModelJSONResponse("test-llm", map[string]any{
			"confidence": 0.7,
		})

		classifier := NewLLMClassifier()
		classification, err := classifier.Classify(ctx, "hmm", nil)
		require.NoError(t, err)

		assert.Equal(t, domain.ClassGeneralInquiry, classification.Type)
	})
}

func TestFormatHistory(t *testing.T) {
	entry := func(user, bot string) conversation.Entry {
		return conversation.Entry{
			UserMessage: user,
			BotResponse: bot,
			Timestamp:   time.Now(),
		}
	}

	t.Run("empty history", func(t *testing.T) {
		assert.Equal(t, "None", formatHistory(nil))
	})

	t.Run("formats user and bot turns", func(t *testing.T) {
		text := formatHistory([]conversation.Entry{
			entry("hi", "hello"),
		})
		assert.Equal(t, "user: hi\nbot: hello", text)
	})

	t.Run("keeps only last turns", func(t *testing.T) {
		history := []conversation.Entry{
			entry("one", "r1"),
			entry("two", "r2"),
			entry("three", "r3"),
			entry("four", "r4"),
			entry("five", "r5"),
		}

		text := formatHistory(history)
		assert.NotContains(t, text, "one")
		assert.NotContains(t, text, "two")
		assert.Contains(t, text, "three")
		assert.Contains(t, text, "five")
	})
}
