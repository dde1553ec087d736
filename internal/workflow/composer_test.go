package workflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/oncall/internal/domain"
)

func TestComposerRender(t *testing.T) {
	ctx := context.Background()

	newCatalog := func(templates map[string]string) *Catalog {
		return NewCatalog(nil, templates)
	}

	t.Run("knowledge query always takes knowledge path", func(t *testing.T) {
		searcher := NewMockSearcher()
		searcher.SearchFunc = func(ctx context.Context, query string, maxResults int) (string, error) {
			return "found: restart procedure", nil
		}

		// 即使配置了模板，knowledge_query 也走检索路径
		composer := NewComposer(newCatalog(map[string]string{
			"some_template": "canned reply",
		}), searcher)

		result := &domain.ExecutionResult{
			Executed:         true,
			WorkflowName:     "knowledge_lookup",
			ResponseTemplate: "some_template",
		}

		text := composer.Render(ctx, result, domain.Classification{Type: domain.ClassKnowledgeQuery}, testMessageContext())
		assert.Equal(t, "found: restart procedure", text)
	})

	t.Run("knowledge query reuses execution results", func(t *testing.T) {
		searcher := NewMockSearcher()
		composer := NewComposer(newCatalog(nil), searcher)

		result := &domain.ExecutionResult{
			Executed:          true,
			KnowledgeBaseUsed: true,
			KBResults:         "cached kb answer",
		}

		text := composer.Render(ctx, result, domain.Classification{Type: domain.ClassKnowledgeQuery}, testMessageContext())
		assert.Equal(t, "cached kb answer", text)
		assert.Empty(t, searcher.SearchCalls)
	})

	t.Run("knowledge query without searcher", func(t *testing.T) {
		composer := NewComposer(newCatalog(nil), nil)

		text := composer.Render(ctx, &domain.ExecutionResult{}, domain.Classification{Type: domain.ClassKnowledgeQuery}, testMessageContext())
		assert.Equal(t, kbUnavailableReply, text)
	})

	t.Run("knowledge query search error", func(t *testing.T) {
		searcher := NewMockSearcher()
		searcher.SearchFunc = func(ctx context.Context, query string, maxResults int) (string, error) {
			return "", fmt.Errorf("search failed")
		}
		composer := NewComposer(newCatalog(nil), searcher)

		text := composer.Render(ctx, &domain.ExecutionResult{}, domain.Classification{Type: domain.ClassKnowledgeQuery}, testMessageContext())
		assert.Equal(t, kbErrorReply, text)
	})

	t.Run("not executed returns generic reply", func(t *testing.T) {
		composer := NewComposer(newCatalog(nil), nil)

		text := composer.Render(ctx, &domain.ExecutionResult{}, domain.Classification{Type: "totally_unknown"}, testMessageContext())
		assert.Equal(t, genericReply, text)
	})

	t.Run("no template synthesizes from workflow name", func(t *testing.T) {
		composer := NewComposer(newCatalog(nil), nil)

		incident := composer.Render(ctx, &domain.ExecutionResult{
			Executed:     true,
			WorkflowName: "critical_incident",
		}, domain.Classification{Type: domain.ClassIncident}, testMessageContext())
		assert.Equal(t, incidentReply, incident)

		support := composer.Render(ctx, &domain.ExecutionResult{
			Executed:     true,
			WorkflowName: "support_request",
		}, domain.Classification{Type: domain.ClassSupportRequest}, testMessageContext())
		assert.Equal(t, supportReply, support)

		other := composer.Render(ctx, &domain.ExecutionResult{
			Executed:     true,
			WorkflowName: "deployment_flow",
		}, domain.Classification{Type: domain.ClassDeploymentHelp}, testMessageContext())
		assert.Equal(t, processingReply, other)
	})

	t.Run("reserved template name redirects to knowledge path", func(t *testing.T) {
		searcher := NewMockSearcher()
		searcher.SearchFunc = func(ctx context.Context, query string, maxResults int) (string, error) {
			return "kb answer", nil
		}
		composer := NewComposer(newCatalog(map[string]string{
			TemplateKnowledgeBaseResults: "should never render as literal",
		}), searcher)

		result := &domain.ExecutionResult{
			Executed:         true,
			WorkflowName:     "knowledge_lookup",
			ResponseTemplate: TemplateKnowledgeBaseResults,
		}

		text := composer.Render(ctx, result, domain.Classification{Type: domain.ClassDeploymentHelp}, testMessageContext())
		assert.Equal(t, "kb answer", text)
	})

	t.Run("template with placeholder substituted", func(t *testing.T) {
		composer := NewComposer(newCatalog(map[string]string{
			"kb_response": "Here is what I found:\n\n{kb_results}\n",
		}), nil)

		result := &domain.ExecutionResult{
			Executed:          true,
			WorkflowName:      "deployment_help",
			KnowledgeBaseUsed: true,
			KBResults:         "use blue/green deploys",
			ResponseTemplate:  "kb_response",
		}

		text := composer.Render(ctx, result, domain.Classification{Type: domain.ClassDeploymentHelp}, testMessageContext())
		assert.Equal(t, "Here is what I found:\n\nuse blue/green deploys", text)
	})

	t.Run("template without placeholder rendered as is", func(t *testing.T) {
		composer := NewComposer(newCatalog(map[string]string{
			"incident_response": "  Escalated to on-call.  ",
		}), nil)

		result := &domain.ExecutionResult{
			Executed:         true,
			WorkflowName:     "critical_incident",
			ResponseTemplate: "incident_response",
		}

		text := composer.Render(ctx, result, domain.Classification{Type: domain.ClassIncident}, testMessageContext())
		assert.Equal(t, "Escalated to on-call.", text)
	})

	t.Run("missing template falls back", func(t *testing.T) {
		composer := NewComposer(newCatalog(nil), nil)

		result := &domain.ExecutionResult{
			Executed:         true,
			WorkflowName:     "custom",
			ResponseTemplate: "not_configured",
		}

		text := composer.Render(ctx, result, domain.Classification{Type: domain.ClassGeneralInquiry}, testMessageContext())
		assert.Equal(t, fallbackReply, text)
	})
}

func TestComposerRenderNeverEmpty(t *testing.T) {
	// 所有路径都必须产出非空回复
	ctx := context.Background()
	composer := NewComposer(NewCatalog(nil, nil), nil)

	cases := []struct {
		name           string
		result         *domain.ExecutionResult
		classification domain.Classification
	}{
		{"no workflow", &domain.ExecutionResult{}, domain.Classification{Type: domain.ClassGeneralInquiry}},
		{"knowledge query no searcher", &domain.ExecutionResult{}, domain.Classification{Type: domain.ClassKnowledgeQuery}},
		{"executed no template", &domain.ExecutionResult{Executed: true, WorkflowName: "x"}, domain.Classification{Type: domain.ClassIncident}},
		{"missing template", &domain.ExecutionResult{Executed: true, ResponseTemplate: "gone"}, domain.Classification{Type: domain.ClassIncident}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := composer.Render(ctx, tc.result, tc.classification, testMessageContext())
			require.NotEmpty(t, text)
		})
	}
}
