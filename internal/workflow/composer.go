package workflow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Zereker/oncall/internal/domain"
	"github.com/Zereker/oncall/pkg/knowledge"
	"github.com/Zereker/oncall/pkg/log"
)

// TemplateKnowledgeBaseResults 保留模板名：即使显式配置，
// 也会被重定向到知识检索路径而不做字面替换。
const TemplateKnowledgeBaseResults = "knowledge_base_results"

// KBPlaceholder 模板正文中的知识库结果占位符
const KBPlaceholder = "{kb_results}"

// 固定回复文案
const (
	genericReply  = "I understand you need help. Let me assist you with that."
	fallbackReply = "I've processed your request. How can I help you further?"

	kbUnavailableReply = "📚 **Knowledge base not available.** Please contact support for assistance."
	kbErrorReply       = "📚 **Error searching knowledge base.** Please contact support for assistance."

	incidentReply   = "🚨 **Incident Acknowledged** - I've escalated this to the on-call team. Expected response time: 15 minutes."
	supportReply    = "🎫 **Support ticket created** - Our team will review and respond within 4 hours."
	processingReply = "I'm processing your request and will follow up shortly."
)

// ============================================================================
// Composer - 把执行结果渲染成最终回复文本
// ============================================================================

// Composer 响应合成器
type Composer struct {
	logger   *slog.Logger
	catalog  *Catalog
	searcher knowledge.Searcher
}

// NewComposer 创建响应合成器
func NewComposer(catalog *Catalog, searcher knowledge.Searcher) *Composer {
	return &Composer{
		logger:   log.Logger("composer"),
		catalog:  catalog,
		searcher: searcher,
	}
}

// Render 按固定优先级渲染回复：
//  1. knowledge_query 分类无条件走知识检索路径（刻意覆盖模板配置）
//  2. 未执行工作流 → 固定的通用回复
//  3. 未配置模板 → 按工作流名称合成
//  4. 查模板表并替换占位符；保留模板名重定向回知识路径
//  5. 模板缺失 → 固定兜底文案，不报错
func (c *Composer) Render(ctx context.Context, result *domain.ExecutionResult, classification domain.Classification, msgCtx *domain.MessageContext) string {
	if classification.Type == domain.ClassKnowledgeQuery {
		return c.renderKnowledge(ctx, result, msgCtx)
	}

	if !result.Executed {
		return genericReply
	}

	if result.ResponseTemplate == "" {
		return c.synthesizeFromName(result.WorkflowName)
	}

	if result.ResponseTemplate == TemplateKnowledgeBaseResults {
		c.logger.Debug("knowledge base template configured, redirecting to knowledge path",
			"workflow", result.WorkflowName,
		)
		return c.renderKnowledge(ctx, result, msgCtx)
	}

	body, ok := c.catalog.Template(result.ResponseTemplate)
	if !ok {
		c.logger.Warn("template not found",
			"template", result.ResponseTemplate,
			"workflow", result.WorkflowName,
		)
		return fallbackReply
	}

	if strings.Contains(body, KBPlaceholder) {
		body = strings.ReplaceAll(body, KBPlaceholder, result.KBResults)
	}

	return strings.TrimSpace(body)
}

// renderKnowledge 知识检索路径。本次执行已检索过就复用结果，
// 否则直接调用检索器。
func (c *Composer) renderKnowledge(ctx context.Context, result *domain.ExecutionResult, msgCtx *domain.MessageContext) string {
	if result.KnowledgeBaseUsed && result.KBResults != "" {
		return result.KBResults
	}

	if c.searcher == nil {
		c.logger.Warn("knowledge base not available for search")
		return kbUnavailableReply
	}

	text, err := c.searcher.Search(ctx, msgCtx.MessageText, knowledge.DefaultMaxResults)
	if err != nil {
		c.logger.Error("knowledge search failed", "error", err)
		return kbErrorReply
	}

	return text
}

// synthesizeFromName 没有模板时按工作流名称合成回复
func (c *Composer) synthesizeFromName(name string) string {
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "incident"):
		return incidentReply
	case strings.Contains(lower, "support"):
		return supportReply
	default:
		return processingReply
	}
}
