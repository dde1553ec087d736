package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Zereker/oncall/internal/conversation"
	"github.com/Zereker/oncall/internal/domain"
	"github.com/Zereker/oncall/pkg/log"
)

// apologyReply 编排层兜底文案：任何未捕获的失败都转换为它，
// 不向调用方抛出异常。
const apologyReply = "I apologize, but I encountered an error processing your request."

// ============================================================================
// Orchestrator - 编排门面
// 一次请求单向流过：匹配 → 执行 → 渲染 → 记录历史 → 返回结构化结果。
// ============================================================================

// Orchestrator 工作流编排器
type Orchestrator struct {
	logger   *slog.Logger
	catalog  *Catalog
	executor *Executor
	composer *Composer
	memory   conversation.Store
}

// NewOrchestrator 创建编排器
func NewOrchestrator(catalog *Catalog, executor *Executor, composer *Composer, memory conversation.Store) *Orchestrator {
	return &Orchestrator{
		logger:   log.Logger("orchestrator"),
		catalog:  catalog,
		executor: executor,
		composer: composer,
		memory:   memory,
	}
}

// Process 处理一条已分类的消息，返回回复文本和执行元数据。
// 本方法从不 panic、从不返回错误：所有失败都折叠进结果。
func (o *Orchestrator) Process(ctx context.Context, msgCtx *domain.MessageContext, classification domain.Classification) (result *domain.ProcessResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic during orchestration",
				"message_id", msgCtx.MessageID,
				"panic", r,
			)
			result = &domain.ProcessResult{
				ResponseText:       apologyReply,
				ClassificationType: classification.Type,
				Confidence:         classification.Confidence,
				ErrorOccurred:      true,
				ErrorMessage:       fmt.Sprintf("internal error: %v", r),
				LatencyMS:          time.Since(start).Milliseconds(),
			}
		}
	}()

	o.logger.Info("processing message",
		"message_id", msgCtx.MessageID,
		"channel_id", msgCtx.ChannelID,
		"classification_type", classification.Type,
		"confidence", classification.Confidence,
	)

	matched := o.catalog.Match(classification)
	execution := o.executor.Run(ctx, matched, msgCtx)
	text := o.composer.Render(ctx, execution, classification, msgCtx)

	o.record(ctx, msgCtx, classification, text)

	result = &domain.ProcessResult{
		ResponseText:        text,
		ClassificationType:  classification.Type,
		Confidence:          classification.Confidence,
		WorkflowExecuted:    execution.Executed,
		WorkflowName:        execution.WorkflowName,
		EscalationTriggered: execution.EscalationTriggered,
		KnowledgeBaseUsed:   execution.KnowledgeBaseUsed,
		TicketRef:           execution.TicketRef,
		ErrorOccurred:       execution.Err != "",
		ErrorMessage:        execution.Err,
		LatencyMS:           time.Since(start).Milliseconds(),
	}

	o.logger.Info("processing completed",
		"message_id", msgCtx.MessageID,
		"workflow", execution.WorkflowName,
		"executed", execution.Executed,
		"escalated", execution.EscalationTriggered,
		"latency_ms", result.LatencyMS,
	)

	return result
}

// History 返回指定消息所属会话的历史
func (o *Orchestrator) History(ctx context.Context, msgCtx *domain.MessageContext) ([]conversation.Entry, error) {
	return o.memory.History(ctx, conversation.Key(msgCtx))
}

// record 把本轮交互写入会话历史。写入失败只记日志，
// 不影响已经生成的回复。
func (o *Orchestrator) record(ctx context.Context, msgCtx *domain.MessageContext, classification domain.Classification, response string) {
	entry := conversation.Entry{
		UserMessage:    msgCtx.MessageText,
		Classification: classification,
		BotResponse:    response,
		Timestamp:      time.Now(),
	}

	if err := o.memory.Append(ctx, conversation.Key(msgCtx), entry); err != nil {
		o.logger.Error("failed to record conversation",
			"message_id", msgCtx.MessageID,
			"error", err,
		)
	}
}
