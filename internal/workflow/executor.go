package workflow

import (
	"context"
	"log/slog"

	"github.com/Zereker/oncall/internal/domain"
	"github.com/Zereker/oncall/pkg/knowledge"
	"github.com/Zereker/oncall/pkg/log"
	"github.com/Zereker/oncall/pkg/paging"
	"github.com/Zereker/oncall/pkg/ticket"
)

// ============================================================================
// Executor - 按声明顺序执行工作流动作
//
// 顺序有意义：前面的动作产生的标志（如 knowledge_base_used）会被
// 后面的动作消费。升级通知失败只记日志；知识检索和建单失败会
// 中止剩余动作并保留已积累的部分结果。
// ============================================================================

// Executor 动作执行器
type Executor struct {
	logger   *slog.Logger
	searcher knowledge.Searcher
	notifier paging.Notifier
	tickets  ticket.System
}

// NewExecutor 创建动作执行器
func NewExecutor(searcher knowledge.Searcher, notifier paging.Notifier, tickets ticket.System) *Executor {
	return &Executor{
		logger:   log.Logger("executor"),
		searcher: searcher,
		notifier: notifier,
		tickets:  tickets,
	}
}

// Run 执行工作流的动作列表，返回执行结果。
// wf 为 nil（未匹配）或动作列表为空时，executed = false。
func (e *Executor) Run(ctx context.Context, wf *domain.WorkflowDefinition, msgCtx *domain.MessageContext) *domain.ExecutionResult {
	result := &domain.ExecutionResult{}

	if wf == nil || len(wf.Actions) == 0 {
		if wf != nil {
			result.WorkflowName = wf.Name
		}
		return result
	}

	result.Executed = true
	result.WorkflowName = wf.Name

	e.logger.Info("executing workflow",
		"workflow", wf.Name,
		"actions", len(wf.Actions),
		"message_id", msgCtx.MessageID,
	)

	for _, action := range wf.Actions {
		if aborted := e.runAction(ctx, action, msgCtx, result); aborted {
			e.logger.Warn("workflow aborted",
				"workflow", wf.Name,
				"action", string(action.Type),
				"error", result.Err,
			)
			break
		}
	}

	return result
}

// runAction 执行单个动作，返回是否中止剩余动作
func (e *Executor) runAction(ctx context.Context, action domain.Action, msgCtx *domain.MessageContext, result *domain.ExecutionResult) bool {
	switch action.Type {
	case domain.ActionEscalate:
		e.runEscalate(ctx, action.Escalate, msgCtx, result)
		return false

	case domain.ActionSearchKB:
		return e.runSearchKB(ctx, action.SearchKB, msgCtx, result)

	case domain.ActionCreateTicket:
		return e.runCreateTicket(ctx, action.CreateTicket, msgCtx, result)

	case domain.ActionRespond:
		params := action.Respond
		if params == nil {
			params = &domain.RespondParams{}
		}
		// 多个 respond 时最后一个生效
		result.ResponseTemplate = params.Template
		result.RecordOutcome(string(action.Type), domain.OutcomeOK, map[string]any{
			"template": params.Template,
		})
		return false

	default:
		result.RecordOutcome(string(action.Type), domain.OutcomeUnsupported, nil)
		e.logger.Warn("unsupported action type", "action", string(action.Type))
		return false
	}
}

// runEscalate 触发升级。通知投递失败只记日志，不中止工作流。
func (e *Executor) runEscalate(ctx context.Context, params *domain.EscalateParams, msgCtx *domain.MessageContext, result *domain.ExecutionResult) {
	if params == nil {
		params = &domain.EscalateParams{}
	}

	result.EscalationTriggered = true
	result.RecordOutcome(string(domain.ActionEscalate), domain.OutcomeOK, map[string]any{
		"escalation_level": params.EscalationLevel,
		"notify_channels":  params.NotifyChannels,
	})

	if e.notifier == nil {
		return
	}

	err := e.notifier.Notify(ctx, paging.Event{
		Level:     params.EscalationLevel,
		Targets:   params.NotifyChannels,
		ChannelID: msgCtx.ChannelID,
		MessageID: msgCtx.MessageID,
		Summary:   msgCtx.MessageText,
	})
	if err != nil {
		e.logger.Error("escalation notify failed",
			"level", params.EscalationLevel,
			"message_id", msgCtx.MessageID,
			"error", err,
		)
	}
}

// runSearchKB 调用知识检索。失败中止剩余动作。
func (e *Executor) runSearchKB(ctx context.Context, params *domain.SearchKBParams, msgCtx *domain.MessageContext, result *domain.ExecutionResult) bool {
	maxResults := 0
	if params != nil {
		maxResults = params.MaxResults
	}

	if e.searcher == nil {
		result.Err = "knowledge search is not available"
		result.RecordOutcome(string(domain.ActionSearchKB), domain.OutcomeFailed, nil)
		return true
	}

	text, err := e.searcher.Search(ctx, msgCtx.MessageText, maxResults)
	if err != nil {
		result.Err = err.Error()
		result.RecordOutcome(string(domain.ActionSearchKB), domain.OutcomeFailed, nil)
		return true
	}

	result.KnowledgeBaseUsed = true
	result.KBResults = text
	result.RecordOutcome(string(domain.ActionSearchKB), domain.OutcomeOK, map[string]any{
		"max_results": maxResults,
	})

	return false
}

// runCreateTicket 调用工单系统。失败中止剩余动作。
func (e *Executor) runCreateTicket(ctx context.Context, params *domain.CreateTicketParams, msgCtx *domain.MessageContext, result *domain.ExecutionResult) bool {
	if params == nil {
		params = &domain.CreateTicketParams{}
	}

	if e.tickets == nil {
		result.Err = "ticket system is not available"
		result.RecordOutcome(string(domain.ActionCreateTicket), domain.OutcomeFailed, nil)
		return true
	}

	t, err := e.tickets.Create(ctx, ticket.Request{
		System:    params.System,
		Priority:  params.Priority,
		Summary:   msgCtx.MessageText,
		ChannelID: msgCtx.ChannelID,
		UserID:    msgCtx.UserID,
	})
	if err != nil {
		result.Err = err.Error()
		result.RecordOutcome(string(domain.ActionCreateTicket), domain.OutcomeFailed, nil)
		return true
	}

	result.TicketRef = t.Ref
	result.RecordOutcome(string(domain.ActionCreateTicket), domain.OutcomeOK, map[string]any{
		"system":   params.System,
		"priority": params.Priority,
		"ref":      t.Ref,
	})

	return false
}
