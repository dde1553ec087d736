package domain

import (
	"time"
)

// ============================================================================
// 分类类型常量
// ============================================================================

const (
	ClassIncident       = "incident"        // 故障事件
	ClassKnowledgeQuery = "knowledge_query" // 知识库查询
	ClassSupportRequest = "support_request" // 支持请求
	ClassDeploymentHelp = "deployment_help" // 部署协助
	ClassFollowup       = "followup"        // 同一会话的后续消息
	ClassGeneralInquiry = "general_inquiry" // 通用询问
)

// ============================================================================
// 严重度 / 紧急度常量
// ============================================================================

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// ============================================================================
// MessageContext - 一条入站消息的归一化上下文
// ============================================================================

// MessageContext 表示一条已经从渠道事件归一化的消息
type MessageContext struct {
	MessageID   string         `json:"message_id"`
	UserID      string         `json:"user_id"`
	ChannelID   string         `json:"channel_id"`
	ChannelType string         `json:"channel_type"` // slack / teams / api
	MessageText string         `json:"message_text"`
	ThreadTS    string         `json:"thread_ts,omitempty"` // 线程内消息的线程标识
	IsMention   bool           `json:"is_mention,omitempty"`
	Timestamp   time.Time      `json:"timestamp,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ============================================================================
// Classification - 上游模型产出的意图判定
// ============================================================================

// Classification 一次编排调用的不可变输入
type Classification struct {
	Type       string  `json:"type"`
	Severity   string  `json:"severity,omitempty"`
	Urgency    string  `json:"urgency,omitempty"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Field 按触发条件的字段名取值。
// classification_type 映射到 Type 属性；未知字段返回 false。
func (c Classification) Field(name string) (string, bool) {
	switch name {
	case "classification_type", "type":
		return c.Type, true
	case "severity":
		return c.Severity, c.Severity != ""
	case "urgency":
		return c.Urgency, c.Urgency != ""
	case "category":
		return c.Category, c.Category != ""
	default:
		return "", false
	}
}

// ============================================================================
// ExecutionResult - ActionExecutor 的输出
// ============================================================================

// 动作结果状态
const (
	OutcomeOK          = "ok"
	OutcomeFailed      = "failed"
	OutcomeUnsupported = "unsupported"
)

// ActionOutcome 单个动作的执行结果
type ActionOutcome struct {
	Action string         `json:"action"`
	Status string         `json:"status"`
	Detail map[string]any `json:"detail,omitempty"`
}

// ExecutionResult 工作流执行结果。每次请求新建，返回后不再修改。
type ExecutionResult struct {
	Executed            bool            `json:"executed"`
	WorkflowName        string          `json:"workflow_name,omitempty"`
	ActionsTaken        []ActionOutcome `json:"actions_taken,omitempty"`
	EscalationTriggered bool            `json:"escalation_triggered"`
	KnowledgeBaseUsed   bool            `json:"knowledge_base_used"`
	KBResults           string          `json:"kb_results,omitempty"`
	ResponseTemplate    string          `json:"response_template,omitempty"`
	TicketRef           string          `json:"ticket_ref,omitempty"`
	Err                 string          `json:"error,omitempty"`
}

// RecordOutcome 追加一条动作结果
func (r *ExecutionResult) RecordOutcome(action, status string, detail map[string]any) {
	r.ActionsTaken = append(r.ActionsTaken, ActionOutcome{
		Action: action,
		Status: status,
		Detail: detail,
	})
}

// ============================================================================
// ProcessResult - Orchestrator 对外返回的最终结果
// ============================================================================

// ProcessResult 编排结果：最终回复文本 + 结构化执行元数据
type ProcessResult struct {
	ResponseText        string  `json:"response_text"`
	ClassificationType  string  `json:"classification_type"`
	Confidence          float64 `json:"confidence"`
	WorkflowExecuted    bool    `json:"workflow_executed"`
	WorkflowName        string  `json:"workflow_name,omitempty"`
	EscalationTriggered bool    `json:"escalation_triggered"`
	KnowledgeBaseUsed   bool    `json:"knowledge_base_used"`
	TicketRef           string  `json:"ticket_ref,omitempty"`
	ErrorOccurred       bool    `json:"error_occurred"`
	ErrorMessage        string  `json:"error_message,omitempty"`
	LatencyMS           int64   `json:"processing_time_ms"`
}

// ============================================================================
// API Request/Response
// ============================================================================

// ProcessRequest 消息处理请求
type ProcessRequest struct {
	Message     string         `json:"message"`
	UserID      string         `json:"user_id"`
	ChannelID   string         `json:"channel_id"`
	ChannelType string         `json:"channel_type"`
	ThreadTS    string         `json:"thread_ts,omitempty"`
	IsMention   bool           `json:"is_mention,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
