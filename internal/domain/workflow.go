package domain

// ============================================================================
// WorkflowDefinition - 配置驱动的工作流定义
// ============================================================================

// ActionType 动作类型
type ActionType string

// 已知动作类型（封闭集合，未知类型在执行时产生 unsupported 结果）
const (
	ActionEscalate     ActionType = "escalate"
	ActionSearchKB     ActionType = "search_kb"
	ActionCreateTicket ActionType = "create_ticket"
	ActionRespond      ActionType = "respond"
)

// EscalateParams escalate 动作参数
type EscalateParams struct {
	EscalationLevel string   `json:"escalation_level" mapstructure:"escalation_level"`
	NotifyChannels  []string `json:"notify_channels" mapstructure:"notify_channels"`
}

// SearchKBParams search_kb 动作参数
type SearchKBParams struct {
	MaxResults int `json:"max_results" mapstructure:"max_results"`
}

// CreateTicketParams create_ticket 动作参数
type CreateTicketParams struct {
	System   string `json:"system" mapstructure:"system"`
	Priority string `json:"priority" mapstructure:"priority"`
}

// RespondParams respond 动作参数
type RespondParams struct {
	Template string `json:"template" mapstructure:"template"`
}

// Action 工作流的一个步骤。Type 是标签，四种已知类型各自对应
// 一个参数字段，加载时恰好填充其中一个；未知类型只保留标签。
type Action struct {
	Type ActionType `json:"type"`

	Escalate     *EscalateParams     `json:"escalate,omitempty"`
	SearchKB     *SearchKBParams     `json:"search_kb,omitempty"`
	CreateTicket *CreateTicketParams `json:"create_ticket,omitempty"`
	Respond      *RespondParams      `json:"respond,omitempty"`
}

// TriggerConditions 触发条件：分类字段名 -> 可接受取值集合。
// 加载时标量值已归一化为单元素集合。
type TriggerConditions map[string][]string

// Matches 判断分类是否满足全部条件。
// 每个条件字段必须在分类上存在且取值命中集合。
func (tc TriggerConditions) Matches(c Classification) bool {
	for field, accepted := range tc {
		value, ok := c.Field(field)
		if !ok {
			return false
		}

		found := false
		for _, v := range accepted {
			if v == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// WorkflowDefinition 一条命名的、带优先级的规则。
// 进程启动时从配置加载一次，此后视为不可变。
type WorkflowDefinition struct {
	Name              string            `json:"name"`
	Enabled           bool              `json:"enabled"`
	Priority          int               `json:"priority"` // 越大越优先，相同优先级保持配置顺序
	TriggerConditions TriggerConditions `json:"trigger_conditions"`
	Actions           []Action          `json:"actions"`
}
