package workflow

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"

	"github.com/Zereker/oncall/internal/domain"
	"github.com/Zereker/oncall/pkg/knowledge"
	"github.com/Zereker/oncall/pkg/log"
)

// ============================================================================
// Catalog - 工作流目录
// 启动时从配置加载一次，运行期只读，无需加锁。
// ============================================================================

// Catalog 持有按优先级排序的工作流定义和响应模板表
type Catalog struct {
	logger    *slog.Logger
	workflows []domain.WorkflowDefinition // 优先级降序，同优先级保持配置顺序
	templates map[string]string
}

// NewCatalog 从已构建的定义创建目录（稳定排序，优先级降序）
func NewCatalog(workflows []domain.WorkflowDefinition, templates map[string]string) *Catalog {
	sorted := make([]domain.WorkflowDefinition, len(workflows))
	copy(sorted, workflows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	if templates == nil {
		templates = make(map[string]string)
	}

	return &Catalog{
		logger:    log.Logger("catalog"),
		workflows: sorted,
		templates: templates,
	}
}

// Match 返回第一个全部触发条件命中的启用工作流；无命中返回 nil。
// 匹配是确定性的、无副作用的。
func (c *Catalog) Match(classification domain.Classification) *domain.WorkflowDefinition {
	for i := range c.workflows {
		wf := &c.workflows[i]
		if !wf.Enabled {
			continue
		}
		if wf.TriggerConditions.Matches(classification) {
			c.logger.Debug("workflow matched",
				"workflow", wf.Name,
				"classification_type", classification.Type,
			)
			return wf
		}
	}

	c.logger.Debug("no workflow matched", "classification_type", classification.Type)
	return nil
}

// Template 查模板表，未命中返回 false（不是错误）
func (c *Catalog) Template(name string) (string, bool) {
	body, ok := c.templates[name]
	return body, ok
}

// Templates 返回模板表（只读）
func (c *Catalog) Templates() map[string]string {
	return c.templates
}

// Workflows 返回排序后的工作流定义（只读）
func (c *Catalog) Workflows() []domain.WorkflowDefinition {
	return c.workflows
}

// ============================================================================
// 目录配置加载
// 所有默认值规则集中在这里；非法配置直接失败，不在使用点兜底。
// ============================================================================

type rawAction struct {
	Type   string         `toml:"type"`
	Params map[string]any `toml:"params"`
}

type rawWorkflow struct {
	Name              string         `toml:"name"`
	Enabled           *bool          `toml:"enabled"`
	Priority          *int           `toml:"priority"`
	TriggerConditions map[string]any `toml:"trigger_conditions"`
	Actions           []rawAction    `toml:"actions"`
}

// CatalogConfig 目录配置文档
type CatalogConfig struct {
	Workflows         []rawWorkflow     `toml:"workflows"`
	ResponseTemplates map[string]string `toml:"response_templates"`
}

// LoadCatalog 读取并校验目录配置文件
func LoadCatalog(filename string) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var cfg CatalogConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}

	return BuildCatalog(cfg)
}

// BuildCatalog 从配置构建目录：归一化触发条件、解码动作参数、填默认值
func BuildCatalog(cfg CatalogConfig) (*Catalog, error) {
	logger := log.Logger("catalog")

	seen := make(map[string]bool, len(cfg.Workflows))
	workflows := make([]domain.WorkflowDefinition, 0, len(cfg.Workflows))

	for i, raw := range cfg.Workflows {
		if raw.Name == "" {
			return nil, fmt.Errorf("workflows[%d]: name is required", i)
		}
		if seen[raw.Name] {
			return nil, fmt.Errorf("workflows[%d]: duplicate name %q", i, raw.Name)
		}
		seen[raw.Name] = true

		enabled := true
		if raw.Enabled != nil {
			enabled = *raw.Enabled
		}

		priority := 1
		if raw.Priority != nil {
			priority = *raw.Priority
		}

		conditions, err := normalizeConditions(raw.TriggerConditions)
		if err != nil {
			return nil, fmt.Errorf("workflow %q: %w", raw.Name, err)
		}

		actions := make([]domain.Action, 0, len(raw.Actions))
		for j, ra := range raw.Actions {
			action, err := buildAction(ra)
			if err != nil {
				return nil, fmt.Errorf("workflow %q: actions[%d]: %w", raw.Name, j, err)
			}
			if action.Type != domain.ActionEscalate &&
				action.Type != domain.ActionSearchKB &&
				action.Type != domain.ActionCreateTicket &&
				action.Type != domain.ActionRespond {
				logger.Warn("unknown action type in catalog, will execute as unsupported",
					"workflow", raw.Name,
					"action_type", ra.Type,
				)
			}
			actions = append(actions, action)
		}

		workflows = append(workflows, domain.WorkflowDefinition{
			Name:              raw.Name,
			Enabled:           enabled,
			Priority:          priority,
			TriggerConditions: conditions,
			Actions:           actions,
		})
	}

	logger.Info("catalog loaded",
		"workflows", len(workflows),
		"templates", len(cfg.ResponseTemplates),
	)

	return NewCatalog(workflows, cfg.ResponseTemplates), nil
}

// normalizeConditions 把标量条件归一化为单元素集合
func normalizeConditions(raw map[string]any) (domain.TriggerConditions, error) {
	if len(raw) == 0 {
		return domain.TriggerConditions{}, nil
	}

	conditions := make(domain.TriggerConditions, len(raw))
	for field, value := range raw {
		switch v := value.(type) {
		case string:
			conditions[field] = []string{v}
		case []any:
			values := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("trigger_conditions.%s: values must be strings", field)
				}
				values = append(values, s)
			}
			conditions[field] = values
		default:
			return nil, fmt.Errorf("trigger_conditions.%s: value must be a string or a string list", field)
		}
	}

	return conditions, nil
}

// buildAction 解码动作参数到对应的类型化结构
func buildAction(raw rawAction) (domain.Action, error) {
	if raw.Type == "" {
		return domain.Action{}, fmt.Errorf("type is required")
	}

	action := domain.Action{Type: domain.ActionType(raw.Type)}

	switch action.Type {
	case domain.ActionEscalate:
		params := &domain.EscalateParams{EscalationLevel: "normal"}
		if err := decodeParams(raw.Params, params); err != nil {
			return domain.Action{}, err
		}
		action.Escalate = params

	case domain.ActionSearchKB:
		params := &domain.SearchKBParams{MaxResults: knowledge.DefaultMaxResults}
		if err := decodeParams(raw.Params, params); err != nil {
			return domain.Action{}, err
		}
		if params.MaxResults <= 0 {
			return domain.Action{}, fmt.Errorf("max_results must be positive")
		}
		action.SearchKB = params

	case domain.ActionCreateTicket:
		params := &domain.CreateTicketParams{System: "default", Priority: "normal"}
		if err := decodeParams(raw.Params, params); err != nil {
			return domain.Action{}, err
		}
		action.CreateTicket = params

	case domain.ActionRespond:
		params := &domain.RespondParams{}
		if err := decodeParams(raw.Params, params); err != nil {
			return domain.Action{}, err
		}
		if params.Template == "" {
			return domain.Action{}, fmt.Errorf("template is required for respond action")
		}
		action.Respond = params
	}

	return action, nil
}

// decodeParams 用 mapstructure 解码自由形式的参数表
func decodeParams(params map[string]any, target any) error {
	if len(params) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("create params decoder: %w", err)
	}

	if err := decoder.Decode(params); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}

	return nil
}
