package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/Zereker/oncall/internal/conversation"
	"github.com/Zereker/oncall/internal/domain"
	pkggenkit "github.com/Zereker/oncall/pkg/genkit"
	"github.com/Zereker/oncall/pkg/log"
)

// PromptName 分类 prompt 名称（从 prompt_dir 加载）
const PromptName = "classify"

// historyWindow 带入分类上下文的最近轮次数
const historyWindow = 3

// Classifier 消息分类能力。失败由调用方负责处理，
// 编排器不感知分类过程。
type Classifier interface {
	Classify(ctx context.Context, text string, history []conversation.Entry) (domain.Classification, error)
}

// ============================================================================
// LLMClassifier - 基于 genkit prompt 的分类器
// ============================================================================

// LLMClassifier 调用 LLM 做意图分类
type LLMClassifier struct {
	logger *slog.Logger
	g      *genkit.Genkit
}

var _ Classifier = (*LLMClassifier)(nil)

// NewLLMClassifier 创建 LLM 分类器
func NewLLMClassifier() *LLMClassifier {
	return &LLMClassifier{
		logger: log.Logger("classifier"),
		g:      pkggenkit.Genkit(),
	}
}

// classifyResult prompt 的结构化输出
type classifyResult struct {
	Type       string  `json:"type"`
	Severity   string  `json:"severity,omitempty"`
	Urgency    string  `json:"urgency,omitempty"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Classify 执行分类。模型输出无法解析时降级为 general_inquiry，
// 传输层错误原样返回。
// 输出解析在本地完成：prompt 不声明结构化输出约束，
// 否则解析失败会在 Execute 内变成错误，降级路径永远走不到。
func (c *LLMClassifier) Classify(ctx context.Context, text string, history []conversation.Entry) (domain.Classification, error) {
	prompt := genkit.LookupPrompt(c.g, PromptName)
	if prompt == nil {
		return domain.Classification{}, fmt.Errorf("prompt not found: %s", PromptName)
	}

	resp, err := prompt.Execute(ctx, ai.WithInput(map[string]any{
		"message": text,
		"history": formatHistory(history),
	}))
	if err != nil {
		return domain.Classification{}, fmt.Errorf("prompt execute failed: %w", err)
	}

	if resp == nil {
		return domain.Classification{}, fmt.Errorf("empty response")
	}

	var result classifyResult
	if err := json.Unmarshal([]byte(extractJSON(resp.Text())), &result); err != nil {
		c.logger.Warn("failed to parse classification output, degrading to general inquiry", "error", err)
		return domain.Classification{
			Type:       domain.ClassGeneralInquiry,
			Confidence: 0.5,
		}, nil
	}

	if result.Type == "" {
		result.Type = domain.ClassGeneralInquiry
	}

	if resp.Usage != nil {
		c.logger.Debug("classification tokens",
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
		)
	}

	return domain.Classification{
		Type:       result.Type,
		Severity:   result.Severity,
		Urgency:    result.Urgency,
		Category:   result.Category,
		Confidence: result.Confidence,
	}, nil
}

// extractJSON 剥掉模型偶尔包裹的 markdown 代码块
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	return text
}

// formatHistory 把最近几轮交互格式化为上下文文本
func formatHistory(history []conversation.Entry) string {
	if len(history) == 0 {
		return "None"
	}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	var b strings.Builder
	for _, entry := range history {
		b.WriteString("user: " + entry.UserMessage + "\n")
		b.WriteString("bot: " + entry.BotResponse + "\n")
	}

	return strings.TrimSpace(b.String())
}
