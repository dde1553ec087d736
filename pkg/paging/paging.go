package paging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Zereker/oncall/pkg/mq"
)

// Event 一次升级通知
type Event struct {
	Level     string    `json:"level"`
	Targets   []string  `json:"targets"`
	ChannelID string    `json:"channel_id"`
	MessageID string    `json:"message_id"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier 升级/呼叫通知。引擎侧 fire-and-forget：
// 失败由调用方记录日志，不中断工作流。
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Config 通知配置
type Config struct {
	Topic string `toml:"topic"`
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Topic == "" {
		c.Topic = "oncall.escalations"
	}
	return nil
}

// ============================================================================
// QueueNotifier - 通过消息队列投递升级事件
// ============================================================================

// QueueNotifier 把升级事件发布到队列 topic，由值班系统消费
type QueueNotifier struct {
	logger    *slog.Logger
	publisher mq.Publisher
	topic     string
}

var _ Notifier = (*QueueNotifier)(nil)

// NewQueueNotifier 创建队列通知器
func NewQueueNotifier(publisher mq.Publisher, topic string) *QueueNotifier {
	return &QueueNotifier{
		logger:    slog.Default().With("module", "paging"),
		publisher: publisher,
		topic:     topic,
	}
}

// Notify 发布升级事件
func (n *QueueNotifier) Notify(_ context.Context, event Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal escalation event: %w", err)
	}

	if err := n.publisher.Publish(n.topic, data); err != nil {
		return fmt.Errorf("publish escalation event: %w", err)
	}

	n.logger.Info("escalation published",
		"level", event.Level,
		"targets", event.Targets,
		"message_id", event.MessageID,
	)

	return nil
}

// ============================================================================
// LogNotifier - 队列未启用时的降级实现
// ============================================================================

// LogNotifier 只记录日志的通知器
type LogNotifier struct {
	logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier 创建日志通知器
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: slog.Default().With("module", "paging")}
}

// Notify 记录升级事件
func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	n.logger.Warn("escalation (log only, queue disabled)",
		"level", event.Level,
		"targets", event.Targets,
		"channel_id", event.ChannelID,
		"message_id", event.MessageID,
	)
	return nil
}
