package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Zereker/oncall/internal/classify"
	"github.com/Zereker/oncall/internal/domain"
	"github.com/Zereker/oncall/internal/workflow"
	"github.com/Zereker/oncall/pkg/log"
	"github.com/Zereker/oncall/pkg/mq"
)

// ChannelEvent 渠道消息事件（Slack 等接入层投递到 Kafka 的格式）
type ChannelEvent struct {
	MessageID   string         `json:"message_id"`
	UserID      string         `json:"user_id"`
	ChannelID   string         `json:"channel_id"`
	ChannelType string         `json:"channel_type"`
	Text        string         `json:"text"`
	ThreadTS    string         `json:"thread_ts,omitempty"`
	IsMention   bool           `json:"is_mention,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ResponseEvent 回复投递事件
type ResponseEvent struct {
	MessageID string                `json:"message_id"`
	ChannelID string                `json:"channel_id"`
	ThreadTS  string                `json:"thread_ts,omitempty"`
	Result    *domain.ProcessResult `json:"result"`
}

// Consumer 渠道事件消费者：消费消息事件，
// 分类并编排处理，把回复发布到回复 topic。
type Consumer struct {
	logger       *slog.Logger
	orchestrator *workflow.Orchestrator
	classifier   classify.Classifier
	publisher    mq.Publisher
	config       Config
	consumers    []*mq.KafkaConsumer
}

// Config 消费者配置
type Config struct {
	Kafka mq.KafkaConfig
}

// NewConsumer 创建消费者
func NewConsumer(orchestrator *workflow.Orchestrator, classifier classify.Classifier, publisher mq.Publisher, cfg Config) (*Consumer, error) {
	c := &Consumer{
		logger:       log.Logger("consumer"),
		orchestrator: orchestrator,
		classifier:   classifier,
		publisher:    publisher,
		config:       cfg,
	}

	if !cfg.Kafka.Enabled {
		c.logger.Info("kafka disabled, consumer not started")
		return c, nil
	}

	messages, err := mq.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.ConsumerGroup,
		[]string{cfg.Kafka.MessagesTopic},
		c.handleMessage,
	)
	if err != nil {
		return nil, fmt.Errorf("create messages consumer: %w", err)
	}
	c.consumers = append(c.consumers, messages)

	return c, nil
}

// Start 启动所有消费者
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.consumers) == 0 {
		c.logger.Info("no consumers configured, skipping start")
		return nil
	}

	c.logger.Info("starting consumers", "count", len(c.consumers))

	g, ctx := errgroup.WithContext(ctx)
	for _, consumer := range c.consumers {
		consumer := consumer
		g.Go(func() error {
			return consumer.Start(ctx)
		})
	}

	return g.Wait()
}

// Stop 停止所有消费者
func (c *Consumer) Stop() error {
	c.logger.Info("stopping consumers")

	for _, consumer := range c.consumers {
		if err := consumer.Stop(); err != nil {
			c.logger.Error("failed to stop consumer", "error", err)
		}
	}

	return nil
}

// handleMessage 处理一条渠道消息事件。处理失败返回错误由
// 消费循环记日志后继续，不阻塞 partition。
func (c *Consumer) handleMessage(ctx context.Context, topic string, message []byte) error {
	var event ChannelEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return fmt.Errorf("unmarshal channel event: %w", err)
	}

	if event.Text == "" {
		c.logger.Debug("skipping empty message event", "message_id", event.MessageID)
		return nil
	}

	msgCtx := contextFromEvent(&event)

	history, err := c.orchestrator.History(ctx, msgCtx)
	if err != nil {
		c.logger.Warn("failed to load conversation history", "error", err)
	}

	classification, err := c.classifier.Classify(ctx, event.Text, history)
	if err != nil {
		return fmt.Errorf("classify message %s: %w", event.MessageID, err)
	}

	result := c.orchestrator.Process(ctx, msgCtx, classification)

	return c.publishResponse(msgCtx, result)
}

// publishResponse 把处理结果发布到回复 topic
func (c *Consumer) publishResponse(msgCtx *domain.MessageContext, result *domain.ProcessResult) error {
	if c.publisher == nil {
		return nil
	}

	payload, err := json.Marshal(ResponseEvent{
		MessageID: msgCtx.MessageID,
		ChannelID: msgCtx.ChannelID,
		ThreadTS:  msgCtx.ThreadTS,
		Result:    result,
	})
	if err != nil {
		return fmt.Errorf("marshal response event: %w", err)
	}

	if err := c.publisher.Publish(c.config.Kafka.ResponsesTopic, payload); err != nil {
		return fmt.Errorf("publish response: %w", err)
	}

	c.logger.Debug("response published",
		"message_id", msgCtx.MessageID,
		"topic", c.config.Kafka.ResponsesTopic,
	)

	return nil
}

// contextFromEvent 把渠道事件转换为消息上下文
func contextFromEvent(event *ChannelEvent) *domain.MessageContext {
	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	channelType := event.ChannelType
	if channelType == "" {
		channelType = "slack"
	}

	return &domain.MessageContext{
		MessageID:   event.MessageID,
		UserID:      event.UserID,
		ChannelID:   event.ChannelID,
		ChannelType: channelType,
		MessageText: event.Text,
		ThreadTS:    event.ThreadTS,
		IsMention:   event.IsMention,
		Timestamp:   timestamp,
		Metadata:    event.Metadata,
	}
}
