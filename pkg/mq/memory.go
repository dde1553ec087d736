package mq

import "sync"

// InMemoryQueue 内存消息队列。只实现 Publisher 侧，
// 用于测试和 Kafka 未启用的单机场景。
type InMemoryQueue struct {
	mu       sync.Mutex
	messages map[string][][]byte
}

// 确保 InMemoryQueue 实现 Publisher 接口
var _ Publisher = (*InMemoryQueue)(nil)

// NewInMemoryQueue 创建内存消息队列
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		messages: make(map[string][][]byte),
	}
}

// Publish 发布消息
func (q *InMemoryQueue) Publish(topic string, message []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages[topic] = append(q.messages[topic], message)
	return nil
}

// Close 关闭
func (q *InMemoryQueue) Close() error {
	return nil
}

// Messages 获取指定 topic 的所有已发布消息（用于测试）
func (q *InMemoryQueue) Messages(topic string) [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.messages[topic]
}
