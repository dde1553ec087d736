package conversation

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/Zereker/oncall/internal/domain"
)

const (
	// MaxEntries 每个会话保留的最大轮次，超出后从最旧的开始淘汰
	MaxEntries = 10

	shardCount = 16
)

// Entry 一轮完整交互：用户消息、分类、机器人回复
type Entry struct {
	UserMessage    string                `json:"user_message"`
	Classification domain.Classification `json:"classification"`
	BotResponse    string                `json:"bot_response"`
	Timestamp      time.Time             `json:"timestamp"`
}

// Store 会话历史存储。同一 key 上的并发 Append 必须串行，
// 以保证 FIFO 淘汰不变式；不同 key 可以并行。
type Store interface {
	Append(ctx context.Context, key string, entry Entry) error
	History(ctx context.Context, key string) ([]Entry, error)
}

// Key 生成会话 key：有线程时按 channel:thread 分组，否则按 channel:user
func Key(c *domain.MessageContext) string {
	if c.ThreadTS != "" {
		return c.ChannelID + ":" + c.ThreadTS
	}
	return c.ChannelID + ":" + c.UserID
}

// ============================================================================
// MemoryStore - 进程内分片存储
// ============================================================================

type shard struct {
	mu      sync.RWMutex
	entries map[string][]Entry
}

// MemoryStore 进程内会话存储。按 key 哈希分片，
// 每个分片独立加锁，不同会话互不阻塞。
type MemoryStore struct {
	shards [shardCount]*shard
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore 创建进程内存储
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string][]Entry)}
	}
	return s
}

func (s *MemoryStore) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

// Append 追加一轮交互，超过 MaxEntries 时丢弃最旧的
func (s *MemoryStore) Append(_ context.Context, key string, entry Entry) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	entries := append(sh.entries[key], entry)
	if len(entries) > MaxEntries {
		entries = entries[len(entries)-MaxEntries:]
	}
	sh.entries[key] = entries

	return nil
}

// History 返回当前历史的副本，最新的在末尾；未知 key 返回空
func (s *MemoryStore) History(_ context.Context, key string) ([]Entry, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	entries := sh.entries[key]
	if len(entries) == 0 {
		return nil, nil
	}

	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}
