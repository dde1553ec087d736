package conversation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore Redis 会话存储。RPUSH + LTRIM 在服务端原子完成
// 追加和淘汰，多实例部署时共享同一份历史。
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore 创建 Redis 会话存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: "oncall:conversation:",
	}
}

// Append 追加一轮交互并裁剪到最近 MaxEntries 条
func (s *RedisStore) Append(ctx context.Context, key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.keyPrefix+key, data)
	pipe.LTrim(ctx, s.keyPrefix+key, -MaxEntries, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	return nil
}

// History 返回当前历史，最新的在末尾
func (s *RedisStore) History(ctx context.Context, key string) ([]Entry, error) {
	values, err := s.client.LRange(ctx, s.keyPrefix+key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	entries := make([]Entry, 0, len(values))
	for _, v := range values {
		var entry Entry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
