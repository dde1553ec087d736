package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue(t *testing.T) {
	t.Run("publish records messages per topic", func(t *testing.T) {
		queue := NewInMemoryQueue()

		require.NoError(t, queue.Publish("a", []byte("one")))
		require.NoError(t, queue.Publish("a", []byte("two")))
		require.NoError(t, queue.Publish("b", []byte("three")))

		assert.Equal(t, 2, len(queue.Messages("a")))
		assert.Equal(t, 1, len(queue.Messages("b")))
		assert.Empty(t, queue.Messages("c"))
	})

	t.Run("messages kept in publish order", func(t *testing.T) {
		queue := NewInMemoryQueue()

		require.NoError(t, queue.Publish("topic", []byte("first")))
		require.NoError(t, queue.Publish("topic", []byte("second")))

		messages := queue.Messages("topic")
		require.Equal(t, 2, len(messages))
		assert.Equal(t, "first", string(messages[0]))
		assert.Equal(t, "second", string(messages[1]))
	})

	t.Run("close is a no-op", func(t *testing.T) {
		assert.NoError(t, NewInMemoryQueue().Close())
	})
}

func TestKafkaConfigValidate(t *testing.T) {
	t.Run("disabled needs nothing", func(t *testing.T) {
		cfg := KafkaConfig{}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("enabled requires brokers and topics", func(t *testing.T) {
		cfg := KafkaConfig{Enabled: true}
		require.Error(t, cfg.Validate())

		cfg.Brokers = []string{"localhost:9092"}
		require.Error(t, cfg.Validate())

		cfg.MessagesTopic = "oncall.messages"
		require.Error(t, cfg.Validate())

		cfg.ResponsesTopic = "oncall.responses"
		require.Error(t, cfg.Validate())

		cfg.ConsumerGroup = "oncall-engine"
		assert.NoError(t, cfg.Validate())
	})
}
