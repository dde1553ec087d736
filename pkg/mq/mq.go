package mq

// Publisher 消息发布接口
type Publisher interface {
	Publish(topic string, message []byte) error
	Close() error
}
