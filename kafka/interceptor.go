package kafka

import (
	"github.com/IBM/sarama"
)

// OriginInterceptor stamps every outgoing record with the producing
// service so downstream consumers of the event stream can filter by source.
type OriginInterceptor struct{}

func NewOriginInterceptor() *OriginInterceptor {
	return &OriginInterceptor{}
}

func (i *OriginInterceptor) OnSend(msg *sarama.ProducerMessage) {
	msg.Headers = append(msg.Headers, sarama.RecordHeader{
		Key:   []byte("origin"),
		Value: []byte("chat-backend"),
	})
}
