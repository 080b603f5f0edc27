// Package queue 连接服务层与 RabbitMQ 拓扑
package queue

import (
	"context"

	"SafeWalk/internal/model"
	"SafeWalk/internal/service"
	"SafeWalk/storage/mq"
)

// Producer 实现 service.EventPublisher
type Producer struct{}

var _ service.EventPublisher = (*Producer)(nil)

func NewProducer() *Producer {
	return &Producer{}
}

func (p *Producer) PublishAlertTriggered(_ context.Context, ev model.AlertTriggeredEvent) error {
	return mq.PublishMessage(mq.AlertExchange, mq.AlertTriggeredRoutingKey, ev)
}

func (p *Producer) PublishNotificationResult(_ context.Context, msg model.NotificationResultMessage) error {
	return mq.PublishMessage(mq.AlertExchange, mq.NotificationRoutingKey, msg)
}
