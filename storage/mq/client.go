package mq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"SafeWalk/config"
)

// 告警消息拓扑
const (
	AlertExchange = "safewalk.alerts"

	AlertTriggeredQueue      = "safewalk.alert.triggered"
	NotificationResultQueue  = "safewalk.notification.results"
	AlertTriggeredRoutingKey = "alert.triggered"
	NotificationRoutingKey   = "notification.result"
)

var (
	conn     *amqp.Connection
	connOnce sync.Once
	connErr  error
)

func Init() error {
	connOnce.Do(func() {
		conn, connErr = amqp.Dial(config.Cfg.GetRabbitMQURL())
		if connErr != nil {
			return
		}

		ch, err := conn.Channel()
		if err != nil {
			connErr = fmt.Errorf("failed to open setup channel: %w", err)
			return
		}
		defer ch.Close()

		connErr = declareTopology(ch)
	})

	return connErr
}

// declareTopology 声明交换机、队列与绑定，幂等
func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(AlertExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	bindings := []struct {
		queue string
		key   string
	}{
		{AlertTriggeredQueue, AlertTriggeredRoutingKey},
		{NotificationResultQueue, NotificationRoutingKey},
	}
	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(b.queue, b.key, AlertExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s: %w", b.queue, err)
		}
	}
	return nil
}

func Connection() *amqp.Connection {
	return conn
}

func Close(ctx context.Context) error {
	if conn == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
