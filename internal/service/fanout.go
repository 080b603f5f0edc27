package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"SafeWalk/internal/model"
	"SafeWalk/pkg/logger"
	"SafeWalk/pkg/metrics"
	"SafeWalk/pkg/notify"
)

// 收件人类别
const (
	RecipientClassContact   = "contact"
	RecipientClassAuthority = "authority"
)

// Recipient 一次扇出中的单个收件人，文案由调用方按类别拼好
type Recipient struct {
	Class string
	Name  string
	Phone string
	Text  string
}

// EventPublisher 触发事件与投递结果的异步通道，由 MQ producer 实现
type EventPublisher interface {
	PublishAlertTriggered(ctx context.Context, ev model.AlertTriggeredEvent) error
	PublishNotificationResult(ctx context.Context, msg model.NotificationResultMessage) error
}

// Fanout 通知扇出
// 收件人逐个投递，单收件人带超时，通道按 WhatsApp -> 短信 -> 外呼降级
// 单个收件人失败只记录，不阻塞后续投递
type Fanout struct {
	client           notify.Client
	publisher        EventPublisher
	recipientTimeout time.Duration
}

func NewFanout(client notify.Client, publisher EventPublisher, recipientTimeout time.Duration) *Fanout {
	return &Fanout{
		client:           client,
		publisher:        publisher,
		recipientTimeout: recipientTimeout,
	}
}

// Deliver 向全部收件人顺序投递，返回每人的投递结果
// 投递量级为个位数联系人与辖区，顺序投递即可接受
func (f *Fanout) Deliver(ctx context.Context, alert *model.Alert, recipients []Recipient) []model.NotificationResultMessage {
	batchID := uuid.NewString()
	results := make([]model.NotificationResultMessage, 0, len(recipients))

	for _, r := range recipients {
		result := f.deliverOne(ctx, batchID, alert, r)
		results = append(results, result)

		if f.publisher != nil {
			if err := f.publisher.PublishNotificationResult(ctx, result); err != nil {
				logger.Logger.Warn("Failed to publish notification result",
					zap.String("batch_id", batchID),
					zap.Int64("alert_id", alert.PublicID),
					zap.Error(err),
				)
			}
		}
	}

	return results
}

// deliverOne 单收件人投递，降级链共享同一个超时预算
func (f *Fanout) deliverOne(ctx context.Context, batchID string, alert *model.Alert, r Recipient) model.NotificationResultMessage {
	sendCtx, cancel := context.WithTimeout(ctx, f.recipientTimeout)
	defer cancel()

	started := time.Now()

	channels := []struct {
		name notify.Channel
		send func(context.Context, string, string) error
	}{
		{notify.ChannelWhatsApp, f.client.SendWhatsApp},
		{notify.ChannelSMS, f.client.SendSMS},
		{notify.ChannelVoice, f.client.SendVoiceCall},
	}

	var lastErr error
	lastChannel := notify.ChannelWhatsApp
	for _, ch := range channels {
		lastChannel = ch.name
		attemptStart := time.Now()
		err := ch.send(sendCtx, r.Phone, r.Text)
		elapsed := time.Since(attemptStart).Seconds()
		if err == nil {
			metrics.RecordNotifyAttempt(string(ch.name), r.Class, "ok", elapsed)
			return model.NotificationResultMessage{
				BatchID:        batchID,
				AlertID:        alert.PublicID,
				RecipientClass: r.Class,
				RecipientName:  r.Name,
				Channel:        string(ch.name),
				Success:        true,
				AttemptedAt:    started,
				DurationMs:     time.Since(started).Milliseconds(),
			}
		}
		lastErr = err
		metrics.RecordNotifyAttempt(string(ch.name), r.Class, "error", elapsed)
		logger.Logger.Warn("Notification channel failed, falling back",
			zap.String("batch_id", batchID),
			zap.Int64("alert_id", alert.PublicID),
			zap.String("recipient", r.Name),
			zap.String("channel", string(ch.name)),
			zap.Error(err),
		)

		if sendCtx.Err() != nil {
			// 超时预算用尽，不再尝试后续通道
			lastErr = sendCtx.Err()
			break
		}
	}

	return model.NotificationResultMessage{
		BatchID:        batchID,
		AlertID:        alert.PublicID,
		RecipientClass: r.Class,
		RecipientName:  r.Name,
		Channel:        string(lastChannel),
		Success:        false,
		Error:          lastErr.Error(),
		AttemptedAt:    started,
		DurationMs:     time.Since(started).Milliseconds(),
	}
}
