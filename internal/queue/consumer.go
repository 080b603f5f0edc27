package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"SafeWalk/internal/model"
	"SafeWalk/internal/store"
	pkgerrors "SafeWalk/pkg/errors"
	"SafeWalk/pkg/logger"
)

// Handlers worker 进程的消息处理器
type Handlers struct {
	store store.Store
}

func NewHandlers(st store.Store) *Handlers {
	return &Handlers{store: st}
}

// HandleAlertTriggered 触发事件审计日志
func (h *Handlers) HandleAlertTriggered(body []byte) error {
	var ev model.AlertTriggeredEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return &pkgerrors.SkipMessageError{Reason: fmt.Sprintf("malformed alert event: %v", err)}
	}

	logger.Logger.Info("Alert triggered event received",
		zap.Int64("alert_id", ev.AlertID),
		zap.Int64("user_id", ev.UserID),
		zap.String("type", string(ev.Type)),
		zap.Bool("duress", ev.IsDuress),
		zap.Bool("recovered", ev.Recovered),
		zap.Time("triggered_at", ev.TriggeredAt),
	)
	return nil
}

// HandleNotificationResult 投递结果落库归档
func (h *Handlers) HandleNotificationResult(body []byte) error {
	var msg model.NotificationResultMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return &pkgerrors.SkipMessageError{Reason: fmt.Sprintf("malformed notification result: %v", err)}
	}

	attempt := &model.NotificationAttempt{
		BatchID:        msg.BatchID,
		AlertID:        msg.AlertID,
		RecipientClass: msg.RecipientClass,
		RecipientName:  msg.RecipientName,
		Channel:        msg.Channel,
		Success:        msg.Success,
		Error:          msg.Error,
		AttemptedAt:    msg.AttemptedAt,
		DurationMs:     msg.DurationMs,
	}
	if err := h.store.CreateNotificationAttempt(context.Background(), attempt); err != nil {
		return fmt.Errorf("failed to persist notification attempt: %w", err)
	}
	return nil
}
