package model

import "time"

// AlertTriggeredEvent 告警触发后投递到 MQ 的审计事件，由 worker 落库归档
type AlertTriggeredEvent struct {
	AlertID     int64     `json:"alert_id"`
	UserID      int64     `json:"user_id"`
	SessionID   *int64    `json:"session_id,omitempty"`
	Type        AlertType `json:"type"`
	IsDuress    bool      `json:"is_duress"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	TriggeredAt time.Time `json:"triggered_at"`
	// recovered 表示该触发来自进程重启后的倒计时恢复
	Recovered bool `json:"recovered"`
}

// NotificationResultMessage 单次通知投递结果，批内按收件人顺序产生
type NotificationResultMessage struct {
	BatchID        string    `json:"batch_id"`
	AlertID        int64     `json:"alert_id"`
	RecipientClass string    `json:"recipient_class"` // contact / authority
	RecipientName  string    `json:"recipient_name"`
	Channel        string    `json:"channel"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	AttemptedAt    time.Time `json:"attempted_at"`
	DurationMs     int64     `json:"duration_ms"`
}

// NotificationAttempt 通知投递结果的落库形态
type NotificationAttempt struct {
	BaseModel
	BatchID        string    `gorm:"type:char(36);not null;index:idx_attempts_batch" json:"batch_id"`
	AlertID        int64     `gorm:"not null;index:idx_attempts_alert" json:"alert_id"`
	RecipientClass string    `gorm:"type:varchar(16);not null" json:"recipient_class"`
	RecipientName  string    `gorm:"type:varchar(128);not null" json:"recipient_name"`
	Channel        string    `gorm:"type:varchar(16);not null" json:"channel"`
	Success        bool      `gorm:"not null" json:"success"`
	Error          string    `gorm:"type:text" json:"error,omitempty"`
	AttemptedAt    time.Time `gorm:"not null" json:"attempted_at"`
	DurationMs     int64     `gorm:"not null;default:0" json:"duration_ms"`
}

func (NotificationAttempt) TableName() string {
	return "notification_attempts"
}
