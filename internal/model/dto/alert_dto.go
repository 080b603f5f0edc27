package dto

import "time"

// CreateAlertRequest 创建告警
type CreateAlertRequest struct {
	Type             string   `json:"type" binding:"required"`
	Confidence       float64  `json:"confidence"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	CountdownSeconds *int     `json:"countdown_seconds,omitempty"`
}

// AlertData 告警对外投影
type AlertData struct {
	AlertID            int64      `json:"alert_id"`
	Type               string     `json:"type"`
	Status             string     `json:"status"`
	Confidence         float64    `json:"confidence"`
	IsDuress           bool       `json:"is_duress"`
	CountdownStartedAt *time.Time `json:"countdown_started_at,omitempty"`
	CountdownExpiresAt *time.Time `json:"countdown_expires_at,omitempty"`
	TriggeredAt        *time.Time `json:"triggered_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// CreateAlertResponse 创建结果，below_threshold 表示置信度不足被丢弃
type CreateAlertResponse struct {
	Alert          *AlertData `json:"alert,omitempty"`
	BelowThreshold bool       `json:"below_threshold"`
}

// MarkSafeRequest 标记安全
type MarkSafeRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}
