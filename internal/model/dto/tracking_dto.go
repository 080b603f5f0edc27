package dto

import "time"

// LiveTrackingData 公开追踪页数据，凭 token 访问，不做登录鉴权
type LiveTrackingData struct {
	AlertID    int64      `json:"alert_id"`
	Status     string     `json:"status"`
	Latitude   *float64   `json:"latitude,omitempty"`
	Longitude  *float64   `json:"longitude,omitempty"`
	LocatedAt  *time.Time `json:"located_at,omitempty"`
	TriggeredAt *time.Time `json:"triggered_at,omitempty"`
}
