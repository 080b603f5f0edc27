package model

import "time"

// SessionMode 行走会话模式
// silent 模式下 active 恒为 true，但对外投影显示为已结束
type SessionMode string

const (
	SessionModeManual       SessionMode = "manual"
	SessionModeAutoGeofence SessionMode = "auto_geofence"
	SessionModeSilent       SessionMode = "silent"
)

// WalkSession 行走会话，每个用户至多一个活跃会话
type WalkSession struct {
	BaseModel
	PublicID int64 `gorm:"uniqueIndex;not null" json:"public_id"`
	UserID   int64 `gorm:"not null;index:idx_sessions_user" json:"user_id"`

	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Active    bool       `gorm:"not null;default:true;index:idx_sessions_active" json:"active"`

	Mode              SessionMode `gorm:"type:varchar(16);not null;default:'manual'" json:"mode"`
	StartedByGeofence bool        `gorm:"not null;default:false" json:"started_by_geofence"`
	SafeLocationID    *int64      `json:"safe_location_id,omitempty"`

	LastLatitude   *float64   `json:"last_latitude,omitempty"`
	LastLongitude  *float64   `json:"last_longitude,omitempty"`
	LastLocationAt *time.Time `json:"last_location_at,omitempty"`

	EndLatitude  *float64 `json:"end_latitude,omitempty"`
	EndLongitude *float64 `json:"end_longitude,omitempty"`
}

func (WalkSession) TableName() string {
	return "walk_sessions"
}

// LooksStopped UI 投影：silent 模式对前端伪装为已结束
// 权威状态始终以 Active 字段为准
func (s *WalkSession) LooksStopped() bool {
	return !s.Active || s.Mode == SessionModeSilent
}

// Silent 会话是否处于静默监控状态
func (s *WalkSession) Silent() bool {
	return s.Active && s.Mode == SessionModeSilent
}
