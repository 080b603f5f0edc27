package model

import "time"

// AlertType 告警信号类型
type AlertType string

const (
	AlertTypeScream          AlertType = "scream"
	AlertTypeFall            AlertType = "fall"
	AlertTypeDistress        AlertType = "distress"
	AlertTypePanic           AlertType = "panic"
	AlertTypeSoundAnomaly    AlertType = "sound_anomaly"
	AlertTypeVoiceActivation AlertType = "voice_activation"
	AlertTypeSOS             AlertType = "sos"
	AlertTypeDuress          AlertType = "duress"
)

// ValidAlertType 校验类型是否为已知枚举
func ValidAlertType(t AlertType) bool {
	switch t {
	case AlertTypeScream, AlertTypeFall, AlertTypeDistress, AlertTypePanic,
		AlertTypeSoundAnomaly, AlertTypeVoiceActivation, AlertTypeSOS, AlertTypeDuress:
		return true
	}
	return false
}

// Instant 返回该类型是否跳过倒计时直接触发
func (t AlertType) Instant() bool {
	return t == AlertTypeSOS || t == AlertTypeDuress
}

// AlertStatus 告警状态，状态迁移单向：pending -> cancelled/triggered，triggered -> safe
type AlertStatus string

const (
	AlertStatusPending   AlertStatus = "pending"
	AlertStatusCancelled AlertStatus = "cancelled"
	AlertStatusTriggered AlertStatus = "triggered"
	AlertStatusSafe      AlertStatus = "safe"
)

// Alert 告警记录
// 除状态和时间戳外其余字段创建后不再变更
type Alert struct {
	BaseModel
	PublicID  int64  `gorm:"uniqueIndex;not null" json:"public_id"`
	UserID    int64  `gorm:"not null;index:idx_alerts_user" json:"user_id"`
	SessionID *int64 `gorm:"index:idx_alerts_session" json:"session_id,omitempty"`

	Type       AlertType   `gorm:"type:varchar(32);not null" json:"type"`
	Confidence float64     `gorm:"not null" json:"confidence"`
	Status     AlertStatus `gorm:"type:varchar(16);not null;default:'pending';index:idx_alerts_status" json:"status"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	IsDuress bool `gorm:"not null;default:false" json:"is_duress"`
	// 胁迫告警专用，未认证的实时位置读取凭据
	LiveTrackingToken *string `gorm:"uniqueIndex;type:char(64)" json:"-"`

	// 倒计时状态持久化，进程重启后由恢复流程读取
	CountdownStartedAt *time.Time `json:"countdown_started_at,omitempty"`
	CountdownExpiresAt *time.Time `gorm:"index:idx_alerts_expires" json:"countdown_expires_at,omitempty"`

	TriggeredAt *time.Time `json:"triggered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func (Alert) TableName() string {
	return "alerts"
}

// HasCoordinates 告警是否携带位置
func (a *Alert) HasCoordinates() bool {
	return a.Latitude != nil && a.Longitude != nil
}
