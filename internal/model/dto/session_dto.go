package dto

import "time"

// StartWalkRequest 开始行走会话
type StartWalkRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// StopWalkRequest 结束行走会话，密码决定真实结束或进入静默模式
type StopWalkRequest struct {
	Password  string   `json:"password" binding:"required"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// SessionData 会话对外投影，silent 模式下 Active 呈现为 false
type SessionData struct {
	SessionID int64      `json:"session_id"`
	Active    bool       `json:"active"`
	Mode      string     `json:"mode"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// LocationUpdateRequest 位置上报
type LocationUpdateRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// LocationUpdateResponse 位置上报结果，附带围栏决策
type LocationUpdateResponse struct {
	Session  *SessionData   `json:"session,omitempty"`
	Geofence *GeofenceEvent `json:"geofence,omitempty"`
}

// GeofenceEvent 围栏事件投影
type GeofenceEvent struct {
	Event          string `json:"event"` // entered / exited
	SafeLocationID int64  `json:"safe_location_id"`
	Name           string `json:"name"`
	WalkStarted    bool   `json:"walk_started,omitempty"`
	WalkStopped    bool   `json:"walk_stopped,omitempty"`
}
