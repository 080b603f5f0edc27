package handler

import (
	"SafeWalk/internal/model"
	"SafeWalk/internal/model/dto"
	"SafeWalk/internal/service"
	"SafeWalk/utils"
)

func toAlertData(a *model.Alert) *dto.AlertData {
	if a == nil {
		return nil
	}
	return &dto.AlertData{
		AlertID:            a.PublicID,
		Type:               string(a.Type),
		Status:             string(a.Status),
		Confidence:         a.Confidence,
		IsDuress:           a.IsDuress,
		CountdownStartedAt: a.CountdownStartedAt,
		CountdownExpiresAt: a.CountdownExpiresAt,
		TriggeredAt:        a.TriggeredAt,
		CancelledAt:        a.CancelledAt,
		CreatedAt:          a.CreatedAt,
	}
}

// toSessionData 会话对外投影
// 静默会话一律伪装成已结束的普通会话：active=false、mode=manual、
// 结束时间取切换静默的时刻。真实状态只存在于服务端
func toSessionData(s *model.WalkSession) *dto.SessionData {
	if s == nil {
		return nil
	}
	data := &dto.SessionData{
		SessionID: s.PublicID,
		Active:    s.Active,
		Mode:      string(s.Mode),
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
	}
	if s.Silent() {
		data.Active = false
		data.Mode = string(model.SessionModeManual)
		endedAt := s.UpdatedAt
		data.EndTime = &endedAt
	}
	return data
}

// toGeofenceEvent exited 事件没有所在安全区，Location 为空
func toGeofenceEvent(d *service.GeofenceDecision) *dto.GeofenceEvent {
	if d == nil || d.Event == "" || d.Suppressed {
		return nil
	}
	ev := &dto.GeofenceEvent{
		Event:       d.Event,
		WalkStarted: d.ShouldAutoStart,
		WalkStopped: d.ShouldAutoStop,
	}
	if d.Location != nil {
		ev.SafeLocationID = d.Location.ID
		ev.Name = d.Location.Name
	}
	return ev
}

func toSafeLocationData(l *model.SafeLocation) *dto.SafeLocationData {
	return &dto.SafeLocationData{
		ID:            l.ID,
		Name:          l.Name,
		Latitude:      l.Latitude,
		Longitude:     l.Longitude,
		RadiusMeters:  l.RadiusMeters,
		AutoStartWalk: l.AutoStartWalk,
		AutoStopWalk:  l.AutoStopWalk,
		IsActive:      l.IsActive,
	}
}

func toAuthorityData(a *model.GovAuthority) *dto.AuthorityData {
	return &dto.AuthorityData{
		ID:           a.ID,
		Name:         a.Name,
		Latitude:     a.Latitude,
		Longitude:    a.Longitude,
		RadiusMeters: a.RadiusMeters,
		ContactPhone: a.ContactPhone,
		ContactEmail: a.ContactEmail,
		IsActive:     a.IsActive,
	}
}

func toContactData(c *model.TrustedContact) *dto.ContactData {
	masked := ""
	if phone, err := utils.DecryptPhone(c.PhoneCipher); err == nil {
		masked = utils.MaskPhone(phone)
	}
	return &dto.ContactData{
		ID:          c.ID,
		Name:        c.Name,
		PhoneMasked: masked,
		Email:       c.Email,
		Priority:    c.Priority,
		IsActive:    c.IsActive,
	}
}
