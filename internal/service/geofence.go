package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"SafeWalk/internal/cache"
	"SafeWalk/internal/model"
	"SafeWalk/internal/store"
	"SafeWalk/pkg/logger"
	"SafeWalk/pkg/metrics"
	"SafeWalk/pkg/notify"
	"SafeWalk/utils"
)

const earthRadiusMeters = 6371000.0

// 围栏事件类型，冷却窗口按 (userID, 事件类型) 去重
const (
	GeofenceEventEntered = "entered"
	GeofenceEventExited  = "exited"
)

// Haversine 球面大圆距离，单位米
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Contains 点是否落在圆内，边界算在内
func Contains(pointLat, pointLng, centerLat, centerLng, radiusMeters float64) bool {
	return Haversine(pointLat, pointLng, centerLat, centerLng) <= radiusMeters
}

// GeofenceDecision 一次位置评估的结论
type GeofenceDecision struct {
	Event    string // entered / exited，无事件为空
	Location *model.SafeLocation

	ShouldAutoStart bool
	ShouldAutoStop  bool

	// 冷却窗口内的重复事件，调用方不再外发通知
	Suppressed bool
}

// GeofenceService 安全区评估
// 自动开始/结束会通知第一优先级联系人，冷却窗口内的重复事件不再外发
type GeofenceService struct {
	store    store.Store
	cooldown cache.Cooldown
	notifier notify.Client
	window   time.Duration
}

func NewGeofenceService(st store.Store, cooldown cache.Cooldown, notifier notify.Client, window time.Duration) *GeofenceService {
	return &GeofenceService{store: st, cooldown: cooldown, notifier: notifier, window: window}
}

// EvaluateLocation 评估用户当前位置
// 同时落在多个安全区时取中心最近的一个；GPS 抖动产生的重复事件由冷却窗口压制
func (s *GeofenceService) EvaluateLocation(ctx context.Context, userID int64, lat, lng float64) (*GeofenceDecision, error) {
	locations, err := s.store.ListActiveSafeLocations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list safe locations: %w", err)
	}
	if len(locations) == 0 {
		return &GeofenceDecision{}, nil
	}

	var inside *model.SafeLocation
	bestDist := math.MaxFloat64
	anyAutoStart := false
	for _, loc := range locations {
		if loc.AutoStartWalk {
			anyAutoStart = true
		}
		d := Haversine(lat, lng, loc.Latitude, loc.Longitude)
		if d <= loc.RadiusMeters && d < bestDist {
			inside = loc
			bestDist = d
		}
	}

	session, err := s.store.GetActiveSession(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load active session: %w", err)
	}

	decision := &GeofenceDecision{}

	if inside != nil {
		decision.Event = GeofenceEventEntered
		decision.Location = inside
		// 静默会话不受自动结束影响，否则胁迫监控会被围栏关掉
		if inside.AutoStopWalk && session != nil && !session.Silent() {
			decision.ShouldAutoStop = true
		}
	} else {
		decision.Event = GeofenceEventExited
		if anyAutoStart && session == nil {
			decision.ShouldAutoStart = true
		}
	}

	acquired, err := s.cooldown.TryAcquire(ctx, userID, decision.Event, s.window)
	if err != nil {
		// 冷却缓存故障时放行事件，宁可重复也不漏报
		logger.Logger.Warn("Geofence cooldown check failed",
			zap.Int64("user_id", userID),
			zap.String("event", decision.Event),
			zap.Error(err),
		)
		acquired = true
	}
	decision.Suppressed = !acquired
	metrics.RecordGeofenceEvent(decision.Event, decision.Suppressed)

	// 只有产生动作的事件才外发，单纯的进出不打扰联系人
	if !decision.Suppressed && (decision.ShouldAutoStart || decision.ShouldAutoStop) {
		s.notifyContact(ctx, userID, decision)
	}

	return decision, nil
}

// notifyContact 围栏动作通知第一优先级联系人，失败只记录不影响评估
func (s *GeofenceService) notifyContact(ctx context.Context, userID int64, decision *GeofenceDecision) {
	if s.notifier == nil {
		return
	}

	contacts, err := s.store.ListActiveContacts(ctx, userID)
	if err != nil || len(contacts) == 0 {
		if err != nil {
			logger.Logger.Warn("Failed to list contacts for geofence notification",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
		return
	}
	contact := contacts[0]

	phone, err := utils.DecryptPhone(contact.PhoneCipher)
	if err != nil {
		logger.Logger.Error("Failed to decrypt contact phone for geofence notification",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		logger.Logger.Warn("Failed to load user for geofence notification",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return
	}

	var text string
	if decision.ShouldAutoStop {
		text = fmt.Sprintf("[SafeWalk] %s arrived at %s. Walk monitoring stopped automatically.",
			user.Nickname, decision.Location.Name)
	} else {
		text = fmt.Sprintf("[SafeWalk] %s left their safe area. Walk monitoring started automatically.",
			user.Nickname)
	}

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.notifier.SendSMS(sendCtx, phone, text); err != nil {
		logger.Logger.Warn("Geofence notification delivery failed",
			zap.Int64("user_id", userID),
			zap.String("event", decision.Event),
			zap.Error(err),
		)
	}
}
