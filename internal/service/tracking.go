package service

import (
	"context"
	"errors"
	"fmt"

	"SafeWalk/internal/cache"
	"SafeWalk/internal/model/dto"
	"SafeWalk/internal/store"
	pkgerrors "SafeWalk/pkg/errors"
)

// TrackingService 公开追踪页读取
// token 不做物理删除，凭会话状态逻辑吊销：会话一旦离开 SILENT+active，token 立即失效
type TrackingService struct {
	store    store.Store
	tracking cache.TrackingCache
}

func NewTrackingService(st store.Store, tracking cache.TrackingCache) *TrackingService {
	return &TrackingService{store: st, tracking: tracking}
}

// GetLiveTracking 凭 token 读取实时位置，无需登录
func (s *TrackingService) GetLiveTracking(ctx context.Context, token string) (*dto.LiveTrackingData, error) {
	alert, err := s.store.GetAlertByTrackingToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.TrackingTokenInvalid
		}
		return nil, fmt.Errorf("failed to resolve tracking token: %w", err)
	}

	if alert.SessionID == nil {
		return nil, pkgerrors.TrackingTokenInvalid
	}
	session, err := s.store.GetSession(ctx, *alert.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.TrackingTokenInvalid
		}
		return nil, fmt.Errorf("failed to load owning session: %w", err)
	}
	if !session.Silent() {
		return nil, pkgerrors.TrackingTokenInvalid
	}

	data := &dto.LiveTrackingData{
		AlertID:     alert.PublicID,
		Status:      string(alert.Status),
		TriggeredAt: alert.TriggeredAt,
	}

	pos, err := s.tracking.GetPosition(ctx, alert.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to read live position: %w", err)
	}
	if pos != nil {
		data.Latitude = &pos.Latitude
		data.Longitude = &pos.Longitude
		data.LocatedAt = &pos.UpdatedAt
	} else if alert.HasCoordinates() {
		// 无实时缓存时退回告警创建时的坐标
		data.Latitude = alert.Latitude
		data.Longitude = alert.Longitude
		data.LocatedAt = alert.TriggeredAt
	}

	return data, nil
}
