package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"SafeWalk/internal/cache"
	"SafeWalk/internal/model"
	"SafeWalk/internal/model/dto"
	"SafeWalk/internal/store"
	pkgerrors "SafeWalk/pkg/errors"
	"SafeWalk/pkg/logger"
	"SafeWalk/pkg/snowflake"
	"SafeWalk/utils"
)

// SessionService 行走会话管理，结束会话的密码分流在 DuressService
type SessionService struct {
	store    store.Store
	geofence *GeofenceService
	tracking cache.TrackingCache
}

func NewSessionService(st store.Store, geofence *GeofenceService, tracking cache.TrackingCache) *SessionService {
	return &SessionService{store: st, geofence: geofence, tracking: tracking}
}

// StartWalk 手动开始行走，每个用户至多一个活跃会话
func (s *SessionService) StartWalk(ctx context.Context, userID int64, req dto.StartWalkRequest) (*model.WalkSession, error) {
	if req.Latitude != nil && req.Longitude != nil && !utils.ValidateCoordinate(*req.Latitude, *req.Longitude) {
		return nil, pkgerrors.CoordinateInvalid
	}

	if _, err := s.store.GetActiveSession(ctx, userID); err == nil {
		return nil, pkgerrors.SessionAlreadyActive
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check active session: %w", err)
	}

	return s.createSession(ctx, userID, model.SessionModeManual, nil, req.Latitude, req.Longitude)
}

func (s *SessionService) createSession(ctx context.Context, userID int64, mode model.SessionMode, safeLocationID *int64, lat, lng *float64) (*model.WalkSession, error) {
	publicID, err := snowflake.NextID(snowflake.GeneratorTypeSession)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := time.Now()
	session := &model.WalkSession{
		PublicID:          publicID,
		UserID:            userID,
		StartTime:         now,
		Active:            true,
		Mode:              mode,
		StartedByGeofence: mode == model.SessionModeAutoGeofence,
		SafeLocationID:    safeLocationID,
		LastLatitude:      lat,
		LastLongitude:     lng,
	}
	if lat != nil && lng != nil {
		session.LastLocationAt = &now
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	logger.Logger.Info("Walk session started",
		zap.Int64("session_id", publicID),
		zap.Int64("user_id", userID),
		zap.String("mode", string(mode)),
	)
	return session, nil
}

// UpdateLocation 位置上报：更新会话与实时缓存，再做围栏评估并执行自动启停
func (s *SessionService) UpdateLocation(ctx context.Context, userID int64, req dto.LocationUpdateRequest) (*model.WalkSession, *GeofenceDecision, error) {
	if !utils.ValidateCoordinate(req.Latitude, req.Longitude) {
		return nil, nil, pkgerrors.CoordinateInvalid
	}

	now := time.Now()
	session, err := s.store.GetActiveSession(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("failed to load active session: %w", err)
		}
		session = nil
	}

	if session != nil {
		if err := s.store.UpdateSessionLocation(ctx, session.PublicID, req.Latitude, req.Longitude, now); err != nil {
			return nil, nil, fmt.Errorf("failed to update session location: %w", err)
		}
	}

	if err := s.tracking.SetPosition(ctx, userID, cache.LivePosition{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		UpdatedAt: now,
	}); err != nil {
		// 缓存失败不影响主流程，追踪页会退回到告警坐标
		logger.Logger.Warn("Failed to refresh live position cache",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	decision, err := s.geofence.EvaluateLocation(ctx, userID, req.Latitude, req.Longitude)
	if err != nil {
		return session, nil, err
	}

	switch {
	case decision.ShouldAutoStop && session != nil:
		if err := s.store.EndSession(ctx, session.PublicID, now, &req.Latitude, &req.Longitude); err != nil {
			return session, decision, fmt.Errorf("failed to auto-stop session: %w", err)
		}
		logger.Logger.Info("Walk session auto-stopped by geofence",
			zap.Int64("session_id", session.PublicID),
			zap.Int64("safe_location_id", decision.Location.ID),
		)
		session, err = s.store.GetSession(ctx, session.PublicID)
		if err != nil {
			return nil, decision, fmt.Errorf("failed to reload session: %w", err)
		}

	case decision.ShouldAutoStart && session == nil:
		session, err = s.createSession(ctx, userID, model.SessionModeAutoGeofence, nil, &req.Latitude, &req.Longitude)
		if err != nil {
			return nil, decision, err
		}
	}

	return session, decision, nil
}

// GetActiveSession 查询当前活跃会话
func (s *SessionService) GetActiveSession(ctx context.Context, userID int64) (*model.WalkSession, error) {
	session, err := s.store.GetActiveSession(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.SessionNotFound
		}
		return nil, fmt.Errorf("failed to load active session: %w", err)
	}
	return session, nil
}
