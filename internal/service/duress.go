package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"SafeWalk/internal/model"
	"SafeWalk/internal/model/dto"
	"SafeWalk/internal/store"
	pkgerrors "SafeWalk/pkg/errors"
	"SafeWalk/pkg/logger"
	"SafeWalk/pkg/metrics"
	"SafeWalk/utils"
)

// DuressService 处理结束行走的密码分流
// 主密码是真实结束，胁迫密码对外呈现结束、对内转入静默监控并立即触发胁迫告警
// 两条路径的响应形态与耗时特征保持一致，不能从返回上分辨
type DuressService struct {
	store  store.Store
	alerts *AlertService
}

func NewDuressService(st store.Store, alerts *AlertService) *DuressService {
	return &DuressService{store: st, alerts: alerts}
}

// StopWalk 按密码语义结束会话
//   - 主密码 + 静默中：安全解锁，active=false，mode 保留 SILENT 供审计
//   - 主密码 + 非静默：普通结束
//   - 胁迫密码 + 非静默：转入静默，同步创建胁迫告警并触发，会话保持 active
//   - 胁迫密码 + 静默中：已在静默，不重复触发，维持结束假象
//   - 两个都不匹配：拒绝，无状态变化
func (s *DuressService) StopWalk(ctx context.Context, userID, sessionID int64, req dto.StopWalkRequest) (*model.WalkSession, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.SessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.UserID != userID {
		return nil, pkgerrors.SessionNotFound
	}
	if !session.Active {
		return nil, pkgerrors.SessionNotActive
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.UserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if req.Latitude != nil && req.Longitude != nil && !utils.ValidateCoordinate(*req.Latitude, *req.Longitude) {
		return nil, pkgerrors.CoordinateInvalid
	}

	switch {
	case utils.CheckPassword(user.MainPasswordHash, req.Password):
		// 静默中的主密码就是 I am safe 解锁，EndSession 不改 mode，历史保留 SILENT
		if err := s.store.EndSession(ctx, session.PublicID, time.Now(), req.Latitude, req.Longitude); err != nil {
			return nil, fmt.Errorf("failed to end session: %w", err)
		}
		logger.Logger.Info("Walk session stopped",
			zap.Int64("session_id", session.PublicID),
			zap.Int64("user_id", userID),
			zap.Bool("was_silent", session.Mode == model.SessionModeSilent),
		)

	case user.HasDuressPassword() && utils.CheckPassword(user.DuressPasswordHash, req.Password):
		if session.Mode == model.SessionModeSilent {
			// 已经静默，不再触发第二个胁迫告警
			break
		}
		if err := s.store.SetSessionMode(ctx, session.PublicID, model.SessionModeSilent); err != nil {
			return nil, fmt.Errorf("failed to enter silent mode: %w", err)
		}
		metrics.RecordDuressActivation()

		lat, lng := req.Latitude, req.Longitude
		if lat == nil || lng == nil {
			lat, lng = session.LastLatitude, session.LastLongitude
		}
		if _, err := s.alerts.CreateDuressAlert(ctx, userID, session.PublicID, lat, lng); err != nil {
			return nil, err
		}

	default:
		return nil, pkgerrors.PasswordInvalid
	}

	return s.store.GetSession(ctx, sessionID)
}
