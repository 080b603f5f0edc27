package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"SafeWalk/config"
	"SafeWalk/internal/model"
	"SafeWalk/internal/model/dto"
	"SafeWalk/internal/store"
	pkgerrors "SafeWalk/pkg/errors"
	"SafeWalk/pkg/logger"
	"SafeWalk/pkg/metrics"
	"SafeWalk/pkg/snowflake"
	"SafeWalk/utils"
)

// AlertService 告警生命周期管理
// 状态迁移全部走 store 的 CAS，注册表只负责倒计时的在途性
type AlertService struct {
	store     store.Store
	registry  *TimerRegistry
	fanout    *Fanout
	publisher EventPublisher
	juris     *JurisdictionService

	threshold        float64
	defaultCountdown time.Duration
	trackingBaseURL  string
}

func NewAlertService(
	st store.Store,
	registry *TimerRegistry,
	fanout *Fanout,
	publisher EventPublisher,
	juris *JurisdictionService,
) *AlertService {
	return &AlertService{
		store:            st,
		registry:         registry,
		fanout:           fanout,
		publisher:        publisher,
		juris:            juris,
		threshold:        config.Cfg.AlertConfidenceThreshold,
		defaultCountdown: time.Duration(config.Cfg.AlertCountdownSeconds) * time.Second,
		trackingBaseURL:  config.Cfg.TrackingBaseURL,
	}
}

// newTrackingToken 生成 32 字节随机追踪凭据，hex 编码后 64 字符
func newTrackingToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate tracking token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateAlert 从检测信号创建告警
// 即时类型（sos / duress）跳过倒计时直接触发；
// 置信度达标的进入撤销倒计时；不达标的保留为 pending 惰性记录
func (s *AlertService) CreateAlert(ctx context.Context, userID int64, req dto.CreateAlertRequest) (*model.Alert, bool, error) {
	alertType := model.AlertType(req.Type)
	if !model.ValidAlertType(alertType) {
		return nil, false, pkgerrors.AlertTypeInvalid
	}
	if req.Confidence < 0 || req.Confidence > 1 {
		return nil, false, pkgerrors.ConfidenceOutOfRange
	}
	hasCoords := req.Latitude != nil && req.Longitude != nil
	if hasCoords && !utils.ValidateCoordinate(*req.Latitude, *req.Longitude) {
		return nil, false, pkgerrors.CoordinateInvalid
	}
	if alertType == model.AlertTypeDuress && !hasCoords {
		return nil, false, pkgerrors.CoordinatesRequired
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, pkgerrors.UserNotFound
		}
		return nil, false, fmt.Errorf("failed to load user: %w", err)
	}

	confidence := req.Confidence
	if alertType.Instant() {
		// 用户主动触发，不存在置信度问题
		confidence = 1.0
	}

	publicID, err := snowflake.NextID(snowflake.GeneratorTypeAlert)
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate alert id: %w", err)
	}

	alert := &model.Alert{
		PublicID:   publicID,
		UserID:     user.ID,
		Type:       alertType,
		Confidence: confidence,
		Status:     model.AlertStatusPending,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		IsDuress:   alertType == model.AlertTypeDuress,
	}

	if session, err := s.store.GetActiveSession(ctx, user.ID); err == nil {
		alert.SessionID = &session.PublicID
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to load active session: %w", err)
	}

	if alert.IsDuress {
		token, err := newTrackingToken()
		if err != nil {
			return nil, false, err
		}
		alert.LiveTrackingToken = &token
	}

	if err := s.store.CreateAlert(ctx, alert); err != nil {
		return nil, false, fmt.Errorf("failed to create alert: %w", err)
	}
	metrics.RecordAlertCreated(string(alertType))

	switch {
	case alertType.Instant():
		if err := s.Trigger(ctx, publicID, false); err != nil {
			return nil, false, err
		}
	case confidence >= s.threshold:
		duration := s.defaultCountdown
		if req.CountdownSeconds != nil && *req.CountdownSeconds > 0 {
			duration = time.Duration(*req.CountdownSeconds) * time.Second
		}
		if err := s.StartCountdown(ctx, publicID, duration); err != nil {
			return nil, false, err
		}
	default:
		logger.Logger.Info("Alert below confidence threshold, stored inert",
			zap.Int64("alert_id", publicID),
			zap.String("type", string(alertType)),
			zap.Float64("confidence", confidence),
			zap.Float64("threshold", s.threshold),
		)
		return alert, true, nil
	}

	updated, err := s.store.GetAlert(ctx, publicID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reload alert: %w", err)
	}
	return updated, false, nil
}

// StartCountdown 启动撤销倒计时
// 时间戳先落库再注册定时器，重复调用无副作用直接报错
func (s *AlertService) StartCountdown(ctx context.Context, alertID int64, duration time.Duration) error {
	now := time.Now()
	ok, err := s.store.SetAlertCountdown(ctx, alertID, now, now.Add(duration))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return pkgerrors.AlertNotFound
		}
		return fmt.Errorf("failed to persist countdown: %w", err)
	}
	if !ok {
		alert, gerr := s.store.GetAlert(ctx, alertID)
		if gerr == nil && alert.Status != model.AlertStatusPending {
			return pkgerrors.AlertNotPending
		}
		return pkgerrors.CountdownAlreadyStarted
	}

	if !s.registry.Register(alertID, duration, func() { s.expire(alertID) }) {
		return pkgerrors.CountdownAlreadyStarted
	}
	metrics.AddActiveCountdown(1)

	logger.Logger.Info("Alert countdown started",
		zap.Int64("alert_id", alertID),
		zap.Duration("duration", duration),
	)
	return nil
}

// expire 倒计时到期回调，定时器 goroutine 内执行
func (s *AlertService) expire(alertID int64) {
	metrics.AddActiveCountdown(-1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.Trigger(ctx, alertID, false); err != nil {
		logger.Logger.Error("Failed to trigger alert on countdown expiry",
			zap.Int64("alert_id", alertID),
			zap.Error(err),
		)
	}
}

// CancelAlert 撤销倒计时中的告警
// 与到期触发的竞争以状态 CAS 的胜负为准，输掉返回 ALERT_NOT_PENDING
func (s *AlertService) CancelAlert(ctx context.Context, userID, alertID int64) (*model.Alert, error) {
	alert, err := s.loadOwnedAlert(ctx, userID, alertID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	updated, moved, err := s.store.TransitionAlert(ctx, alert.PublicID,
		model.AlertStatusPending, model.AlertStatusCancelled,
		func(a *model.Alert) { a.CancelledAt = &now })
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.AlertNotFound
		}
		return nil, fmt.Errorf("failed to cancel alert: %w", err)
	}
	if !moved {
		return updated, pkgerrors.AlertNotPending
	}

	if s.registry.Cancel(alertID) {
		metrics.AddActiveCountdown(-1)
	}
	metrics.RecordAlertCancelled(string(updated.Type))

	logger.Logger.Info("Alert cancelled",
		zap.Int64("alert_id", alertID),
		zap.Int64("user_id", userID),
	)
	return updated, nil
}

// Trigger 触发告警：先赢下状态 CAS，再发事件和通知扇出
// 扇出全军覆没也不回滚状态，告警确实发生了，只是到人的链路断了
func (s *AlertService) Trigger(ctx context.Context, alertID int64, recovered bool) error {
	now := time.Now()
	alert, moved, err := s.store.TransitionAlert(ctx, alertID,
		model.AlertStatusPending, model.AlertStatusTriggered,
		func(a *model.Alert) { a.TriggeredAt = &now })
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return pkgerrors.AlertNotFound
		}
		return fmt.Errorf("failed to transition alert to triggered: %w", err)
	}
	if !moved {
		// 撤销方先赢了，本次触发按无事发生处理
		logger.Logger.Info("Trigger lost the status race, skipping fanout",
			zap.Int64("alert_id", alertID),
			zap.String("status", string(alert.Status)),
		)
		return pkgerrors.AlertNotPending
	}

	if s.registry.Cancel(alertID) {
		metrics.AddActiveCountdown(-1)
	}
	metrics.RecordAlertTriggered(string(alert.Type), alert.IsDuress)

	if s.publisher != nil {
		event := model.AlertTriggeredEvent{
			AlertID:     alert.PublicID,
			UserID:      alert.UserID,
			SessionID:   alert.SessionID,
			Type:        alert.Type,
			IsDuress:    alert.IsDuress,
			Latitude:    alert.Latitude,
			Longitude:   alert.Longitude,
			TriggeredAt: now,
			Recovered:   recovered,
		}
		if err := s.publisher.PublishAlertTriggered(ctx, event); err != nil {
			logger.Logger.Error("Failed to publish alert triggered event",
				zap.Int64("alert_id", alertID),
				zap.Error(err),
			)
		}
	}

	// 扇出脱离请求路径：状态已赢下，投递时延不能反推出触发与否
	// 胁迫停止尤其如此，响应耗时必须和普通停止一致
	go s.deliverNotifications(alert, recovered)
	return nil
}

// deliverNotifications 异步通知扇出，自带超时预算
func (s *AlertService) deliverNotifications(alert *model.Alert, recovered bool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	user, err := s.store.GetUser(ctx, alert.UserID)
	if err != nil {
		logger.Logger.Error("Failed to load alert owner for fanout",
			zap.Int64("alert_id", alert.PublicID),
			zap.Int64("user_id", alert.UserID),
			zap.Error(err),
		)
		return
	}

	recipients, err := s.resolveRecipients(ctx, alert, user)
	if err != nil {
		logger.Logger.Error("Failed to resolve notification recipients",
			zap.Int64("alert_id", alert.PublicID),
			zap.Error(err),
		)
		return
	}

	results := s.fanout.Deliver(ctx, alert, recipients)
	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	logger.Logger.Info("Alert notification fanout completed",
		zap.Int64("alert_id", alert.PublicID),
		zap.Bool("duress", alert.IsDuress),
		zap.Bool("recovered", recovered),
		zap.Int("recipients", len(results)),
		zap.Int("succeeded", succeeded),
	)
}

// CreateDuressAlert 胁迫停止路径的告警创建
// 置信度恒为 1.0，带新鲜追踪凭据，绕过倒计时立即触发
func (s *AlertService) CreateDuressAlert(ctx context.Context, userID, sessionID int64, lat, lng *float64) (*model.Alert, error) {
	token, err := newTrackingToken()
	if err != nil {
		return nil, err
	}
	publicID, err := snowflake.NextID(snowflake.GeneratorTypeAlert)
	if err != nil {
		return nil, fmt.Errorf("failed to generate alert id: %w", err)
	}

	alert := &model.Alert{
		PublicID:          publicID,
		UserID:            userID,
		SessionID:         &sessionID,
		Type:              model.AlertTypeDuress,
		Confidence:        1.0,
		Status:            model.AlertStatusPending,
		Latitude:          lat,
		Longitude:         lng,
		IsDuress:          true,
		LiveTrackingToken: &token,
	}
	if err := s.store.CreateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create duress alert: %w", err)
	}
	metrics.RecordAlertCreated(string(model.AlertTypeDuress))

	if err := s.Trigger(ctx, publicID, false); err != nil {
		return nil, err
	}
	return s.store.GetAlert(ctx, publicID)
}

// MarkSafe 用户事后确认安全，TRIGGERED -> SAFE 的终态改标
func (s *AlertService) MarkSafe(ctx context.Context, userID, alertID int64) (*model.Alert, error) {
	if _, err := s.loadOwnedAlert(ctx, userID, alertID); err != nil {
		return nil, err
	}

	updated, moved, err := s.store.TransitionAlert(ctx, alertID,
		model.AlertStatusTriggered, model.AlertStatusSafe, nil)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.AlertNotFound
		}
		return nil, fmt.Errorf("failed to mark alert safe: %w", err)
	}
	if !moved {
		return updated, pkgerrors.AlertNotTriggered
	}
	return updated, nil
}

// GetAlert 带属主校验的查询
func (s *AlertService) GetAlert(ctx context.Context, userID, alertID int64) (*model.Alert, error) {
	return s.loadOwnedAlert(ctx, userID, alertID)
}

// RecoverOnStartup 进程启动时恢复倒计时，必须在对外服务前跑完
// 已过期的立即触发，未过期的按剩余时长重新注册；返回恢复数量
func (s *AlertService) RecoverOnStartup(ctx context.Context) (int, error) {
	if inert, err := s.store.ListPendingInert(ctx); err == nil && len(inert) > 0 {
		// 从未启动过倒计时的 pending 记录不自动触发，只记异常
		logger.Logger.Warn("Found pending alerts without countdown, skipping as inert",
			zap.Int("count", len(inert)),
		)
	}

	alerts, err := s.store.ListPendingCountdowns(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending countdowns: %w", err)
	}

	now := time.Now()
	recovered := 0
	for _, alert := range alerts {
		if !alert.CountdownExpiresAt.After(now) {
			if err := s.Trigger(ctx, alert.PublicID, true); err != nil && !errors.Is(err, pkgerrors.AlertNotPending) {
				logger.Logger.Error("Failed to trigger expired alert during recovery",
					zap.Int64("alert_id", alert.PublicID),
					zap.Error(err),
				)
				continue
			}
		} else {
			remaining := alert.CountdownExpiresAt.Sub(now)
			alertID := alert.PublicID
			if s.registry.Register(alertID, remaining, func() { s.expire(alertID) }) {
				metrics.AddActiveCountdown(1)
			}
		}
		recovered++
	}

	metrics.RecordCountdownRecovered(int64(recovered))
	logger.Logger.Info("Alert countdown recovery completed",
		zap.Int("recovered", recovered),
		zap.Int("outstanding", s.registry.Outstanding()),
	)
	return recovered, nil
}

func (s *AlertService) loadOwnedAlert(ctx context.Context, userID, alertID int64) (*model.Alert, error) {
	alert, err := s.store.GetAlert(ctx, alertID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.AlertNotFound
		}
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}
	if alert.UserID != userID {
		return nil, pkgerrors.AlertNotFound
	}
	return alert, nil
}

// resolveRecipients 解析通知收件人：联系人按优先级，辖区机构按坐标匹配
func (s *AlertService) resolveRecipients(ctx context.Context, alert *model.Alert, user *model.User) ([]Recipient, error) {
	contacts, err := s.store.ListActiveContacts(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	recipients := make([]Recipient, 0, len(contacts)+2)
	for _, c := range contacts {
		phone, err := utils.DecryptPhone(c.PhoneCipher)
		if err != nil {
			logger.Logger.Error("Failed to decrypt contact phone, skipping recipient",
				zap.Int64("contact_id", c.ID),
				zap.Error(err),
			)
			continue
		}
		recipients = append(recipients, Recipient{
			Class: RecipientClassContact,
			Name:  c.Name,
			Phone: phone,
			Text:  s.contactText(alert, user),
		})
	}

	// 没有坐标就无法做辖区匹配，跳过机构通知
	if alert.HasCoordinates() {
		authorities, err := s.juris.Match(ctx, *alert.Latitude, *alert.Longitude)
		if err != nil {
			return recipients, fmt.Errorf("failed to match authorities: %w", err)
		}
		for _, a := range authorities {
			if a.ContactPhone == "" {
				continue
			}
			recipients = append(recipients, Recipient{
				Class: RecipientClassAuthority,
				Name:  a.Name,
				Phone: a.ContactPhone,
				Text:  s.authorityText(alert, user),
			})
		}
	}

	return recipients, nil
}

func (s *AlertService) trackingURL(token string) string {
	return fmt.Sprintf("%s/%s", s.trackingBaseURL, token)
}

func coordsText(alert *model.Alert) string {
	if !alert.HasCoordinates() {
		return "unknown"
	}
	return fmt.Sprintf("%.6f,%.6f", *alert.Latitude, *alert.Longitude)
}

func (s *AlertService) contactText(alert *model.Alert, user *model.User) string {
	name := user.Nickname
	if name == "" {
		name = "A SafeWalk user"
	}
	if alert.IsDuress && alert.LiveTrackingToken != nil {
		return fmt.Sprintf(
			"[SafeWalk] %s may be in a duress situation. Follow their live location: %s . Do NOT call them back, it may put them at risk.",
			name, s.trackingURL(*alert.LiveTrackingToken),
		)
	}
	return fmt.Sprintf(
		"[SafeWalk] Emergency alert for %s (signal: %s). Last known location: %s",
		name, alert.Type, coordsText(alert),
	)
}

func (s *AlertService) authorityText(alert *model.Alert, user *model.User) string {
	name := user.Nickname
	if name == "" {
		name = "a SafeWalk user"
	}
	if alert.IsDuress && alert.LiveTrackingToken != nil {
		return fmt.Sprintf(
			"[SafeWalk] Duress alert for %s at %s. Live tracking: %s",
			name, coordsText(alert), s.trackingURL(*alert.LiveTrackingToken),
		)
	}
	return fmt.Sprintf(
		"[SafeWalk] Emergency alert (%s) for %s at %s",
		alert.Type, name, coordsText(alert),
	)
}
