package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"SafeWalk/internal/model"
)

// GormStore 基于 PostgreSQL 的 Store 实现
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ---- alerts ----

func (s *GormStore) CreateAlert(ctx context.Context, alert *model.Alert) error {
	return s.db.WithContext(ctx).Create(alert).Error
}

func (s *GormStore) GetAlert(ctx context.Context, alertID int64) (*model.Alert, error) {
	var alert model.Alert
	if err := s.db.WithContext(ctx).Where("public_id = ?", alertID).First(&alert).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &alert, nil
}

func (s *GormStore) GetAlertByTrackingToken(ctx context.Context, token string) (*model.Alert, error) {
	var alert model.Alert
	if err := s.db.WithContext(ctx).Where("live_tracking_token = ?", token).First(&alert).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &alert, nil
}

func (s *GormStore) TransitionAlert(ctx context.Context, alertID int64, from, to model.AlertStatus, apply func(*model.Alert)) (*model.Alert, bool, error) {
	var result *model.Alert
	var moved bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var alert model.Alert
		// 行锁防止并发取消/触发竞争
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("public_id = ?", alertID).First(&alert).Error; err != nil {
			return wrapNotFound(err)
		}
		if alert.Status != from {
			result = &alert
			return nil
		}
		alert.Status = to
		if apply != nil {
			apply(&alert)
		}
		if err := tx.Save(&alert).Error; err != nil {
			return err
		}
		result = &alert
		moved = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, moved, nil
}

func (s *GormStore) SetAlertCountdown(ctx context.Context, alertID int64, startedAt, expiresAt time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Alert{}).
		Where("public_id = ? AND status = ? AND countdown_started_at IS NULL",
			alertID, model.AlertStatusPending).
		Updates(map[string]interface{}{
			"countdown_started_at": startedAt,
			"countdown_expires_at": expiresAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) ListPendingInert(ctx context.Context) ([]*model.Alert, error) {
	var alerts []*model.Alert
	err := s.db.WithContext(ctx).
		Where("status = ? AND countdown_expires_at IS NULL", model.AlertStatusPending).
		Find(&alerts).Error
	return alerts, err
}

func (s *GormStore) ListPendingCountdowns(ctx context.Context) ([]*model.Alert, error) {
	var alerts []*model.Alert
	err := s.db.WithContext(ctx).
		Where("status = ? AND countdown_expires_at IS NOT NULL", model.AlertStatusPending).
		Find(&alerts).Error
	return alerts, err
}

func (s *GormStore) ListOverduePending(ctx context.Context, before time.Time) ([]*model.Alert, error) {
	var alerts []*model.Alert
	err := s.db.WithContext(ctx).
		Where("status = ? AND countdown_expires_at IS NOT NULL AND countdown_expires_at < ?",
			model.AlertStatusPending, before).
		Find(&alerts).Error
	return alerts, err
}

// ---- sessions ----

func (s *GormStore) CreateSession(ctx context.Context, session *model.WalkSession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s *GormStore) GetSession(ctx context.Context, sessionID int64) (*model.WalkSession, error) {
	var session model.WalkSession
	if err := s.db.WithContext(ctx).Where("public_id = ?", sessionID).First(&session).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &session, nil
}

func (s *GormStore) GetActiveSession(ctx context.Context, userID int64) (*model.WalkSession, error) {
	var session model.WalkSession
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Order("start_time DESC").First(&session).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &session, nil
}

func (s *GormStore) UpdateSessionLocation(ctx context.Context, sessionID int64, lat, lng float64, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.WalkSession{}).
		Where("public_id = ?", sessionID).
		Updates(map[string]interface{}{
			"last_latitude":    lat,
			"last_longitude":   lng,
			"last_location_at": at,
		}).Error
}

func (s *GormStore) SetSessionMode(ctx context.Context, sessionID int64, mode model.SessionMode) error {
	return s.db.WithContext(ctx).Model(&model.WalkSession{}).
		Where("public_id = ?", sessionID).
		Update("mode", mode).Error
}

func (s *GormStore) EndSession(ctx context.Context, sessionID int64, endAt time.Time, lat, lng *float64) error {
	updates := map[string]interface{}{
		"active":   false,
		"end_time": endAt,
	}
	if lat != nil && lng != nil {
		updates["end_latitude"] = *lat
		updates["end_longitude"] = *lng
	}
	return s.db.WithContext(ctx).Model(&model.WalkSession{}).
		Where("public_id = ?", sessionID).
		Updates(updates).Error
}

// ---- users ----

func (s *GormStore) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *GormStore) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByPublicID(ctx context.Context, publicID int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("public_id = ?", publicID).First(&user).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (s *GormStore) UpdateUserPasswords(ctx context.Context, userID int64, mainHash, duressHash string) error {
	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"main_password_hash":   mainHash,
			"duress_password_hash": duressHash,
		}).Error
}

// ---- safe locations / authorities ----

func (s *GormStore) CreateSafeLocation(ctx context.Context, loc *model.SafeLocation) error {
	return s.db.WithContext(ctx).Create(loc).Error
}

func (s *GormStore) GetSafeLocation(ctx context.Context, id int64) (*model.SafeLocation, error) {
	var loc model.SafeLocation
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&loc).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &loc, nil
}

func (s *GormStore) UpdateSafeLocation(ctx context.Context, loc *model.SafeLocation) error {
	return s.db.WithContext(ctx).Save(loc).Error
}

func (s *GormStore) DeleteSafeLocation(ctx context.Context, userID, id int64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.SafeLocation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListActiveSafeLocations(ctx context.Context, userID int64) ([]*model.SafeLocation, error) {
	var locs []*model.SafeLocation
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&locs).Error
	return locs, err
}

func (s *GormStore) CreateAuthority(ctx context.Context, a *model.GovAuthority) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *GormStore) GetAuthority(ctx context.Context, id int64) (*model.GovAuthority, error) {
	var a model.GovAuthority
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &a, nil
}

func (s *GormStore) UpdateAuthority(ctx context.Context, a *model.GovAuthority) error {
	return s.db.WithContext(ctx).Save(a).Error
}

func (s *GormStore) DeleteAuthority(ctx context.Context, ownerID, id int64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.GovAuthority{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListActiveAuthorities(ctx context.Context) ([]*model.GovAuthority, error) {
	var as []*model.GovAuthority
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&as).Error
	return as, err
}

// ---- contacts ----

func (s *GormStore) CreateContact(ctx context.Context, c *model.TrustedContact) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *GormStore) GetContact(ctx context.Context, id int64) (*model.TrustedContact, error) {
	var c model.TrustedContact
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &c, nil
}

func (s *GormStore) UpdateContact(ctx context.Context, c *model.TrustedContact) error {
	return s.db.WithContext(ctx).Save(c).Error
}

func (s *GormStore) DeleteContact(ctx context.Context, userID, id int64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.TrustedContact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListActiveContacts(ctx context.Context, userID int64) ([]*model.TrustedContact, error) {
	var cs []*model.TrustedContact
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("priority ASC, id ASC").
		Find(&cs).Error
	return cs, err
}

// ---- notification attempts ----

func (s *GormStore) CreateNotificationAttempt(ctx context.Context, a *model.NotificationAttempt) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *GormStore) ListNotificationAttempts(ctx context.Context, alertID int64) ([]*model.NotificationAttempt, error) {
	var as []*model.NotificationAttempt
	err := s.db.WithContext(ctx).
		Where("alert_id = ?", alertID).
		Order("id ASC").
		Find(&as).Error
	return as, err
}
