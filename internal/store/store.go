package store

import (
	"context"
	"errors"
	"time"

	"SafeWalk/internal/model"
)

// ErrNotFound 记录不存在时由各实现统一返回
var ErrNotFound = errors.New("store: record not found")

// Store 持久化接口，服务层只依赖此接口
// 生产环境使用 GormStore，测试使用 memstore
type Store interface {
	AlertStore
	SessionStore
	UserStore
	GeoStore
	ContactStore
	AttemptStore
}

// AlertStore 告警持久化
type AlertStore interface {
	CreateAlert(ctx context.Context, alert *model.Alert) error
	GetAlert(ctx context.Context, alertID int64) (*model.Alert, error)
	GetAlertByTrackingToken(ctx context.Context, token string) (*model.Alert, error)

	// TransitionAlert 以 CAS 语义迁移状态：仅当当前状态等于 from 时执行迁移，
	// apply 在迁移同事务内修改时间戳等字段。状态不匹配返回 (current, false, nil)
	TransitionAlert(ctx context.Context, alertID int64, from, to model.AlertStatus, apply func(*model.Alert)) (*model.Alert, bool, error)

	// SetAlertCountdown 写入倒计时时间戳，仅当告警 pending 且未写过倒计时时生效，
	// 重复写入返回 (false, nil)
	SetAlertCountdown(ctx context.Context, alertID int64, startedAt, expiresAt time.Time) (bool, error)

	// ListPendingCountdowns 返回所有 pending 且带倒计时截止时间的告警，启动恢复用
	ListPendingCountdowns(ctx context.Context) ([]*model.Alert, error)

	// ListPendingInert 返回 pending 但从未启动倒计时的告警，恢复时记录为数据异常
	ListPendingInert(ctx context.Context) ([]*model.Alert, error)

	// ListOverduePending 返回截止时间早于 before 的 pending 告警，补偿扫描用
	ListOverduePending(ctx context.Context, before time.Time) ([]*model.Alert, error)
}

// SessionStore 行走会话持久化
type SessionStore interface {
	CreateSession(ctx context.Context, session *model.WalkSession) error
	GetSession(ctx context.Context, sessionID int64) (*model.WalkSession, error)
	// GetActiveSession 返回用户当前活跃会话，不存在返回 ErrNotFound
	GetActiveSession(ctx context.Context, userID int64) (*model.WalkSession, error)
	UpdateSessionLocation(ctx context.Context, sessionID int64, lat, lng float64, at time.Time) error
	SetSessionMode(ctx context.Context, sessionID int64, mode model.SessionMode) error
	EndSession(ctx context.Context, sessionID int64, endAt time.Time, lat, lng *float64) error
}

// UserStore 用户读取，账号注册由外部系统负责
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, userID int64) (*model.User, error)
	GetUserByPublicID(ctx context.Context, publicID int64) (*model.User, error)
	UpdateUserPasswords(ctx context.Context, userID int64, mainHash, duressHash string) error
}

// GeoStore 安全区与辖区机构
type GeoStore interface {
	CreateSafeLocation(ctx context.Context, loc *model.SafeLocation) error
	GetSafeLocation(ctx context.Context, id int64) (*model.SafeLocation, error)
	UpdateSafeLocation(ctx context.Context, loc *model.SafeLocation) error
	DeleteSafeLocation(ctx context.Context, userID, id int64) error
	ListActiveSafeLocations(ctx context.Context, userID int64) ([]*model.SafeLocation, error)

	CreateAuthority(ctx context.Context, a *model.GovAuthority) error
	GetAuthority(ctx context.Context, id int64) (*model.GovAuthority, error)
	UpdateAuthority(ctx context.Context, a *model.GovAuthority) error
	DeleteAuthority(ctx context.Context, ownerID, id int64) error
	ListActiveAuthorities(ctx context.Context) ([]*model.GovAuthority, error)
}

// ContactStore 紧急联系人
type ContactStore interface {
	CreateContact(ctx context.Context, c *model.TrustedContact) error
	GetContact(ctx context.Context, id int64) (*model.TrustedContact, error)
	UpdateContact(ctx context.Context, c *model.TrustedContact) error
	DeleteContact(ctx context.Context, userID, id int64) error
	// ListActiveContacts 按 priority 升序返回
	ListActiveContacts(ctx context.Context, userID int64) ([]*model.TrustedContact, error)
}

// AttemptStore 通知投递结果归档
type AttemptStore interface {
	CreateNotificationAttempt(ctx context.Context, a *model.NotificationAttempt) error
	ListNotificationAttempts(ctx context.Context, alertID int64) ([]*model.NotificationAttempt, error)
}
