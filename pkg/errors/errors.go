package errors

import "fmt"

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 认证相关错误。
var (
	Unauthorized  = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	InvalidUserID = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
	UserNotFound  = Definition{Code: "USER_NOT_FOUND", Message: "User not found"}

	ErrTokenGeneratorNotInitialized = Definition{Code: "TOKEN_GENERATOR_NOT_INITIALIZED", Message: "Token generator not initialized"}

	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, please retry later"}
)

// 告警生命周期错误。
var (
	AlertNotFound           = Definition{Code: "ALERT_NOT_FOUND", Message: "Alert not found"}
	AlertNotPending         = Definition{Code: "ALERT_NOT_PENDING", Message: "Alert countdown already completed"}
	CountdownAlreadyStarted = Definition{Code: "COUNTDOWN_ALREADY_STARTED", Message: "Countdown already started for this alert"}
	ConfidenceOutOfRange    = Definition{Code: "CONFIDENCE_OUT_OF_RANGE", Message: "Confidence must be within [0, 1]"}
	CoordinatesRequired     = Definition{Code: "COORDINATES_REQUIRED", Message: "Coordinates required for this alert type"}
	AlertTypeInvalid        = Definition{Code: "ALERT_TYPE_INVALID", Message: "Unknown alert type"}
	AlertNotTriggered       = Definition{Code: "ALERT_NOT_TRIGGERED", Message: "Alert is not in triggered state"}
)

// 行走会话与胁迫处理错误。
var (
	SessionNotFound      = Definition{Code: "SESSION_NOT_FOUND", Message: "Walk session not found"}
	SessionNotActive     = Definition{Code: "SESSION_NOT_ACTIVE", Message: "Walk session is not active"}
	SessionAlreadyActive = Definition{Code: "SESSION_ALREADY_ACTIVE", Message: "An active walk session already exists"}
	PasswordInvalid      = Definition{Code: "PASSWORD_INVALID", Message: "Password invalid"}
	DuressPasswordSame   = Definition{Code: "DURESS_PASSWORD_SAME", Message: "Duress password must differ from main password"}
)

// 地理数据错误。
var (
	CoordinateInvalid   = Definition{Code: "COORDINATE_INVALID", Message: "Latitude or longitude out of range"}
	PhoneInvalid        = Definition{Code: "PHONE_INVALID", Message: "Invalid phone number"}
	RadiusOutOfRange    = Definition{Code: "RADIUS_OUT_OF_RANGE", Message: "Radius must be between 10 and 200 meters"}
	SafeLocationMissing = Definition{Code: "SAFE_LOCATION_NOT_FOUND", Message: "Safe location not found"}
	AuthorityNotFound   = Definition{Code: "AUTHORITY_NOT_FOUND", Message: "Authority not found"}
)

// 联系人模块错误。
var (
	ContactNotFound         = Definition{Code: "CONTACT_NOT_FOUND", Message: "Trusted contact not found"}
	ContactPriorityConflict = Definition{Code: "CONTACT_PRIORITY_CONFLICT", Message: "Contact priority conflict"}
)

// 实时追踪错误。
var (
	TrackingTokenInvalid = Definition{Code: "TRACKING_TOKEN_INVALID", Message: "Tracking token invalid or expired"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	Unauthorized.Code:            Unauthorized,
	InvalidUserID.Code:           InvalidUserID,
	UserNotFound.Code:            UserNotFound,
	TooManyRequests.Code:         TooManyRequests,
	AlertNotFound.Code:           AlertNotFound,
	AlertNotPending.Code:         AlertNotPending,
	CountdownAlreadyStarted.Code: CountdownAlreadyStarted,
	ConfidenceOutOfRange.Code:    ConfidenceOutOfRange,
	CoordinatesRequired.Code:     CoordinatesRequired,
	AlertTypeInvalid.Code:        AlertTypeInvalid,
	AlertNotTriggered.Code:       AlertNotTriggered,
	SessionNotFound.Code:         SessionNotFound,
	SessionNotActive.Code:        SessionNotActive,
	SessionAlreadyActive.Code:    SessionAlreadyActive,
	PasswordInvalid.Code:         PasswordInvalid,
	DuressPasswordSame.Code:      DuressPasswordSame,
	CoordinateInvalid.Code:       CoordinateInvalid,
	PhoneInvalid.Code:            PhoneInvalid,
	RadiusOutOfRange.Code:        RadiusOutOfRange,
	SafeLocationMissing.Code:     SafeLocationMissing,
	AuthorityNotFound.Code:       AuthorityNotFound,
	ContactNotFound.Code:         ContactNotFound,
	ContactPriorityConflict.Code: ContactPriorityConflict,
	TrackingTokenInvalid.Code:    TrackingTokenInvalid,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// SkipMessageError 消费者主动跳过消息时返回，调用方 Ack 而不重试。
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return fmt.Sprintf("skip message: %s", e.Reason)
}
