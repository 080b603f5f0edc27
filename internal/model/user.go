package model

// UserStatus 用户状态枚举
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// User 用户模型，仅保留告警引擎依赖的字段，账号 CRUD 由外部系统负责
type User struct {
	BaseModel
	PublicID int64  `gorm:"uniqueIndex;not null" json:"public_id"`
	Nickname string `gorm:"type:varchar(64);not null;default:''" json:"nickname"`

	PhoneCipher []byte  `gorm:"type:bytea" json:"-"`                // 手机号密文，不对外暴露
	PhoneHash   *string `gorm:"uniqueIndex;type:char(64)" json:"-"` // 手机号哈希，用于查询

	Status UserStatus `gorm:"type:varchar(16);not null;default:'active';index:idx_users_status" json:"status"`

	// 主密码与胁迫密码，设置时保证两者不同
	MainPasswordHash   string `gorm:"type:varchar(128);not null" json:"-"`
	DuressPasswordHash string `gorm:"type:varchar(128)" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// HasDuressPassword 是否配置了胁迫密码
func (u *User) HasDuressPassword() bool {
	return u.DuressPasswordHash != ""
}
