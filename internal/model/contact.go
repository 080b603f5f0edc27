package model

// TrustedContact 紧急联系人，priority 越小优先级越高
type TrustedContact struct {
	BaseModel
	UserID int64  `gorm:"not null;index:idx_contacts_user" json:"user_id"`
	Name   string `gorm:"type:varchar(64);not null" json:"name"`

	PhoneCipher []byte  `gorm:"type:bytea" json:"-"`                // 手机号密文，不对外暴露
	PhoneHash   *string `gorm:"index;type:char(64)" json:"-"`       // 手机号哈希，用于查询
	Email       string  `gorm:"type:varchar(128)" json:"email"`

	Priority int  `gorm:"not null;default:1" json:"priority"` // 1 = 最高
	IsActive bool `gorm:"not null;default:true" json:"is_active"`
}

func (TrustedContact) TableName() string {
	return "trusted_contacts"
}
