package model

// SafeLocation 安全区，圆形地理围栏
type SafeLocation struct {
	BaseModel
	UserID int64  `gorm:"not null;index:idx_safe_locations_user" json:"user_id"`
	Name   string `gorm:"type:varchar(64);not null" json:"name"`

	Latitude     float64 `gorm:"not null" json:"latitude"`
	Longitude    float64 `gorm:"not null" json:"longitude"`
	RadiusMeters float64 `gorm:"not null" json:"radius_meters"` // 10~200

	AutoStartWalk bool `gorm:"not null;default:false" json:"auto_start_walk"`
	AutoStopWalk  bool `gorm:"not null;default:false" json:"auto_stop_walk"`
	IsActive      bool `gorm:"not null;default:true;index:idx_safe_locations_active" json:"is_active"`
}

func (SafeLocation) TableName() string {
	return "safe_locations"
}

// GovAuthority 辖区机构，圆形辖区
type GovAuthority struct {
	BaseModel
	OwnerID int64  `gorm:"not null;index:idx_authorities_owner" json:"owner_id"` // 政务账号
	Name    string `gorm:"type:varchar(128);not null" json:"name"`

	Latitude     float64 `gorm:"not null" json:"latitude"`
	Longitude    float64 `gorm:"not null" json:"longitude"`
	RadiusMeters float64 `gorm:"not null" json:"radius_meters"`

	ContactPhone string `gorm:"type:varchar(32)" json:"contact_phone"`
	ContactEmail string `gorm:"type:varchar(128)" json:"contact_email"`
	IsActive     bool   `gorm:"not null;default:true;index:idx_authorities_active" json:"is_active"`
}

func (GovAuthority) TableName() string {
	return "gov_authorities"
}
