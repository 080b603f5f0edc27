package dto

// SafeLocationRequest 创建/更新安全区
type SafeLocationRequest struct {
	Name          string  `json:"name" binding:"required"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	RadiusMeters  float64 `json:"radius_meters"`
	AutoStartWalk bool    `json:"auto_start_walk"`
	AutoStopWalk  bool    `json:"auto_stop_walk"`
}

// SafeLocationData 安全区投影
type SafeLocationData struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	RadiusMeters  float64 `json:"radius_meters"`
	AutoStartWalk bool    `json:"auto_start_walk"`
	AutoStopWalk  bool    `json:"auto_stop_walk"`
	IsActive      bool    `json:"is_active"`
}

// AuthorityRequest 创建/更新辖区机构
type AuthorityRequest struct {
	Name         string  `json:"name" binding:"required"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
	ContactPhone string  `json:"contact_phone"`
	ContactEmail string  `json:"contact_email"`
}

// AuthorityData 辖区机构投影
type AuthorityData struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
	ContactPhone string  `json:"contact_phone"`
	ContactEmail string  `json:"contact_email"`
	IsActive     bool    `json:"is_active"`
}
