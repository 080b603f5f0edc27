package dto

// SetPasswordsRequest 设置主密码与可选的胁迫密码
type SetPasswordsRequest struct {
	MainPassword   string `json:"main_password" binding:"required"`
	DuressPassword string `json:"duress_password"`
}
