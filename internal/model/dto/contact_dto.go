package dto

// ContactRequest 创建/更新紧急联系人
type ContactRequest struct {
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Email    string `json:"email"`
	Priority int    `json:"priority"`
}

// ContactData 联系人投影，手机号脱敏后返回
type ContactData struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PhoneMasked string `json:"phone_masked"`
	Email       string `json:"email"`
	Priority    int    `json:"priority"`
	IsActive    bool   `json:"is_active"`
}
