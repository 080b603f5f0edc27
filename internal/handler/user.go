package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"SafeWalk/internal/model/dto"
	"SafeWalk/pkg/response"
)

// SetPasswords 设置主密码与胁迫密码
// 胁迫密码与主密码相同会被拒绝，否则结束行走时无法分辨意图
func (h *Handlers) SetPasswords(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}

	var req dto.SetPasswordsRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := h.Users.SetPasswords(ctx, userID, req.MainPassword, req.DuressPassword); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{
		"duress_password_set": req.DuressPassword != "",
	})
}
