package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"SafeWalk/pkg/errors"
	"SafeWalk/pkg/response"
)

// GetLiveTracking 公开实时追踪页，凭 token 访问，无需认证
// token 只在所属会话仍处于静默监控时有效
func (h *Handlers) GetLiveTracking(ctx context.Context, c *app.RequestContext) {
	token := c.Param("token")
	if token == "" {
		response.Error(ctx, c, errors.TrackingTokenInvalid)
		return
	}

	data, err := h.Tracking.GetLiveTracking(ctx, token)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, data)
}
