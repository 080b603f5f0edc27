package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"SafeWalk/internal/model/dto"
	"SafeWalk/pkg/response"
)

// StartWalk 手动开始行走会话
func (h *Handlers) StartWalk(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}

	var req dto.StartWalkRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	session, err := h.Sessions.StartWalk(ctx, userID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, toSessionData(session))
}

// StopWalk 结束行走，密码分流由 DuressService 处理
// 无论主密码还是胁迫密码，响应形态一致
func (h *Handlers) StopWalk(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}
	sessionID, ok := pathID(ctx, c, "session_id")
	if !ok {
		return
	}

	var req dto.StopWalkRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	session, err := h.Duress.StopWalk(ctx, userID, sessionID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, toSessionData(session))
}

// UpdateLocation 位置上报，附带围栏评估与实时位置缓存刷新
func (h *Handlers) UpdateLocation(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}

	var req dto.LocationUpdateRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	session, decision, err := h.Sessions.UpdateLocation(ctx, userID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, dto.LocationUpdateResponse{
		Session:  toSessionData(session),
		Geofence: toGeofenceEvent(decision),
	})
}

// GetActiveSession 查询当前活跃会话，静默会话按已结束投影返回
func (h *Handlers) GetActiveSession(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}

	session, err := h.Sessions.GetActiveSession(ctx, userID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, toSessionData(session))
}
