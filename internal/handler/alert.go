package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"SafeWalk/internal/model/dto"
	"SafeWalk/pkg/response"
)

// CreateAlert 上报一条检测信号
// 置信度低于阈值时落库但不进入倒计时，below_threshold 置位
func (h *Handlers) CreateAlert(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}

	var req dto.CreateAlertRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	alert, belowThreshold, err := h.Alerts.CreateAlert(ctx, userID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, dto.CreateAlertResponse{
		Alert:          toAlertData(alert),
		BelowThreshold: belowThreshold,
	})
}

// CancelAlert 倒计时内撤销，无需密码
// 与倒计时到期是先到先得：到期方已赢时返回 409
func (h *Handlers) CancelAlert(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}
	alertID, ok := pathID(ctx, c, "alert_id")
	if !ok {
		return
	}

	alert, err := h.Alerts.CancelAlert(ctx, userID, alertID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, toAlertData(alert))
}

// MarkSafe 触发后的告警标记为已安全
func (h *Handlers) MarkSafe(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}
	alertID, ok := pathID(ctx, c, "alert_id")
	if !ok {
		return
	}

	var req dto.MarkSafeRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	alert, err := h.Alerts.MarkSafe(ctx, userID, alertID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, toAlertData(alert))
}

// GetAlert 查询单条告警
func (h *Handlers) GetAlert(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}
	alertID, ok := pathID(ctx, c, "alert_id")
	if !ok {
		return
	}

	alert, err := h.Alerts.GetAlert(ctx, userID, alertID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, toAlertData(alert))
}
