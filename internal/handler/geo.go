package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"SafeWalk/internal/model/dto"
	"SafeWalk/pkg/response"
)

// ListSafeLocations 列出当前用户的安全区
func (h *Handlers) ListSafeLocations(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}

	locations, err := h.Geo.ListSafeLocations(ctx, userID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	data := make([]*dto.SafeLocationData, 0, len(locations))
	for _, l := range locations {
		data = append(data, toSafeLocationData(l))
	}
	response.Success(ctx, c, data)
}

// CreateSafeLocation 新增安全区
func (h *Handlers) CreateSafeLocation(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}

	var req dto.SafeLocationRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	location, err := h.Geo.CreateSafeLocation(ctx, userID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, toSafeLocationData(location))
}

// UpdateSafeLocation 更新安全区
func (h *Handlers) UpdateSafeLocation(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}
	id, ok := pathID(ctx, c, "location_id")
	if !ok {
		return
	}

	var req dto.SafeLocationRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	location, err := h.Geo.UpdateSafeLocation(ctx, userID, id, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, toSafeLocationData(location))
}

// DeleteSafeLocation 删除安全区
func (h *Handlers) DeleteSafeLocation(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}
	id, ok := pathID(ctx, c, "location_id")
	if !ok {
		return
	}

	if err := h.Geo.DeleteSafeLocation(ctx, userID, id); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}

// CreateAuthority 登记辖区机构（政务账号）
func (h *Handlers) CreateAuthority(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}

	var req dto.AuthorityRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	authority, err := h.Geo.CreateAuthority(ctx, userID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, toAuthorityData(authority))
}

// UpdateAuthority 更新辖区机构
func (h *Handlers) UpdateAuthority(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}
	id, ok := pathID(ctx, c, "authority_id")
	if !ok {
		return
	}

	var req dto.AuthorityRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	authority, err := h.Geo.UpdateAuthority(ctx, userID, id, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, toAuthorityData(authority))
}

// DeleteAuthority 注销辖区机构
func (h *Handlers) DeleteAuthority(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}
	id, ok := pathID(ctx, c, "authority_id")
	if !ok {
		return
	}

	if err := h.Geo.DeleteAuthority(ctx, userID, id); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}
