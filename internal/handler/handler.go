// Package handler HTTP 接入层，只做参数绑定与 DTO 投影，业务全部下沉到 service
package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"SafeWalk/internal/middleware"
	"SafeWalk/internal/service"
	"SafeWalk/pkg/errors"
	"SafeWalk/pkg/response"
)

// Handlers 持有各个领域服务，由 cmd 侧组装
type Handlers struct {
	Alerts   *service.AlertService
	Sessions *service.SessionService
	Duress   *service.DuressService
	Tracking *service.TrackingService
	Geo      *service.GeoService
	Contacts *service.ContactService
	Users    *service.UserService
}

func New(
	alerts *service.AlertService,
	sessions *service.SessionService,
	duress *service.DuressService,
	tracking *service.TrackingService,
	geo *service.GeoService,
	contacts *service.ContactService,
	users *service.UserService,
) *Handlers {
	return &Handlers{
		Alerts:   alerts,
		Sessions: sessions,
		Duress:   duress,
		Tracking: tracking,
		Geo:      geo,
		Contacts: contacts,
		Users:    users,
	}
}

// requireUserID 提取认证用户，失败时已写响应
func requireUserID(ctx context.Context, c *app.RequestContext) (int64, bool) {
	userID, ok := middleware.GetUserID(ctx, c)
	if !ok {
		response.Error(ctx, c, errors.Unauthorized)
		return 0, false
	}
	return userID, true
}

// pathID 解析路径中的数字 ID，失败时已写响应
func pathID(ctx context.Context, c *app.RequestContext, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.Error(ctx, c, errors.Definition{Code: "INVALID_REQUEST", Message: "Invalid path parameter: " + name})
		return 0, false
	}
	return id, true
}
