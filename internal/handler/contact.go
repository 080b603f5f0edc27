package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"SafeWalk/internal/model/dto"
	"SafeWalk/pkg/response"
)

// ListContacts 列出当前用户的紧急联系人
func (h *Handlers) ListContacts(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}

	contacts, err := h.Contacts.ListContacts(ctx, userID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	data := make([]*dto.ContactData, 0, len(contacts))
	for _, contact := range contacts {
		data = append(data, toContactData(contact))
	}
	response.Success(ctx, c, data)
}

// CreateContact 新增紧急联系人
func (h *Handlers) CreateContact(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}

	var req dto.ContactRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	contact, err := h.Contacts.CreateContact(ctx, userID, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, toContactData(contact))
}

// UpdateContact 更新紧急联系人
func (h *Handlers) UpdateContact(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}
	id, ok := pathID(ctx, c, "contact_id")
	if !ok {
		return
	}

	var req dto.ContactRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	contact, err := h.Contacts.UpdateContact(ctx, userID, id, req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, toContactData(contact))
}

// DeleteContact 删除紧急联系人
func (h *Handlers) DeleteContact(ctx context.Context, c *app.RequestContext) {
	userID, ok := requireUserID(ctx, c)
	if !ok {
		return
	}
	id, ok := pathID(ctx, c, "contact_id")
	if !ok {
		return
	}

	if err := h.Contacts.DeleteContact(ctx, userID, id); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.NoContent(ctx, c)
}
