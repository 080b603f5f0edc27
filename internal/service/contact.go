package service

import (
	"context"
	"errors"
	"fmt"

	"SafeWalk/internal/model"
	"SafeWalk/internal/model/dto"
	"SafeWalk/internal/store"
	pkgerrors "SafeWalk/pkg/errors"
	"SafeWalk/utils"
)

// ContactService 紧急联系人管理，手机号加密落库
type ContactService struct {
	store store.Store
}

func NewContactService(st store.Store) *ContactService {
	return &ContactService{store: st}
}

func (s *ContactService) CreateContact(ctx context.Context, userID int64, req dto.ContactRequest) (*model.TrustedContact, error) {
	if !utils.ValidatePhone(req.Phone) {
		return nil, pkgerrors.PhoneInvalid
	}
	priority := req.Priority
	if priority <= 0 {
		priority = 1
	}

	existing, err := s.store.ListActiveContacts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	for _, c := range existing {
		if c.Priority == priority {
			return nil, pkgerrors.ContactPriorityConflict
		}
	}

	cipher, err := utils.EncryptPhone(req.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt phone: %w", err)
	}
	hash := utils.HashPhone(req.Phone)

	contact := &model.TrustedContact{
		UserID:      userID,
		Name:        req.Name,
		PhoneCipher: cipher,
		PhoneHash:   &hash,
		Email:       req.Email,
		Priority:    priority,
		IsActive:    true,
	}
	if err := s.store.CreateContact(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return contact, nil
}

func (s *ContactService) UpdateContact(ctx context.Context, userID, id int64, req dto.ContactRequest) (*model.TrustedContact, error) {
	contact, err := s.store.GetContact(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, pkgerrors.ContactNotFound
		}
		return nil, fmt.Errorf("failed to load contact: %w", err)
	}
	if contact.UserID != userID {
		return nil, pkgerrors.ContactNotFound
	}

	if req.Phone != "" {
		if !utils.ValidatePhone(req.Phone) {
			return nil, pkgerrors.PhoneInvalid
		}
		cipher, err := utils.EncryptPhone(req.Phone)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt phone: %w", err)
		}
		hash := utils.HashPhone(req.Phone)
		contact.PhoneCipher = cipher
		contact.PhoneHash = &hash
	}

	contact.Name = req.Name
	contact.Email = req.Email
	if req.Priority > 0 {
		contact.Priority = req.Priority
	}

	if err := s.store.UpdateContact(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return contact, nil
}

func (s *ContactService) DeleteContact(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteContact(ctx, userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return pkgerrors.ContactNotFound
		}
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

func (s *ContactService) ListContacts(ctx context.Context, userID int64) ([]*model.TrustedContact, error) {
	return s.store.ListActiveContacts(ctx, userID)
}
