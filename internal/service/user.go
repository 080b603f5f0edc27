package service

import (
	"context"
	"errors"
	"fmt"

	"SafeWalk/internal/store"
	pkgerrors "SafeWalk/pkg/errors"
	"SafeWalk/utils"
)

// UserService 密码设置
// 胁迫密码必须与主密码不同，否则 StopWalk 无法分辨意图，这个约束只在设置时强制
type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

// SetPasswords 设置主密码与可选的胁迫密码
func (s *UserService) SetPasswords(ctx context.Context, userID int64, mainPassword, duressPassword string) error {
	if mainPassword == "" {
		return pkgerrors.PasswordInvalid
	}
	if duressPassword != "" && duressPassword == mainPassword {
		return pkgerrors.DuressPasswordSame
	}

	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return pkgerrors.UserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	mainHash, err := utils.HashPassword(mainPassword)
	if err != nil {
		return fmt.Errorf("failed to hash main password: %w", err)
	}

	duressHash := ""
	if duressPassword != "" {
		duressHash, err = utils.HashPassword(duressPassword)
		if err != nil {
			return fmt.Errorf("failed to hash duress password: %w", err)
		}
	}

	if err := s.store.UpdateUserPasswords(ctx, userID, mainHash, duressHash); err != nil {
		return fmt.Errorf("failed to update passwords: %w", err)
	}
	return nil
}
