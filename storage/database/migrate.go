package database

import (
	"fmt"

	"SafeWalk/internal/model"
)

// Migrate 按依赖顺序建表
func Migrate() error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	return db.AutoMigrate(
		&model.User{},
		&model.WalkSession{},
		&model.Alert{},
		&model.SafeLocation{},
		&model.GovAuthority{},
		&model.TrustedContact{},
		&model.NotificationAttempt{},
	)
}
