package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/maia-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("running migrations")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("migration failed", "error", err)
		return err
	}
	return nil
}
