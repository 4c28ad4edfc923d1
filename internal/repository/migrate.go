package repository

import (
	"fmt"

	"github.com/SundayYogurt/rote_service/internal/domain"
	"gorm.io/gorm"
)

// Migrate creates or updates every table this service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Rote{},
		&domain.Attachment{},
		&domain.Reaction{},
		&domain.ChangeRecord{},
		&domain.ChangeDispatchCursor{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
