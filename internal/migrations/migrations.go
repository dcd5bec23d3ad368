// Package migrations keeps the database schema up to date.
package migrations

import (
	"fmt"

	"github.com/vpsbridge/vpsbridge/internal/model"
	"gorm.io/gorm"
)

// Migrate runs all schema migrations.
// Migrations should ideally be decoupled from server startup, but for the
// user's convenience they are run as part of the start command for now.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.ToolCall{}); err != nil {
		return fmt.Errorf("failed to migrate tool call log: %w", err)
	}
	return nil
}
