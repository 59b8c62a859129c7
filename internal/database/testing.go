package database

import (
	"context"
	"fmt"
	"time"

	"inventory/internal/config"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OpenInMemory opens a private in-memory SQLite database with both schemas
// migrated. Each call gets its own database.
func OpenInMemory() (*gorm.DB, error) {
	cfg := config.DatabaseConfig{
		Driver:          config.DriverSQLite,
		DSN:             fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxIdleTime: time.Hour,
	}
	db, err := Open(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	if err := MigrateUsers(db); err != nil {
		return nil, err
	}
	if err := MigrateProducts(db); err != nil {
		return nil, err
	}
	return db, nil
}
