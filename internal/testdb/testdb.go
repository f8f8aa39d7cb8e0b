package testdb

import (
	"testing"

	"pcbtrack-backend/internal/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open: Testler için bellek içi sqlite veritabanı açar ve şemayı kurar.
// Tek bağlantıya sabitlenir, yoksa havuzdaki her bağlantı ayrı bir
// :memory: veritabanı görür.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB alınamadı: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("test şeması kurulamadı: %v", err)
	}

	return db
}
