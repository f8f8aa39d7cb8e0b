package database

import (
	"pcbtrack-backend/internal/config"
	"pcbtrack-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	logger := config.GetLogger()

	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logger.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		logger.Fatalf("Migration hatası: %v", err)
	}

	logger.Info("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate: Tablo şemalarını kurar. Test veritabanı da aynı şemayı kullanır.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Component{},
		&models.PCB{},
		&models.PCBComponent{},
		&models.ProductionEntry{},
		&models.ConsumptionHistory{},
		&models.ProcurementTrigger{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	// current_stock >= 0 yapısal güvence: koordinatördeki bir hata bile stoku
	// negatife düşüremesin. AutoMigrate mevcut tabloya check eklemeyebiliyor,
	// o yüzden burada elle garanti ediyoruz.
	if db.Dialector.Name() == "postgres" {
		db.Exec(`ALTER TABLE components DROP CONSTRAINT IF EXISTS chk_components_current_stock`)
		if err := db.Exec(`ALTER TABLE components ADD CONSTRAINT chk_components_current_stock CHECK (current_stock >= 0)`).Error; err != nil {
			return err
		}
	}

	return nil
}
