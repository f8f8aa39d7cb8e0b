package models

import "time"

// ProductionEntry: Üretim kaydı
// Oluşturulduktan sonra değiştirilemez; sadece komple silinebilir (silme = stok iadesi)
type ProductionEntry struct {
	ID               uint `gorm:"primaryKey"`
	PCBID            uint `gorm:"index;not null"`
	PCB              PCB  `gorm:"foreignKey:PCBID"`
	QuantityProduced int  `gorm:"not null"` // üretilen adet, > 0
	ProductionDate   time.Time `gorm:"index;not null"`
	UserID           uint      `gorm:"index"`
	User             User
	Notes            string `gorm:"size:500"`
	CreatedAt        time.Time
}

// ConsumptionHistory: Tüketim defteri satırı (append-only)
// Her stok düşümü için bir satır; sadece sahibi olan üretim kaydının
// geri alınması sırasında silinir
type ConsumptionHistory struct {
	ID                uint `gorm:"primaryKey"`
	ComponentID       uint `gorm:"index;not null"`
	Component         Component
	ProductionEntryID uint            `gorm:"index;not null"`
	ProductionEntry   ProductionEntry `gorm:"foreignKey:ProductionEntryID"`
	QuantityConsumed  int             `gorm:"not null"`
	StockBefore       int             `gorm:"not null"`
	StockAfter        int             `gorm:"not null"`
	ConsumedAt        time.Time       `gorm:"index;not null;autoCreateTime"`
}

// Tablo adı tekil: consumption_history bir defterdir, çoğullama anlamı bozuyor
func (ConsumptionHistory) TableName() string {
	return "consumption_history"
}
