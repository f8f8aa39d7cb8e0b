package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Component: Elektronik komponent (direnç, LED, entegre vs.)
// current_stock sadece stok defteri üzerinden değişir, negatif olamaz (check constraint)
type Component struct {
	ID                      uint            `gorm:"primaryKey"`
	Name                    string          `gorm:"size:150;not null;index"`
	PartNumber              string          `gorm:"size:100;not null;uniqueIndex"` // parça numarası, benzersiz
	CurrentStock            int             `gorm:"not null;default:0;check:current_stock >= 0"`
	MonthlyRequiredQuantity int             `gorm:"not null"` // aylık ihtiyaç (adet), > 0
	Category                string          `gorm:"size:100;index"`
	Supplier                string          `gorm:"size:150"`
	UnitPrice               decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// StockRatio: current_stock / monthly_required_quantity
// Düşük stok önceliği bu orana göre hesaplanır
func (c *Component) StockRatio() float64 {
	if c.MonthlyRequiredQuantity <= 0 {
		return 0
	}
	return float64(c.CurrentStock) / float64(c.MonthlyRequiredQuantity)
}
