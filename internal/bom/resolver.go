package bom

import (
	"errors"

	"pcbtrack-backend/internal/models"

	"gorm.io/gorm"
)

// ErrEmptyBOM: PCB'ye hiç komponent eşlenmemiş, üretim başlatılamaz
var ErrEmptyBOM = errors.New("PCB'nin BOM listesi boş")

// Line: Çözümlenmiş bir BOM satırı (komponent meta bilgisiyle birlikte)
type Line struct {
	ComponentID             uint
	ComponentName           string
	PartNumber              string
	CurrentStock            int
	MonthlyRequiredQuantity int
	QuantityPerPCB          int
}

// Resolve: PCB'nin BOM satırlarını komponent adına göre sıralı döner.
// Sıralama sadece deterministik çıktı için; düşüm algoritması satırları küme olarak işler.
// Salt okuma, yan etkisi yok. Koordinatör bunu kendi transaction'ı içinden çağırır ki
// stok değerleri aynı izolasyon altında okunsun.
func Resolve(db *gorm.DB, pcbID uint) ([]Line, error) {
	var lines []Line
	err := db.Model(&models.PCBComponent{}).
		Select(`pcb_components.component_id,
			components.name AS component_name,
			components.part_number,
			components.current_stock,
			components.monthly_required_quantity,
			pcb_components.quantity_per_pcb`).
		Joins("JOIN components ON components.id = pcb_components.component_id").
		Where("pcb_components.pcb_id = ?", pcbID).
		Order("components.name ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}

	if len(lines) == 0 {
		return nil, ErrEmptyBOM
	}

	return lines, nil
}
