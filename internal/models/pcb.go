package models

import "time"

type PCB struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:150;not null"`
	Code        string `gorm:"size:100;not null;uniqueIndex"` // PCB kodu, benzersiz
	Description string `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PCBComponent: BOM satırı (PCB <-> Component eşlemesi)
// (pcb_id, component_id) çifti benzersiz; üretim çekirdeği bu tabloyu sadece okur
type PCBComponent struct {
	ID             uint `gorm:"primaryKey"`
	PCBID          uint `gorm:"not null;uniqueIndex:idx_pcb_component"`
	PCB            PCB  `gorm:"foreignKey:PCBID"`
	ComponentID    uint `gorm:"not null;uniqueIndex:idx_pcb_component"`
	Component      Component
	QuantityPerPCB int `gorm:"not null"` // 1 adet PCB için tüketilen komponent adedi
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
