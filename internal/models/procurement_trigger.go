package models

import "time"

type TriggerPriority string

const (
	PriorityCritical TriggerPriority = "CRITICAL"
	PriorityHigh     TriggerPriority = "HIGH"
	PriorityMedium   TriggerPriority = "MEDIUM"
	PriorityLow      TriggerPriority = "LOW"
)

type TriggerStatus string

const (
	TriggerStatusPending   TriggerStatus = "PENDING"
	TriggerStatusOrdered   TriggerStatus = "ORDERED"
	TriggerStatusFulfilled TriggerStatus = "FULFILLED"
)

// ValidTriggerStatus: Enum dışı değerleri sınırda reddetmek için
func ValidTriggerStatus(s TriggerStatus) bool {
	switch s {
	case TriggerStatusPending, TriggerStatusOrdered, TriggerStatusFulfilled:
		return true
	}
	return false
}

// ProcurementTrigger: Tedarik uyarısı
// Bir komponent için aynı anda en fazla bir PENDING kayıt bulunur (insert öncesi dedup zorunlu)
type ProcurementTrigger struct {
	ID                       uint `gorm:"primaryKey"`
	ComponentID              uint `gorm:"index;not null"`
	Component                Component
	CurrentStock             int             `gorm:"not null"` // tetikleme anındaki stok (snapshot)
	MonthlyRequired          int             `gorm:"not null"` // tetikleme anındaki aylık ihtiyaç (snapshot)
	RecommendedOrderQuantity int             `gorm:"not null"`
	Priority                 TriggerPriority `gorm:"size:20;not null"`
	Status                   TriggerStatus   `gorm:"size:20;not null;default:PENDING;index"`
	TriggeredAt              time.Time       `gorm:"autoCreateTime"`
	ResolvedAt               *time.Time // sadece FULFILLED durumunda dolu
}
