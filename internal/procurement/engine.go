package procurement

import (
	"errors"
	"time"

	"pcbtrack-backend/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrTriggerNotFound: Tetikleyici kaydı yok
	ErrTriggerNotFound = errors.New("tedarik tetikleyicisi bulunamadı")
	// ErrInvalidStatus: Enum dışı veya geriye doğru durum geçişi
	ErrInvalidStatus = errors.New("geçersiz tetikleyici durumu")
	// ErrPendingTriggerExists: Komponent için zaten bekleyen bir tetikleyici var
	ErrPendingTriggerExists = errors.New("komponent için bekleyen tetikleyici zaten var")
)

// Eşikler stok oranına göre (oran = stok / aylık ihtiyaç, düşük oran = daha acil):
// < 0.10 CRITICAL, < 0.15 HIGH, < 0.20 MEDIUM, >= 0.20 tetikleme yok.
const triggerThresholdRatio = 0.20

// PriorityForRatio: Stok oranından öncelik hesaplar.
// Oran eşiğin üstündeyse LOW döner (sadece manuel tetikleyicilerde kullanılır).
func PriorityForRatio(ratio float64) models.TriggerPriority {
	switch {
	case ratio < 0.10:
		return models.PriorityCritical
	case ratio < 0.15:
		return models.PriorityHigh
	case ratio < 0.20:
		return models.PriorityMedium
	}
	return models.PriorityLow
}

// RecommendedOrderQuantity: İki aylık ihtiyacı tamamlayacak sipariş miktarı
func RecommendedOrderQuantity(currentStock, monthlyRequired int) int {
	rec := monthlyRequired*2 - currentStock
	if rec < 0 {
		return 0
	}
	return rec
}

// Evaluate: Stok düşüren bir işlem sonrasında tetikleyici gerekip gerekmediğine karar verir.
// Oran eşiğin üstündeyse veya komponent için zaten PENDING bir tetikleyici varsa hiçbir şey
// yapmaz (dedup; mevcut tetikleyicinin önceliği/miktarı tazelenmez, bilinen bir tavizdir).
// Aksi halde hesaplanan öncelik ve önerilen miktarla yeni bir PENDING kayıt ekler.
// Çağıranın transaction'ı içinde çalışır; dönen kayıt nil ise tetikleme yapılmamıştır.
func Evaluate(tx *gorm.DB, componentID uint, currentStock, monthlyRequired int) (*models.ProcurementTrigger, error) {
	if monthlyRequired <= 0 {
		return nil, nil
	}

	ratio := float64(currentStock) / float64(monthlyRequired)
	if ratio >= triggerThresholdRatio {
		return nil, nil
	}

	exists, err := hasPendingTrigger(tx, componentID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	trigger := models.ProcurementTrigger{
		ComponentID:              componentID,
		CurrentStock:             currentStock,
		MonthlyRequired:          monthlyRequired,
		RecommendedOrderQuantity: RecommendedOrderQuantity(currentStock, monthlyRequired),
		Priority:                 PriorityForRatio(ratio),
		Status:                   models.TriggerStatusPending,
	}
	if err := tx.Create(&trigger).Error; err != nil {
		return nil, err
	}

	return &trigger, nil
}

// Dedup: bir komponent için aynı anda en fazla bir PENDING tetikleyici
func hasPendingTrigger(db *gorm.DB, componentID uint) (bool, error) {
	var existing int64
	if err := db.Model(&models.ProcurementTrigger{}).
		Where("component_id = ? AND status = ?", componentID, models.TriggerStatusPending).
		Count(&existing).Error; err != nil {
		return false, err
	}
	return existing > 0, nil
}

var statusRank = map[models.TriggerStatus]int{
	models.TriggerStatusPending:   0,
	models.TriggerStatusOrdered:   1,
	models.TriggerStatusFulfilled: 2,
}

// UpdateStatus: Tetikleyici durumunu günceller. Durum sadece ileri gider
// (PENDING -> ORDERED -> FULFILLED); FULFILLED olduğunda resolved_at damgalanır.
func UpdateStatus(db *gorm.DB, triggerID uint, newStatus models.TriggerStatus) (*models.ProcurementTrigger, error) {
	if !models.ValidTriggerStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	var trigger models.ProcurementTrigger
	if err := db.First(&trigger, "id = ?", triggerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTriggerNotFound
		}
		return nil, err
	}

	if statusRank[newStatus] < statusRank[trigger.Status] {
		return nil, ErrInvalidStatus
	}

	trigger.Status = newStatus
	if newStatus == models.TriggerStatusFulfilled {
		now := time.Now()
		trigger.ResolvedAt = &now
	}

	if err := db.Save(&trigger).Error; err != nil {
		return nil, err
	}

	return &trigger, nil
}

// CreateManual: Elle tetikleyici oluşturur (dashboard'dan). Eşik kontrolü yapılmaz,
// eşiğin üstündeki komponentler LOW öncelik alır. Bekleyen tetikleyici varken
// ikinci bir kayıt açılmaz, ErrPendingTriggerExists döner.
func CreateManual(db *gorm.DB, component *models.Component) (*models.ProcurementTrigger, error) {
	exists, err := hasPendingTrigger(db, component.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrPendingTriggerExists
	}

	trigger := models.ProcurementTrigger{
		ComponentID:              component.ID,
		CurrentStock:             component.CurrentStock,
		MonthlyRequired:          component.MonthlyRequiredQuantity,
		RecommendedOrderQuantity: RecommendedOrderQuantity(component.CurrentStock, component.MonthlyRequiredQuantity),
		Priority:                 PriorityForRatio(component.StockRatio()),
		Status:                   models.TriggerStatusPending,
	}
	if err := db.Create(&trigger).Error; err != nil {
		return nil, err
	}
	return &trigger, nil
}
