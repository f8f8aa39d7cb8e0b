package stock

import (
	"errors"
	"fmt"

	"pcbtrack-backend/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrInsufficientStock: Düşülmek istenen miktar mevcut stoktan büyük
	ErrInsufficientStock = errors.New("stok yetersiz")
	// ErrComponentNotFound: Komponent kaydı yok
	ErrComponentNotFound = errors.New("komponent bulunamadı")
)

// Deduct: Komponent stokundan quantity kadar düşer, (önceki, sonraki) stok değerlerini döner.
// Güvence iki katmanlı: UPDATE'in WHERE koşulu stok yetersizse hiç satır etkilemez,
// tablodaki check constraint de (current_stock >= 0) son savunma hattıdır.
// Sadece üretim koordinatörünün transaction'ı içinden çağrılır; eşzamanlı iki üretim
// aynı komponentte bu satır yazısında sıralanır, kaybeden taraf ErrInsufficientStock alır
// ve transaction'ın tamamı geri alınır.
func Deduct(tx *gorm.DB, componentID uint, quantity int) (stockBefore int, stockAfter int, err error) {
	if quantity < 0 {
		return 0, 0, fmt.Errorf("negatif miktar düşülemez: %d", quantity)
	}

	res := tx.Model(&models.Component{}).
		Where("id = ? AND current_stock >= ?", componentID, quantity).
		UpdateColumn("current_stock", gorm.Expr("current_stock - ?", quantity))
	if res.Error != nil {
		return 0, 0, res.Error
	}

	if res.RowsAffected == 0 {
		// Komponent mi yok, stok mu yetersiz ayır
		var count int64
		if err := tx.Model(&models.Component{}).Where("id = ?", componentID).Count(&count).Error; err != nil {
			return 0, 0, err
		}
		if count == 0 {
			return 0, 0, ErrComponentNotFound
		}
		return 0, 0, ErrInsufficientStock
	}

	stockAfter, err = Current(tx, componentID)
	if err != nil {
		return 0, 0, err
	}
	return stockAfter + quantity, stockAfter, nil
}

// Restore: Stok iadesi, sadece üretim kaydı geri alınırken kullanılır.
// İade, geri alma anındaki mevcut stokun üzerine eklenir (tarihsel snapshot'a dönüş değil).
func Restore(tx *gorm.DB, componentID uint, quantity int) (stockAfter int, err error) {
	if quantity < 0 {
		return 0, fmt.Errorf("negatif miktar iade edilemez: %d", quantity)
	}

	res := tx.Model(&models.Component{}).
		Where("id = ?", componentID).
		UpdateColumn("current_stock", gorm.Expr("current_stock + ?", quantity))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrComponentNotFound
	}

	return Current(tx, componentID)
}

// Current: Anlık stok değeri
func Current(db *gorm.DB, componentID uint) (int, error) {
	var component models.Component
	if err := db.Select("current_stock").First(&component, "id = ?", componentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrComponentNotFound
		}
		return 0, err
	}
	return component.CurrentStock, nil
}
