package production

import (
	"errors"
	"fmt"
	"time"

	"pcbtrack-backend/internal/bom"
	"pcbtrack-backend/internal/models"
	"pcbtrack-backend/internal/procurement"
	"pcbtrack-backend/internal/stock"

	"gorm.io/gorm"
)

var (
	// ErrEntryNotFound: Üretim kaydı yok
	ErrEntryNotFound = errors.New("üretim kaydı bulunamadı")
	// ErrPCBNotFound: PCB kaydı yok
	ErrPCBNotFound = errors.New("PCB bulunamadı")
	// ErrInvalidQuantity: Üretim adedi pozitif tam sayı olmalı
	ErrInvalidQuantity = errors.New("üretim adedi pozitif olmalı")
)

// ShortageItem: Yetersiz stoklu bir komponentin eksik dökümü
type ShortageItem struct {
	ComponentName string `json:"component_name"`
	PartNumber    string `json:"part_number"`
	Required      int    `json:"required"`
	Available     int    `json:"available"`
	Shortage      int    `json:"shortage"`
}

// InsufficientStockError: BOM'daki bir veya daha fazla satır için stok yetersiz.
// Üretim hiç başlamaz; hata, eksik listesinin tamamını taşır.
type InsufficientStockError struct {
	Items []ShortageItem
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("üretim için stok yetersiz (%d komponent eksik)", len(e.Items))
}

// ConsumptionRecord: Başarılı üretimde komponent başına düşüm özeti
type ConsumptionRecord struct {
	ComponentID      uint   `json:"component_id"`
	ComponentName    string `json:"component_name"`
	PartNumber       string `json:"part_number"`
	QuantityConsumed int    `json:"quantity_consumed"`
	StockBefore      int    `json:"stock_before"`
	StockAfter       int    `json:"stock_after"`
}

// CreateInput: "P PCB'sinden N adet üret" isteği
type CreateInput struct {
	PCBID            uint
	QuantityProduced int
	ProductionDate   time.Time
	UserID           uint
	Notes            string
}

// Service: Üretim koordinatörü. Tüm stok mutasyonları bu tek yoldan geçer;
// her işlem tek bir veritabanı transaction'ı olarak çalışır.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateEntry: Üretim kaydı oluşturur ve stokları atomik olarak düşer.
//
// Akış: BOM çözümle -> her satır için stok yeterliliğini aynı transaction içinde
// doğrula -> üretim kaydını ekle -> her satır için düş + tüketim satırı yaz +
// tedarik tetikleyicisini değerlendir -> commit.
// Herhangi bir adım başarısız olursa transaction'ın tamamı geri alınır;
// kısmi düşüm hiçbir zaman gözlemlenemez (satır başına değil, BOM'un tamamı için
// ya hep ya hiç).
func (s *Service) CreateEntry(input CreateInput) (*models.ProductionEntry, []ConsumptionRecord, error) {
	// Dış doğrulama katmanı da kontrol ediyor ama burada tekrar kontrol şart
	if input.QuantityProduced <= 0 {
		return nil, nil, ErrInvalidQuantity
	}

	var entry models.ProductionEntry
	var records []ConsumptionRecord

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var pcb models.PCB
		if err := tx.First(&pcb, "id = ?", input.PCBID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPCBNotFound
			}
			return err
		}

		lines, err := bom.Resolve(tx, input.PCBID)
		if err != nil {
			return err
		}

		// Yeterlilik kontrolü: stok değerleri yukarıda aynı transaction içinde okundu,
		// bayat okuma yarışına girmemek için dışarıdan gelen değer kullanılmaz.
		// Eksikler tek tek değil, komple liste olarak raporlanır.
		var shortages []ShortageItem
		for _, line := range lines {
			totalRequired := line.QuantityPerPCB * input.QuantityProduced
			if line.CurrentStock < totalRequired {
				shortages = append(shortages, ShortageItem{
					ComponentName: line.ComponentName,
					PartNumber:    line.PartNumber,
					Required:      totalRequired,
					Available:     line.CurrentStock,
					Shortage:      totalRequired - line.CurrentStock,
				})
			}
		}
		if len(shortages) > 0 {
			return &InsufficientStockError{Items: shortages}
		}

		productionDate := input.ProductionDate
		if productionDate.IsZero() {
			productionDate = time.Now()
		}

		entry = models.ProductionEntry{
			PCBID:            input.PCBID,
			QuantityProduced: input.QuantityProduced,
			ProductionDate:   productionDate,
			UserID:           input.UserID,
			Notes:            input.Notes,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		for _, line := range lines {
			totalRequired := line.QuantityPerPCB * input.QuantityProduced
			if totalRequired == 0 {
				// quantity_per_pcb = 0 satırı: düşüm yok, sıfır miktarlı tüketim
				// satırıyla denetim kaydını kirletmiyoruz
				continue
			}

			stockBefore, stockAfter, err := stock.Deduct(tx, line.ComponentID, totalRequired)
			if err != nil {
				return err
			}

			history := models.ConsumptionHistory{
				ComponentID:       line.ComponentID,
				ProductionEntryID: entry.ID,
				QuantityConsumed:  totalRequired,
				StockBefore:       stockBefore,
				StockAfter:        stockAfter,
			}
			if err := tx.Create(&history).Error; err != nil {
				return err
			}

			records = append(records, ConsumptionRecord{
				ComponentID:      line.ComponentID,
				ComponentName:    line.ComponentName,
				PartNumber:       line.PartNumber,
				QuantityConsumed: totalRequired,
				StockBefore:      stockBefore,
				StockAfter:       stockAfter,
			})

			// Düşüm sonrası stok eşiğin altına indiyse tedarik tetikleyicisi
			if _, err := procurement.Evaluate(tx, line.ComponentID, stockAfter, line.MonthlyRequiredQuantity); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &entry, records, nil
}

// DeleteEntry: Üretim kaydını geri alır: tüketilen miktarlar stoka iade edilir,
// tüketim satırları ve üretim kaydı silinir. İade, geri alma anındaki stokun
// üzerine eklenir; araya başka üretimler girdiyse tarihsel stock_before değerine
// dönülmez (kasıtlı: geri alma bir iade işlemidir, snapshot'a rollback değil).
// Üretimin yan etkisi olarak oluşmuş tedarik tetikleyicileri geri çekilmez,
// elle çözülene kadar kalırlar.
func (s *Service) DeleteEntry(entryID uint) (*models.ProductionEntry, error) {
	var entry models.ProductionEntry

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entry, "id = ?", entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return err
		}

		var history []models.ConsumptionHistory
		if err := tx.Where("production_entry_id = ?", entryID).Find(&history).Error; err != nil {
			return err
		}

		// Kayıt var ama tüketim satırı yoksa (meşru ama sıra dışı bir durum,
		// ör. tamamı sıfır miktarlı BOM) stok değişmeden sadece kayıt silinir
		for _, record := range history {
			if _, err := stock.Restore(tx, record.ComponentID, record.QuantityConsumed); err != nil {
				return err
			}
		}

		if err := tx.Where("production_entry_id = ?", entryID).Delete(&models.ConsumptionHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.ProductionEntry{}, "id = ?", entryID).Error; err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// PreviewLine: Önizlemede satır başına projeksiyon
type PreviewLine struct {
	ComponentID    uint   `json:"component_id"`
	ComponentName  string `json:"component_name"`
	PartNumber     string `json:"part_number"`
	CurrentStock   int    `json:"current_stock"`
	QuantityPerPCB int    `json:"quantity_per_pcb"`
	TotalRequired  int    `json:"total_required"`
	StockAfter     int    `json:"stock_after"`
	Sufficient     bool   `json:"sufficient"`
}

// PreviewResult: Üretim önizlemesi çıktısı
type PreviewResult struct {
	CanProduce             bool          `json:"can_produce"`
	Components             []PreviewLine `json:"components"`
	InsufficientComponents []PreviewLine `json:"insufficient_components"`
	TotalComponents        int           `json:"total_components"`
}

// Preview: Hiçbir şeyi değiştirmeden üretimin stok etkisini hesaplar.
// Çağıranlar mutasyon yolunu deneme amaçlı çağırmak yerine bunu kullanır.
func (s *Service) Preview(pcbID uint, quantityProduced int) (*PreviewResult, error) {
	if quantityProduced <= 0 {
		return nil, ErrInvalidQuantity
	}

	var pcb models.PCB
	if err := s.db.First(&pcb, "id = ?", pcbID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPCBNotFound
		}
		return nil, err
	}

	lines, err := bom.Resolve(s.db, pcbID)
	if err != nil {
		return nil, err
	}

	result := PreviewResult{
		CanProduce:      true,
		Components:      make([]PreviewLine, 0, len(lines)),
		TotalComponents: len(lines),
	}
	for _, line := range lines {
		totalRequired := line.QuantityPerPCB * quantityProduced
		preview := PreviewLine{
			ComponentID:    line.ComponentID,
			ComponentName:  line.ComponentName,
			PartNumber:     line.PartNumber,
			CurrentStock:   line.CurrentStock,
			QuantityPerPCB: line.QuantityPerPCB,
			TotalRequired:  totalRequired,
			StockAfter:     line.CurrentStock - totalRequired,
			Sufficient:     line.CurrentStock >= totalRequired,
		}
		result.Components = append(result.Components, preview)
		if !preview.Sufficient {
			result.CanProduce = false
			result.InsufficientComponents = append(result.InsufficientComponents, preview)
		}
	}

	return &result, nil
}
