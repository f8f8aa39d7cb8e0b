package production_test

import (
	"errors"
	"testing"
	"time"

	"pcbtrack-backend/internal/bom"
	"pcbtrack-backend/internal/models"
	"pcbtrack-backend/internal/production"
	"pcbtrack-backend/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	svc      *production.Service
	pcb      models.PCB
	led      models.Component
	resistor models.Component
}

// Blinker kartı: LED x5, Direnç x5; her iki stok 20
func newBlinkerFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)

	f := &fixture{
		db:  db,
		svc: production.NewService(db),
		pcb: models.PCB{Name: "Blinker", Code: "BLK-01"},
		led: models.Component{
			Name: "LED Kırmızı 5mm", PartNumber: "LED-R-5MM",
			CurrentStock: 20, MonthlyRequiredQuantity: 100,
		},
		resistor: models.Component{
			Name: "Direnç 330R", PartNumber: "RES-330",
			CurrentStock: 20, MonthlyRequiredQuantity: 100,
		},
	}

	require.NoError(t, db.Create(&f.pcb).Error)
	require.NoError(t, db.Create(&f.led).Error)
	require.NoError(t, db.Create(&f.resistor).Error)
	require.NoError(t, db.Create(&models.PCBComponent{PCBID: f.pcb.ID, ComponentID: f.led.ID, QuantityPerPCB: 5}).Error)
	require.NoError(t, db.Create(&models.PCBComponent{PCBID: f.pcb.ID, ComponentID: f.resistor.ID, QuantityPerPCB: 5}).Error)

	return f
}

func (f *fixture) currentStock(t *testing.T, componentID uint) int {
	t.Helper()
	var comp models.Component
	require.NoError(t, f.db.First(&comp, "id = ?", componentID).Error)
	return comp.CurrentStock
}

// Senaryo A: 3 adet üretim -> her komponentten 15 düşer, iki tüketim satırı yazılır
func TestCreateEntrySuccess(t *testing.T) {
	f := newBlinkerFixture(t)

	entry, records, err := f.svc.CreateEntry(production.CreateInput{
		PCBID:            f.pcb.ID,
		QuantityProduced: 3,
		UserID:           1,
		Notes:            "ilk parti",
	})
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.NotZero(t, entry.ID)
	assert.Equal(t, 3, entry.QuantityProduced)

	assert.Equal(t, 5, f.currentStock(t, f.led.ID))
	assert.Equal(t, 5, f.currentStock(t, f.resistor.ID))

	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, 15, r.QuantityConsumed)
		assert.Equal(t, 20, r.StockBefore)
		assert.Equal(t, 5, r.StockAfter)
	}

	// Kalıcı tüketim satırları kayıtlarla birebir aynı olmalı (korunum)
	var history []models.ConsumptionHistory
	require.NoError(t, f.db.Where("production_entry_id = ?", entry.ID).Find(&history).Error)
	require.Len(t, history, 2)
	for _, h := range history {
		assert.Equal(t, 15, h.QuantityConsumed)
		assert.Equal(t, 20, h.StockBefore)
		assert.Equal(t, 5, h.StockAfter)
		assert.Equal(t, h.StockBefore-h.QuantityConsumed, h.StockAfter)
	}
}

// Senaryo B: 5 adet üretim -> 25 > 20, çağrı iptal, hiçbir şey yazılmaz
func TestCreateEntryInsufficientStockAborts(t *testing.T) {
	f := newBlinkerFixture(t)

	_, _, err := f.svc.CreateEntry(production.CreateInput{
		PCBID:            f.pcb.ID,
		QuantityProduced: 5,
		UserID:           1,
	})

	var insufficient *production.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Items, 2)
	for _, item := range insufficient.Items {
		assert.Equal(t, 25, item.Required)
		assert.Equal(t, 20, item.Available)
		assert.Equal(t, 5, item.Shortage)
	}

	// Atomiklik: kayıt yok, tüketim satırı yok, stoklar dokunulmamış
	var entryCount, historyCount int64
	f.db.Model(&models.ProductionEntry{}).Count(&entryCount)
	f.db.Model(&models.ConsumptionHistory{}).Count(&historyCount)
	assert.Equal(t, int64(0), entryCount)
	assert.Equal(t, int64(0), historyCount)
	assert.Equal(t, 20, f.currentStock(t, f.led.ID))
	assert.Equal(t, 20, f.currentStock(t, f.resistor.ID))
}

// Atomiklik: tek bir komponent bile yetersizse BOM'un TAMAMI için hiçbir düşüm olmaz
func TestCreateEntryPartialShortageAbortsAll(t *testing.T) {
	f := newBlinkerFixture(t)

	// Direnç stokunu bollaştır, sadece LED yetersiz kalsın
	require.NoError(t, f.db.Model(&models.Component{}).
		Where("id = ?", f.resistor.ID).
		UpdateColumn("current_stock", 1000).Error)

	_, _, err := f.svc.CreateEntry(production.CreateInput{
		PCBID:            f.pcb.ID,
		QuantityProduced: 5,
		UserID:           1,
	})

	var insufficient *production.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Len(t, insufficient.Items, 1)
	assert.Equal(t, "LED Kırmızı 5mm", insufficient.Items[0].ComponentName)
	assert.Equal(t, "LED-R-5MM", insufficient.Items[0].PartNumber)

	// Yeterli olan dirençten de düşüm yapılmamış olmalı
	assert.Equal(t, 1000, f.currentStock(t, f.resistor.ID))
	assert.Equal(t, 20, f.currentStock(t, f.led.ID))
}

func TestCreateEntryEmptyBOM(t *testing.T) {
	db := testdb.Open(t)
	svc := production.NewService(db)

	pcb := models.PCB{Name: "Boş Kart", Code: "EMP-01"}
	require.NoError(t, db.Create(&pcb).Error)

	_, _, err := svc.CreateEntry(production.CreateInput{PCBID: pcb.ID, QuantityProduced: 1, UserID: 1})
	assert.ErrorIs(t, err, bom.ErrEmptyBOM)

	var entryCount int64
	db.Model(&models.ProductionEntry{}).Count(&entryCount)
	assert.Equal(t, int64(0), entryCount)
}

func TestCreateEntryPCBNotFound(t *testing.T) {
	db := testdb.Open(t)
	svc := production.NewService(db)

	_, _, err := svc.CreateEntry(production.CreateInput{PCBID: 4242, QuantityProduced: 1, UserID: 1})
	assert.ErrorIs(t, err, production.ErrPCBNotFound)
}

func TestCreateEntryInvalidQuantity(t *testing.T) {
	f := newBlinkerFixture(t)

	for _, qty := range []int{0, -3} {
		_, _, err := f.svc.CreateEntry(production.CreateInput{PCBID: f.pcb.ID, QuantityProduced: qty, UserID: 1})
		assert.ErrorIs(t, err, production.ErrInvalidQuantity)
	}
}

// quantity_per_pcb = 0 satırı: her zaman yeterli sayılır, düşüm ve tüketim satırı yazılmaz
func TestCreateEntryZeroQuantityLineSkipped(t *testing.T) {
	f := newBlinkerFixture(t)

	jumper := models.Component{Name: "Jumper", PartNumber: "JMP-01", CurrentStock: 0, MonthlyRequiredQuantity: 10}
	require.NoError(t, f.db.Create(&jumper).Error)
	require.NoError(t, f.db.Create(&models.PCBComponent{PCBID: f.pcb.ID, ComponentID: jumper.ID, QuantityPerPCB: 0}).Error)

	entry, records, err := f.svc.CreateEntry(production.CreateInput{PCBID: f.pcb.ID, QuantityProduced: 3, UserID: 1})
	require.NoError(t, err)

	// Stok 0 olmasına rağmen üretim engellenmedi, sıfır miktarlı satır atlandı
	assert.Len(t, records, 2)
	var historyCount int64
	f.db.Model(&models.ConsumptionHistory{}).
		Where("production_entry_id = ? AND component_id = ?", entry.ID, jumper.ID).
		Count(&historyCount)
	assert.Equal(t, int64(0), historyCount)
	assert.Equal(t, 0, f.currentStock(t, jumper.ID))
}

// Senaryo C: düşüm sonrası stok 8, aylık ihtiyaç 100 -> CRITICAL tetikleyici, öneri 192;
// PENDING dururken ikinci düşüm yeni tetikleyici yaratmaz
func TestCreateEntryProcurementTrigger(t *testing.T) {
	db := testdb.Open(t)
	svc := production.NewService(db)

	pcb := models.PCB{Name: "Sensör Kartı", Code: "SNS-01"}
	require.NoError(t, db.Create(&pcb).Error)
	mcu := models.Component{Name: "MCU", PartNumber: "MCU-01", CurrentStock: 10, MonthlyRequiredQuantity: 100}
	require.NoError(t, db.Create(&mcu).Error)
	require.NoError(t, db.Create(&models.PCBComponent{PCBID: pcb.ID, ComponentID: mcu.ID, QuantityPerPCB: 1}).Error)

	_, _, err := svc.CreateEntry(production.CreateInput{PCBID: pcb.ID, QuantityProduced: 2, UserID: 1})
	require.NoError(t, err)

	var triggers []models.ProcurementTrigger
	db.Find(&triggers)
	require.Len(t, triggers, 1)
	assert.Equal(t, models.PriorityCritical, triggers[0].Priority)
	assert.Equal(t, 8, triggers[0].CurrentStock)
	assert.Equal(t, 192, triggers[0].RecommendedOrderQuantity)
	assert.Equal(t, models.TriggerStatusPending, triggers[0].Status)

	// İkinci üretim: stok 8 -> 6, PENDING dururken dedup
	_, _, err = svc.CreateEntry(production.CreateInput{PCBID: pcb.ID, QuantityProduced: 2, UserID: 1})
	require.NoError(t, err)

	var pendingCount int64
	db.Model(&models.ProcurementTrigger{}).
		Where("component_id = ? AND status = ?", mcu.ID, models.TriggerStatusPending).
		Count(&pendingCount)
	assert.Equal(t, int64(1), pendingCount)
}

// Senaryo D: üretimi geri al -> iade mevcut stokun üzerine eklenir, tüketim satırları silinir
func TestDeleteEntryRestoresStock(t *testing.T) {
	f := newBlinkerFixture(t)

	entry, _, err := f.svc.CreateEntry(production.CreateInput{PCBID: f.pcb.ID, QuantityProduced: 3, UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, f.currentStock(t, f.led.ID))

	deleted, err := f.svc.DeleteEntry(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, deleted.ID)

	// Araya başka üretim girmediği için stoklar başlangıç değerine döner
	assert.Equal(t, 20, f.currentStock(t, f.led.ID))
	assert.Equal(t, 20, f.currentStock(t, f.resistor.ID))

	var historyCount, entryCount int64
	f.db.Model(&models.ConsumptionHistory{}).Where("production_entry_id = ?", entry.ID).Count(&historyCount)
	f.db.Model(&models.ProductionEntry{}).Count(&entryCount)
	assert.Equal(t, int64(0), historyCount)
	assert.Equal(t, int64(0), entryCount)
}

// İade tarihsel snapshot'a dönüş değildir: araya giren üretimden sonra
// geri alma, o anki stokun üzerine quantity_consumed ekler
func TestDeleteEntryAdditiveRestitution(t *testing.T) {
	f := newBlinkerFixture(t)

	first, _, err := f.svc.CreateEntry(production.CreateInput{PCBID: f.pcb.ID, QuantityProduced: 2, UserID: 1})
	require.NoError(t, err) // 20 -> 10

	_, _, err = f.svc.CreateEntry(production.CreateInput{PCBID: f.pcb.ID, QuantityProduced: 1, UserID: 1})
	require.NoError(t, err) // 10 -> 5

	_, err = f.svc.DeleteEntry(first.ID)
	require.NoError(t, err)

	// 5 + 10 = 15 (20'ye değil)
	assert.Equal(t, 15, f.currentStock(t, f.led.ID))
}

func TestDeleteEntryNotFound(t *testing.T) {
	db := testdb.Open(t)
	svc := production.NewService(db)

	_, err := svc.DeleteEntry(9999)
	assert.ErrorIs(t, err, production.ErrEntryNotFound)
}

// Geri alma, üretimin yarattığı tedarik tetikleyicilerini geri çekmez
func TestDeleteEntryKeepsTriggers(t *testing.T) {
	db := testdb.Open(t)
	svc := production.NewService(db)

	pcb := models.PCB{Name: "Güç Kartı", Code: "PWR-01"}
	require.NoError(t, db.Create(&pcb).Error)
	reg := models.Component{Name: "Regülatör", PartNumber: "REG-01", CurrentStock: 10, MonthlyRequiredQuantity: 100}
	require.NoError(t, db.Create(&reg).Error)
	require.NoError(t, db.Create(&models.PCBComponent{PCBID: pcb.ID, ComponentID: reg.ID, QuantityPerPCB: 3}).Error)

	entry, _, err := svc.CreateEntry(production.CreateInput{PCBID: pcb.ID, QuantityProduced: 2, UserID: 1})
	require.NoError(t, err) // stok 4 -> CRITICAL tetikleyici

	var before int64
	db.Model(&models.ProcurementTrigger{}).Count(&before)
	require.Equal(t, int64(1), before)

	_, err = svc.DeleteEntry(entry.ID)
	require.NoError(t, err)

	var after int64
	db.Model(&models.ProcurementTrigger{}).Count(&after)
	assert.Equal(t, int64(1), after)
}

func TestPreview(t *testing.T) {
	f := newBlinkerFixture(t)

	// Yeterli senaryo
	result, err := f.svc.Preview(f.pcb.ID, 3)
	require.NoError(t, err)
	assert.True(t, result.CanProduce)
	require.Len(t, result.Components, 2)
	assert.Empty(t, result.InsufficientComponents)
	for _, line := range result.Components {
		assert.Equal(t, 15, line.TotalRequired)
		assert.Equal(t, 5, line.StockAfter)
		assert.True(t, line.Sufficient)
	}

	// Yetersiz senaryo: hiçbir şey değişmemiş olmalı (salt okuma)
	result, err = f.svc.Preview(f.pcb.ID, 5)
	require.NoError(t, err)
	assert.False(t, result.CanProduce)
	assert.Len(t, result.InsufficientComponents, 2)
	assert.Equal(t, 20, f.currentStock(t, f.led.ID))

	var entryCount int64
	f.db.Model(&models.ProductionEntry{}).Count(&entryCount)
	assert.Equal(t, int64(0), entryCount)
}

func TestPreviewErrors(t *testing.T) {
	db := testdb.Open(t)
	svc := production.NewService(db)

	_, err := svc.Preview(4242, 1)
	assert.ErrorIs(t, err, production.ErrPCBNotFound)

	pcb := models.PCB{Name: "Boş Kart", Code: "EMP-02"}
	require.NoError(t, db.Create(&pcb).Error)
	_, err = svc.Preview(pcb.ID, 1)
	assert.ErrorIs(t, err, bom.ErrEmptyBOM)

	_, err = svc.Preview(pcb.ID, 0)
	assert.ErrorIs(t, err, production.ErrInvalidQuantity)
}

// Üretim/geri alma dizilerinde stok hiçbir zaman negatif gözlemlenmez
func TestNonNegativityUnderSequences(t *testing.T) {
	f := newBlinkerFixture(t)

	var entries []uint
	for i := 0; i < 10; i++ {
		entry, _, err := f.svc.CreateEntry(production.CreateInput{PCBID: f.pcb.ID, QuantityProduced: 1, UserID: 1})
		if err != nil {
			var insufficient *production.InsufficientStockError
			require.True(t, errors.As(err, &insufficient), "beklenmeyen hata: %v", err)
		} else {
			entries = append(entries, entry.ID)
		}

		assert.GreaterOrEqual(t, f.currentStock(t, f.led.ID), 0)
		assert.GreaterOrEqual(t, f.currentStock(t, f.resistor.ID), 0)
	}

	// 20/5 = 4 üretim sığar
	assert.Len(t, entries, 4)
	assert.Equal(t, 0, f.currentStock(t, f.led.ID))

	for _, id := range entries {
		_, err := f.svc.DeleteEntry(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, f.currentStock(t, f.led.ID), 0)
	}
	assert.Equal(t, 20, f.currentStock(t, f.led.ID))
}

func TestProductionDateDefaultsToNow(t *testing.T) {
	f := newBlinkerFixture(t)

	before := time.Now().Add(-time.Minute)
	entry, _, err := f.svc.CreateEntry(production.CreateInput{PCBID: f.pcb.ID, QuantityProduced: 1, UserID: 1})
	require.NoError(t, err)
	assert.True(t, entry.ProductionDate.After(before))
}
