package dashboard_test

import (
	"testing"
	"time"

	"pcbtrack-backend/internal/dashboard"
	"pcbtrack-backend/internal/models"
	"pcbtrack-backend/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/gorm"
)

func seedConsumption(t *testing.T, db *gorm.DB, componentID uint, at time.Time, qty int) {
	t.Helper()
	row := models.ConsumptionHistory{
		ComponentID:       componentID,
		ProductionEntryID: 1,
		QuantityConsumed:  qty,
		StockBefore:       1000,
		StockAfter:        1000 - qty,
		ConsumedAt:        at,
	}
	require.NoError(t, db.Create(&row).Error)
}

func TestDetectAnomalyFlagsAggregateSpike(t *testing.T) {
	db := testdb.Open(t)

	comp := models.Component{Name: "Kondansatör 100uF", PartNumber: "CAP-100", CurrentStock: 500, MonthlyRequiredQuantity: 300}
	require.NoError(t, db.Create(&comp).Error)

	now := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

	// Son 30 günde toplam 300 adet, günlük ortalama 10
	for i := 1; i <= 30; i++ {
		seedConsumption(t, db, comp.ID, now.AddDate(0, 0, -i), 10)
	}
	// Bugün 16 adet: 16 > 1.5 * 10
	seedConsumption(t, db, comp.ID, now, 16)

	report, err := dashboard.DetectAnomaly(db, now)
	require.NoError(t, err)

	assert.True(t, report.IsAnomaly)
	assert.Equal(t, int64(16), report.TodayTotal)
	assert.InDelta(t, 10.0, report.DailyAverage, 0.001)
	assert.Equal(t, "2026-08-31", report.Date)
}

func TestDetectAnomalyAggregatesAcrossComponents(t *testing.T) {
	db := testdb.Open(t)

	heavy := models.Component{Name: "Direnç 1k", PartNumber: "RES-1K", CurrentStock: 5000, MonthlyRequiredQuantity: 3000}
	light := models.Component{Name: "Röle 5V", PartNumber: "RLY-5", CurrentStock: 500, MonthlyRequiredQuantity: 300}
	require.NoError(t, db.Create(&heavy).Error)
	require.NoError(t, db.Create(&light).Error)

	now := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

	// Toplam günlük ortalama 110 (100 + 10)
	for i := 1; i <= 30; i++ {
		seedConsumption(t, db, heavy.ID, now.AddDate(0, 0, -i), 100)
		seedConsumption(t, db, light.ID, now.AddDate(0, 0, -i), 10)
	}
	// Bugün sadece küçük komponent tüketilmiş: kendi ortalamasına göre yüksek
	// olsa da toplam 16 << 1.5 * 110, anomali değil
	seedConsumption(t, db, light.ID, now, 16)

	report, err := dashboard.DetectAnomaly(db, now)
	require.NoError(t, err)

	assert.False(t, report.IsAnomaly)
	assert.Equal(t, int64(16), report.TodayTotal)
	assert.InDelta(t, 110.0, report.DailyAverage, 0.001)
}

func TestDetectAnomalyExactBoundaryNotFlagged(t *testing.T) {
	db := testdb.Open(t)

	comp := models.Component{Name: "Direnç 10k", PartNumber: "RES-10K", CurrentStock: 500, MonthlyRequiredQuantity: 300}
	require.NoError(t, db.Create(&comp).Error)

	now := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

	for i := 1; i <= 30; i++ {
		seedConsumption(t, db, comp.ID, now.AddDate(0, 0, -i), 10)
	}
	// Tam 1.5 kat sınırdadır, anomali değildir
	seedConsumption(t, db, comp.ID, now, 15)

	report, err := dashboard.DetectAnomaly(db, now)
	require.NoError(t, err)
	assert.False(t, report.IsAnomaly)
}

func TestDetectAnomalyNoHistoryNoAnomaly(t *testing.T) {
	db := testdb.Open(t)

	comp := models.Component{Name: "LED Kırmızı", PartNumber: "LED-R", CurrentStock: 500, MonthlyRequiredQuantity: 300}
	require.NoError(t, db.Create(&comp).Error)

	now := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

	// Geçmiş yok, sadece bugün büyük tüketim: ortalama 0 olduğundan anomali üretmez
	seedConsumption(t, db, comp.ID, now, 200)

	report, err := dashboard.DetectAnomaly(db, now)
	require.NoError(t, err)
	assert.False(t, report.IsAnomaly)
	assert.Equal(t, int64(200), report.TodayTotal)
	assert.Equal(t, 0.0, report.DailyAverage)
}
