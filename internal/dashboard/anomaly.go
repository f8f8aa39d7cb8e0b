package dashboard

import (
	"time"

	"pcbtrack-backend/internal/models"

	"gorm.io/gorm"
)

// Günlük toplam tüketim, son 30 günün günlük ortalamasının bu katını aşarsa anomali sayılır
const anomalyFactor = 1.5

type AnomalyReport struct {
	Date         string  `json:"date"`
	TodayTotal   int64   `json:"today_total"`
	DailyAverage float64 `json:"daily_average"`
	IsAnomaly    bool    `json:"is_anomaly"`
}

// DetectAnomaly: Verilen günün toplam tüketimini (tüm komponentler üzerinden)
// önceki 30 günün günlük ortalama toplamıyla karşılaştırır. Tek bir toplama
// bakılır, komponent bazlı ayrım yapılmaz; geçmiş yoksa (ortalama 0) anomali
// işaretlenmez.
func DetectAnomaly(db *gorm.DB, now time.Time) (*AnomalyReport, error) {
	loc := now.Location()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	windowStart := dayStart.AddDate(0, 0, -30)

	type sumRow struct {
		Total int64 `gorm:"column:total"`
	}

	var today sumRow
	err := db.Model(&models.ConsumptionHistory{}).
		Select("COALESCE(SUM(quantity_consumed), 0) AS total").
		Where("consumed_at >= ? AND consumed_at < ?", dayStart, dayEnd).
		Scan(&today).Error
	if err != nil {
		return nil, err
	}

	var window sumRow
	err = db.Model(&models.ConsumptionHistory{}).
		Select("COALESCE(SUM(quantity_consumed), 0) AS total").
		Where("consumed_at >= ? AND consumed_at < ?", windowStart, dayStart).
		Scan(&window).Error
	if err != nil {
		return nil, err
	}

	avg := float64(window.Total) / 30.0

	report := &AnomalyReport{
		Date:         dayStart.Format("2006-01-02"),
		TodayTotal:   today.Total,
		DailyAverage: avg,
		IsAnomaly:    avg > 0 && float64(today.Total) > anomalyFactor*avg,
	}
	return report, nil
}
