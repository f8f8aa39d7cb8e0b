package dashboard

import (
	"time"

	"pcbtrack-backend/internal/database"
	"pcbtrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Sorgu parametrelerinden tarih aralığı; varsayılan son 30 gün
func parseDateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	now := time.Now()
	start := now.AddDate(0, 0, -30)
	end := now

	if s := c.Query("start_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return start, end, fiber.NewError(fiber.StatusBadRequest, "Geçersiz başlangıç tarihi")
		}
		start = parsed
	}
	if e := c.Query("end_date"); e != "" {
		parsed, err := time.Parse("2006-01-02", e)
		if err != nil {
			return start, end, fiber.NewError(fiber.StatusBadRequest, "Geçersiz bitiş tarihi")
		}
		// bitiş gününün tamamı dahil
		end = parsed.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// GET /api/dashboard/consumption-summary
// Komponent başına toplam tüketim (tarih aralığı filtreli)
func ConsumptionSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, end, err := parseDateRange(c)
		if err != nil {
			return err
		}

		type row struct {
			ComponentID   uint   `gorm:"column:component_id" json:"component_id"`
			ComponentName string `gorm:"column:component_name" json:"component_name"`
			PartNumber    string `gorm:"column:part_number" json:"part_number"`
			TotalConsumed int64  `gorm:"column:total_consumed" json:"total_consumed"`
			UsageCount    int64  `gorm:"column:usage_count" json:"usage_count"`
		}
		var rows []row

		err = database.DB.Model(&models.ConsumptionHistory{}).
			Select(`consumption_history.component_id,
				components.name AS component_name,
				components.part_number,
				SUM(consumption_history.quantity_consumed) AS total_consumed,
				COUNT(*) AS usage_count`).
			Joins("JOIN components ON components.id = consumption_history.component_id").
			Where("consumption_history.consumed_at >= ? AND consumption_history.consumed_at < ?", start, end).
			Group("consumption_history.component_id, components.name, components.part_number").
			Order("total_consumed DESC").
			Scan(&rows).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tüketim özeti hesaplanamadı")
		}

		return c.JSON(fiber.Map{
			"start_date": start.Format("2006-01-02"),
			"end_date":   end.Format("2006-01-02"),
			"components": rows,
		})
	}
}

// GET /api/dashboard/top-consumed?limit=10
func TopConsumedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start, end, err := parseDateRange(c)
		if err != nil {
			return err
		}
		limit := c.QueryInt("limit", 10)
		if limit < 1 || limit > 50 {
			limit = 10
		}

		type row struct {
			ComponentID   uint   `gorm:"column:component_id" json:"component_id"`
			ComponentName string `gorm:"column:component_name" json:"component_name"`
			TotalConsumed int64  `gorm:"column:total_consumed" json:"total_consumed"`
		}
		var rows []row

		err = database.DB.Model(&models.ConsumptionHistory{}).
			Select(`consumption_history.component_id,
				components.name AS component_name,
				SUM(consumption_history.quantity_consumed) AS total_consumed`).
			Joins("JOIN components ON components.id = consumption_history.component_id").
			Where("consumption_history.consumed_at >= ? AND consumption_history.consumed_at < ?", start, end).
			Group("consumption_history.component_id, components.name").
			Order("total_consumed DESC").
			Limit(limit).
			Scan(&rows).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "En çok tüketilenler hesaplanamadı")
		}

		return c.JSON(rows)
	}
}

// GET /api/dashboard/consumption-trend?days=30
// Gün bazlı toplam tüketim; grafikte boş günler 0 olarak gösterilir
func ConsumptionTrendHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		days := c.QueryInt("days", 30)
		if days < 1 || days > 365 {
			days = 30
		}

		now := time.Now()
		loc := now.Location()
		end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		start := end.AddDate(0, 0, -days)

		var history []models.ConsumptionHistory
		if err := database.DB.
			Where("consumed_at >= ? AND consumed_at < ?", start, end).
			Find(&history).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tüketim trendi hesaplanamadı")
		}

		// gün anahtarlarıyla topla
		totals := make(map[string]int64)
		for _, h := range history {
			key := h.ConsumedAt.In(loc).Format("2006-01-02")
			totals[key] += int64(h.QuantityConsumed)
		}

		type point struct {
			Date          string `json:"date"`
			TotalConsumed int64  `json:"total_consumed"`
		}
		points := make([]point, 0, days)
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			key := d.Format("2006-01-02")
			points = append(points, point{Date: key, TotalConsumed: totals[key]})
		}

		return c.JSON(points)
	}
}

// GET /api/dashboard/anomaly
func ConsumptionAnomalyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := DetectAnomaly(database.DB, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Anomali tespiti başarısız")
		}
		return c.JSON(report)
	}
}
