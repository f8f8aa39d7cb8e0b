package dashboard

import (
	"time"

	"pcbtrack-backend/internal/database"
	"pcbtrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	TotalComponents      int64           `json:"total_components"`
	TotalPCBs            int64           `json:"total_pcbs"`
	TotalStockValue      decimal.Decimal `json:"total_stock_value"`
	CriticalComponents   int64           `json:"critical_components"`
	LowStockComponents   int64           `json:"low_stock_components"`
	PendingTriggers      int64           `json:"pending_triggers"`
	ProductionsThisMonth int64           `json:"productions_this_month"`
	BoardsThisMonth      int64           `json:"boards_this_month"`
}

// GET /api/dashboard/stats
func DashboardStatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var stats DashboardStats

		database.DB.Model(&models.Component{}).Count(&stats.TotalComponents)
		database.DB.Model(&models.PCB{}).Count(&stats.TotalPCBs)
		database.DB.Model(&models.ProcurementTrigger{}).
			Where("status = ?", models.TriggerStatusPending).
			Count(&stats.PendingTriggers)

		// Stok değeri ve oran bazlı sayımlar Go tarafında; decimal ile
		var components []models.Component
		if err := database.DB.Find(&components).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Komponentler okunamadı")
		}
		total := decimal.Zero
		for _, comp := range components {
			total = total.Add(comp.UnitPrice.Mul(decimal.NewFromInt(int64(comp.CurrentStock))))
			ratio := comp.StockRatio()
			if comp.MonthlyRequiredQuantity > 0 && ratio < 0.2 {
				stats.CriticalComponents++
			}
			if comp.MonthlyRequiredQuantity > 0 && ratio < 0.5 {
				stats.LowStockComponents++
			}
		}
		stats.TotalStockValue = total.Round(2)

		now := time.Now()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

		database.DB.Model(&models.ProductionEntry{}).
			Where("production_date >= ?", monthStart).
			Count(&stats.ProductionsThisMonth)

		type sumRow struct {
			Total int64 `gorm:"column:total"`
		}
		var boards sumRow
		database.DB.Model(&models.ProductionEntry{}).
			Select("COALESCE(SUM(quantity_produced), 0) AS total").
			Where("production_date >= ?", monthStart).
			Scan(&boards)
		stats.BoardsThisMonth = boards.Total

		return c.JSON(stats)
	}
}

// GET /api/dashboard/category-distribution
// Kategori başına komponent sayısı ve stok değeri
func CategoryDistributionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var components []models.Component
		if err := database.DB.Find(&components).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Komponentler okunamadı")
		}

		type catAgg struct {
			Category       string          `json:"category"`
			ComponentCount int             `json:"component_count"`
			StockValue     decimal.Decimal `json:"stock_value"`
		}

		byCategory := make(map[string]*catAgg)
		order := make([]string, 0)
		for _, comp := range components {
			cat := comp.Category
			if cat == "" {
				cat = "Kategorisiz"
			}
			agg, ok := byCategory[cat]
			if !ok {
				agg = &catAgg{Category: cat, StockValue: decimal.Zero}
				byCategory[cat] = agg
				order = append(order, cat)
			}
			agg.ComponentCount++
			agg.StockValue = agg.StockValue.Add(
				comp.UnitPrice.Mul(decimal.NewFromInt(int64(comp.CurrentStock))))
		}

		result := make([]catAgg, 0, len(order))
		for _, cat := range order {
			agg := byCategory[cat]
			agg.StockValue = agg.StockValue.Round(2)
			result = append(result, *agg)
		}

		return c.JSON(result)
	}
}
