package inventory

import (
	"time"

	"pcbtrack-backend/internal/database"
	"pcbtrack-backend/internal/models"
	"pcbtrack-backend/internal/procurement"

	"github.com/gofiber/fiber/v2"
)

type LowStockComponentResponse struct {
	ComponentResponse
	Priority                 models.TriggerPriority `json:"priority"`
	AvgDailyConsumption      float64                `json:"avg_daily_consumption"`
	DaysUntilStockout        int                    `json:"days_until_stockout"`
	RecommendedOrderQuantity int                    `json:"recommended_order_quantity"`
}

// GET /api/components/low-stock
// Eşiğin altındaki komponentler + stok bitiş tahmini.
// Tahmin: son 30 günün tüketiminden günlük ortalama, stok / ortalama = kalan gün.
// Hiç tüketim yoksa 999 döner (pratikte "tahmin yok" demek).
func LowStockComponentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var components []models.Component
		if err := database.DB.
			Where("current_stock < monthly_required_quantity * 0.2").
			Order("current_stock * 1.0 / monthly_required_quantity ASC").
			Find(&components).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Komponentler listelenemedi")
		}

		since := time.Now().AddDate(0, 0, -30)
		resp := make([]LowStockComponentResponse, 0, len(components))
		for i := range components {
			comp := &components[i]

			type consumptionAgg struct {
				TotalConsumed int
				DaysActive    int
			}
			var agg consumptionAgg
			database.DB.Model(&models.ConsumptionHistory{}).
				Select("COALESCE(SUM(quantity_consumed), 0) AS total_consumed, COUNT(DISTINCT DATE(consumed_at)) AS days_active").
				Where("component_id = ? AND consumed_at >= ?", comp.ID, since).
				Scan(&agg)

			avgDaily := 0.0
			if agg.DaysActive > 0 {
				avgDaily = float64(agg.TotalConsumed) / float64(agg.DaysActive)
			}
			daysUntilStockout := 999
			if avgDaily > 0 {
				daysUntilStockout = int(float64(comp.CurrentStock) / avgDaily)
			}

			resp = append(resp, LowStockComponentResponse{
				ComponentResponse:        toComponentResponse(comp),
				Priority:                 procurement.PriorityForRatio(comp.StockRatio()),
				AvgDailyConsumption:      avgDaily,
				DaysUntilStockout:        daysUntilStockout,
				RecommendedOrderQuantity: procurement.RecommendedOrderQuantity(comp.CurrentStock, comp.MonthlyRequiredQuantity),
			})
		}

		return c.JSON(fiber.Map{
			"data":  resp,
			"count": len(resp),
		})
	}
}
