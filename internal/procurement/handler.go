package procurement

import (
	"errors"
	"time"

	"pcbtrack-backend/internal/audit"
	"pcbtrack-backend/internal/auth"
	"pcbtrack-backend/internal/database"
	"pcbtrack-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var validate = validator.New()

type UpdateTriggerStatusRequest struct {
	Status models.TriggerStatus `json:"status" validate:"required"`
}

type CreateManualTriggerRequest struct {
	ComponentID uint `json:"component_id" validate:"required"`
}

type TriggerResponse struct {
	ID                       uint                   `json:"id"`
	ComponentID              uint                   `json:"component_id"`
	ComponentName            string                 `json:"component_name"`
	PartNumber               string                 `json:"part_number"`
	Supplier                 string                 `json:"supplier"`
	CurrentStock             int                    `json:"current_stock"`
	MonthlyRequired          int                    `json:"monthly_required"`
	RecommendedOrderQuantity int                    `json:"recommended_order_quantity"`
	EstimatedCost            decimal.Decimal        `json:"estimated_cost"`
	DaysUntilStockout        int                    `json:"days_until_stockout"`
	Priority                 models.TriggerPriority `json:"priority"`
	Status                   models.TriggerStatus   `json:"status"`
	TriggeredAt              time.Time              `json:"triggered_at"`
	ResolvedAt               *time.Time             `json:"resolved_at"`
}

func getUserInfo(c *fiber.Ctx) (uint, string, error) {
	userID, err := auth.UserIDFromCtx(c)
	if err != nil {
		return 0, "", err
	}
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}
	return userID, user.Username, nil
}

// Günlük ihtiyaç aylık değerin 1/30'u varsayılır; tüketim yoksa 999 gün
func daysUntilStockout(currentStock, monthlyRequired int) int {
	if monthlyRequired <= 0 {
		return 999
	}
	days := float64(currentStock) / (float64(monthlyRequired) / 30.0)
	if days > 999 {
		return 999
	}
	return int(days)
}

func toTriggerResponse(t models.ProcurementTrigger) TriggerResponse {
	est := t.Component.UnitPrice.Mul(decimal.NewFromInt(int64(t.RecommendedOrderQuantity))).Round(2)
	return TriggerResponse{
		ID:                       t.ID,
		ComponentID:              t.ComponentID,
		ComponentName:            t.Component.Name,
		PartNumber:               t.Component.PartNumber,
		Supplier:                 t.Component.Supplier,
		CurrentStock:             t.CurrentStock,
		MonthlyRequired:          t.MonthlyRequired,
		RecommendedOrderQuantity: t.RecommendedOrderQuantity,
		EstimatedCost:            est,
		DaysUntilStockout:        daysUntilStockout(t.Component.CurrentStock, t.Component.MonthlyRequiredQuantity),
		Priority:                 t.Priority,
		Status:                   t.Status,
		TriggeredAt:              t.TriggeredAt,
		ResolvedAt:               t.ResolvedAt,
	}
}

// GET /api/procurement/triggers
// Varsayılan sıralama: öncelik (CRITICAL önce), sonra tetiklenme zamanı
func ListTriggersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.ProcurementTrigger{}).Preload("Component")

		if status := c.Query("status"); status != "" {
			if !models.ValidTriggerStatus(models.TriggerStatus(status)) {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz durum filtresi")
			}
			query = query.Where("status = ?", status)
		}
		if priority := c.Query("priority"); priority != "" {
			query = query.Where("priority = ?", priority)
		}

		var triggers []models.ProcurementTrigger
		if err := query.
			Order("CASE priority WHEN 'CRITICAL' THEN 0 WHEN 'HIGH' THEN 1 WHEN 'MEDIUM' THEN 2 ELSE 3 END").
			Order("triggered_at DESC").
			Find(&triggers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tetikleyiciler listelenemedi")
		}

		resp := make([]TriggerResponse, 0, len(triggers))
		for _, t := range triggers {
			resp = append(resp, toTriggerResponse(t))
		}

		return c.JSON(resp)
	}
}

// GET /api/procurement/triggers/summary
// Durum ve öncelik bazında sayılar + bekleyen siparişlerin toplam tahmini maliyeti
func TriggerSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		type countRow struct {
			Key   string
			Count int64
		}

		var byStatus []countRow
		if err := database.DB.Model(&models.ProcurementTrigger{}).
			Select("status AS key, COUNT(*) AS count").
			Group("status").
			Scan(&byStatus).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		var byPriority []countRow
		if err := database.DB.Model(&models.ProcurementTrigger{}).
			Select("priority AS key, COUNT(*) AS count").
			Where("status = ?", models.TriggerStatusPending).
			Group("priority").
			Scan(&byPriority).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}

		var pending []models.ProcurementTrigger
		if err := database.DB.Preload("Component").
			Where("status = ?", models.TriggerStatusPending).
			Find(&pending).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Özet hesaplanamadı")
		}
		totalCost := decimal.Zero
		for _, t := range pending {
			totalCost = totalCost.Add(
				t.Component.UnitPrice.Mul(decimal.NewFromInt(int64(t.RecommendedOrderQuantity))))
		}

		statusCounts := fiber.Map{}
		for _, row := range byStatus {
			statusCounts[row.Key] = row.Count
		}
		priorityCounts := fiber.Map{}
		for _, row := range byPriority {
			priorityCounts[row.Key] = row.Count
		}

		return c.JSON(fiber.Map{
			"by_status":                    statusCounts,
			"pending_by_priority":          priorityCounts,
			"pending_total_estimated_cost": totalCost.Round(2),
		})
	}
}

// PUT /api/procurement/triggers/:id/status
func UpdateTriggerStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz tetikleyici ID")
		}

		var body UpdateTriggerStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Durum zorunlu")
		}

		trigger, err := UpdateStatus(database.DB, uint(id), body.Status)
		if err != nil {
			switch {
			case errors.Is(err, ErrTriggerNotFound):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			case errors.Is(err, ErrInvalidStatus):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			default:
				return fiber.NewError(fiber.StatusInternalServerError, "Durum güncellenemedi")
			}
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "procurement_trigger",
				EntityID:    trigger.ID,
				Action:      models.AuditActionUpdate,
				Description: "Tetikleyici durumu güncellendi: " + string(body.Status),
				After:       trigger,
			})
		}

		return c.JSON(trigger)
	}
}

// POST /api/procurement/triggers (admin)
// Eşik beklemeden manuel tedarik kaydı açar
func CreateManualTriggerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateManualTriggerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Komponent zorunlu")
		}

		var comp models.Component
		if err := database.DB.First(&comp, "id = ?", body.ComponentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Komponent bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Komponent okunamadı")
		}

		trigger, err := CreateManual(database.DB, &comp)
		if err != nil {
			if errors.Is(err, ErrPendingTriggerExists) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Tetikleyici oluşturulamadı")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "procurement_trigger",
				EntityID:    trigger.ID,
				Action:      models.AuditActionCreate,
				Description: "Manuel tedarik tetikleyicisi oluşturuldu: " + comp.Name,
				After:       trigger,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(trigger)
	}
}
