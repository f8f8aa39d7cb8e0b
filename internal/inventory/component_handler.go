package inventory

import (
	"errors"
	"math"

	"pcbtrack-backend/internal/audit"
	"pcbtrack-backend/internal/auth"
	"pcbtrack-backend/internal/config"
	"pcbtrack-backend/internal/database"
	"pcbtrack-backend/internal/models"
	"pcbtrack-backend/internal/procurement"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var validate = validator.New()

type CreateComponentRequest struct {
	Name                    string          `json:"name" validate:"required"`
	PartNumber              string          `json:"part_number" validate:"required"`
	CurrentStock            int             `json:"current_stock" validate:"gte=0"`
	MonthlyRequiredQuantity int             `json:"monthly_required_quantity" validate:"gt=0"`
	Category                string          `json:"category"`
	Supplier                string          `json:"supplier"`
	UnitPrice               decimal.Decimal `json:"unit_price"`
}

// UpdateComponentRequest: Güncellenebilir alanlar tek tek sayılmıştır;
// dinamik alan haritası kabul edilmez, bilinmeyen alanlar sınırda yok sayılır
type UpdateComponentRequest struct {
	Name                    *string          `json:"name"`
	CurrentStock            *int             `json:"current_stock"`
	MonthlyRequiredQuantity *int             `json:"monthly_required_quantity"`
	Category                *string          `json:"category"`
	Supplier                *string          `json:"supplier"`
	UnitPrice               *decimal.Decimal `json:"unit_price"`
}

type ComponentResponse struct {
	ID                      uint            `json:"id"`
	Name                    string          `json:"name"`
	PartNumber              string          `json:"part_number"`
	CurrentStock            int             `json:"current_stock"`
	MonthlyRequiredQuantity int             `json:"monthly_required_quantity"`
	Category                string          `json:"category"`
	Supplier                string          `json:"supplier"`
	UnitPrice               decimal.Decimal `json:"unit_price"`
	StockPercentage         float64         `json:"stock_percentage"`
	StockStatus             string          `json:"stock_status"`
}

func toComponentResponse(c *models.Component) ComponentResponse {
	ratio := c.StockRatio()
	status := "ADEQUATE"
	if ratio < 0.2 {
		status = "CRITICAL"
	} else if ratio < 0.5 {
		status = "LOW"
	}
	return ComponentResponse{
		ID:                      c.ID,
		Name:                    c.Name,
		PartNumber:              c.PartNumber,
		CurrentStock:            c.CurrentStock,
		MonthlyRequiredQuantity: c.MonthlyRequiredQuantity,
		Category:                c.Category,
		Supplier:                c.Supplier,
		UnitPrice:               c.UnitPrice,
		StockPercentage:         ratio * 100,
		StockStatus:             status,
	}
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

// GET /api/components?page=1&limit=50&search=led&category=LED&low_stock=true
func ListComponentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		limit := c.QueryInt("limit", 50)
		if page < 1 {
			page = 1
		}
		if limit < 1 || limit > 200 {
			limit = 50
		}

		dbq := database.DB.Model(&models.Component{})

		if search := c.Query("search"); search != "" {
			like := "%" + search + "%"
			dbq = dbq.Where("name ILIKE ? OR part_number ILIKE ?", like, like)
		}
		if category := c.Query("category"); category != "" {
			dbq = dbq.Where("category = ?", category)
		}
		if c.Query("low_stock") == "true" {
			dbq = dbq.Where("current_stock < monthly_required_quantity * 0.2")
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Komponentler sayılamadı")
		}

		var components []models.Component
		if err := dbq.Order("name ASC").
			Limit(limit).Offset((page - 1) * limit).
			Find(&components).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Komponentler listelenemedi")
		}

		resp := make([]ComponentResponse, 0, len(components))
		for i := range components {
			resp = append(resp, toComponentResponse(&components[i]))
		}

		return c.JSON(fiber.Map{
			"data": resp,
			"pagination": fiber.Map{
				"page":        page,
				"limit":       limit,
				"total":       total,
				"total_pages": int(math.Ceil(float64(total) / float64(limit))),
			},
		})
	}
}

// GET /api/components/:id
// Komponent detayı + son 10 tüketim kaydı
func GetComponentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz komponent ID")
		}

		var component models.Component
		if err := database.DB.First(&component, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Komponent bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Komponent okunamadı")
		}

		var history []models.ConsumptionHistory
		if err := database.DB.
			Preload("ProductionEntry").
			Preload("ProductionEntry.PCB").
			Where("component_id = ?", component.ID).
			Order("consumed_at DESC").
			Limit(10).
			Find(&history).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tüketim geçmişi okunamadı")
		}

		type historyRow struct {
			ID               uint   `json:"id"`
			QuantityConsumed int    `json:"quantity_consumed"`
			StockBefore      int    `json:"stock_before"`
			StockAfter       int    `json:"stock_after"`
			ConsumedAt       string `json:"consumed_at"`
			PCBName          string `json:"pcb_name"`
			QuantityProduced int    `json:"quantity_produced"`
		}
		rows := make([]historyRow, 0, len(history))
		for _, h := range history {
			rows = append(rows, historyRow{
				ID:               h.ID,
				QuantityConsumed: h.QuantityConsumed,
				StockBefore:      h.StockBefore,
				StockAfter:       h.StockAfter,
				ConsumedAt:       h.ConsumedAt.Format("2006-01-02 15:04:05"),
				PCBName:          h.ProductionEntry.PCB.Name,
				QuantityProduced: h.ProductionEntry.QuantityProduced,
			})
		}

		return c.JSON(fiber.Map{
			"component":           toComponentResponse(&component),
			"consumption_history": rows,
		})
	}
}

// POST /api/components (admin)
func CreateComponentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateComponentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ad ve parça numarası zorunlu; stok >= 0, aylık ihtiyaç > 0 olmalı")
		}

		component := models.Component{
			Name:                    body.Name,
			PartNumber:              body.PartNumber,
			CurrentStock:            body.CurrentStock,
			MonthlyRequiredQuantity: body.MonthlyRequiredQuantity,
			Category:                body.Category,
			Supplier:                body.Supplier,
			UnitPrice:               body.UnitPrice,
		}

		if err := database.DB.Create(&component).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Komponent oluşturulamadı (parça numarası kayıtlı olabilir)")
		}

		// Başlangıç stoku eşiğin altındaysa hemen tetikleyici değerlendir
		if _, err := procurement.Evaluate(database.DB, component.ID, component.CurrentStock, component.MonthlyRequiredQuantity); err != nil {
			config.LogError("inventory", "CreateComponentHandler", "tetikleyici değerlendirme", component.ID, err)
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "component",
				EntityID:    component.ID,
				Action:      models.AuditActionCreate,
				Description: "Komponent oluşturuldu: " + component.Name,
				After:       component,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(toComponentResponse(&component))
	}
}

// PUT /api/components/:id (admin)
func UpdateComponentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz komponent ID")
		}

		var body UpdateComponentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		var component models.Component
		if err := database.DB.First(&component, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Komponent bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Komponent okunamadı")
		}
		before := component

		if body.Name != nil {
			if *body.Name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Ad boş olamaz")
			}
			component.Name = *body.Name
		}
		if body.CurrentStock != nil {
			if *body.CurrentStock < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Stok negatif olamaz")
			}
			component.CurrentStock = *body.CurrentStock
		}
		if body.MonthlyRequiredQuantity != nil {
			if *body.MonthlyRequiredQuantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Aylık ihtiyaç pozitif olmalı")
			}
			component.MonthlyRequiredQuantity = *body.MonthlyRequiredQuantity
		}
		if body.Category != nil {
			component.Category = *body.Category
		}
		if body.Supplier != nil {
			component.Supplier = *body.Supplier
		}
		if body.UnitPrice != nil {
			component.UnitPrice = *body.UnitPrice
		}

		if err := database.DB.Save(&component).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Komponent güncellenemedi")
		}

		// Stok alanına dokunan güncellemeler de aynı düşük stok kontrolünden geçer
		if _, err := procurement.Evaluate(database.DB, component.ID, component.CurrentStock, component.MonthlyRequiredQuantity); err != nil {
			config.LogError("inventory", "UpdateComponentHandler", "tetikleyici değerlendirme", component.ID, err)
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "component",
				EntityID:    component.ID,
				Action:      models.AuditActionUpdate,
				Description: "Komponent güncellendi: " + component.Name,
				Before:      before,
				After:       component,
			})
		}

		return c.JSON(toComponentResponse(&component))
	}
}

// DELETE /api/components/:id (admin)
func DeleteComponentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz komponent ID")
		}

		var component models.Component
		if err := database.DB.First(&component, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Komponent bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Komponent okunamadı")
		}

		// BOM'da kullanılan komponent silinemez, önce eşlemeler kaldırılmalı
		var bomCount int64
		database.DB.Model(&models.PCBComponent{}).Where("component_id = ?", component.ID).Count(&bomCount)
		if bomCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "Komponent bir veya daha fazla PCB'nin BOM listesinde, önce eşlemeleri kaldırın")
		}

		if err := database.DB.Delete(&component).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Komponent silinemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "component",
				EntityID:    component.ID,
				Action:      models.AuditActionDelete,
				Description: "Komponent silindi: " + component.Name,
				Before:      component,
			})
		}

		return c.JSON(toComponentResponse(&component))
	}
}
