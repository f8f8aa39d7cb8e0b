package production

import (
	"errors"
	"time"

	"pcbtrack-backend/internal/audit"
	"pcbtrack-backend/internal/auth"
	"pcbtrack-backend/internal/bom"
	"pcbtrack-backend/internal/config"
	"pcbtrack-backend/internal/database"
	"pcbtrack-backend/internal/models"
	"pcbtrack-backend/internal/stock"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

type CreateProductionRequest struct {
	PCBID            uint   `json:"pcb_id" validate:"required"`
	QuantityProduced int    `json:"quantity_produced" validate:"required,gt=0"`
	ProductionDate   string `json:"production_date"` // YYYY-AA-GG, boşsa bugün
	Notes            string `json:"notes"`
}

type PreviewRequest struct {
	PCBID            uint `json:"pcb_id" validate:"required"`
	QuantityProduced int  `json:"quantity_produced" validate:"required,gt=0"`
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

// Servis hatalarını HTTP durum kodlarına çevirir
func mapServiceError(c *fiber.Ctx, err error) error {
	var insufficient *InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":                   "Stok yetersiz, üretim kaydedilmedi",
			"insufficient_components": insufficient.Items,
		})
	}
	switch {
	case errors.Is(err, ErrPCBNotFound), errors.Is(err, ErrEntryNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, bom.ErrEmptyBOM):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, stock.ErrInsufficientStock):
		// Ön kontrol ile düşüm arasında eşzamanlı bir üretim stoku tüketmiş;
		// istemci güncel stokla tekrar deneyebilir
		return fiber.NewError(fiber.StatusConflict, "Stok yetersiz, üretim kaydedilmedi")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "Üretim işlemi başarısız")
	}
}

// POST /api/productions
func CreateProductionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "PCB ve pozitif üretim adedi zorunlu")
		}

		productionDate := time.Now()
		if body.ProductionDate != "" {
			parsed, err := time.Parse("2006-01-02", body.ProductionDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz üretim tarihi (YYYY-AA-GG bekleniyor)")
			}
			productionDate = parsed
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		svc := NewService(database.DB)
		entry, consumed, err := svc.CreateEntry(CreateInput{
			PCBID:            body.PCBID,
			QuantityProduced: body.QuantityProduced,
			ProductionDate:   productionDate,
			UserID:           userID,
			Notes:            body.Notes,
		})
		if err != nil {
			return mapServiceError(c, err)
		}

		if err := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "production_entry",
			EntityID:    entry.ID,
			Action:      models.AuditActionCreate,
			Description: "Üretim kaydı oluşturuldu",
			After:       entry,
		}); err != nil {
			config.LogError("production", "CreateProductionHandler", "audit log yazılamadı", entry.ID, err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"entry":               entry,
			"consumed_components": consumed,
		})
	}
}

// GET /api/productions
// Sayfalama + pcb_id / tarih aralığı filtreleri
func ListProductionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		if page < 1 {
			page = 1
		}
		limit := c.QueryInt("limit", 20)
		if limit < 1 || limit > 100 {
			limit = 20
		}

		query := database.DB.Model(&models.ProductionEntry{})

		if pcbID := c.QueryInt("pcb_id", 0); pcbID > 0 {
			query = query.Where("pcb_id = ?", pcbID)
		}
		if start := c.Query("start_date"); start != "" {
			if parsed, err := time.Parse("2006-01-02", start); err == nil {
				query = query.Where("production_date >= ?", parsed)
			}
		}
		if end := c.Query("end_date"); end != "" {
			if parsed, err := time.Parse("2006-01-02", end); err == nil {
				// Bitiş gününün tamamı dahil
				query = query.Where("production_date < ?", parsed.AddDate(0, 0, 1))
			}
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üretim kayıtları sayılamadı")
		}

		var entries []models.ProductionEntry
		if err := query.
			Preload("PCB").
			Preload("User").
			Order("production_date DESC, id DESC").
			Offset((page - 1) * limit).
			Limit(limit).
			Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üretim kayıtları listelenemedi")
		}

		return c.JSON(fiber.Map{
			"data":  entries,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}

// GET /api/productions/:id
// Kayıt + komponent bazlı tüketim dökümü
func GetProductionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz üretim kaydı ID")
		}

		var entry models.ProductionEntry
		if err := database.DB.
			Preload("PCB").
			Preload("User").
			First(&entry, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Üretim kaydı bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Üretim kaydı okunamadı")
		}

		var history []models.ConsumptionHistory
		if err := database.DB.
			Preload("Component").
			Where("production_entry_id = ?", entry.ID).
			Order("id ASC").
			Find(&history).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tüketim geçmişi okunamadı")
		}

		return c.JSON(fiber.Map{
			"entry":       entry,
			"consumption": history,
		})
	}
}

// POST /api/productions/preview
// Stok düşmeden "bu üretim yapılabilir mi?" sorusunu yanıtlar
func PreviewProductionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PreviewRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "PCB ve pozitif üretim adedi zorunlu")
		}

		svc := NewService(database.DB)
		result, err := svc.Preview(body.PCBID, body.QuantityProduced)
		if err != nil {
			return mapServiceError(c, err)
		}

		return c.JSON(result)
	}
}

// DELETE /api/productions/:id (admin)
// Kaydı siler ve tüketilen stokları geri yükler
func DeleteProductionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz üretim kaydı ID")
		}

		userID, userName, err := getUserInfo(c)
		if err != nil {
			return err
		}

		svc := NewService(database.DB)
		entry, err := svc.DeleteEntry(uint(id))
		if err != nil {
			return mapServiceError(c, err)
		}

		if err := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "production_entry",
			EntityID:    entry.ID,
			Action:      models.AuditActionDelete,
			Description: "Üretim kaydı silindi, stoklar geri yüklendi",
			Before:      entry,
		}); err != nil {
			config.LogError("production", "DeleteProductionHandler", "audit log yazılamadı", entry.ID, err)
		}

		return c.JSON(fiber.Map{
			"message": "Üretim kaydı silindi, stoklar geri yüklendi",
			"entry":   entry,
		})
	}
}
