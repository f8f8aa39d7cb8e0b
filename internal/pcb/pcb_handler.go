package pcb

import (
	"errors"

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

type CreatePCBRequest struct {
	Name        string `json:"name" validate:"required"`
	Code        string `json:"code" validate:"required"`
	Description string `json:"description"`
}

type UpdatePCBRequest struct {
	Name        *string `json:"name"`
	Code        *string `json:"code"`
	Description *string `json:"description"`
}

type PCBResponse struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Code           string `json:"code"`
	Description    string `json:"description"`
	ComponentCount int64  `json:"component_count"`
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

// GET /api/pcbs
func ListPCBsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var pcbs []models.PCB
		if err := database.DB.Order("name ASC").Find(&pcbs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "PCB'ler listelenemedi")
		}

		resp := make([]PCBResponse, 0, len(pcbs))
		for _, p := range pcbs {
			var count int64
			database.DB.Model(&models.PCBComponent{}).Where("pcb_id = ?", p.ID).Count(&count)
			resp = append(resp, PCBResponse{
				ID:             p.ID,
				Name:           p.Name,
				Code:           p.Code,
				Description:    p.Description,
				ComponentCount: count,
			})
		}

		return c.JSON(resp)
	}
}

// GET /api/pcbs/:id
// PCB detayı + BOM listesi + kart başı toplam maliyet
func GetPCBHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz PCB ID")
		}

		var p models.PCB
		if err := database.DB.First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "PCB bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "PCB okunamadı")
		}

		var mappings []models.PCBComponent
		if err := database.DB.
			Preload("Component").
			Where("pcb_id = ?", p.ID).
			Find(&mappings).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "BOM okunamadı")
		}

		type bomRow struct {
			MappingID      uint            `json:"mapping_id"`
			ComponentID    uint            `json:"component_id"`
			ComponentName  string          `json:"component_name"`
			PartNumber     string          `json:"part_number"`
			CurrentStock   int             `json:"current_stock"`
			Category       string          `json:"category"`
			QuantityPerPCB int             `json:"quantity_per_pcb"`
			UnitPrice      decimal.Decimal `json:"unit_price"`
			CostPerPCB     decimal.Decimal `json:"cost_per_pcb"`
		}

		rows := make([]bomRow, 0, len(mappings))
		totalCost := decimal.Zero
		for _, m := range mappings {
			cost := m.Component.UnitPrice.Mul(decimal.NewFromInt(int64(m.QuantityPerPCB)))
			totalCost = totalCost.Add(cost)
			rows = append(rows, bomRow{
				MappingID:      m.ID,
				ComponentID:    m.ComponentID,
				ComponentName:  m.Component.Name,
				PartNumber:     m.Component.PartNumber,
				CurrentStock:   m.Component.CurrentStock,
				Category:       m.Component.Category,
				QuantityPerPCB: m.QuantityPerPCB,
				UnitPrice:      m.Component.UnitPrice,
				CostPerPCB:     cost,
			})
		}

		return c.JSON(fiber.Map{
			"id":                 p.ID,
			"name":               p.Name,
			"code":               p.Code,
			"description":        p.Description,
			"bom":                rows,
			"total_cost_per_pcb": totalCost.Round(2),
			"component_count":    len(rows),
		})
	}
}

// POST /api/pcbs (admin)
func CreatePCBHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePCBRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "PCB adı ve kodu zorunlu")
		}

		p := models.PCB{Name: body.Name, Code: body.Code, Description: body.Description}
		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "PCB oluşturulamadı (kod kayıtlı olabilir)")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "pcb",
				EntityID:    p.ID,
				Action:      models.AuditActionCreate,
				Description: "PCB oluşturuldu: " + p.Name,
				After:       p,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// PUT /api/pcbs/:id (admin)
func UpdatePCBHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz PCB ID")
		}

		var body UpdatePCBRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		var p models.PCB
		if err := database.DB.First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "PCB bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "PCB okunamadı")
		}
		before := p

		if body.Name != nil {
			if *body.Name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Ad boş olamaz")
			}
			p.Name = *body.Name
		}
		if body.Code != nil {
			if *body.Code == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Kod boş olamaz")
			}
			p.Code = *body.Code
		}
		if body.Description != nil {
			p.Description = *body.Description
		}

		if err := database.DB.Save(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "PCB güncellenemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "pcb",
				EntityID:    p.ID,
				Action:      models.AuditActionUpdate,
				Description: "PCB güncellendi: " + p.Name,
				Before:      before,
				After:       p,
			})
		}

		return c.JSON(p)
	}
}

// DELETE /api/pcbs/:id (admin)
func DeletePCBHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz PCB ID")
		}

		var p models.PCB
		if err := database.DB.First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "PCB bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "PCB okunamadı")
		}

		// Üretim geçmişi olan PCB silinemez, önce kayıtlar geri alınmalı
		var entryCount int64
		database.DB.Model(&models.ProductionEntry{}).Where("pcb_id = ?", p.ID).Count(&entryCount)
		if entryCount > 0 {
			return fiber.NewError(fiber.StatusConflict, "PCB'nin üretim kayıtları var, önce üretim kayıtlarını silin")
		}

		// BOM eşlemeleriyle birlikte sil
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem başlatılamadı")
		}
		if err := tx.Where("pcb_id = ?", p.ID).Delete(&models.PCBComponent{}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "BOM eşlemeleri silinemedi")
		}
		if err := tx.Delete(&p).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "PCB silinemedi")
		}
		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "pcb",
				EntityID:    p.ID,
				Action:      models.AuditActionDelete,
				Description: "PCB silindi: " + p.Name,
				Before:      p,
			})
		}

		return c.JSON(p)
	}
}
