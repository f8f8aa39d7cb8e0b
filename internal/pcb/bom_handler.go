package pcb

import (
	"errors"

	"pcbtrack-backend/internal/audit"
	"pcbtrack-backend/internal/database"
	"pcbtrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AddBOMLineRequest struct {
	ComponentID    uint `json:"component_id" validate:"required"`
	QuantityPerPCB int  `json:"quantity_per_pcb" validate:"required,gt=0"`
}

type UpdateBOMLineRequest struct {
	QuantityPerPCB int `json:"quantity_per_pcb" validate:"required,gt=0"`
}

// POST /api/pcbs/:id/components (admin)
func AddBOMLineHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		pcbID, err := c.ParamsInt("id")
		if err != nil || pcbID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz PCB ID")
		}

		var body AddBOMLineRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Komponent ve pozitif adet zorunlu")
		}

		var p models.PCB
		if err := database.DB.First(&p, "id = ?", pcbID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "PCB bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "PCB okunamadı")
		}

		var comp models.Component
		if err := database.DB.First(&comp, "id = ?", body.ComponentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Komponent bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Komponent okunamadı")
		}

		// Aynı komponent BOM'da ikinci kez yer alamaz
		var existing int64
		database.DB.Model(&models.PCBComponent{}).
			Where("pcb_id = ? AND component_id = ?", p.ID, comp.ID).
			Count(&existing)
		if existing > 0 {
			return fiber.NewError(fiber.StatusConflict, "Komponent bu PCB'nin BOM'unda zaten var")
		}

		mapping := models.PCBComponent{
			PCBID:          p.ID,
			ComponentID:    comp.ID,
			QuantityPerPCB: body.QuantityPerPCB,
		}
		if err := database.DB.Create(&mapping).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "BOM satırı eklenemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "pcb_component",
				EntityID:    mapping.ID,
				Action:      models.AuditActionCreate,
				Description: "BOM satırı eklendi: " + p.Name + " <- " + comp.Name,
				After:       mapping,
			})
		}

		return c.Status(fiber.StatusCreated).JSON(mapping)
	}
}

// PUT /api/pcbs/:id/components/:componentId (admin)
func UpdateBOMLineHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		pcbID, err := c.ParamsInt("id")
		if err != nil || pcbID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz PCB ID")
		}
		componentID, err := c.ParamsInt("componentId")
		if err != nil || componentID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz komponent ID")
		}

		var body UpdateBOMLineRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if err := validate.Struct(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Adet pozitif olmalı")
		}

		var mapping models.PCBComponent
		if err := database.DB.
			Where("pcb_id = ? AND component_id = ?", pcbID, componentID).
			First(&mapping).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "BOM satırı bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "BOM satırı okunamadı")
		}
		before := mapping

		mapping.QuantityPerPCB = body.QuantityPerPCB
		if err := database.DB.Save(&mapping).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "BOM satırı güncellenemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "pcb_component",
				EntityID:    mapping.ID,
				Action:      models.AuditActionUpdate,
				Description: "BOM satırı güncellendi",
				Before:      before,
				After:       mapping,
			})
		}

		return c.JSON(mapping)
	}
}

// DELETE /api/pcbs/:id/components/:componentId (admin)
func RemoveBOMLineHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		pcbID, err := c.ParamsInt("id")
		if err != nil || pcbID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz PCB ID")
		}
		componentID, err := c.ParamsInt("componentId")
		if err != nil || componentID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz komponent ID")
		}

		var mapping models.PCBComponent
		if err := database.DB.
			Where("pcb_id = ? AND component_id = ?", pcbID, componentID).
			First(&mapping).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "BOM satırı bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "BOM satırı okunamadı")
		}

		if err := database.DB.Delete(&mapping).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "BOM satırı silinemedi")
		}

		userID, userName, err := getUserInfo(c)
		if err == nil {
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "pcb_component",
				EntityID:    mapping.ID,
				Action:      models.AuditActionDelete,
				Description: "BOM satırı silindi",
				Before:      mapping,
			})
		}

		return c.JSON(mapping)
	}
}
