package excel

import (
	"fmt"
	"time"

	"pcbtrack-backend/internal/database"
	"pcbtrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// GET /api/export/components
// Komponent envanterini xlsx olarak indirir; düşük stoklu satırlar ayrıca işaretlenir
func ExportComponentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var components []models.Component
		if err := database.DB.Order("name ASC").Find(&components).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Komponentler okunamadı")
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Komponentler"
		f.SetSheetName("Sheet1", sheet)

		headers := []string{
			"Parça No", "Ad", "Kategori", "Mevcut Stok",
			"Aylık İhtiyaç", "Stok Oranı", "Birim Fiyat", "Stok Değeri", "Tedarikçi", "Durum",
		}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for rowIdx, comp := range components {
			row := rowIdx + 2
			ratio := comp.StockRatio()

			status := "YETERLİ"
			if comp.MonthlyRequiredQuantity > 0 {
				switch {
				case ratio < 0.2:
					status = "KRİTİK"
				case ratio < 0.5:
					status = "DÜŞÜK"
				}
			}

			stockValue := comp.UnitPrice.Mul(
				decimal.NewFromInt(int64(comp.CurrentStock))).Round(2)

			values := []any{
				comp.PartNumber,
				comp.Name,
				comp.Category,
				comp.CurrentStock,
				comp.MonthlyRequiredQuantity,
				fmt.Sprintf("%.2f", ratio),
				comp.UnitPrice.String(),
				stockValue.String(),
				comp.Supplier,
				status,
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(sheet, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		filename := "komponentler_" + time.Now().Format("2006-01-02") + ".xlsx"
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
		return c.Send(buf.Bytes())
	}
}

// GET /api/export/productions?start_date=&end_date=
// Üretim kayıtlarını xlsx olarak indirir
func ExportProductionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := database.DB.Model(&models.ProductionEntry{}).
			Preload("PCB").
			Preload("User")

		if start := c.Query("start_date"); start != "" {
			if parsed, err := time.Parse("2006-01-02", start); err == nil {
				query = query.Where("production_date >= ?", parsed)
			}
		}
		if end := c.Query("end_date"); end != "" {
			if parsed, err := time.Parse("2006-01-02", end); err == nil {
				query = query.Where("production_date < ?", parsed.AddDate(0, 0, 1))
			}
		}

		var entries []models.ProductionEntry
		if err := query.Order("production_date ASC").Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üretim kayıtları okunamadı")
		}

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Üretimler"
		f.SetSheetName("Sheet1", sheet)

		headers := []string{"Tarih", "PCB", "PCB Kodu", "Adet", "Kaydeden", "Not"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		for rowIdx, e := range entries {
			row := rowIdx + 2
			values := []any{
				e.ProductionDate.Format("2006-01-02"),
				e.PCB.Name,
				e.PCB.Code,
				e.QuantityProduced,
				e.User.Username,
				e.Notes,
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(sheet, cell, v)
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		filename := "uretimler_" + time.Now().Format("2006-01-02") + ".xlsx"
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
		return c.Send(buf.Bytes())
	}
}
