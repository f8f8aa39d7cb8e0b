package main

import (
	"log"
	"strings"

	"pcbtrack-backend/internal/audit"
	"pcbtrack-backend/internal/auth"
	"pcbtrack-backend/internal/config"
	"pcbtrack-backend/internal/dashboard"
	"pcbtrack-backend/internal/database"
	"pcbtrack-backend/internal/excel"
	"pcbtrack-backend/internal/inventory"
	"pcbtrack-backend/internal/models"
	"pcbtrack-backend/internal/pcb"
	"pcbtrack-backend/internal/procurement"
	"pcbtrack-backend/internal/production"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	// .env varsa yükle, yoksa sessizce geç (container ortamında env zaten set)
	_ = godotenv.Load()

	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Komponent envanteri
	protected.Get("/components", inventory.ListComponentsHandler())
	protected.Get("/components/low-stock", inventory.LowStockComponentsHandler())
	protected.Get("/components/:id", inventory.GetComponentHandler())
	protected.Post("/components", inventory.CreateComponentHandler())
	protected.Put("/components/:id", inventory.UpdateComponentHandler())

	// PCB tanımları ve BOM
	protected.Get("/pcbs", pcb.ListPCBsHandler())
	protected.Get("/pcbs/:id", pcb.GetPCBHandler())

	// Üretim kayıtları
	protected.Post("/productions", production.CreateProductionHandler())
	protected.Post("/productions/preview", production.PreviewProductionHandler())
	protected.Get("/productions", production.ListProductionsHandler())
	protected.Get("/productions/:id", production.GetProductionHandler())

	// Tedarik tetikleyicileri
	protected.Get("/procurement/triggers", procurement.ListTriggersHandler())
	protected.Get("/procurement/triggers/summary", procurement.TriggerSummaryHandler())
	protected.Put("/procurement/triggers/:id/status", procurement.UpdateTriggerStatusHandler())

	// Dashboard & analitik
	protected.Get("/dashboard/stats", dashboard.DashboardStatsHandler())
	protected.Get("/dashboard/category-distribution", dashboard.CategoryDistributionHandler())
	protected.Get("/dashboard/consumption-summary", dashboard.ConsumptionSummaryHandler())
	protected.Get("/dashboard/top-consumed", dashboard.TopConsumedHandler())
	protected.Get("/dashboard/consumption-trend", dashboard.ConsumptionTrendHandler())
	protected.Get("/dashboard/anomaly", dashboard.ConsumptionAnomalyHandler())

	// Excel dışa aktarma
	protected.Get("/export/components", excel.ExportComponentsHandler())
	protected.Get("/export/productions", excel.ExportProductionsHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	// Admin route'ları
	adminRoutes := protected.Group("")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Delete("/components/:id", inventory.DeleteComponentHandler())

	adminRoutes.Post("/pcbs", pcb.CreatePCBHandler())
	adminRoutes.Put("/pcbs/:id", pcb.UpdatePCBHandler())
	adminRoutes.Delete("/pcbs/:id", pcb.DeletePCBHandler())
	adminRoutes.Post("/pcbs/:id/components", pcb.AddBOMLineHandler())
	adminRoutes.Put("/pcbs/:id/components/:componentId", pcb.UpdateBOMLineHandler())
	adminRoutes.Delete("/pcbs/:id/components/:componentId", pcb.RemoveBOMLineHandler())

	adminRoutes.Delete("/productions/:id", production.DeleteProductionHandler())
	adminRoutes.Post("/procurement/triggers", procurement.CreateManualTriggerHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
