package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// RouterDeps dependencias de las rutas HTTP.
type RouterDeps struct {
	Inventory *inventory.InventoryUseCase
	JWTSecret string
	Log       *logger.Logger
}

// Router registra las rutas de la API bajo /api.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	anyRole := RequireRole(entity.RoleAdmin, entity.RoleBodeguero, entity.RoleVendedor)
	warehouse := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)

	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Inventory, deps.Log)
	invGroup.Post("/movements", anyRole, inventoryHandler.RegisterMovement)
	invGroup.Get("/items/:id/stock", anyRole, inventoryHandler.GetItemStock)
	invGroup.Get("/items/:id/kardex", warehouse, inventoryHandler.GetKardex)
	invGroup.Get("/items/:id/kardex/verify", warehouse, inventoryHandler.VerifyKardex)
	invGroup.Get("/items/:id/kardex/pdf", warehouse, inventoryHandler.GetKardexPDF)
	invGroup.Get("/low-stock", anyRole, inventoryHandler.GetLowStock)
}
