package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// InventoryHandler maneja las peticiones HTTP de movimientos, stock, kardex y stock bajo (protegido).
type InventoryHandler struct {
	uc  *inventory.InventoryUseCase
	log *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.InventoryUseCase, log *logger.Logger) *InventoryHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &InventoryHandler{uc: uc, log: log}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  Aplica el movimiento de forma atómica. Con reference_id repetido no escribe nada
//
//	y responde 200 con la entrada original (applied=false).
//
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "item_id, kind, magnitude y ubicaciones según el tipo"
// @Success      201   {object}  dto.MovementResponse
// @Success      200   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Failure      504   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	tenantID, actorID := GetTenantID(c), GetActorID(c)
	if tenantID == "" || actorID == "" {
		return respond(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "token inválido")
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return respond(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	in.Kind = strings.TrimSpace(in.Kind)
	in.Sign = strings.ToUpper(strings.TrimSpace(in.Sign))
	if err := validate.Struct(in); err != nil {
		return validationError(c, err)
	}
	out, err := h.uc.RegisterMovement(c.UserContext(), tenantID, actorID, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	status := fiber.StatusCreated
	if !out.Applied {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(out)
}

// GetItemStock godoc
// @Summary      Stock actual del ítem por ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {array}   dto.StockProjectionDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/stock [get]
func (h *InventoryHandler) GetItemStock(c *fiber.Ctx) error {
	out, err := h.uc.ItemStock(c.UserContext(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetKardex godoc
// @Summary      Kardex del ítem (más reciente primero)
// @Description  Paginación por cursor: next_cursor se envía como before en la siguiente página.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del ítem"
// @Param        limit   query  int     false  "Tamaño de página (1-100, por defecto 50)"
// @Param        before  query  int     false  "Cursor: secuencia exclusiva"
// @Success      200  {object}  dto.KardexPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/kardex [get]
func (h *InventoryHandler) GetKardex(c *fiber.Ctx) error {
	var page dto.CursorRequest
	if err := c.QueryParser(&page); err != nil {
		return respond(c, fiber.StatusBadRequest, "INVALID_QUERY", "parámetros de paginación inválidos")
	}
	if err := validate.Struct(page); err != nil {
		return validationError(c, err)
	}
	out, err := h.uc.Kardex(c.UserContext(), GetTenantID(c), c.Params("id"), page)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// VerifyKardex godoc
// @Summary      Conciliar kardex contra la proyección de stock
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.ReconciliationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/kardex/verify [get]
func (h *InventoryHandler) VerifyKardex(c *fiber.Ctx) error {
	out, err := h.uc.VerifyKardex(c.UserContext(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetKardexPDF godoc
// @Summary      Kardex imprimible en PDF
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/items/{id}/kardex/pdf [get]
func (h *InventoryHandler) GetKardexPDF(c *fiber.Ctx) error {
	itemID := c.Params("id")
	doc, err := h.uc.KardexPDF(c.UserContext(), GetTenantID(c), itemID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="kardex-`+itemID+`.pdf"`)
	return c.Send(doc)
}

// GetLowStock godoc
// @Summary      Ítems por debajo del stock mínimo
// @Description  Ordenados del más deficitario al menos deficitario.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.LowStockResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	out, err := h.uc.LowStock(c.UserContext(), GetTenantID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
