package http

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var validate = validator.New()

// ValidationErrorResponse cuerpo 400 con el tag que falló por campo.
type ValidationErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

// validationFields traduce validator.ValidationErrors a campo → tag.
func validationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, ve := range verrs {
		out[ve.Field()] = ve.Tag()
	}
	return out
}

func validationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(ValidationErrorResponse{
		Code: "VALIDATION", Message: "datos inválidos", Fields: validationFields(err),
	})
}

// writeError responde con el status que corresponde a la taxonomía de errores del motor.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var insufficient *domain.InsufficientStockError
	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(dto.InsufficientStockResponse{
			Code:       "INSUFFICIENT_STOCK",
			Message:    "stock insuficiente",
			LocationID: insufficient.LocationID,
			Available:  insufficient.Available.String(),
			Requested:  insufficient.Requested.String(),
		})
	case errors.Is(err, domain.ErrInsufficientStock):
		return respond(c, fiber.StatusConflict, "INSUFFICIENT_STOCK", "stock insuficiente")
	case errors.Is(err, domain.ErrNoOp):
		return respond(c, fiber.StatusBadRequest, "NO_OP", "la magnitud del movimiento es cero")
	case errors.Is(err, domain.ErrInvalidMovementRequest), errors.Is(err, domain.ErrInvalidInput):
		return respond(c, fiber.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, domain.ErrUnknownItem):
		return respond(c, fiber.StatusNotFound, "UNKNOWN_ITEM", "ítem no encontrado")
	case errors.Is(err, domain.ErrUnknownLocation):
		return respond(c, fiber.StatusNotFound, "UNKNOWN_LOCATION", "ubicación no encontrada")
	case errors.Is(err, domain.ErrNotFound):
		return respond(c, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado")
	case errors.Is(err, domain.ErrUnsupportedItemType):
		return respond(c, fiber.StatusUnprocessableEntity, "UNSUPPORTED_ITEM_TYPE", "el ítem no lleva inventario")
	case errors.Is(err, domain.ErrForbidden):
		return respond(c, fiber.StatusForbidden, "FORBIDDEN", "acceso denegado al recurso")
	case errors.Is(err, domain.ErrStorageContention):
		c.Set(fiber.HeaderRetryAfter, "1")
		return respond(c, fiber.StatusServiceUnavailable, "STORAGE_CONTENTION", "alta concurrencia sobre el stock, reintente")
	case errors.Is(err, context.DeadlineExceeded):
		return respond(c, fiber.StatusGatewayTimeout, "TIMEOUT", "la operación excedió el tiempo límite")
	case errors.Is(err, context.Canceled):
		return respond(c, fiber.StatusRequestTimeout, "CANCELLED", "la solicitud fue cancelada")
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	return respond(c, fiber.StatusInternalServerError, "INTERNAL", "error interno")
}

func respond(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
