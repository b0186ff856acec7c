package dto

// CursorRequest paginación por cursor (keyset) para listados del ledger.
type CursorRequest struct {
	Limit  int   `query:"limit" validate:"omitempty,min=1,max=100"`
	Before int64 `query:"before" validate:"omitempty,min=1"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InsufficientStockResponse cuerpo de error 409 con el detalle de disponibilidad.
type InsufficientStockResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	LocationID string `json:"location_id"`
	Available  string `json:"available"`
	Requested  string `json:"requested"`
}
