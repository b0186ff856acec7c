package entity

// Roles válidos en los claims del token.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// Actor identidad que ejecuta un movimiento (directorio externo, solo lectura).
type Actor struct {
	ID       string
	TenantID string
	Name     string
	Email    string
}
