package entity

import "time"

// LocationKind clasifica una ubicación de almacenamiento.
type LocationKind string

const (
	LocationWarehouse LocationKind = "warehouse"
	LocationVehicle   LocationKind = "vehicle"
	LocationSite      LocationKind = "site"
)

// Location representa una bodega, vehículo u obra donde se guarda stock.
// Cada tenant tiene exactamente una ubicación por defecto.
type Location struct {
	ID        string
	TenantID  string
	Name      string
	Kind      LocationKind
	IsDefault bool
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
