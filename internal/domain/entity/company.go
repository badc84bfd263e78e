package entity

import "time"

// Company representa una organización/tenant del sistema (emisor SRI).
// El CRUD de tenants vive fuera de este servicio; aquí solo se lee para armar
// la identidad del emisor en el XML y el RIDE.
type Company struct {
	ID                   string
	Name                 string // razón social
	TradeName            string // nombre comercial (opcional)
	RUC                  string // RUC ecuatoriano de 13 dígitos
	Address              string // dirección matriz (dirMatriz)
	ObligadoContabilidad bool
	Email                string
	Phone                string
	Status               string // active, suspended, inactive
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
