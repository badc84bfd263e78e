package entity

import "time"

// Customer representa un comprador de la empresa (datos del adquiriente en el XML).
type Customer struct {
	ID                 string
	CompanyID          string
	Name               string
	IdentificationType string // 04 RUC, 05 cédula, 06 pasaporte, 07 consumidor final
	Identification     string
	Email              string
	Phone              string
	Address            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
