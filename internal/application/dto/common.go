// Package dto define los contratos de entrada/salida de la API HTTP.
package dto

// ErrorResponse cuerpo estándar de error de la API. Code es un código estable
// pensado para que el cliente pueda actuar sin parsear el mensaje.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PageRequest paginación de listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// Normalize aplica los límites por defecto.
func (p *PageRequest) Normalize() {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}
