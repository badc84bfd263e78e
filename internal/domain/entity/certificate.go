package entity

import "time"

// Certificate guarda el certificado de firma del tenant como blob opaco .p12
// más su contraseña. El material se descifra en memoria únicamente durante la
// llamada de firma; la contraseña y los bytes del blob jamás se registran en
// logs ni se devuelven en errores.
type Certificate struct {
	ID        string
	CompanyID string
	Blob      []byte // contenedor PKCS#12 cifrado, tal como lo subió el tenant
	Password  string
	SubjectCN string    // extraído al cargar, para mostrar sin abrir el blob
	NotBefore time.Time // ventana de validez extraída al cargar
	NotAfter  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
