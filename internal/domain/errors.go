package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores del motor de emisión electrónica SRI.
var (
	// ErrEmissionPointNotFound el punto de emisión no existe o no pertenece al tenant.
	ErrEmissionPointNotFound = errors.New("punto de emisión no encontrado")
	// ErrEmissionPointInactive el punto de emisión está desactivado: no asigna secuenciales.
	ErrEmissionPointInactive = errors.New("punto de emisión inactivo")

	// ErrCertificateNotConfigured el tenant no ha cargado su certificado de firma.
	ErrCertificateNotConfigured = errors.New("certificado de firma no configurado")
	// ErrCertificateExpired el certificado está fuera de su ventana de validez.
	ErrCertificateExpired = errors.New("certificado de firma expirado o aún no vigente")
	// ErrCertificateInvalidPassword la contraseña no abre el contenedor .p12.
	ErrCertificateInvalidPassword = errors.New("contraseña del certificado incorrecta")

	// ErrSRIUnavailable fallo transitorio de red o timeout contra el WS del SRI; reintentable.
	ErrSRIUnavailable = errors.New("servicio del SRI no disponible")
	// ErrSRIRejected rechazo de negocio del SRI; terminal para esta clave de acceso.
	ErrSRIRejected = errors.New("comprobante rechazado por el SRI")
)
