package entity

import "time"

// Operaciones registradas en la bitácora de errores SRI.
const (
	OperationGenerateXML        = "GenerateXML"
	OperationSignDocument       = "SignDocument"
	OperationSubmitReception    = "SubmitReception"
	OperationCheckAuthorization = "CheckAuthorization"
)

// SriErrorLog una fila por intento fallido de firma, envío o consulta de
// autorización. Solo se insertan filas, nunca se actualizan: el resultado de
// un reintento queda en la fila siguiente (Attempt creciente por documento y
// operación), no en esta.
type SriErrorLog struct {
	ID         string
	DocumentID string
	CompanyID  string
	Operation  string // ver constantes Operation*
	ErrorCode  string // código estable (CERTIFICATE_EXPIRED, SRI_UNAVAILABLE, ...)
	Message    string
	RawPayload string // diagnóstico crudo (respuesta SOAP, mensaje del SRI); nunca credenciales
	Attempt    int    // ordinal del intento para (documento, operación), desde 1
	CreatedAt  time.Time
}
