package http

import (
	"encoding/base64"

	"github.com/gofiber/fiber/v2"

	"github.com/davcruz/facturador-api/internal/application/billing"
	"github.com/davcruz/facturador-api/internal/application/dto"
)

// CertificateHandler carga y consulta del certificado de firma del tenant.
// La contraseña solo viaja en el cuerpo de la petición; jamás se devuelve ni
// se registra.
type CertificateHandler struct {
	uc *billing.UploadCertificateUseCase
}

// NewCertificateHandler construye el handler.
func NewCertificateHandler(uc *billing.UploadCertificateUseCase) *CertificateHandler {
	return &CertificateHandler{uc: uc}
}

// Upload PUT /api/certificate
// Body: {"certificate_b64": "<p12 en Base64>", "password": "..."}
func (h *CertificateHandler) Upload(c *fiber.Ctx) error {
	var in dto.UploadCertificateRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	blob, err := base64.StdEncoding.DecodeString(in.CertificateB64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "certificate_b64 no es Base64 válido"})
	}
	cert, err := h.uc.Upload(c.Context(), GetCompanyID(c), blob, in.Password)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToCertificateResponse(cert))
}

// Info GET /api/certificate
func (h *CertificateHandler) Info(c *fiber.Ctx) error {
	cert, err := h.uc.Info(c.Context(), GetCompanyID(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	if cert == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: billing.CodeCertificateNotConfigured, Message: "el tenant no tiene certificado cargado"})
	}
	return c.JSON(dto.ToCertificateResponse(cert))
}
