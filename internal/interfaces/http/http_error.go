package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/davcruz/facturador-api/internal/application/billing"
	"github.com/davcruz/facturador-api/internal/application/dto"
	"github.com/davcruz/facturador-api/internal/domain"
)

// respondDomainError mapea los errores centinela del dominio a respuestas
// HTTP con código estable. Los errores de certificado responden 422: la
// petición está bien formada pero el tenant debe corregir su configuración.
func respondDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrEmissionPointNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: billing.CodeEmissionPointNotFound, Message: "punto de emisión no encontrado"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrEmissionPointInactive):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: billing.CodeEmissionPointInactive, Message: "punto de emisión desactivado"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: billing.CodeInvalidState, Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"})
	case errors.Is(err, domain.ErrCertificateNotConfigured):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: billing.CodeCertificateNotConfigured, Message: "el tenant no tiene certificado de firma cargado"})
	case errors.Is(err, domain.ErrCertificateExpired):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: billing.CodeCertificateExpired, Message: "el certificado de firma está fuera de su ventana de validez"})
	case errors.Is(err, domain.ErrCertificateInvalidPassword):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: billing.CodeCertificateInvalidPasswd, Message: "no se pudo abrir el certificado con la contraseña provista"})
	case errors.Is(err, domain.ErrSRIUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: billing.CodeSRIUnavailable, Message: "el servicio del SRI no está disponible, reintente más tarde"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "no autenticado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: billing.CodeInternal, Message: "error interno"})
	}
}
