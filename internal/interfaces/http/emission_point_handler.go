package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/davcruz/facturador-api/internal/application/billing"
	"github.com/davcruz/facturador-api/internal/application/dto"
)

// EmissionPointHandler administración de puntos de emisión (protegido).
type EmissionPointHandler struct {
	uc *billing.EmissionPointUseCase
}

// NewEmissionPointHandler construye el handler.
func NewEmissionPointHandler(uc *billing.EmissionPointUseCase) *EmissionPointHandler {
	return &EmissionPointHandler{uc: uc}
}

// Create POST /api/emission-points
func (h *EmissionPointHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateEmissionPointRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	ep, err := h.uc.Create(c.Context(), GetCompanyID(c), &in)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToEmissionPointResponse(ep))
}

// List GET /api/emission-points
func (h *EmissionPointHandler) List(c *fiber.Ctx) error {
	points, err := h.uc.List(c.Context(), GetCompanyID(c))
	if err != nil {
		return respondDomainError(c, err)
	}
	out := make([]*dto.EmissionPointResponse, 0, len(points))
	for _, ep := range points {
		out = append(out, dto.ToEmissionPointResponse(ep))
	}
	return c.JSON(out)
}

// SetActive PATCH /api/emission-points/:id/active
// Body: {"active": false}
func (h *EmissionPointHandler) SetActive(c *fiber.Ctx) error {
	var in struct {
		Active *bool `json:"active"`
	}
	if err := c.BodyParser(&in); err != nil || in.Active == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "se requiere el campo active"})
	}
	ep, err := h.uc.SetActive(c.Context(), GetCompanyID(c), c.Params("id"), *in.Active)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(dto.ToEmissionPointResponse(ep))
}
