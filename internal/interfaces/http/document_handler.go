package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/davcruz/facturador-api/internal/application/billing"
	"github.com/davcruz/facturador-api/internal/application/dto"
	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
)

// DocumentHandler expone el ciclo de vida completo del comprobante
// electrónico: creación en borrador, generación de XML, firma, envío al SRI,
// consulta de autorización, RIDE y acciones posteriores.
type DocumentHandler struct {
	create    *billing.CreateDocumentUseCase
	generate  *billing.GenerateXMLUseCase
	sign      *billing.SignDocumentUseCase
	submit    *billing.SubmitDocumentUseCase
	poller    *billing.AuthorizationPoller
	ride      *billing.RideUseCase
	lifecycle *billing.LifecycleActions
	docs      repository.TaxDocumentRepository
	logs      repository.SriErrorLogRepository
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(
	create *billing.CreateDocumentUseCase,
	generate *billing.GenerateXMLUseCase,
	sign *billing.SignDocumentUseCase,
	submit *billing.SubmitDocumentUseCase,
	poller *billing.AuthorizationPoller,
	ride *billing.RideUseCase,
	lifecycle *billing.LifecycleActions,
	docs repository.TaxDocumentRepository,
	logs repository.SriErrorLogRepository,
) *DocumentHandler {
	return &DocumentHandler{
		create: create, generate: generate, sign: sign, submit: submit,
		poller: poller, ride: ride, lifecycle: lifecycle, docs: docs, logs: logs,
	}
}

// Create crea un comprobante en borrador.
// POST /api/documents
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, items, err := h.create.Create(c.Context(), companyID, &in)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToDocumentResponse(doc, items))
}

// GetByID devuelve el comprobante con sus líneas. Materializa el vencimiento
// en lectura: un comprobante SENT con fecha de vencimiento pasada pasa a
// OVERDUE antes de responder.
// GET /api/documents/:id
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	doc, err := h.fetchOwned(c, companyID)
	if err != nil {
		return respondDomainError(c, err)
	}
	if err := h.lifecycle.RefreshOverdue(c.Context(), doc, time.Now()); err != nil {
		return respondDomainError(c, err)
	}
	items, err := h.docs.GetItems(c.Context(), doc.ID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc, items))
}

// List lista los comprobantes del tenant.
// GET /api/documents?limit=20&offset=0
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros de paginación inválidos"})
	}
	page.Normalize()
	docs, err := h.docs.ListByCompany(c.Context(), companyID, page.Limit, page.Offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	out := make([]*dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, dto.ToDocumentResponse(d, nil))
	}
	return c.JSON(out)
}

// GetStatus devuelve solo el estado del ciclo de vida, pensado para clientes
// que hacen polling. Aplica el mismo vencimiento en lectura que GetByID.
// GET /api/documents/:id/status
func (h *DocumentHandler) GetStatus(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	doc, err := h.fetchOwned(c, companyID)
	if err != nil {
		return respondDomainError(c, err)
	}
	if err := h.lifecycle.RefreshOverdue(c.Context(), doc, time.Now()); err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"id":                   doc.ID,
		"status":               doc.Status,
		"access_key":           doc.AccessKey,
		"authorization_number": doc.AuthorizationNumber,
		"authorized_at":        doc.AuthorizedAt,
		"sri_errors":           doc.SRIErrors,
	})
}

// GenerateXML asigna numeración y clave de acceso y genera el XML canónico.
// POST /api/documents/:id/generate-xml
func (h *DocumentHandler) GenerateXML(c *fiber.Ctx) error {
	doc, err := h.generate.GenerateXML(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc, nil))
}

// Sign firma el XML con el certificado del tenant.
// POST /api/documents/:id/sign
func (h *DocumentHandler) Sign(c *fiber.Ctx) error {
	doc, err := h.sign.Sign(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc, nil))
}

// Submit envía el comprobante firmado al WS de recepción del SRI.
// POST /api/documents/:id/submit-sri
func (h *DocumentHandler) Submit(c *fiber.Ctx) error {
	doc, err := h.submit.Submit(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc, nil))
}

// CheckAuthorization consulta el veredicto de autorización del SRI.
// POST /api/documents/:id/check-authorization
func (h *DocumentHandler) CheckAuthorization(c *fiber.Ctx) error {
	doc, err := h.poller.Poll(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc, nil))
}

// GetRIDE devuelve el PDF del comprobante autorizado.
// GET /api/documents/:id/ride
func (h *DocumentHandler) GetRIDE(c *fiber.Ctx) error {
	pdfBytes, err := h.ride.GetRIDE(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="ride.pdf"`)
	return c.Send(pdfBytes)
}

// ListErrors devuelve la bitácora de errores SRI del comprobante.
// GET /api/documents/:id/errors
func (h *DocumentHandler) ListErrors(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	doc, err := h.fetchOwned(c, companyID)
	if err != nil {
		return respondDomainError(c, err)
	}
	rows, err := h.logs.ListByDocument(c.Context(), doc.ID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(dto.ToSriErrorLogResponses(rows))
}

// MarkSent marca el comprobante autorizado como entregado al cliente.
// POST /api/documents/:id/mark-sent
func (h *DocumentHandler) MarkSent(c *fiber.Ctx) error {
	doc, err := h.lifecycle.MarkSent(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc, nil))
}

// MarkPaid marca el comprobante enviado como pagado.
// POST /api/documents/:id/mark-paid
func (h *DocumentHandler) MarkPaid(c *fiber.Ctx) error {
	doc, err := h.lifecycle.MarkPaid(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(dto.ToDocumentResponse(doc, nil))
}

// fetchOwned obtiene el comprobante del path validando el tenant del token.
func (h *DocumentHandler) fetchOwned(c *fiber.Ctx, companyID string) (*entity.TaxDocument, error) {
	doc, err := h.docs.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}
