package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/davcruz/facturador-api/internal/domain/entity"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// DocumentItemRequest línea del comprobante a crear.
type DocumentItemRequest struct {
	ProductCode string          `json:"product_code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TaxRate     decimal.Decimal `json:"tax_rate"` // porcentaje entero: 0, 12, 15
}

// CreateDocumentRequest creación de un comprobante en borrador.
type CreateDocumentRequest struct {
	CustomerID      string                `json:"customer_id"`
	EmissionPointID string                `json:"emission_point_id"`
	DocumentType    string                `json:"document_type"` // codDoc: 01, 04, 05, 07
	IssueDate       *time.Time            `json:"issue_date,omitempty"`
	DueDate         *time.Time            `json:"due_date,omitempty"`
	Items           []DocumentItemRequest `json:"items"`

	// Documento sustento (notas de crédito/débito y retenciones).
	ModifiedDocType   string     `json:"modified_doc_type,omitempty"`
	ModifiedDocNumber string     `json:"modified_doc_number,omitempty"`
	ModifiedDocDate   *time.Time `json:"modified_doc_date,omitempty"`
	Motive            string     `json:"motive,omitempty"`
}

// CreateEmissionPointRequest alta de un punto de emisión.
type CreateEmissionPointRequest struct {
	EstablishmentCode string `json:"establishment_code"` // 3 dígitos
	EmissionPointCode string `json:"emission_point_code"`
}

// CreateCustomerRequest alta de comprador.
type CreateCustomerRequest struct {
	Name               string `json:"name"`
	IdentificationType string `json:"identification_type"`
	Identification     string `json:"identification"`
	Email              string `json:"email,omitempty"`
	Phone              string `json:"phone,omitempty"`
	Address            string `json:"address,omitempty"`
}

// UploadCertificateRequest carga del certificado de firma (.p12 en Base64).
type UploadCertificateRequest struct {
	CertificateB64 string `json:"certificate_b64"`
	Password       string `json:"password"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// DocumentItemResponse línea de comprobante.
type DocumentItemResponse struct {
	ID          string          `json:"id"`
	ProductCode string          `json:"product_code,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// DocumentResponse comprobante completo.
type DocumentResponse struct {
	ID              string     `json:"id"`
	CustomerID      string     `json:"customer_id"`
	EmissionPointID string     `json:"emission_point_id"`
	DocumentType    string     `json:"document_type"`
	Number          string     `json:"number,omitempty"`
	Status          string     `json:"status"`
	IssueDate       time.Time  `json:"issue_date"`
	DueDate         *time.Time `json:"due_date,omitempty"`

	Subtotal decimal.Decimal `json:"subtotal"`
	TaxTotal decimal.Decimal `json:"tax_total"`
	Total    decimal.Decimal `json:"total"`

	AccessKey           string     `json:"access_key,omitempty"`
	AuthorizationNumber string     `json:"authorization_number,omitempty"`
	AuthorizedAt        *time.Time `json:"authorized_at,omitempty"`
	SubmittedAt         *time.Time `json:"submitted_at,omitempty"`
	SRIErrors           string     `json:"sri_errors,omitempty"`

	Items []DocumentItemResponse `json:"items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SriErrorLogResponse fila de la bitácora de errores SRI.
type SriErrorLogResponse struct {
	Operation string    `json:"operation"`
	ErrorCode string    `json:"error_code"`
	Message   string    `json:"message"`
	Attempt   int       `json:"attempt"`
	CreatedAt time.Time `json:"created_at"`
}

// EmissionPointResponse punto de emisión con sus contadores.
type EmissionPointResponse struct {
	ID                   string `json:"id"`
	EstablishmentCode    string `json:"establishment_code"`
	EmissionPointCode    string `json:"emission_point_code"`
	IsActive             bool   `json:"is_active"`
	InvoiceSequential    int64  `json:"invoice_sequential"`
	CreditNoteSequential int64  `json:"credit_note_sequential"`
	DebitNoteSequential  int64  `json:"debit_note_sequential"`
	RetentionSequential  int64  `json:"retention_sequential"`
}

// ── Mappers ───────────────────────────────────────────────────────────────────

// ToDocumentResponse mapea la entidad al contrato HTTP.
func ToDocumentResponse(doc *entity.TaxDocument, items []*entity.TaxDocumentItem) *DocumentResponse {
	resp := &DocumentResponse{
		ID:                  doc.ID,
		CustomerID:          doc.CustomerID,
		EmissionPointID:     doc.EmissionPointID,
		DocumentType:        doc.DocumentType,
		Number:              doc.Number,
		Status:              doc.Status,
		IssueDate:           doc.IssueDate,
		DueDate:             doc.DueDate,
		Subtotal:            doc.Subtotal,
		TaxTotal:            doc.TaxTotal,
		Total:               doc.Total,
		AccessKey:           doc.AccessKey,
		AuthorizationNumber: doc.AuthorizationNumber,
		AuthorizedAt:        doc.AuthorizedAt,
		SubmittedAt:         doc.SubmittedAt,
		SRIErrors:           doc.SRIErrors,
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, DocumentItemResponse{
			ID:          it.ID,
			ProductCode: it.ProductCode,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Discount:    it.Discount,
			Subtotal:    it.Subtotal,
			TaxRate:     it.TaxRate,
		})
	}
	return resp
}

// ToEmissionPointResponse mapea la entidad al contrato HTTP.
func ToEmissionPointResponse(ep *entity.EmissionPoint) *EmissionPointResponse {
	return &EmissionPointResponse{
		ID:                   ep.ID,
		EstablishmentCode:    ep.EstablishmentCode,
		EmissionPointCode:    ep.EmissionPointCode,
		IsActive:             ep.IsActive,
		InvoiceSequential:    ep.InvoiceSequential,
		CreditNoteSequential: ep.CreditNoteSequential,
		DebitNoteSequential:  ep.DebitNoteSequential,
		RetentionSequential:  ep.RetentionSequential,
	}
}

// CustomerResponse comprador del tenant.
type CustomerResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	IdentificationType string    `json:"identification_type"`
	Identification     string    `json:"identification"`
	Email              string    `json:"email,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Address            string    `json:"address,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// ToCustomerResponse mapea la entidad al contrato HTTP.
func ToCustomerResponse(c *entity.Customer) *CustomerResponse {
	return &CustomerResponse{
		ID:                 c.ID,
		Name:               c.Name,
		IdentificationType: c.IdentificationType,
		Identification:     c.Identification,
		Email:              c.Email,
		Phone:              c.Phone,
		Address:            c.Address,
		CreatedAt:          c.CreatedAt,
	}
}

// CertificateResponse metadatos del certificado de firma; nunca incluye el
// blob ni la contraseña.
type CertificateResponse struct {
	SubjectCN string    `json:"subject_cn"`
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToCertificateResponse mapea la entidad al contrato HTTP.
func ToCertificateResponse(c *entity.Certificate) *CertificateResponse {
	return &CertificateResponse{
		SubjectCN: c.SubjectCN,
		NotBefore: c.NotBefore,
		NotAfter:  c.NotAfter,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToSriErrorLogResponses mapea la bitácora al contrato HTTP.
func ToSriErrorLogResponses(rows []*entity.SriErrorLog) []SriErrorLogResponse {
	out := make([]SriErrorLogResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, SriErrorLogResponse{
			Operation: r.Operation,
			ErrorCode: r.ErrorCode,
			Message:   r.Message,
			Attempt:   r.Attempt,
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}
