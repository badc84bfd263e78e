package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
)

var _ repository.TaxDocumentRepository = (*TaxDocumentRepo)(nil)

// TaxDocumentRepo implementa TaxDocumentRepository sobre PostgreSQL.
type TaxDocumentRepo struct {
	q Querier
}

func NewTaxDocumentRepository(q Querier) *TaxDocumentRepo {
	return &TaxDocumentRepo{q: q}
}

const taxDocumentColumns = `
	id, company_id, customer_id, emission_point_id, document_type,
	establishment, emission_point, sequential, number, status,
	issue_date, due_date, subtotal, tax_total, total,
	access_key, numeric_code, authorization_number, authorized_at, submitted_at,
	sri_errors, xml_path, signed_xml_path, ride_path,
	modified_doc_type, modified_doc_number, modified_doc_date, motive,
	created_at, updated_at`

func (r *TaxDocumentRepo) Create(ctx context.Context, doc *entity.TaxDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO tax_documents
			(id, company_id, customer_id, emission_point_id, document_type,
			 establishment, emission_point, sequential, number, status,
			 issue_date, due_date, subtotal, tax_total, total,
			 access_key, numeric_code, authorization_number, authorized_at, submitted_at,
			 sri_errors, xml_path, signed_xml_path, ride_path,
			 modified_doc_type, modified_doc_number, modified_doc_date, motive,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		        $21, $22, $23, $24, $25, $26, $27, $28, now(), now())`
	_, err := r.q.Exec(ctx, q,
		doc.ID, doc.CompanyID, doc.CustomerID, doc.EmissionPointID, doc.DocumentType,
		nullIfEmpty(doc.Establishment), nullIfEmpty(doc.EmissionPoint), doc.Sequential, nullIfEmpty(doc.Number), doc.Status,
		doc.IssueDate, doc.DueDate, doc.Subtotal, doc.TaxTotal, doc.Total,
		nullIfEmpty(doc.AccessKey), nullIfEmpty(doc.NumericCode), nullIfEmpty(doc.AuthorizationNumber), doc.AuthorizedAt, doc.SubmittedAt,
		nullIfEmpty(doc.SRIErrors), nullIfEmpty(doc.XMLPath), nullIfEmpty(doc.SignedXMLPath), nullIfEmpty(doc.RIDEPath),
		nullIfEmpty(doc.ModifiedDocType), nullIfEmpty(doc.ModifiedDocNumber), doc.ModifiedDocDate, nullIfEmpty(doc.Motive),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: comprobante duplicado", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert tax_document: %w", err)
	}
	return nil
}

func (r *TaxDocumentRepo) CreateItem(ctx context.Context, item *entity.TaxDocumentItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO tax_document_items
			(id, document_id, product_code, description, quantity, unit_price, discount, subtotal, tax_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, q,
		item.ID, item.DocumentID, nullIfEmpty(item.ProductCode), item.Description,
		item.Quantity, item.UnitPrice, item.Discount, item.Subtotal, item.TaxRate,
	)
	if err != nil {
		return fmt.Errorf("insert tax_document_item: %w", err)
	}
	return nil
}

func (r *TaxDocumentRepo) GetByID(ctx context.Context, id string) (*entity.TaxDocument, error) {
	q := `SELECT ` + taxDocumentColumns + ` FROM tax_documents WHERE id = $1`
	doc, err := scanTaxDocument(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tax_document: %w", err)
	}
	return doc, nil
}

// GetByIDForUpdate toma el lock de fila del comprobante. Sobre la transacción
// de emisión serializa a dos llamadas concurrentes sobre el mismo documento:
// la segunda espera el commit de la primera y relee el estado ya confirmado.
func (r *TaxDocumentRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.TaxDocument, error) {
	q := `SELECT ` + taxDocumentColumns + ` FROM tax_documents WHERE id = $1 FOR UPDATE`
	doc, err := scanTaxDocument(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock tax_document: %w", err)
	}
	return doc, nil
}

func (r *TaxDocumentRepo) GetItems(ctx context.Context, documentID string) ([]*entity.TaxDocumentItem, error) {
	const q = `
		SELECT id, document_id, product_code, description, quantity, unit_price, discount, subtotal, tax_rate
		FROM tax_document_items
		WHERE document_id = $1
		ORDER BY id`
	rows, err := r.q.Query(ctx, q, documentID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	var items []*entity.TaxDocumentItem
	for rows.Next() {
		var it entity.TaxDocumentItem
		var productCode *string
		if err := rows.Scan(&it.ID, &it.DocumentID, &productCode, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.Discount, &it.Subtotal, &it.TaxRate); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.ProductCode = derefStr(productCode)
		items = append(items, &it)
	}
	return items, rows.Err()
}

// Update persiste todo el estado mutable del ciclo SRI. Los campos inmutables
// (empresa, cliente, tipo) no se tocan.
func (r *TaxDocumentRepo) Update(ctx context.Context, doc *entity.TaxDocument) error {
	const q = `
		UPDATE tax_documents SET
			establishment = $2, emission_point = $3, sequential = $4, number = $5,
			status = $6, issue_date = $7, due_date = $8,
			subtotal = $9, tax_total = $10, total = $11,
			access_key = $12, numeric_code = $13,
			authorization_number = $14, authorized_at = $15, submitted_at = $16,
			sri_errors = $17, xml_path = $18, signed_xml_path = $19, ride_path = $20,
			modified_doc_type = $21, modified_doc_number = $22, modified_doc_date = $23, motive = $24,
			updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q,
		doc.ID,
		nullIfEmpty(doc.Establishment), nullIfEmpty(doc.EmissionPoint), doc.Sequential, nullIfEmpty(doc.Number),
		doc.Status, doc.IssueDate, doc.DueDate,
		doc.Subtotal, doc.TaxTotal, doc.Total,
		nullIfEmpty(doc.AccessKey), nullIfEmpty(doc.NumericCode),
		nullIfEmpty(doc.AuthorizationNumber), doc.AuthorizedAt, doc.SubmittedAt,
		nullIfEmpty(doc.SRIErrors), nullIfEmpty(doc.XMLPath), nullIfEmpty(doc.SignedXMLPath), nullIfEmpty(doc.RIDEPath),
		nullIfEmpty(doc.ModifiedDocType), nullIfEmpty(doc.ModifiedDocNumber), doc.ModifiedDocDate, nullIfEmpty(doc.Motive),
	)
	if err != nil {
		return fmt.Errorf("update tax_document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateIfStatus persiste el comprobante solo si el estado en la base sigue
// siendo fromStatus. Con cero filas afectadas distingue entre comprobante
// inexistente y carrera perdida contra otra transición.
func (r *TaxDocumentRepo) UpdateIfStatus(ctx context.Context, doc *entity.TaxDocument, fromStatus string) error {
	const q = `
		UPDATE tax_documents SET
			establishment = $2, emission_point = $3, sequential = $4, number = $5,
			status = $6, issue_date = $7, due_date = $8,
			subtotal = $9, tax_total = $10, total = $11,
			access_key = $12, numeric_code = $13,
			authorization_number = $14, authorized_at = $15, submitted_at = $16,
			sri_errors = $17, xml_path = $18, signed_xml_path = $19, ride_path = $20,
			modified_doc_type = $21, modified_doc_number = $22, modified_doc_date = $23, motive = $24,
			updated_at = now()
		WHERE id = $1 AND status = $25`
	tag, err := r.q.Exec(ctx, q,
		doc.ID,
		nullIfEmpty(doc.Establishment), nullIfEmpty(doc.EmissionPoint), doc.Sequential, nullIfEmpty(doc.Number),
		doc.Status, doc.IssueDate, doc.DueDate,
		doc.Subtotal, doc.TaxTotal, doc.Total,
		nullIfEmpty(doc.AccessKey), nullIfEmpty(doc.NumericCode),
		nullIfEmpty(doc.AuthorizationNumber), doc.AuthorizedAt, doc.SubmittedAt,
		nullIfEmpty(doc.SRIErrors), nullIfEmpty(doc.XMLPath), nullIfEmpty(doc.SignedXMLPath), nullIfEmpty(doc.RIDEPath),
		nullIfEmpty(doc.ModifiedDocType), nullIfEmpty(doc.ModifiedDocNumber), doc.ModifiedDocDate, nullIfEmpty(doc.Motive),
		fromStatus,
	)
	if err != nil {
		return fmt.Errorf("update tax_document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var current string
		scanErr := r.q.QueryRow(ctx, `SELECT status FROM tax_documents WHERE id = $1`, doc.ID).Scan(&current)
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if scanErr != nil {
			return fmt.Errorf("update tax_document: %w", scanErr)
		}
		return fmt.Errorf("%w: el comprobante ya no está en estado %s (ahora %s)", domain.ErrConflict, fromStatus, current)
	}
	return nil
}

func (r *TaxDocumentRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.TaxDocument, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := `SELECT ` + taxDocumentColumns + `
		FROM tax_documents
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, q, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list tax_documents: %w", err)
	}
	defer rows.Close()
	var docs []*entity.TaxDocument
	for rows.Next() {
		doc, err := scanTaxDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tax_document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func scanTaxDocument(row pgxScanner) (*entity.TaxDocument, error) {
	var d entity.TaxDocument
	var estab, ptoEmi, number, accessKey, numericCode *string
	var authNumber, sriErrors, xmlPath, signedPath, ridePath *string
	var modType, modNumber, motive *string
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.CustomerID, &d.EmissionPointID, &d.DocumentType,
		&estab, &ptoEmi, &d.Sequential, &number, &d.Status,
		&d.IssueDate, &d.DueDate, &d.Subtotal, &d.TaxTotal, &d.Total,
		&accessKey, &numericCode, &authNumber, &d.AuthorizedAt, &d.SubmittedAt,
		&sriErrors, &xmlPath, &signedPath, &ridePath,
		&modType, &modNumber, &d.ModifiedDocDate, &motive,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Establishment = derefStr(estab)
	d.EmissionPoint = derefStr(ptoEmi)
	d.Number = derefStr(number)
	d.AccessKey = derefStr(accessKey)
	d.NumericCode = derefStr(numericCode)
	d.AuthorizationNumber = derefStr(authNumber)
	d.SRIErrors = derefStr(sriErrors)
	d.XMLPath = derefStr(xmlPath)
	d.SignedXMLPath = derefStr(signedPath)
	d.RIDEPath = derefStr(ridePath)
	d.ModifiedDocType = derefStr(modType)
	d.ModifiedDocNumber = derefStr(modNumber)
	d.Motive = derefStr(motive)
	return &d, nil
}
