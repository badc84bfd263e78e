package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
	domsri "github.com/davcruz/facturador-api/internal/domain/sri"
	infrasri "github.com/davcruz/facturador-api/internal/infrastructure/sri"
	"github.com/davcruz/facturador-api/pkg/logger"
	pkgsri "github.com/davcruz/facturador-api/pkg/sri"
)

// GenerateXMLUseCase asigna numeración y clave de acceso y construye el XML
// canónico del comprobante.
//
// La sección crítica corre en una transacción: el incremento del secuencial,
// la escritura de numeración/clave y la transición a PENDING_SIGNATURE se
// confirman juntos. Si cualquier paso falla, el contador vuelve atrás y no
// queda hueco en la numeración. La precondición (borrador sin clave) se
// reverifica dentro de la transacción con el lock de fila del comprobante:
// dos llamadas concurrentes sobre el mismo borrador se serializan y solo la
// primera consume secuencial.
//
// La operación es idempotente: repetirla sobre un comprobante que ya tiene
// clave de acceso devuelve el comprobante tal cual, sin regenerar nada.
type GenerateXMLUseCase struct {
	docs      repository.TaxDocumentRepository
	companies repository.CompanyRepository
	customers repository.CustomerRepository
	points    repository.EmissionPointRepository
	txRunner  IssuanceTxRunner
	builder   *infrasri.XMLBuilderService
	store     ArtifactStore
	recorder  *ErrorRecorder
	log       *logger.Logger

	environment  string // valor de <ambiente>
	emissionType string // valor de <tipoEmision>
}

// NewGenerateXMLUseCase construye el caso de uso.
func NewGenerateXMLUseCase(
	docs repository.TaxDocumentRepository,
	companies repository.CompanyRepository,
	customers repository.CustomerRepository,
	points repository.EmissionPointRepository,
	txRunner IssuanceTxRunner,
	builder *infrasri.XMLBuilderService,
	store ArtifactStore,
	recorder *ErrorRecorder,
	log *logger.Logger,
	environment, emissionType string,
) *GenerateXMLUseCase {
	return &GenerateXMLUseCase{
		docs: docs, companies: companies, customers: customers, points: points,
		txRunner: txRunner, builder: builder, store: store, recorder: recorder,
		log: log, environment: environment, emissionType: emissionType,
	}
}

// GenerateXML ejecuta la emisión. Devuelve el comprobante actualizado.
func (uc *GenerateXMLUseCase) GenerateXML(ctx context.Context, companyID, documentID string) (*entity.TaxDocument, error) {
	doc, err := fetchOwnedDocument(ctx, uc.docs, companyID, documentID)
	if err != nil {
		return nil, err
	}

	// Idempotencia: la clave de acceso se asigna exactamente una vez.
	if doc.AccessKey != "" {
		return doc, nil
	}
	if doc.Status != entity.StatusDraft {
		return nil, fmt.Errorf("%w: no se puede generar XML en estado %s", domain.ErrConflict, doc.Status)
	}

	company, err := uc.companies.GetByID(ctx, doc.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, doc.CompanyID)
	}
	if err := pkgsri.ValidateRUC(company.RUC); err != nil {
		return nil, fmt.Errorf("%w: RUC del emisor inválido: %v", domain.ErrInvalidInput, err)
	}

	customer, err := uc.customers.GetByID(ctx, doc.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, fmt.Errorf("%w: comprador %s", domain.ErrNotFound, doc.CustomerID)
	}

	point, err := uc.points.GetByID(ctx, doc.EmissionPointID)
	if err != nil {
		return nil, err
	}
	if point == nil || point.CompanyID != doc.CompanyID {
		return nil, domain.ErrEmissionPointNotFound
	}

	items, err := uc.docs.GetItems(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	txErr := uc.txRunner.RunIssuance(ctx, func(txDocs repository.TaxDocumentRepository, txPoints repository.EmissionPointRepository) error {
		// La lectura inicial fue fuera de la transacción; releer con lock
		// de fila y reverificar antes de tocar el contador.
		current, err := txDocs.GetByIDForUpdate(ctx, doc.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%w: comprobante %s", domain.ErrNotFound, doc.ID)
		}
		if current.AccessKey != "" {
			return errAccessKeyAssigned
		}
		if current.Status != entity.StatusDraft {
			return fmt.Errorf("%w: no se puede generar XML en estado %s", domain.ErrConflict, current.Status)
		}

		seq, err := txPoints.NextSequential(ctx, doc.CompanyID, doc.EmissionPointID, doc.DocumentType)
		if err != nil {
			return err
		}

		doc.Establishment = point.EstablishmentCode
		doc.EmissionPoint = point.EmissionPointCode
		doc.Sequential = seq
		doc.Number = fmt.Sprintf("%s-%s-%09d", point.EstablishmentCode, point.EmissionPointCode, seq)
		doc.NumericCode = pkgsri.NewNumericCode()

		accessKey, err := pkgsri.BuildAccessKey(&pkgsri.AccessKeyParams{
			IssueDate:         doc.IssueDate,
			DocumentTypeCode:  doc.DocumentType,
			RUC:               company.RUC,
			Environment:       uc.environment,
			EstablishmentCode: point.EstablishmentCode,
			EmissionPointCode: point.EmissionPointCode,
			Sequential:        seq,
			NumericCode:       doc.NumericCode,
			EmissionType:      uc.emissionType,
		})
		if err != nil {
			return err
		}
		doc.AccessKey = accessKey

		xmlBytes, err := uc.builder.Build(&infrasri.DocumentBuildContext{
			Document:     doc,
			Company:      company,
			Customer:     customer,
			Lines:        linesForXML(items),
			Environment:  uc.environment,
			EmissionType: uc.emissionType,
		})
		if err != nil {
			return err
		}

		path, err := uc.store.Save(doc.CompanyID, doc.ID, "comprobante.xml", xmlBytes)
		if err != nil {
			return err
		}
		doc.XMLPath = path

		if err := domsri.Transition(doc, entity.StatusPendingSignature); err != nil {
			return err
		}
		doc.UpdatedAt = time.Now()
		return txDocs.Update(ctx, doc)
	})
	if txErr != nil {
		if errors.Is(txErr, errAccessKeyAssigned) {
			// Otra llamada concurrente completó la emisión entre la lectura
			// inicial y el lock; devolver lo que quedó confirmado.
			return fetchOwnedDocument(ctx, uc.docs, companyID, documentID)
		}
		// Rollback: limpiar los campos asignados en memoria para que un
		// reintento parta del borrador tal como quedó en DB.
		doc.Establishment, doc.EmissionPoint, doc.Sequential = "", "", 0
		doc.Number, doc.NumericCode, doc.AccessKey, doc.XMLPath = "", "", "", ""
		doc.Status = entity.StatusDraft
		uc.recorder.Record(ctx, doc, entity.OperationGenerateXML, ErrorCode(txErr), txErr.Error(), "")
		return nil, txErr
	}

	uc.log.ForDocument(doc.CompanyID, doc.ID).Info().
		Str("number", doc.Number).
		Str("access_key", doc.AccessKey).
		Msg("XML generado y numeración asignada")
	return doc, nil
}

// errAccessKeyAssigned señala dentro de la transacción que el comprobante ya
// tiene clave de acceso: la emisión repetida es idempotente, no un error.
var errAccessKeyAssigned = errors.New("clave de acceso ya asignada")

// linesForXML mapea los ítems persistidos al contexto del builder.
func linesForXML(items []*entity.TaxDocumentItem) []infrasri.DocumentLineForXML {
	lines := make([]infrasri.DocumentLineForXML, 0, len(items))
	for _, it := range items {
		lines = append(lines, infrasri.DocumentLineForXML{
			ProductCode: it.ProductCode,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Discount:    it.Discount,
			Subtotal:    it.Subtotal,
			TaxRate:     it.TaxRate,
		})
	}
	return lines
}

// fetchOwnedDocument obtiene el comprobante validando la pertenencia al tenant.
// Un comprobante de otro tenant se reporta como inexistente.
func fetchOwnedDocument(ctx context.Context, docs repository.TaxDocumentRepository, companyID, documentID string) (*entity.TaxDocument, error) {
	doc, err := docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.CompanyID != companyID {
		return nil, fmt.Errorf("%w: comprobante %s", domain.ErrNotFound, documentID)
	}
	return doc, nil
}
