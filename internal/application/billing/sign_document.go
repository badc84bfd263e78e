package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
	domsri "github.com/davcruz/facturador-api/internal/domain/sri"
	"github.com/davcruz/facturador-api/internal/infrastructure/sri/signer"
	"github.com/davcruz/facturador-api/pkg/logger"
	pkgsri "github.com/davcruz/facturador-api/pkg/sri"
)

// SignDocumentUseCase firma el XML canónico con el certificado del tenant.
//
// El material criptográfico se descifra en memoria solo durante esta llamada.
// Un fallo de certificado (no configurado, expirado, contraseña incorrecta)
// deja el comprobante en PENDING_SIGNATURE y agrega una fila a la bitácora;
// cada reintento fallido agrega otra fila, nunca sobrescribe.
type SignDocumentUseCase struct {
	docs     repository.TaxDocumentRepository
	certs    repository.CertificateRepository
	signer   pkgsri.Signer
	store    ArtifactStore
	recorder *ErrorRecorder
	log      *logger.Logger
}

// NewSignDocumentUseCase construye el caso de uso.
func NewSignDocumentUseCase(
	docs repository.TaxDocumentRepository,
	certs repository.CertificateRepository,
	sg pkgsri.Signer,
	store ArtifactStore,
	recorder *ErrorRecorder,
	log *logger.Logger,
) *SignDocumentUseCase {
	return &SignDocumentUseCase{docs: docs, certs: certs, signer: sg, store: store, recorder: recorder, log: log}
}

// Sign ejecuta la firma. Idempotente: un comprobante ya firmado se devuelve
// tal cual.
func (uc *SignDocumentUseCase) Sign(ctx context.Context, companyID, documentID string) (*entity.TaxDocument, error) {
	doc, err := fetchOwnedDocument(ctx, uc.docs, companyID, documentID)
	if err != nil {
		return nil, err
	}

	if doc.SignedXMLPath != "" {
		return doc, nil
	}
	if doc.Status != entity.StatusPendingSignature {
		return nil, fmt.Errorf("%w: no se puede firmar en estado %s", domain.ErrConflict, doc.Status)
	}

	signedXML, err := uc.signXML(ctx, doc)
	if err != nil {
		uc.recorder.Record(ctx, doc, entity.OperationSignDocument, ErrorCode(err), err.Error(), "")
		return nil, err
	}

	path, err := uc.store.Save(doc.CompanyID, doc.ID, "comprobante-firmado.xml", signedXML)
	if err != nil {
		uc.recorder.Record(ctx, doc, entity.OperationSignDocument, CodeInternal, err.Error(), "")
		return nil, err
	}
	doc.SignedXMLPath = path

	if err := domsri.Transition(doc, entity.StatusPendingAuthorization); err != nil {
		return nil, err
	}
	doc.UpdatedAt = time.Now()
	if err := uc.docs.UpdateIfStatus(ctx, doc, entity.StatusPendingSignature); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("document_id", doc.ID).
		Str("access_key", doc.AccessKey).
		Msg("comprobante firmado")
	return doc, nil
}

func (uc *SignDocumentUseCase) signXML(ctx context.Context, doc *entity.TaxDocument) ([]byte, error) {
	certRow, err := uc.certs.GetByCompany(ctx, doc.CompanyID)
	if err != nil {
		return nil, err
	}
	if certRow == nil {
		return nil, domain.ErrCertificateNotConfigured
	}

	cert, err := signer.LoadFromP12Blob(certRow.Blob, certRow.Password)
	if err != nil {
		return nil, err
	}
	if err := signer.CheckValidityWindow(cert, time.Now()); err != nil {
		return nil, err
	}

	xmlBytes, err := uc.store.Load(doc.XMLPath)
	if err != nil {
		return nil, err
	}
	return uc.signer.Sign(xmlBytes, cert)
}
