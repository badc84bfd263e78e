package billing_test

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davcruz/facturador-api/internal/application/billing"
	"github.com/davcruz/facturador-api/internal/domain"
	"github.com/davcruz/facturador-api/internal/domain/entity"
	"github.com/davcruz/facturador-api/internal/domain/repository"
	infrasri "github.com/davcruz/facturador-api/internal/infrastructure/sri"
)

// ── Dobles en memoria de los repositorios ─────────────────────────────────────

type fakeDocRepo struct {
	mu    sync.Mutex
	docs  map[string]*entity.TaxDocument
	items map[string][]*entity.TaxDocumentItem
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{
		docs:  map[string]*entity.TaxDocument{},
		items: map[string][]*entity.TaxDocumentItem{},
	}
}

func (r *fakeDocRepo) Create(_ context.Context, doc *entity.TaxDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocRepo) CreateItem(_ context.Context, item *entity.TaxDocumentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	cp := *item
	r.items[item.DocumentID] = append(r.items[item.DocumentID], &cp)
	return nil
}

func (r *fakeDocRepo) GetByID(_ context.Context, id string) (*entity.TaxDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

// GetByIDForUpdate en memoria lee igual que GetByID; la serialización que en
// la base da el lock de fila la aporta el mutex de fakeTxRunner.
func (r *fakeDocRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.TaxDocument, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeDocRepo) GetItems(_ context.Context, documentID string) ([]*entity.TaxDocumentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[documentID], nil
}

func (r *fakeDocRepo) Update(_ context.Context, doc *entity.TaxDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocRepo) UpdateIfStatus(_ context.Context, doc *entity.TaxDocument, fromStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.docs[doc.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Status != fromStatus {
		return fmt.Errorf("%w: el comprobante ya no está en estado %s (ahora %s)", domain.ErrConflict, fromStatus, cur.Status)
	}
	cp := *doc
	r.docs[doc.ID] = &cp
	return nil
}

func (r *fakeDocRepo) ListByCompany(_ context.Context, companyID string, _, _ int) ([]*entity.TaxDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.TaxDocument
	for _, d := range r.docs {
		if d.CompanyID == companyID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeEPRepo asigna secuenciales serializando con un mutex, igual que lo hace
// el lock de fila de la base real.
type fakeEPRepo struct {
	mu     sync.Mutex
	points map[string]*entity.EmissionPoint
}

func newFakeEPRepo(points ...*entity.EmissionPoint) *fakeEPRepo {
	r := &fakeEPRepo{points: map[string]*entity.EmissionPoint{}}
	for _, p := range points {
		r.points[p.ID] = p
	}
	return r
}

func (r *fakeEPRepo) Create(_ context.Context, ep *entity.EmissionPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ep.ID == "" {
		ep.ID = uuid.New().String()
	}
	r.points[ep.ID] = ep
	return nil
}

func (r *fakeEPRepo) GetByID(_ context.Context, id string) (*entity.EmissionPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ep, ok := r.points[id]
	if !ok {
		return nil, nil
	}
	cp := *ep
	return &cp, nil
}

func (r *fakeEPRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.EmissionPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.EmissionPoint
	for _, p := range r.points {
		if p.CompanyID == companyID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeEPRepo) SetActive(_ context.Context, companyID, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ep, ok := r.points[id]
	if !ok || ep.CompanyID != companyID {
		return domain.ErrEmissionPointNotFound
	}
	ep.IsActive = active
	return nil
}

func (r *fakeEPRepo) NextSequential(_ context.Context, companyID, emissionPointID, documentTypeCode string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ep, ok := r.points[emissionPointID]
	if !ok || ep.CompanyID != companyID {
		return 0, domain.ErrEmissionPointNotFound
	}
	if !ep.IsActive {
		return 0, domain.ErrEmissionPointInactive
	}
	switch documentTypeCode {
	case "01":
		ep.InvoiceSequential++
		return ep.InvoiceSequential, nil
	case "04":
		ep.CreditNoteSequential++
		return ep.CreditNoteSequential, nil
	case "05":
		ep.DebitNoteSequential++
		return ep.DebitNoteSequential, nil
	case "07":
		ep.RetentionSequential++
		return ep.RetentionSequential, nil
	}
	return 0, fmt.Errorf("%w: tipo %q", domain.ErrInvalidInput, documentTypeCode)
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []*entity.SriErrorLog
}

func (r *fakeLogRepo) Append(_ context.Context, e *entity.SriErrorLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *fakeLogRepo) CountByDocumentAndOperation(_ context.Context, documentID, operation string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.DocumentID == documentID && e.Operation == operation {
			n++
		}
	}
	return n, nil
}

func (r *fakeLogRepo) ListByDocument(_ context.Context, documentID string) ([]*entity.SriErrorLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.SriErrorLog
	for _, e := range r.entries {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeCertRepo struct {
	cert *entity.Certificate
}

func (r *fakeCertRepo) Upsert(_ context.Context, cert *entity.Certificate) error {
	r.cert = cert
	return nil
}

func (r *fakeCertRepo) GetByCompany(_ context.Context, companyID string) (*entity.Certificate, error) {
	if r.cert == nil || r.cert.CompanyID != companyID {
		return nil, nil
	}
	return r.cert, nil
}

type fakeCompanyRepo struct {
	companies map[string]*entity.Company
}

func newFakeCompanyRepo(companies ...*entity.Company) *fakeCompanyRepo {
	r := &fakeCompanyRepo{companies: map[string]*entity.Company{}}
	for _, c := range companies {
		r.companies[c.ID] = c
	}
	return r
}

func (r *fakeCompanyRepo) Create(_ context.Context, c *entity.Company) error {
	r.companies[c.ID] = c
	return nil
}

func (r *fakeCompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	return r.companies[id], nil
}

func (r *fakeCompanyRepo) GetByRUC(_ context.Context, ruc string) (*entity.Company, error) {
	for _, c := range r.companies {
		if c.RUC == ruc {
			return c, nil
		}
	}
	return nil, nil
}

type fakeCustomerRepo struct {
	customers map[string]*entity.Customer
}

func newFakeCustomerRepo(customers ...*entity.Customer) *fakeCustomerRepo {
	r := &fakeCustomerRepo{customers: map[string]*entity.Customer{}}
	for _, c := range customers {
		r.customers[c.ID] = c
	}
	return r
}

func (r *fakeCustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	return r.customers[id], nil
}

func (r *fakeCustomerRepo) ListByCompany(_ context.Context, companyID string, _, _ int) ([]*entity.Customer, error) {
	var out []*entity.Customer
	for _, c := range r.customers {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

// ── Dobles de infraestructura ─────────────────────────────────────────────────

// fakeTxRunner entrega los mismos repos en memoria y serializa la sección
// crítica con un mutex, igual que el lock de fila de la base real; el rollback
// real lo cubren los tests de integración de la capa postgres.
type fakeTxRunner struct {
	mu     sync.Mutex
	docs   repository.TaxDocumentRepository
	points repository.EmissionPointRepository
}

func (r *fakeTxRunner) RunIssuance(ctx context.Context, fn func(repository.TaxDocumentRepository, repository.EmissionPointRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.docs, r.points)
}

type fakeStore struct {
	mu    sync.Mutex
	files map[string][]byte
	fail  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: map[string][]byte{}}
}

func (s *fakeStore) Save(companyID, documentID, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return "", fmt.Errorf("disco lleno")
	}
	path := companyID + "/" + documentID + "/" + name
	s.files[path] = data
	return path, nil
}

func (s *fakeStore) Load(path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("artefacto %s no existe", path)
	}
	return data, nil
}

// fakeGateway respuestas programables por llamada.
type fakeGateway struct {
	mu             sync.Mutex
	receptions     []*infrasri.ReceptionResult
	receptionErrs  []error
	authorizations []*infrasri.AuthorizationResult
	authErrs       []error
	submitCalls    int
	checkCalls     int
}

func (g *fakeGateway) SubmitReception(_ context.Context, _ []byte) (*infrasri.ReceptionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.submitCalls
	g.submitCalls++
	if i < len(g.receptionErrs) && g.receptionErrs[i] != nil {
		return nil, g.receptionErrs[i]
	}
	if i < len(g.receptions) {
		return g.receptions[i], nil
	}
	return &infrasri.ReceptionResult{Estado: "RECIBIDA"}, nil
}

func (g *fakeGateway) CheckAuthorization(_ context.Context, _ string) (*infrasri.AuthorizationResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.checkCalls
	g.checkCalls++
	if i < len(g.authErrs) && g.authErrs[i] != nil {
		return nil, g.authErrs[i]
	}
	if i < len(g.authorizations) {
		return g.authorizations[i], nil
	}
	return &infrasri.AuthorizationResult{Found: false}, nil
}

// fakeSigner devuelve el XML con un sufijo reconocible.
type fakeSigner struct {
	err error
}

func (s *fakeSigner) Sign(xmlBytes []byte, _ tls.Certificate) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return append(xmlBytes, []byte("<!--firmado-->")...), nil
}

// ── Datos de prueba ───────────────────────────────────────────────────────────

const (
	testCompanyID  = "company-1"
	testCustomerID = "customer-1"
	testPointID    = "point-1"
)

func testCompany() *entity.Company {
	return &entity.Company{
		ID:                   testCompanyID,
		Name:                 "COMERCIAL ANDINA S.A.",
		RUC:                  "1790000001001",
		Address:              "Av. Amazonas N34-451, Quito",
		ObligadoContabilidad: true,
		Status:               "active",
	}
}

func testCustomer() *entity.Customer {
	return &entity.Customer{
		ID:                 testCustomerID,
		CompanyID:          testCompanyID,
		Name:               "Juan Pérez",
		IdentificationType: "05",
		Identification:     "1712345675",
	}
}

func testEmissionPoint() *entity.EmissionPoint {
	return &entity.EmissionPoint{
		ID:                testPointID,
		CompanyID:         testCompanyID,
		EstablishmentCode: "001",
		EmissionPointCode: "100",
		IsActive:          true,
	}
}

func testDraftDocument(repo *fakeDocRepo) *entity.TaxDocument {
	doc := &entity.TaxDocument{
		CompanyID:       testCompanyID,
		CustomerID:      testCustomerID,
		EmissionPointID: testPointID,
		DocumentType:    "01",
		Status:          entity.StatusDraft,
		IssueDate:       time.Date(2025, 11, 29, 10, 0, 0, 0, time.UTC),
		Subtotal:        decimal.NewFromFloat(100),
		TaxTotal:        decimal.NewFromFloat(15),
		Total:           decimal.NewFromFloat(115),
	}
	_ = repo.Create(context.Background(), doc)
	_ = repo.CreateItem(context.Background(), &entity.TaxDocumentItem{
		DocumentID:  doc.ID,
		Description: "Servicio de consultoría",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromFloat(100),
		Subtotal:    decimal.NewFromFloat(100),
		TaxRate:     decimal.NewFromInt(15),
	})
	return doc
}

// ensure interface compliance de los dobles
var (
	_ repository.TaxDocumentRepository   = (*fakeDocRepo)(nil)
	_ repository.EmissionPointRepository = (*fakeEPRepo)(nil)
	_ repository.SriErrorLogRepository   = (*fakeLogRepo)(nil)
	_ repository.CertificateRepository   = (*fakeCertRepo)(nil)
	_ repository.CompanyRepository       = (*fakeCompanyRepo)(nil)
	_ repository.CustomerRepository      = (*fakeCustomerRepo)(nil)
	_ billing.IssuanceTxRunner           = (*fakeTxRunner)(nil)
	_ billing.ArtifactStore              = (*fakeStore)(nil)
	_ infrasri.SRIGateway                = (*fakeGateway)(nil)
)
