package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/models"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Mock repositories ---

type fakeProductRepo struct {
	byPartNo map[string]*models.Product
	lookups  map[string]int
	created  []*models.Product
	// partNos that another importer inserts right before our Create
	racing map[string]bool
}

func newFakeProductRepo(existing ...*models.Product) *fakeProductRepo {
	r := &fakeProductRepo{
		byPartNo: make(map[string]*models.Product),
		lookups:  make(map[string]int),
		racing:   make(map[string]bool),
	}
	for _, p := range existing {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		r.byPartNo[p.PartNo] = p
	}
	return r
}

func (r *fakeProductRepo) FindByPartNo(_ context.Context, partNo string) (*models.Product, error) {
	r.lookups[partNo]++
	p, ok := r.byPartNo[partNo]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) Create(_ context.Context, p *models.Product) error {
	if r.racing[p.PartNo] {
		delete(r.racing, p.PartNo)
		r.byPartNo[p.PartNo] = &models.Product{ID: primitive.NewObjectID(), PartNo: p.PartNo, Name: "created elsewhere", Price: 99}
	}
	if _, ok := r.byPartNo[p.PartNo]; ok {
		return fmt.Errorf("product %q: %w", p.PartNo, repository.ErrDuplicate)
	}
	p.ID = primitive.NewObjectID()
	r.byPartNo[p.PartNo] = p
	r.created = append(r.created, p)
	return nil
}

type fakeOrderRepo struct {
	byPONumber  map[string]*models.PurchaseOrder
	order       []string
	probes      int
	alwaysTaken bool
	createErr   error
	// po numbers another importer inserts right before our Create
	racing map[string]bool
	// called after every successful Create
	afterCreate func()
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		byPONumber: make(map[string]*models.PurchaseOrder),
		racing:     make(map[string]bool),
	}
}

func (r *fakeOrderRepo) ExistsByPONumber(_ context.Context, poNumber string) (bool, error) {
	r.probes++
	if r.alwaysTaken {
		return true, nil
	}
	_, ok := r.byPONumber[poNumber]
	return ok, nil
}

func (r *fakeOrderRepo) Create(_ context.Context, po *models.PurchaseOrder) error {
	if r.createErr != nil {
		return r.createErr
	}
	if r.racing[po.PONumber] {
		delete(r.racing, po.PONumber)
		r.byPONumber[po.PONumber] = &models.PurchaseOrder{ID: primitive.NewObjectID(), PONumber: po.PONumber}
	}
	if _, ok := r.byPONumber[po.PONumber]; ok {
		return fmt.Errorf("po %q: %w", po.PONumber, repository.ErrDuplicate)
	}
	po.ID = primitive.NewObjectID()
	r.byPONumber[po.PONumber] = po
	r.order = append(r.order, po.PONumber)
	if r.afterCreate != nil {
		r.afterCreate()
	}
	return nil
}

type fakeLocationRepo struct {
	calls     int
	placement models.Placement
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{placement: models.Placement{
		LocationID: primitive.NewObjectID(),
		RoomID:     primitive.NewObjectID(),
		RackID:     primitive.NewObjectID(),
	}}
}

func (r *fakeLocationRepo) EnsureDefault(_ context.Context, _ string) (*models.Placement, error) {
	r.calls++
	p := r.placement
	return &p, nil
}

type fakeRunRepo struct {
	runs map[string]*models.ImportRun
}

func (r *fakeRunRepo) Record(_ context.Context, run *models.ImportRun) error {
	if r.runs == nil {
		r.runs = make(map[string]*models.ImportRun)
	}
	r.runs[run.RunID] = run
	return nil
}

func (r *fakeRunRepo) Get(_ context.Context, runID string) (*models.ImportRun, error) {
	run, ok := r.runs[runID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return run, nil
}

// --- Mock integrations ---

type fakeArchiver struct {
	files map[string][]byte
}

func (a *fakeArchiver) Archive(_ context.Context, runID, filename string, data []byte) (string, error) {
	if a.files == nil {
		a.files = make(map[string][]byte)
	}
	key := "purchase-imports/" + runID + "/" + filename
	a.files[key] = data
	return key, nil
}

type fakePublisher struct {
	topics   []string
	messages [][]byte
}

func (p *fakePublisher) Publish(_ context.Context, topicArn string, message []byte) error {
	p.topics = append(p.topics, topicArn)
	p.messages = append(p.messages, message)
	return nil
}

type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]float64
	timed  []string
}

func (m *fakeMetrics) RecordCount(_ context.Context, name string, value float64, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]float64)
	}
	m.counts[name] += value
	return nil
}

func (m *fakeMetrics) RecordLatency(_ context.Context, name string, _ time.Duration, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timed = append(m.timed, name)
	return nil
}

// --- helpers ---

var fixedNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

type testEnv struct {
	products  *fakeProductRepo
	orders    *fakeOrderRepo
	locations *fakeLocationRepo
	svc       *PurchaseImportService
}

func newTestEnv(extra ImportIntegrations, existing ...*models.Product) *testEnv {
	env := &testEnv{
		products:  newFakeProductRepo(existing...),
		orders:    newFakeOrderRepo(),
		locations: newFakeLocationRepo(),
	}
	env.svc = NewPurchaseImportService(env.products, env.orders, env.locations, extra, nil)
	env.svc.now = func() time.Time { return fixedNow }
	return env
}

func row(n int, fields map[string]string) models.RawImportRow {
	return models.RawImportRow{RowNumber: n, Fields: fields}
}

// e2eRows is the two line PO-100 sheet: A1 is new, B2 already exists.
func e2eRows() []models.RawImportRow {
	return []models.RawImportRow{
		row(2, map[string]string{
			models.ColOrderNo: "PO-100", models.ColPartNo: "A1", models.ColPartDescription: "Filter A1",
			models.ColDept: "RETAIL", models.ColYear: "2024", models.ColMonth: "Jan",
			models.ColQty: "2", models.ColPrice: "10", models.ColTax: "18% GST", models.ColHSNNo: "8421",
		}),
		row(3, map[string]string{
			models.ColOrderNo: "PO-100", models.ColPartNo: "B2", models.ColPartDescription: "Belt B2",
			models.ColDept: "RETAIL", models.ColYear: "2024", models.ColMonth: "Jan",
			models.ColQty: "3", models.ColPrice: "50",
		}),
	}
}

func existingB2() *models.Product {
	return &models.Product{PartNo: "B2", Name: "Belt B2", Category: "spare_part", Price: 50}
}
