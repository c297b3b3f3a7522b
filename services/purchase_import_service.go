package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/models"
	aws_pkg "github.com/lokeshwar-Vaccel/Accel-ERP-sub007/pkg/aws"
	"github.com/lokeshwar-Vaccel/Accel-ERP-sub007/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxPONumberSuffix bounds the "-k" probing when an order number is already taken
const maxPONumberSuffix = 1000

const importCompletedEvent = "purchase_import.completed"

// sideChannelTimeout bounds the run record, event and metrics written after a commit
const sideChannelTimeout = 10 * time.Second

// PurchaseImportService turns uploaded purchase order sheets into a preview
// or into persisted products and purchase orders.
type PurchaseImportService struct {
	products  repository.ProductRepo
	orders    repository.PurchaseOrderRepo
	locations repository.StockLocationRepo
	extra     ImportIntegrations
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

func NewPurchaseImportService(
	products repository.ProductRepo,
	orders repository.PurchaseOrderRepo,
	locations repository.StockLocationRepo,
	extra ImportIntegrations,
	logger *zap.Logger,
) *PurchaseImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseImportService{
		products:  products,
		orders:    orders,
		locations: locations,
		extra:     extra,
		validate:  newOrderValidator(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func newOrderValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// lineDraft is one sheet row reduced to the values an order line needs
type lineDraft struct {
	row         models.RawImportRow
	partNo      string
	description string
	quantity    decimal.Decimal
	unitPrice   decimal.Decimal
	total       decimal.Decimal
	resolution  *models.ProductResolution
}

// orderDraft is everything derived for one order group before it is previewed
// or persisted.
type orderDraft struct {
	orderNumber string
	dept        string
	year        string
	month       string
	supplier    string
	priority    models.Priority
	notes       string
	lines       []lineDraft
	total       decimal.Decimal
}

// buildDraft derives the order level fields from the first row of group and
// resolves every line's product. A row without a part number fails the order.
func (s *PurchaseImportService) buildDraft(ctx context.Context, resolver *productResolver, group models.OrderGroup) (*orderDraft, error) {
	first := group.Rows[0]
	d := &orderDraft{
		orderNumber: group.OrderNumber,
		dept:        first.Get(models.ColDept),
		year:        first.Get(models.ColYear),
		month:       first.Get(models.ColMonth),
	}
	d.supplier = SupplierForDept(d.dept)
	d.priority = PriorityForDept(d.dept)
	d.notes = fmt.Sprintf("Imported from Excel - Dept: %s, Year: %s, Month: %s", d.dept, d.year, d.month)

	for _, row := range group.Rows {
		line, err := newLineDraft(row)
		if err != nil {
			return nil, err
		}
		line.resolution, err = resolver.resolve(ctx, line.partNo, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row.RowNumber, err)
		}
		d.lines = append(d.lines, line)
		d.total = d.total.Add(line.total)
	}
	d.total = d.total.Round(2)
	return d, nil
}

// newLineDraft prefers "Ordered Qty" over "QTY" and "TOTAL" over price x quantity
func newLineDraft(row models.RawImportRow) (lineDraft, error) {
	partNo := strings.TrimSpace(row.Get(models.ColPartNo))
	if partNo == "" {
		return lineDraft{}, fmt.Errorf("row %d: part number is required", row.RowNumber)
	}

	qty := parseNumber(row.Get(models.ColOrderedQty))
	if qty <= 0 {
		qty = parseNumber(row.Get(models.ColQty))
	}
	quantity := decimal.NewFromFloat(qty)
	unitPrice := decimal.NewFromFloat(parseNumber(row.Get(models.ColPrice)))

	total := decimal.NewFromFloat(parseNumber(row.Get(models.ColTotal)))
	if !total.IsPositive() {
		total = unitPrice.Mul(quantity)
	}

	return lineDraft{
		row:         row,
		partNo:      partNo,
		description: row.Get(models.ColPartDescription),
		quantity:    quantity,
		unitPrice:   unitPrice,
		total:       total.Round(2),
	}, nil
}

// Preview reports what Commit would do with rows without writing anything.
func (s *PurchaseImportService) Preview(ctx context.Context, rows []models.RawImportRow) (*models.ImportPreview, error) {
	now := s.now()
	groups, skipped := GroupRows(rows)
	resolver := newProductResolver(s.products, s.logger)

	preview := &models.ImportPreview{
		OrdersToCreate:   []models.PreviewOrder{},
		ProductsToCreate: []models.PreviewProduct{},
		ExistingProducts: []models.ExistingProductPreview{},
		Errors:           []string{},
		Warnings:         []string{},
		Summary: models.PreviewSummary{
			TotalRows:    len(rows),
			SkippedRows:  skipped,
			UniqueOrders: len(groups),
		},
	}
	if skipped > 0 {
		preview.Warnings = append(preview.Warnings, fmt.Sprintf("%d row(s) without ORDER NO were skipped", skipped))
	}

	seenNew := make(map[string]bool)
	seenExisting := make(map[string]bool)
	grandTotal := decimal.Zero

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		preview.Warnings = append(preview.Warnings, groupConsistencyWarnings(group)...)

		draft, err := s.buildDraft(ctx, resolver, group)
		if err != nil {
			preview.Errors = append(preview.Errors, fmt.Sprintf("Order %s: %v", group.OrderNumber, err))
			continue
		}

		order := models.PreviewOrder{
			PONumber:             draft.orderNumber,
			Supplier:             draft.supplier,
			Items:                make([]models.PreviewOrderItem, 0, len(draft.lines)),
			TotalAmount:          draft.total.InexactFloat64(),
			ExpectedDeliveryDate: ExpectedDeliveryDate(now),
			Priority:             draft.priority,
			Notes:                draft.notes,
			OrderDate:            now,
			Status:               models.PurchaseOrderStatusDraft,
		}
		for _, line := range draft.lines {
			res := line.resolution
			order.Items = append(order.Items, models.PreviewOrderItem{
				PartNo:        line.partNo,
				Description:   line.description,
				Quantity:      line.quantity.InexactFloat64(),
				UnitPrice:     line.unitPrice.InexactFloat64(),
				TotalPrice:    line.total.InexactFloat64(),
				ProductExists: res.Exists,
			})
			if !line.quantity.IsPositive() {
				preview.Warnings = append(preview.Warnings,
					fmt.Sprintf("Order %s row %d: quantity must be greater than 0", group.OrderNumber, line.row.RowNumber))
			}

			switch {
			case res.Exists && !seenExisting[res.PartNo]:
				seenExisting[res.PartNo] = true
				preview.ExistingProducts = append(preview.ExistingProducts, models.ExistingProductPreview{
					PartNo:    res.PartNo,
					ProductID: res.ProductID,
					Name:      res.Name,
					Category:  res.Category,
					OldPrice:  res.Price,
					NewPrice:  line.unitPrice.InexactFloat64(),
				})
			case !res.Exists && !seenNew[res.PartNo]:
				seenNew[res.PartNo] = true
				preview.ProductsToCreate = append(preview.ProductsToCreate, models.PreviewProduct{
					PartNo:    res.PartNo,
					Name:      res.Name,
					Category:  res.Category,
					Dept:      res.Dept,
					HSNNumber: res.HSNNumber,
					Price:     res.Price,
					GSTRate:   res.DerivedGSTRate,
				})
			}
		}

		grandTotal = grandTotal.Add(draft.total)
		preview.OrdersToCreate = append(preview.OrdersToCreate, order)
	}

	preview.Summary.NewProducts = len(preview.ProductsToCreate)
	preview.Summary.ExistingProducts = len(preview.ExistingProducts)
	preview.Summary.TotalAmount = grandTotal.Round(2).InexactFloat64()
	return preview, nil
}

// groupConsistencyWarnings flags rows whose DEPT/YEAR/month differ from the
// first row of their order. The first row stays authoritative.
func groupConsistencyWarnings(group models.OrderGroup) []string {
	var warnings []string
	first := group.Rows[0]
	for _, col := range []string{models.ColDept, models.ColYear, models.ColMonth} {
		want := first.Get(col)
		for _, row := range group.Rows[1:] {
			if got := row.Get(col); got != want {
				warnings = append(warnings, fmt.Sprintf(
					"Order %s row %d: %s %q differs from %q on row %d; using %q",
					group.OrderNumber, row.RowNumber, col, got, want, first.RowNumber, want))
			}
		}
	}
	return warnings
}

// Commit persists products and purchase orders for rows. Every order is
// handled on its own: a failure is recorded in the outcome and the next order
// is processed. The returned error is reserved for failures that stop the
// whole run.
func (s *PurchaseImportService) Commit(ctx context.Context, rows []models.RawImportRow, createdBy string) (*models.ImportOutcome, error) {
	return s.commit(ctx, uuid.NewString(), rows, createdBy)
}

func (s *PurchaseImportService) commit(ctx context.Context, runID string, rows []models.RawImportRow, createdBy string) (*models.ImportOutcome, error) {
	now := s.now()
	groups, skipped := GroupRows(rows)
	outcome := &models.ImportOutcome{
		RunID:         runID,
		TotalRows:     len(rows),
		SkippedRows:   skipped,
		UniqueOrders:  len(groups),
		CreatedOrders: []models.CreatedOrderSummary{},
		Errors:        []string{},
	}
	if len(groups) == 0 {
		return outcome, nil
	}

	placement, err := s.locations.EnsureDefault(ctx, createdBy)
	if err != nil {
		return nil, fmt.Errorf("resolve default stock location: %w", err)
	}

	resolver := newProductResolver(s.products, s.logger)
	for i, group := range groups {
		// Orders already written stay written, so a cancelled run still
		// reports every group instead of discarding the outcome.
		if err := ctx.Err(); err != nil {
			for _, rest := range groups[i:] {
				outcome.Failed++
				outcome.Errors = append(outcome.Errors, fmt.Sprintf("Order %s: import cancelled: %v", rest.OrderNumber, err))
			}
			s.logger.Warn("purchase order import cancelled",
				zap.String("run_id", runID),
				zap.Int("remaining", len(groups)-i),
				zap.Error(err),
			)
			break
		}

		po, created, err := s.commitOrder(ctx, resolver, group, placement, createdBy, now)
		outcome.ProductsCreated += created
		if err != nil {
			outcome.Failed++
			outcome.Errors = append(outcome.Errors, describeOrderError(group.OrderNumber, err)...)
			s.logger.Warn("purchase order import failed",
				zap.String("run_id", runID),
				zap.String("order_no", group.OrderNumber),
				zap.Error(err),
			)
			continue
		}

		outcome.Successful++
		outcome.CreatedOrders = append(outcome.CreatedOrders, models.CreatedOrderSummary{
			ID:          po.ID,
			PONumber:    po.PONumber,
			Supplier:    po.Supplier,
			ItemCount:   len(po.Items),
			TotalAmount: po.TotalAmount,
		})
	}

	s.logger.Info("purchase order import committed",
		zap.String("run_id", runID),
		zap.Int("orders", outcome.UniqueOrders),
		zap.Int("successful", outcome.Successful),
		zap.Int("failed", outcome.Failed),
		zap.Int("products_created", outcome.ProductsCreated),
	)
	return outcome, nil
}

// commitOrder validates the purchase order for group, creates its missing
// products, then inserts the order. An order that fails validation creates no
// products. Products created before a later failure are kept and counted.
func (s *PurchaseImportService) commitOrder(
	ctx context.Context,
	resolver *productResolver,
	group models.OrderGroup,
	placement *models.Placement,
	createdBy string,
	now time.Time,
) (*models.PurchaseOrder, int, error) {
	draft, err := s.buildDraft(ctx, resolver, group)
	if err != nil {
		return nil, 0, err
	}

	poNumber, err := s.allocatePONumber(ctx, draft.orderNumber)
	if err != nil {
		return nil, 0, err
	}

	po := &models.PurchaseOrder{
		PONumber:             poNumber,
		Supplier:             draft.supplier,
		Items:                make([]models.PurchaseOrderItem, 0, len(draft.lines)),
		TotalAmount:          draft.total.InexactFloat64(),
		Status:               models.PurchaseOrderStatusDraft,
		ExpectedDeliveryDate: ExpectedDeliveryDate(now),
		Priority:             draft.priority,
		SourceType:           models.SourceTypeManual,
		Notes:                draft.notes,
		CreatedBy:            createdBy,
		OrderDate:            now,
	}
	for _, line := range draft.lines {
		product := line.resolution.ProductID
		if product.IsZero() {
			// stands in for the product id until the product is created below
			product = primitive.NewObjectID()
		}
		po.Items = append(po.Items, models.PurchaseOrderItem{
			Product:     product,
			Quantity:    line.quantity.InexactFloat64(),
			UnitPrice:   line.unitPrice.InexactFloat64(),
			TotalPrice:  line.total.InexactFloat64(),
			Description: line.description,
		})
	}
	if err := s.validate.StructCtx(ctx, po); err != nil {
		return nil, 0, err
	}

	created := 0
	for i, line := range draft.lines {
		inserted, err := resolver.create(ctx, line.resolution, placement, createdBy)
		if inserted {
			created++
		}
		if err != nil {
			return nil, created, err
		}
		po.Items[i].Product = line.resolution.ProductID
	}

	err = s.orders.Create(ctx, po)
	if err != nil && isDuplicateKey(err) {
		// another import took the number after it was checked as free
		s.logger.Debug("po number taken concurrently, allocating again",
			zap.String("po_number", po.PONumber), zap.Error(err))
		if po.PONumber, err = s.allocatePONumber(ctx, draft.orderNumber); err != nil {
			return nil, created, err
		}
		err = s.orders.Create(ctx, po)
	}
	if err != nil {
		return nil, created, err
	}
	return po, created, nil
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, repository.ErrDuplicate) || mongo.IsDuplicateKeyError(err)
}

// allocatePONumber returns orderNo if unused, else the first free orderNo-k
// for k in 1..maxPONumberSuffix.
func (s *PurchaseImportService) allocatePONumber(ctx context.Context, orderNo string) (string, error) {
	candidate := orderNo
	for k := 1; ; k++ {
		exists, err := s.orders.ExistsByPONumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		if k > maxPONumberSuffix {
			return "", fmt.Errorf("%w after %d attempts", ErrPONumberExhausted, maxPONumberSuffix)
		}
		candidate = fmt.Sprintf("%s-%d", orderNo, k)
	}
}

// describeOrderError expands validation and Mongo write errors into one line
// per failing field or write.
func describeOrderError(orderNo string, err error) []string {
	prefix := "Order " + orderNo + ": "

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		lines := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			field := fe.Namespace()
			if i := strings.IndexByte(field, '.'); i >= 0 {
				field = field[i+1:]
			}
			msg := fmt.Sprintf("%sfield '%s' failed '%s' validation", prefix, field, fe.Tag())
			if fe.Param() != "" {
				msg += " (" + fe.Param() + ")"
			}
			lines = append(lines, msg)
		}
		return lines
	}

	var wex mongo.WriteException
	if errors.As(err, &wex) && (len(wex.WriteErrors) > 0 || wex.WriteConcernError != nil) {
		var lines []string
		for _, we := range wex.WriteErrors {
			if we.Code == 11000 || we.Code == 11001 || we.Code == 12582 {
				lines = append(lines, prefix+"duplicate key: "+we.Message)
				continue
			}
			lines = append(lines, fmt.Sprintf("%swrite error %d: %s", prefix, we.Code, we.Message))
		}
		if wce := wex.WriteConcernError; wce != nil {
			lines = append(lines, fmt.Sprintf("%swrite concern error %d: %s", prefix, wce.Code, wce.Message))
		}
		return lines
	}

	if mongo.IsDuplicateKeyError(err) {
		return []string{prefix + "duplicate key: " + err.Error()}
	}
	return []string{prefix + err.Error()}
}

// PreviewFile parses data and previews it
func (s *PurchaseImportService) PreviewFile(ctx context.Context, data []byte, filename string) (*models.ImportPreview, error) {
	rows, err := ParseRows(data, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return s.Preview(ctx, rows)
}

// ImportFile parses data and commits it. Around the commit the upload is
// archived, the run is recorded, a completion event is published and metrics
// are emitted. Failures in those side channels are logged and do not change
// the outcome.
func (s *PurchaseImportService) ImportFile(ctx context.Context, data []byte, filename, createdBy string) (*models.ImportOutcome, error) {
	rows, err := ParseRows(data, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	runID := uuid.NewString()
	started := s.now()
	log := s.logger.With(zap.String("run_id", runID), zap.String("file", filename))

	var archiveKey string
	if s.extra.Archiver != nil {
		archiveKey, err = s.extra.Archiver.Archive(ctx, runID, filename, data)
		if err != nil {
			log.Error("failed to archive import file", zap.Error(err))
		}
	}

	outcome, err := s.commit(ctx, runID, rows, createdBy)
	if err != nil {
		return nil, err
	}
	finished := s.now()

	// the run is reported even when the request that started it has gone away
	sideCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideChannelTimeout)
	defer cancel()

	s.recordRun(sideCtx, log, &models.ImportRun{
		RunID:        runID,
		FileName:     filename,
		ArchiveKey:   archiveKey,
		CreatedBy:    createdBy,
		TotalRows:    outcome.TotalRows,
		UniqueOrders: outcome.UniqueOrders,
		Successful:   outcome.Successful,
		Failed:       outcome.Failed,
		PONumbers:    createdPONumbers(outcome),
		Errors:       outcome.Errors,
		StartedAt:    started,
		FinishedAt:   finished,
	})
	s.publishCompleted(sideCtx, log, filename, createdBy, outcome, finished)
	s.recordMetrics(sideCtx, log, outcome, finished.Sub(started))
	return outcome, nil
}

// GetRun returns the audit record of a committed run
func (s *PurchaseImportService) GetRun(ctx context.Context, runID string) (*models.ImportRun, error) {
	if s.extra.Runs == nil {
		return nil, repository.ErrNotFound
	}
	return s.extra.Runs.Get(ctx, runID)
}

func (s *PurchaseImportService) recordRun(ctx context.Context, log *zap.Logger, run *models.ImportRun) {
	if s.extra.Runs == nil {
		return
	}
	if err := s.extra.Runs.Record(ctx, run); err != nil {
		log.Error("failed to record import run", zap.Error(err))
	}
}

func (s *PurchaseImportService) publishCompleted(ctx context.Context, log *zap.Logger, filename, createdBy string, outcome *models.ImportOutcome, at time.Time) {
	if s.extra.Events == nil || s.extra.TopicArn == "" {
		return
	}
	evt := models.PurchaseImportCompletedEvent{
		EventType:    importCompletedEvent,
		RunID:        outcome.RunID,
		FileName:     filename,
		CreatedBy:    createdBy,
		UniqueOrders: outcome.UniqueOrders,
		Successful:   outcome.Successful,
		Failed:       outcome.Failed,
		PONumbers:    createdPONumbers(outcome),
		Timestamp:    at,
	}
	b, err := json.Marshal(evt)
	if err != nil {
		log.Error("failed to marshal import event", zap.Error(err))
		return
	}
	if err := s.extra.Events.Publish(ctx, s.extra.TopicArn, b); err != nil {
		log.Error("failed to publish import event", zap.Error(err))
	}
}

func (s *PurchaseImportService) recordMetrics(ctx context.Context, log *zap.Logger, outcome *models.ImportOutcome, took time.Duration) {
	m := s.extra.Metrics
	if m == nil {
		return
	}
	dims := map[string]string{"Service": "purchase-import"}
	for name, value := range map[string]int{
		aws_pkg.MetricImportRuns:            1,
		aws_pkg.MetricImportOrdersSucceeded: outcome.Successful,
		aws_pkg.MetricImportOrdersFailed:    outcome.Failed,
		aws_pkg.MetricImportProductsCreated: outcome.ProductsCreated,
	} {
		if err := m.RecordCount(ctx, name, float64(value), dims); err != nil {
			log.Warn("failed to record import metric", zap.String("metric", name), zap.Error(err))
		}
	}
	if err := m.RecordLatency(ctx, aws_pkg.MetricImportLatency, took, dims); err != nil {
		log.Warn("failed to record import latency", zap.Error(err))
	}
}

func createdPONumbers(outcome *models.ImportOutcome) []string {
	out := make([]string, 0, len(outcome.CreatedOrders))
	for _, o := range outcome.CreatedOrders {
		out = append(out, o.PONumber)
	}
	return out
}
