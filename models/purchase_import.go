package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Column headers of the purchase order import sheet. Matching is exact.
const (
	ColOrderNo         = "ORDER NO"
	ColPartNo          = "Part No"
	ColPartDescription = "Part Description"
	ColDept            = "DEPT"
	ColYear            = "YEAR"
	ColMonth           = "month"
	ColOrderedQty      = "Ordered Qty"
	ColQty             = "QTY"
	ColPrice           = "Price"
	ColHSNNo           = "HSN No"
	ColTax             = "Tax"
	ColTotal           = "TOTAL"
	ColGSTValue        = "GST VALUE"
)

// ImportTemplateColumns is the header row of the downloadable template
var ImportTemplateColumns = []string{
	ColOrderNo, ColPartNo, ColPartDescription, ColDept, ColYear, ColMonth,
	ColOrderedQty, ColQty, ColPrice, ColHSNNo, ColTax, ColTotal, ColGSTValue,
}

// RawImportRow is one parsed sheet row keyed by its column header
type RawImportRow struct {
	RowNumber int               `json:"row"`
	Fields    map[string]string `json:"fields"`
}

// Get returns the trimmed cell value for column, or "" when absent
func (r RawImportRow) Get(column string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[column]
}

// OrderGroup holds the rows that share one order number, in file order
type OrderGroup struct {
	OrderNumber string         `json:"order_number"`
	Rows        []RawImportRow `json:"rows"`
}

// ProductResolution is the lookup outcome for one part number within an import
type ProductResolution struct {
	PartNo    string             `json:"part_no"`
	Exists    bool               `json:"exists"`
	ProductID primitive.ObjectID `json:"product_id,omitempty"`
	Name      string             `json:"name"`
	Category  string             `json:"category"`
	Price     float64            `json:"price"`

	// Set when the product will be (or was) created by this import
	WillCreate     bool    `json:"will_create,omitempty"`
	DerivedGSTRate float64 `json:"derived_gst_rate,omitempty"`
	HSNNumber      string  `json:"hsn_number,omitempty"`
	Dept           string  `json:"dept,omitempty"`
}

// PreviewOrder is an order that a commit would create
type PreviewOrder struct {
	PONumber             string              `json:"po_number"`
	Supplier             string              `json:"supplier"`
	Items                []PreviewOrderItem  `json:"items"`
	TotalAmount          float64             `json:"total_amount"`
	ExpectedDeliveryDate time.Time           `json:"expected_delivery_date"`
	Priority             Priority            `json:"priority"`
	Notes                string              `json:"notes"`
	OrderDate            time.Time           `json:"order_date"`
	Status               PurchaseOrderStatus `json:"status"`
}

// PreviewOrderItem is a line of a PreviewOrder
type PreviewOrderItem struct {
	PartNo        string  `json:"part_no"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	TotalPrice    float64 `json:"total_price"`
	ProductExists bool    `json:"product_exists"`
}

// PreviewProduct is a product a commit would create
type PreviewProduct struct {
	PartNo    string  `json:"part_no"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Dept      string  `json:"dept,omitempty"`
	HSNNumber string  `json:"hsn_number,omitempty"`
	Price     float64 `json:"price"`
	GSTRate   float64 `json:"gst_rate"`
}

// ExistingProductPreview compares the master price with the sheet price
type ExistingProductPreview struct {
	PartNo    string             `json:"part_no"`
	ProductID primitive.ObjectID `json:"product_id"`
	Name      string             `json:"name"`
	Category  string             `json:"category"`
	OldPrice  float64            `json:"old_price"`
	NewPrice  float64            `json:"new_price"`
}

// PreviewSummary counters
type PreviewSummary struct {
	TotalRows        int     `json:"total_rows"`
	SkippedRows      int     `json:"skipped_rows"`
	UniqueOrders     int     `json:"unique_orders"`
	NewProducts      int     `json:"new_products"`
	ExistingProducts int     `json:"existing_products"`
	TotalAmount      float64 `json:"total_amount"`
}

// ImportPreview is the non-mutating result of a dry run
type ImportPreview struct {
	OrdersToCreate   []PreviewOrder           `json:"orders_to_create"`
	ProductsToCreate []PreviewProduct         `json:"products_to_create"`
	ExistingProducts []ExistingProductPreview `json:"existing_products"`
	Errors           []string                 `json:"errors"`
	Warnings         []string                 `json:"warnings"`
	Summary          PreviewSummary           `json:"summary"`
}

// CreatedOrderSummary describes one purchase order persisted by a commit
type CreatedOrderSummary struct {
	ID          primitive.ObjectID `json:"id"`
	PONumber    string             `json:"po_number"`
	Supplier    string             `json:"supplier"`
	ItemCount   int                `json:"item_count"`
	TotalAmount float64            `json:"total_amount"`
}

// ImportOutcome is the result of a commit run
type ImportOutcome struct {
	RunID           string                `json:"run_id"`
	TotalRows       int                   `json:"total_rows"`
	SkippedRows     int                   `json:"skipped_rows"`
	UniqueOrders    int                   `json:"unique_orders"`
	Successful      int                   `json:"successful"`
	Failed          int                   `json:"failed"`
	ProductsCreated int                   `json:"products_created"`
	CreatedOrders   []CreatedOrderSummary `json:"created_orders"`
	Errors          []string              `json:"errors"`
}

// ImportJobStatus is the state of an asynchronous import
type ImportJobStatus string

const (
	ImportJobPending    ImportJobStatus = "pending"
	ImportJobProcessing ImportJobStatus = "processing"
	ImportJobDone       ImportJobStatus = "done"
	ImportJobFailed     ImportJobStatus = "failed"
)

// ImportJob is the metadata kept for an asynchronous import
type ImportJob struct {
	ID        string          `json:"id"`
	Status    ImportJobStatus `json:"status"`
	FileName  string          `json:"file_name"`
	FilePath  string          `json:"file_path"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	Error     string          `json:"error,omitempty"`
	Result    *ImportOutcome  `json:"result,omitempty"`
}

// ImportRun is the audit record written after each commit
type ImportRun struct {
	RunID        string    `json:"run_id" dynamodbav:"run_id"`
	FileName     string    `json:"file_name" dynamodbav:"file_name"`
	ArchiveKey   string    `json:"archive_key,omitempty" dynamodbav:"archive_key,omitempty"`
	CreatedBy    string    `json:"created_by" dynamodbav:"created_by"`
	TotalRows    int       `json:"total_rows" dynamodbav:"total_rows"`
	UniqueOrders int       `json:"unique_orders" dynamodbav:"unique_orders"`
	Successful   int       `json:"successful" dynamodbav:"successful"`
	Failed       int       `json:"failed" dynamodbav:"failed"`
	PONumbers    []string  `json:"po_numbers" dynamodbav:"po_numbers"`
	Errors       []string  `json:"errors" dynamodbav:"errors"`
	StartedAt    time.Time `json:"started_at" dynamodbav:"started_at"`
	FinishedAt   time.Time `json:"finished_at" dynamodbav:"finished_at"`
}

// PurchaseImportCompletedEvent is published once a commit finishes
type PurchaseImportCompletedEvent struct {
	EventType    string    `json:"event_type"`
	RunID        string    `json:"run_id"`
	FileName     string    `json:"file_name"`
	CreatedBy    string    `json:"created_by"`
	UniqueOrders int       `json:"unique_orders"`
	Successful   int       `json:"successful"`
	Failed       int       `json:"failed"`
	PONumbers    []string  `json:"po_numbers"`
	Timestamp    time.Time `json:"timestamp"`
}
