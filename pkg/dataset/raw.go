package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/Gobusters/ectologger"
)

// Raw table names used throughout the pipeline.
const (
	TableOrders     = "orders"
	TableOrderItems = "order_items"
	TableCustomers  = "customers"
	TablePayments   = "payments"
	TableReviews    = "reviews"
)

// Olist export file names for each raw table.
var rawFiles = map[string]string{
	TableOrders:     "olist_orders_dataset.csv",
	TableOrderItems: "olist_order_items_dataset.csv",
	TableCustomers:  "olist_customers_dataset.csv",
	TablePayments:   "olist_order_payments_dataset.csv",
	TableReviews:    "olist_order_reviews_dataset.csv",
}

// RawFileNames returns the expected raw CSV file names, sorted.
func RawFileNames() []string {
	names := make([]string, 0, len(rawFiles))
	for _, f := range rawFiles {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

// RawTables bundles the five raw inputs of one pipeline run.
type RawTables struct {
	Orders     *Table
	OrderItems *Table
	Customers  *Table
	Payments   *Table
	Reviews    *Table
}

// Loader reads raw CSV exports from a local directory.
type Loader struct {
	dir    string
	logger ectologger.Logger
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string, logger ectologger.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// LoadAll reads all five raw tables. A missing or unreadable file aborts the
// load with a descriptive error; no partial bundle is returned.
func (l *Loader) LoadAll(ctx context.Context) (*RawTables, error) {
	raw := &RawTables{}
	dests := map[string]**Table{
		TableOrders:     &raw.Orders,
		TableOrderItems: &raw.OrderItems,
		TableCustomers:  &raw.Customers,
		TablePayments:   &raw.Payments,
		TableReviews:    &raw.Reviews,
	}

	for name, dest := range dests {
		path := filepath.Join(l.dir, rawFiles[name])
		t, err := ReadCSV(path, name)
		if err != nil {
			return nil, fmt.Errorf("load raw table %s: %w", name, err)
		}
		l.logger.WithContext(ctx).WithFields(map[string]any{
			"table": name,
			"rows":  t.Len(),
			"path":  path,
		}).Debug("Loaded raw table")
		*dest = t
	}

	return raw, nil
}
