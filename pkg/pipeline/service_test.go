package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/dataset"
	"github.com/Ramsey-B/clover/pkg/models"
)

func newTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func writeRawFixtures(t *testing.T, dir string) {
	t.Helper()

	files := map[string]string{
		"olist_orders_dataset.csv": "order_id,customer_id,order_status,order_purchase_timestamp,order_delivered_customer_date\n" +
			"o1,c1,delivered,2018-08-20 10:00:00,2018-08-25 10:00:00\n" +
			"o2,c1,delivered,2018-08-29 10:00:00,2018-09-01 10:00:00\n" +
			"o3,c2,delivered,2018-03-01 10:00:00,2018-03-10 10:00:00\n" +
			"o4,c3,canceled,2018-08-01 10:00:00,\n",
		"olist_order_items_dataset.csv": "order_id,price,freight_value\n" +
			"o1,100.00,10.00\no2,60.00,6.00\no3,40.00,4.00\n",
		"olist_customers_dataset.csv": "customer_id,customer_unique_id\n" +
			"c1,u-alpha\nc2,u-beta\nc3,u-gamma\n",
		"olist_order_payments_dataset.csv": "order_id,payment_value\n" +
			"o1,110.00\no2,66.00\no3,44.00\n",
		"olist_order_reviews_dataset.csv": "order_id,review_score\n" +
			"o1,5\no3,2\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

type fakeTxStore struct {
	runID        string
	transactions []models.Transaction
}

func (f *fakeTxStore) ReplaceRun(_ context.Context, _ string, runID string, txs []models.Transaction) error {
	f.runID = runID
	f.transactions = txs
	return nil
}

type fakeFeatureStore struct {
	runID    string
	features []models.CustomerFeatures
}

func (f *fakeFeatureStore) ReplaceRun(_ context.Context, _ string, runID string, rows []models.CustomerFeatures) error {
	f.runID = runID
	f.features = rows
	return nil
}

type fakeSegmentStore struct {
	runID    string
	segments []models.CustomerSegment
}

func (f *fakeSegmentStore) ReplaceRun(_ context.Context, _ string, runID string, rows []models.CustomerSegment) error {
	f.runID = runID
	f.segments = rows
	return nil
}

type fakeEmitter struct {
	updatedRunID string
	failedRunID  string
	customers    int
}

func (f *fakeEmitter) EmitSegmentsUpdated(_ context.Context, _ string, runID string, _ time.Time, _ int, segments []models.CustomerSegment, _ int) error {
	f.updatedRunID = runID
	f.customers = len(segments)
	return nil
}

func (f *fakeEmitter) EmitRunFailed(_ context.Context, _ string, runID string, _ error) error {
	f.failedRunID = runID
	return nil
}

func newTestService(t *testing.T, txStore TransactionStore, featureStore FeatureStore, segmentStore SegmentStore, emitter RunEmitter) (*Service, string) {
	t.Helper()

	rawDir := t.TempDir()
	processedDir := filepath.Join(t.TempDir(), "processed")
	writeRawFixtures(t, rawDir)

	svc := NewService(Options{
		TenantID:        "default",
		RawDir:          rawDir,
		ProcessedDir:    processedDir,
		ChurnWindowDays: 90,
		RFMLabels:       []int{1, 2, 3, 4},
	}, txStore, featureStore, segmentStore, emitter, newTestLogger())

	return svc, processedDir
}

func TestServiceRun(t *testing.T) {
	txStore := &fakeTxStore{}
	featureStore := &fakeFeatureStore{}
	segmentStore := &fakeSegmentStore{}
	emitter := &fakeEmitter{}

	svc, processedDir := newTestService(t, txStore, featureStore, segmentStore, emitter)
	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	t.Run("summary reflects the dataset", func(t *testing.T) {
		assert.NotEmpty(t, result.RunID)
		assert.Equal(t, 3, result.Transactions, "the canceled order is dropped")
		assert.Equal(t, 2, result.Customers)
		assert.Equal(t, date("2018-08-29 10:00:00"), result.SnapshotDate)
	})

	t.Run("processed CSVs are written", func(t *testing.T) {
		for _, f := range []string{TransactionsFile, CustomerFeaturesFile, CustomerSegmentsFile} {
			_, err := os.Stat(filepath.Join(processedDir, f))
			assert.NoError(t, err, f)
		}
	})

	t.Run("feature CSV embeds the churn window", func(t *testing.T) {
		table, err := dataset.ReadCSV(filepath.Join(processedDir, CustomerFeaturesFile), "customer_features")
		require.NoError(t, err)
		assert.True(t, table.HasColumn("churn_90d"))
	})

	t.Run("stores see the same run", func(t *testing.T) {
		assert.Equal(t, result.RunID, txStore.runID)
		assert.Equal(t, result.RunID, featureStore.runID)
		assert.Equal(t, result.RunID, segmentStore.runID)
		assert.Len(t, txStore.transactions, 3)
		assert.Len(t, featureStore.features, 2)
		assert.Len(t, segmentStore.segments, 2)
	})

	t.Run("event is emitted", func(t *testing.T) {
		assert.Equal(t, result.RunID, emitter.updatedRunID)
		assert.Equal(t, 2, emitter.customers)
		assert.Empty(t, emitter.failedRunID)
	})

	t.Run("distribution counts every customer", func(t *testing.T) {
		total := 0
		for _, n := range result.SegmentDistribution {
			total += n
		}
		assert.Equal(t, result.Customers, total)
	})
}

func TestServiceRun_NilStoresSkipPersistence(t *testing.T) {
	svc, processedDir := newTestService(t, nil, nil, nil, nil)

	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Customers)

	_, statErr := os.Stat(filepath.Join(processedDir, CustomerSegmentsFile))
	assert.NoError(t, statErr)
}

func TestServiceRun_WindowOverride(t *testing.T) {
	svc, processedDir := newTestService(t, nil, nil, nil, nil)

	_, err := svc.Run(context.Background(), RunOptions{ChurnWindowDays: 30})
	require.NoError(t, err)

	table, err := dataset.ReadCSV(filepath.Join(processedDir, CustomerFeaturesFile), "customer_features")
	require.NoError(t, err)
	assert.True(t, table.HasColumn("churn_30d"))
	assert.False(t, table.HasColumn("churn_90d"))
}

func TestServiceRun_MissingRawFails(t *testing.T) {
	emitter := &fakeEmitter{}
	svc := NewService(Options{
		TenantID:        "default",
		RawDir:          t.TempDir(),
		ProcessedDir:    t.TempDir(),
		ChurnWindowDays: 90,
		RFMLabels:       []int{1, 2, 3, 4},
	}, nil, nil, nil, emitter, newTestLogger())

	_, err := svc.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.NotEmpty(t, emitter.failedRunID, "failures are emitted for operators")
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}
