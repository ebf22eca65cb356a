package schema

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/dataset"
)

func TestRequireColumns(t *testing.T) {
	table := dataset.New("orders", []string{"order_id", "customer_id", "order_status"})

	t.Run("all present", func(t *testing.T) {
		assert.NoError(t, RequireColumns(table, []string{"order_id", "order_status"}))
	})

	t.Run("extra columns are fine", func(t *testing.T) {
		assert.NoError(t, RequireColumns(table, []string{"order_id"}))
	})

	t.Run("missing columns are all named", func(t *testing.T) {
		err := RequireColumns(table, []string{"order_id", "order_purchase_timestamp", "order_delivered_customer_date"})
		require.Error(t, err)

		var se *SchemaError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "orders", se.Table)
		assert.Equal(t, []string{"order_purchase_timestamp", "order_delivered_customer_date"}, se.Missing)
		assert.Equal(t, []string{"order_id", "customer_id", "order_status"}, se.Available)
	})

	t.Run("message names missing and available columns", func(t *testing.T) {
		err := RequireColumns(table, []string{"price"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "orders")
		assert.Contains(t, err.Error(), "price")
		assert.Contains(t, err.Error(), "order_status")
	})
}

func TestIsSchemaError(t *testing.T) {
	table := dataset.New("reviews", []string{"review_id"})
	err := RequireColumns(table, []string{"review_score"})

	assert.True(t, IsSchemaError(err))
	assert.True(t, IsSchemaError(fmt.Errorf("validate reviews: %w", err)))
	assert.False(t, IsSchemaError(fmt.Errorf("some other error")))
	assert.False(t, IsSchemaError(nil))
}
