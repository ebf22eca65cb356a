package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Value(t *testing.T) {
	table := New("orders", []string{"order_id", "order_status"})
	table.Append([]string{"o1", "delivered"})
	table.Append([]string{"o2"})

	assert.Equal(t, "delivered", table.Value(0, "order_status"))
	assert.Equal(t, "", table.Value(1, "order_status"), "short rows read as null past their end")
	assert.Equal(t, "", table.Value(0, "no_such_column"))
	assert.Equal(t, "", table.Value(5, "order_id"))
}

func TestTable_HasColumn(t *testing.T) {
	table := New("orders", []string{"order_id"})

	assert.True(t, table.HasColumn("order_id"))
	assert.False(t, table.HasColumn("price"))
}

func TestReadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.csv")

	t.Run("reads header and rows", func(t *testing.T) {
		content := "order_id,order_status\no1,delivered\no2,shipped\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		table, err := ReadCSV(path, "orders")
		require.NoError(t, err)
		assert.Equal(t, []string{"order_id", "order_status"}, table.Columns)
		assert.Equal(t, 2, table.Len())
		assert.Equal(t, "shipped", table.Value(1, "order_status"))
	})

	t.Run("tolerates ragged rows", func(t *testing.T) {
		content := "order_id,order_status,extra\no1,delivered\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		table, err := ReadCSV(path, "orders")
		require.NoError(t, err)
		assert.Equal(t, "", table.Value(0, "extra"))
	})

	t.Run("empty file fails", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

		_, err := ReadCSV(path, "orders")
		assert.Error(t, err)
	})

	t.Run("missing file fails", func(t *testing.T) {
		_, err := ReadCSV(filepath.Join(dir, "nope.csv"), "orders")
		assert.Error(t, err)
	})
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.csv")

	table := New("out", []string{"b_col", "a_col"})
	table.Append([]string{"1", "x"})
	table.Append([]string{"2", ""})

	require.NoError(t, table.WriteCSV(path))

	back, err := ReadCSV(path, "out")
	require.NoError(t, err)
	assert.Equal(t, []string{"b_col", "a_col"}, back.Columns, "column order is preserved")
	assert.Equal(t, table.Rows, back.Rows)
}

func TestRawFileNames(t *testing.T) {
	names := RawFileNames()

	assert.Len(t, names, 5)
	assert.Contains(t, names, "olist_orders_dataset.csv")
	assert.IsNonDecreasing(t, names)
}
