// Package schema validates table shapes before any transform runs.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Ramsey-B/clover/pkg/dataset"
)

// SchemaError reports required columns missing from a table. The message
// enumerates both the missing columns and the columns actually present so a
// bad export is diagnosable from the error alone.
type SchemaError struct {
	Table     string
	Missing   []string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s missing columns: [%s]; available columns: [%s]",
		e.Table, strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "))
}

// IsSchemaError reports whether err is (or wraps) a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// RequireColumns returns nil when every required column is present in t,
// otherwise a *SchemaError naming exactly the missing columns. It must run
// before any join or aggregation that assumes a column exists.
func RequireColumns(t *dataset.Table, required []string) error {
	var missing []string
	for _, c := range required {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &SchemaError{
		Table:     t.Name,
		Missing:   missing,
		Available: append([]string(nil), t.Columns...),
	}
}
