package stage

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Rows flattens the collection for tabular consumers. Each record
// becomes one row built by project, in collection order.
func Rows[T any](c *Collection[T], project func(key string, value T) map[string]any) []map[string]any {
	rows := make([]map[string]any, len(c.pairs))
	for i, p := range c.pairs {
		rows[i] = project(p.Key, p.Value)
	}
	return rows
}

// WriteCSV writes the collection as CSV: a header of columns, then one
// row per record in collection order, with cells looked up from the
// projected row (missing cells are empty, non-strings formatted with
// fmt).
func WriteCSV[T any](w io.Writer, c *Collection[T], columns []string, project func(key string, value T) map[string]any) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}

	row := make([]string, len(columns))
	for _, p := range c.pairs {
		cells := project(p.Key, p.Value)
		for i, col := range columns {
			v, ok := cells[col]
			if !ok || v == nil {
				row[i] = ""
				continue
			}
			if s, isStr := v.(string); isStr {
				row[i] = s
			} else {
				row[i] = fmt.Sprint(v)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
