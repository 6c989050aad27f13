package stage

import (
	"bytes"
	"encoding/csv"
	"testing"
)

type score struct {
	Name  string
	Score int
}

func TestRows(t *testing.T) {
	c := newTestContext(t)
	coll, _ := New(c, []Pair[score]{
		{Key: "r1", Value: score{Name: "alice", Score: 10}},
		{Key: "r2", Value: score{Name: "bob", Score: 7}},
	})

	rows := Rows(coll, func(key string, v score) map[string]any {
		return map[string]any{"key": key, "name": v.Name, "score": v.Score}
	})
	if len(rows) != 2 {
		t.Fatalf("Rows len = %d, want 2", len(rows))
	}
	if rows[1]["name"] != "bob" {
		t.Errorf("rows[1][name] = %v, want bob", rows[1]["name"])
	}
}

func TestWriteCSV(t *testing.T) {
	c := newTestContext(t)
	coll, _ := New(c, []Pair[score]{
		{Key: "r1", Value: score{Name: "alice", Score: 10}},
		{Key: "r2", Value: score{Name: "bob", Score: 7}},
	})

	var buf bytes.Buffer
	err := WriteCSV(&buf, coll, []string{"key", "score", "missing"}, func(key string, v score) map[string]any {
		return map[string]any{"key": key, "score": v.Score}
	})
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("csv rows = %d, want 3 (header + 2)", len(records))
	}
	if records[0][0] != "key" || records[0][2] != "missing" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][1] != "10" {
		t.Errorf("row 1 score = %q, want 10", records[1][1])
	}
	if records[2][2] != "" {
		t.Errorf("missing column cell = %q, want empty", records[2][2])
	}
}
