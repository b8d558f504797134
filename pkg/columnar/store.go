package columnar

import (
	"fmt"
	"sync"

	"github.com/ajitpratap0/tabula/pkg/ascii"
	"github.com/ajitpratap0/tabula/pkg/errors"
)

// Schema defines the structure of a columnar store
type Schema struct {
	Fields []FieldSchema
}

// FieldSchema defines a single field in the schema
type FieldSchema struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Names returns the field names in order
func (s *Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// ColumnStore provides typed columnar storage for one table
type ColumnStore struct {
	mu       sync.RWMutex
	schema   *Schema
	columns  []Column
	index    map[string]int
	rowCount int
}

// NewColumnStore creates an empty store with the given schema
func NewColumnStore(schema *Schema) (*ColumnStore, error) {
	store := &ColumnStore{
		schema:  schema,
		columns: make([]Column, len(schema.Fields)),
		index:   make(map[string]int, len(schema.Fields)),
	}
	for i, field := range schema.Fields {
		if _, dup := store.index[field.Name]; dup {
			return nil, errors.NewConfigError(fmt.Sprintf("column %q defined twice", field.Name))
		}
		store.index[field.Name] = i
		store.columns[i] = createColumn(field.Type)
	}
	return store, nil
}

// FromTable loads a parsed table. Each column is stored as its resolved
// type unless overrides names another one; a value that cannot be stored
// in the chosen type is a conversion error.
func FromTable(t *ascii.Table, overrides map[string]ColumnType) (*ColumnStore, error) {
	for name := range overrides {
		if t.Column(name) == nil {
			return nil, errors.New(errors.ErrorTypeNotFound,
				fmt.Sprintf("type override for unknown column %q", name))
		}
	}

	schema := &Schema{Fields: make([]FieldSchema, len(t.Columns))}
	for i, col := range t.Columns {
		typ := FromSemantic(col.Type)
		if forced, ok := overrides[col.Name]; ok {
			typ = forced
		}
		schema.Fields[i] = FieldSchema{Name: col.Name, Type: typ, Nullable: true}
	}

	store, err := NewColumnStore(schema)
	if err != nil {
		return nil, err
	}

	nrows := t.NumRows()
	for i, col := range t.Columns {
		target := store.columns[i]
		for r := 0; r < nrows; r++ {
			if col.IsMasked(r) {
				target.AppendNull()
				continue
			}
			if err := target.Append(col.Values[r]); err != nil {
				return nil, errors.NewConversionError(col.Name, col.Values[r], target.Type().String()).
					WithDetail("row", r)
			}
		}
	}
	store.rowCount = nrows
	return store, nil
}

// AppendRow adds one row of raw values; nulls marks missing entries and may be nil.
func (s *ColumnStore) AppendRow(values []string, nulls []bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(values) != len(s.columns) {
		return errors.NewRowLengthError(s.rowCount+1, len(s.columns), len(values), "")
	}

	// validate first so a failed row leaves the store unchanged
	for i, v := range values {
		if i < len(nulls) && nulls[i] {
			continue
		}
		if err := checkValue(s.columns[i].Type(), v); err != nil {
			return errors.NewConversionError(s.schema.Fields[i].Name, v, s.columns[i].Type().String())
		}
	}

	for i, v := range values {
		if i < len(nulls) && nulls[i] {
			s.columns[i].AppendNull()
			continue
		}
		_ = s.columns[i].Append(v)
	}
	s.rowCount++
	return nil
}

func checkValue(t ColumnType, v string) error {
	if t == ColumnTypeString {
		return nil
	}
	return createColumn(t).Append(v)
}

// Schema returns the store schema
func (s *ColumnStore) Schema() *Schema {
	return s.schema
}

// GetColumn retrieves a column by name
func (s *ColumnStore) GetColumn(name string) (Column, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, exists := s.index[name]
	if !exists {
		return nil, false
	}
	return s.columns[i], true
}

// ColumnAt returns the i-th column in schema order
func (s *ColumnStore) ColumnAt(i int) Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.columns[i]
}

// GetRow retrieves a row by index as name to value, with nil for nulls
func (s *ColumnStore) GetRow(index int) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= s.rowCount {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "index %d out of range [0, %d)", index, s.rowCount)
	}

	row := make(map[string]interface{}, len(s.columns))
	for i, col := range s.columns {
		row[s.schema.Fields[i].Name] = col.Get(index)
	}
	return row, nil
}

// RowCount returns the number of rows
func (s *ColumnStore) RowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rowCount
}

// ColumnCount returns the number of columns
func (s *ColumnStore) ColumnCount() int {
	return len(s.schema.Fields)
}

// ColumnNames returns all column names in schema order
func (s *ColumnStore) ColumnNames() []string {
	return s.schema.Names()
}

// MemoryUsage returns an estimate of the bytes held by the store
func (s *ColumnStore) MemoryUsage() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64 = 64
	for i, col := range s.columns {
		total += int64(len(s.schema.Fields[i].Name))
		total += col.MemoryUsage()
	}
	return total
}

// MemoryPerRecord returns average memory usage per record
func (s *ColumnStore) MemoryPerRecord() float64 {
	rows := s.RowCount()
	if rows == 0 {
		return 0
	}
	return float64(s.MemoryUsage()) / float64(rows)
}

// Clear removes all data from the store
func (s *ColumnStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, col := range s.columns {
		col.Clear()
	}
	s.rowCount = 0
}

// BatchIterator provides batch access to rows in schema order
type BatchIterator struct {
	store     *ColumnStore
	batchSize int
	index     int
}

// NewBatchIterator creates a new batch iterator
func (s *ColumnStore) NewBatchIterator(batchSize int) *BatchIterator {
	if batchSize <= 0 {
		batchSize = 1024
	}
	return &BatchIterator{store: s, batchSize: batchSize}
}

// NextBatch returns the next batch of rows. Each row holds one value per
// column, nil for nulls.
func (it *BatchIterator) NextBatch() ([][]interface{}, bool) {
	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	if it.index >= it.store.rowCount {
		return nil, false
	}

	endIndex := it.index + it.batchSize
	if endIndex > it.store.rowCount {
		endIndex = it.store.rowCount
	}

	batch := make([][]interface{}, 0, endIndex-it.index)
	for i := it.index; i < endIndex; i++ {
		row := make([]interface{}, len(it.store.columns))
		for c, col := range it.store.columns {
			row[c] = col.Get(i)
		}
		batch = append(batch, row)
	}

	it.index = endIndex
	return batch, true
}
