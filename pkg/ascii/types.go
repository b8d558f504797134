// Package ascii parses and writes character-delimited text tables.
//
// A Reader composes one Header and one Data region, each with its own
// Splitter and comment rules. Dialects (basic, no_header, commented_header,
// tab, csv, rdb) are factory functions that fill in those fields; they share
// line classification, row reconciliation and type inference.
//
// Parsing is a pure function of the input lines:
//
//	rdr, _ := ascii.CSV()
//	tbl, err := rdr.Parse([]string{"a,b,c", "1,2", "3,4,5"})
//	// tbl.Rows[0] == ascii.Row{"1", "2", ""}
//
// A Reader holds no state between calls and may be reused, but it is not
// meant to be shared across goroutines while its options are being changed.
package ascii

import "fmt"

// SemanticType is the resolved storage type of a column
type SemanticType int

const (
	// TypeUnresolved marks a column whose type has not been decided yet
	TypeUnresolved SemanticType = iota
	// TypeInteger holds 64-bit integers
	TypeInteger
	// TypeFloat holds 64-bit floats
	TypeFloat
	// TypeString holds raw strings
	TypeString
)

func (t SemanticType) String() string {
	switch t {
	case TypeInteger:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "str"
	default:
		return "unresolved"
	}
}

// IsNumeric reports whether values of this type are numbers
func (t SemanticType) IsNumeric() bool {
	return t == TypeInteger || t == TypeFloat
}

// ParseSemanticType maps a type name back to a SemanticType
func ParseSemanticType(s string) (SemanticType, error) {
	switch s {
	case "int", "integer":
		return TypeInteger, nil
	case "float":
		return TypeFloat, nil
	case "str", "string":
		return TypeString, nil
	default:
		return TypeUnresolved, fmt.Errorf("unknown type %q", s)
	}
}

// Column describes one table column and, after parsing, carries its values.
type Column struct {
	// Name is unique among the columns of a table
	Name string
	// Index is the field position in every row
	Index int
	// RawType is the dialect-specific declared type tag, empty when undeclared
	RawType string
	// Type is set exactly once, by the type inferencer
	Type SemanticType

	// Values holds one string per row after fill values were applied
	Values []string
	// Mask is true where the value is missing
	Mask []bool
}

// NewColumn creates an unresolved column
func NewColumn(name string, index int) *Column {
	return &Column{Name: name, Index: index}
}

// Resolved reports whether the column type has been decided
func (c *Column) Resolved() bool {
	return c.Type != TypeUnresolved
}

// resolve sets the type once; later calls are ignored.
func (c *Column) resolve(t SemanticType) {
	if c.Resolved() {
		return
	}
	c.Type = t
}

// Len returns the number of values in the column
func (c *Column) Len() int {
	return len(c.Values)
}

// IsMasked reports whether row i of the column is missing
func (c *Column) IsMasked(i int) bool {
	return i < len(c.Mask) && c.Mask[i]
}

// Row is one data line split into raw fields
type Row []string

// Table is the result of parsing: column descriptors with their values and
// the reconciled raw rows they were built from.
type Table struct {
	Columns []*Column
	Rows    []Row
	// Padded counts the rows extended by the reconcile policy
	Padded int
}

// NewTable builds a table from column names and raw rows, leaving types
// unresolved. It is the entry point for callers that write tables they did
// not parse.
func NewTable(names []string, rows []Row) *Table {
	cols := make([]*Column, len(names))
	for i, name := range names {
		col := NewColumn(name, i)
		col.Values = make([]string, len(rows))
		col.Mask = make([]bool, len(rows))
		for r, row := range rows {
			if i < len(row) {
				col.Values[r] = row[i]
			}
		}
		cols[i] = col
	}
	return &Table{Columns: cols, Rows: rows}
}

// Names returns the column names in order
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// Column returns the column with the given name, or nil
func (t *Table) Column(name string) *Column {
	for _, col := range t.Columns {
		if col.Name == name {
			return col
		}
	}
	return nil
}

// NumRows returns the number of data rows
func (t *Table) NumRows() int {
	return len(t.Rows)
}
