package columnar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ajitpratap0/tabula/pkg/ascii"
)

// ColumnType represents the storage type of a column
type ColumnType int

const (
	ColumnTypeString ColumnType = iota
	ColumnTypeInt
	ColumnTypeFloat
)

func (t ColumnType) String() string {
	switch t {
	case ColumnTypeInt:
		return "int64"
	case ColumnTypeFloat:
		return "float64"
	default:
		return "string"
	}
}

// ParseColumnType accepts the storage names and the ascii type names
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(s) {
	case "int", "int64", "integer":
		return ColumnTypeInt, nil
	case "float", "float64", "double":
		return ColumnTypeFloat, nil
	case "str", "string":
		return ColumnTypeString, nil
	default:
		return ColumnTypeString, fmt.Errorf("unknown column type %q", s)
	}
}

// FromSemantic maps a resolved ascii type to its storage type
func FromSemantic(t ascii.SemanticType) ColumnType {
	switch t {
	case ascii.TypeInteger:
		return ColumnTypeInt
	case ascii.TypeFloat:
		return ColumnTypeFloat
	default:
		return ColumnTypeString
	}
}

// Column is the base interface for all column types
type Column interface {
	Type() ColumnType
	Len() int
	// Get returns the value at i, or nil when it is null
	Get(i int) interface{}
	IsNull(i int) bool
	NullCount() int
	// Append parses raw text into the column type
	Append(raw string) error
	AppendNull()
	Clear()
	MemoryUsage() int64
}

// validity tracks which positions of a column hold a value
type validity struct {
	valid []bool
	nulls int
}

func (v *validity) IsNull(i int) bool { return !v.valid[i] }
func (v *validity) NullCount() int    { return v.nulls }

func (v *validity) push(ok bool) {
	v.valid = append(v.valid, ok)
	if !ok {
		v.nulls++
	}
}

func (v *validity) reset() {
	v.valid = v.valid[:0]
	v.nulls = 0
}

// StringColumn stores string values, switching to dictionary encoding when
// values repeat.
type StringColumn struct {
	validity
	values []string
	// Dictionary encoding for repeated values
	dict      map[string]uint32
	entries   []string
	codes     []uint32
	dictMode  bool
	threshold float64 // Switch to dictionary when unique ratio < threshold
}

// NewStringColumn creates a new string column
func NewStringColumn() *StringColumn {
	return &StringColumn{
		values:    make([]string, 0, 64),
		dict:      make(map[string]uint32),
		threshold: 0.5,
	}
}

func (c *StringColumn) Type() ColumnType { return ColumnTypeString }
func (c *StringColumn) Len() int         { return len(c.valid) }

func (c *StringColumn) Get(i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	return c.Value(i)
}

// Value returns the string at i; nulls read as ""
func (c *StringColumn) Value(i int) string {
	if c.dictMode {
		return c.entries[c.codes[i]]
	}
	return c.values[i]
}

// Dictionary reports whether the column is dictionary encoded
func (c *StringColumn) Dictionary() bool { return c.dictMode }

func (c *StringColumn) Append(raw string) error {
	c.appendValue(raw)
	c.push(true)
	return nil
}

func (c *StringColumn) AppendNull() {
	c.appendValue("")
	c.push(false)
}

func (c *StringColumn) appendValue(str string) {
	if c.dictMode {
		c.codes = append(c.codes, c.code(str))
		return
	}

	c.values = append(c.values, str)

	// Check if we should switch to dictionary mode
	if len(c.values) == 128 && c.shouldUseDictionary() {
		c.convertToDictionary()
	}
}

func (c *StringColumn) code(str string) uint32 {
	if code, exists := c.dict[str]; exists {
		return code
	}
	code := uint32(len(c.entries)) //nolint:gosec // dictionary size is bounded by row count
	c.dict[str] = code
	c.entries = append(c.entries, str)
	return code
}

func (c *StringColumn) shouldUseDictionary() bool {
	unique := make(map[string]struct{})
	for _, v := range c.values {
		unique[v] = struct{}{}
	}
	ratio := float64(len(unique)) / float64(len(c.values))
	return ratio < c.threshold
}

func (c *StringColumn) convertToDictionary() {
	c.dictMode = true
	c.codes = make([]uint32, 0, cap(c.values))
	for _, v := range c.values {
		c.codes = append(c.codes, c.code(v))
	}
	// Clear values to free memory
	c.values = nil
}

func (c *StringColumn) Clear() {
	c.values = c.values[:0]
	c.codes = nil
	c.entries = nil
	c.dict = make(map[string]uint32)
	c.dictMode = false
	c.reset()
}

func (c *StringColumn) MemoryUsage() int64 {
	var total int64
	if c.dictMode {
		for _, k := range c.entries {
			total += int64(len(k)) + 16 + 4
		}
		total += int64(len(c.codes) * 4)
	} else {
		for _, v := range c.values {
			total += int64(len(v)) + 16 // string header overhead
		}
	}
	return total + int64(len(c.valid))
}

// IntColumn stores 64-bit integers
type IntColumn struct {
	validity
	values   []int64
	min, max int64
	seen     bool
}

// NewIntColumn creates a new integer column
func NewIntColumn() *IntColumn {
	return &IntColumn{values: make([]int64, 0, 64)}
}

func (c *IntColumn) Type() ColumnType { return ColumnTypeInt }
func (c *IntColumn) Len() int         { return len(c.values) }

func (c *IntColumn) Get(i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	return c.values[i]
}

// Value returns the integer at i; nulls read as 0
func (c *IntColumn) Value(i int) int64 { return c.values[i] }

// Range returns the smallest and largest non-null value
func (c *IntColumn) Range() (lo, hi int64, ok bool) { return c.min, c.max, c.seen }

func (c *IntColumn) Append(raw string) error {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return err
	}
	if !c.seen || v < c.min {
		c.min = v
	}
	if !c.seen || v > c.max {
		c.max = v
	}
	c.seen = true
	c.values = append(c.values, v)
	c.push(true)
	return nil
}

func (c *IntColumn) AppendNull() {
	c.values = append(c.values, 0)
	c.push(false)
}

func (c *IntColumn) Clear() {
	c.values = c.values[:0]
	c.min, c.max, c.seen = 0, 0, false
	c.reset()
}

func (c *IntColumn) MemoryUsage() int64 {
	return int64(len(c.values)*8 + len(c.valid))
}

// FloatColumn stores 64-bit floats
type FloatColumn struct {
	validity
	values []float64
}

// NewFloatColumn creates a new float column
func NewFloatColumn() *FloatColumn {
	return &FloatColumn{values: make([]float64, 0, 64)}
}

func (c *FloatColumn) Type() ColumnType { return ColumnTypeFloat }
func (c *FloatColumn) Len() int         { return len(c.values) }

func (c *FloatColumn) Get(i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	return c.values[i]
}

// Value returns the float at i; nulls read as 0
func (c *FloatColumn) Value(i int) float64 { return c.values[i] }

func (c *FloatColumn) Append(raw string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return err
	}
	c.values = append(c.values, v)
	c.push(true)
	return nil
}

func (c *FloatColumn) AppendNull() {
	c.values = append(c.values, 0)
	c.push(false)
}

func (c *FloatColumn) Clear() {
	c.values = c.values[:0]
	c.reset()
}

func (c *FloatColumn) MemoryUsage() int64 {
	return int64(len(c.values)*8 + len(c.valid))
}

// createColumn creates a new column of the specified type
func createColumn(colType ColumnType) Column {
	switch colType {
	case ColumnTypeInt:
		return NewIntColumn()
	case ColumnTypeFloat:
		return NewFloatColumn()
	default:
		return NewStringColumn()
	}
}
