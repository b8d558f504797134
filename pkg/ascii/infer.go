package ascii

import (
	"strconv"
	"strings"
)

// TagTypes maps the final letter of a declared type tag (lower case) to the
// type family it selects.
type TagTypes map[string]SemanticType

// RDBTagTypes is the tag table of the rdb dialect: N is numeric, S is string.
func RDBTagTypes() TagTypes {
	return TagTypes{
		"n": TypeFloat,
		"s": TypeString,
	}
}

// TypeInferencer resolves column types from declared tags or value scans.
type TypeInferencer struct {
	Tags TagTypes
}

// Infer returns the semantic type of col. A declared tag wins over the
// values: a string tag is final, a numeric tag only narrows to Integer when
// every unmasked value is an integer. Undeclared columns are scanned: Integer
// if every unmasked value parses as an integer, else Float if every one parses
// as a number, else String. Masked values never take part.
func (ti TypeInferencer) Infer(col *Column) SemanticType {
	if col.RawType != "" && ti.Tags != nil {
		key := strings.ToLower(col.RawType[len(col.RawType)-1:])
		if declared, ok := ti.Tags[key]; ok {
			if declared.IsNumeric() {
				if allValues(col, isInteger) {
					return TypeInteger
				}
				return TypeFloat
			}
			return declared
		}
	}

	allInt, allFloat := true, true
	for i, v := range col.Values {
		if col.IsMasked(i) {
			continue
		}
		if allInt && !isInteger(v) {
			allInt = false
		}
		if allFloat && !isFloat(v) {
			allFloat = false
		}
	}

	switch {
	case allInt:
		return TypeInteger
	case allFloat:
		return TypeFloat
	default:
		return TypeString
	}
}

// Resolve infers and sets the type of every column that is still unresolved.
func (ti TypeInferencer) Resolve(cols []*Column) {
	for _, col := range cols {
		if !col.Resolved() {
			col.resolve(ti.Infer(col))
		}
	}
}

func allValues(col *Column, pred func(string) bool) bool {
	for i, v := range col.Values {
		if col.IsMasked(i) {
			continue
		}
		if !pred(v) {
			return false
		}
	}
	return true
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
