package ascii

// FillValue maps a textual placeholder to a missing value. When a field
// equals Match it is masked and its stored value becomes Replacement.
// Columns limits the rule to the named columns; empty means every column.
type FillValue struct {
	Match       string
	Replacement string
	Columns     []string
}

// DefaultFillValues masks empty fields in every column.
func DefaultFillValues() []FillValue {
	return []FillValue{{Match: ""}}
}

func (f FillValue) appliesTo(name string) bool {
	if len(f.Columns) == 0 {
		return true
	}
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// fillTable is the per-column lookup built from an ordered rule list; the
// first rule that names a column wins over later ones.
type fillTable map[string]map[string]string

func newFillTable(rules []FillValue, cols []*Column) fillTable {
	ft := make(fillTable, len(cols))
	for _, col := range cols {
		for _, rule := range rules {
			if !rule.appliesTo(col.Name) {
				continue
			}
			m := ft[col.Name]
			if m == nil {
				m = make(map[string]string)
				ft[col.Name] = m
			}
			if _, seen := m[rule.Match]; !seen {
				m[rule.Match] = rule.Replacement
			}
		}
	}
	return ft
}

// apply copies the row values into the columns, masking placeholders.
func (ft fillTable) apply(cols []*Column, rows []Row) {
	for _, col := range cols {
		col.Values = make([]string, len(rows))
		col.Mask = make([]bool, len(rows))
		rules := ft[col.Name]
		for r, row := range rows {
			v := row[col.Index]
			if repl, ok := rules[v]; ok {
				col.Values[r] = repl
				col.Mask[r] = true
				continue
			}
			col.Values[r] = v
		}
	}
}
