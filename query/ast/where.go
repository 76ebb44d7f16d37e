package ast

// WhereKind is the discriminant of a Where node.
type WhereKind int

// Where kinds. The zero value is invalid so an uninitialized node never compiles.
const (
	WhereBasic WhereKind = iota + 1
	WhereIn
	WhereNotIn
	WhereNull
	WhereNotNull
	WhereBetween
	WhereNotBetween
	WhereRaw
	WhereExists
	WhereNotExists
	WhereNested
	WhereColumn
	WhereSub
	WhereJSONContains
	WhereJSONDoesntContain
	WhereJSONLength
	WhereFullText
	WhereDate
	WhereTime
	WhereDay
	WhereMonth
	WhereYear

	// WhereKindCount is one past the last valid kind.
	WhereKindCount
)

var whereKindNames = [...]string{
	WhereBasic:             "Basic",
	WhereIn:                "In",
	WhereNotIn:             "NotIn",
	WhereNull:              "Null",
	WhereNotNull:           "NotNull",
	WhereBetween:           "Between",
	WhereNotBetween:        "NotBetween",
	WhereRaw:               "Raw",
	WhereExists:            "Exists",
	WhereNotExists:         "NotExists",
	WhereNested:            "Nested",
	WhereColumn:            "Column",
	WhereSub:               "Sub",
	WhereJSONContains:      "JsonContains",
	WhereJSONDoesntContain: "JsonDoesntContain",
	WhereJSONLength:        "JsonLength",
	WhereFullText:          "FullText",
	WhereDate:              "Date",
	WhereTime:              "Time",
	WhereDay:               "Day",
	WhereMonth:             "Month",
	WhereYear:              "Year",
}

// String returns the kind name.
func (k WhereKind) String() string {
	if k.Valid() {
		return whereKindNames[k]
	}
	return "Unknown"
}

// Valid reports whether k is a known kind.
func (k WhereKind) Valid() bool {
	return k > 0 && k < WhereKindCount
}

// Where is one predicate in a WHERE, HAVING or JOIN ... ON chain.
// Only the fields relevant to Kind are populated.
type Where struct {
	Kind    WhereKind
	Boolean string // And or Or

	Column   interface{}
	Columns  []string
	Operator string
	Value    interface{}
	Values   []interface{}
	Low      interface{}
	High     interface{}
	First    interface{}
	Second   interface{}
	SQL      string
	Bindings []interface{}
	Query    *Plan
	Options  map[string]interface{}
}

// Clone copies the node and any nested plan.
func (w Where) Clone() Where {
	c := w
	c.Columns = cloneStrings(w.Columns)
	c.Values = cloneValues(w.Values)
	c.Bindings = cloneValues(w.Bindings)
	c.Query = w.Query.Clone()
	if w.Options != nil {
		c.Options = make(map[string]interface{}, len(w.Options))
		for k, v := range w.Options {
			c.Options[k] = v
		}
	}
	return c
}

func cloneWheres(w []Where) []Where {
	if w == nil {
		return nil
	}
	out := make([]Where, len(w))
	for i, where := range w {
		out[i] = where.Clone()
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
