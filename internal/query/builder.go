package query

import (
	"fmt"
	"strings"
)

// Query is a compiled WHERE/ORDER BY suffix with positional `?` arguments.
// Callers rebind the placeholders for their driver.
type Query struct {
	Where   string
	OrderBy string
	Args    []any
}

// Clause renders the suffix to append after `SELECT ... FROM table`.
func (q Query) Clause() string {
	var b strings.Builder
	if q.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(q.Where)
	}
	if q.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.OrderBy)
	}
	return b.String()
}

// Builder composes filter, sort and search options against one Table.
// The first resolution error sticks and is returned by Query.
type Builder struct {
	table  *Table
	preds  []string
	orders []string
	args   []any
	err    error
}

// NewBuilder starts an empty query against t.
func NewBuilder(t *Table) *Builder {
	return &Builder{table: t}
}

// Build applies filter, then sort, then search.
func (b *Builder) Build(opts Options) (Query, error) {
	return b.WithFilters(opts.Filter).WithSort(opts.Sort).WithSearch(opts.Search).Query()
}

// WithFilters adds one AND-ed predicate per condition.
func (b *Builder) WithFilters(conds []FilterCondition) *Builder {
	for _, cond := range conds {
		if b.err != nil {
			return b
		}
		col, err := b.table.Resolve(cond.Column)
		if err != nil {
			b.err = err
			return b
		}
		pred, args, err := b.predicate(col, cond.Operator, cond.Value)
		if err != nil {
			b.err = err
			return b
		}
		b.preds = append(b.preds, pred)
		b.args = append(b.args, args...)
	}
	return b
}

// WithSort appends ORDER BY keys in the given sequence.
func (b *Builder) WithSort(conds []SortCondition) *Builder {
	for _, cond := range conds {
		if b.err != nil {
			return b
		}
		col, err := b.table.Resolve(cond.Column)
		if err != nil {
			b.err = err
			return b
		}
		dir := "ASC"
		if strings.EqualFold(string(cond.Order), string(Desc)) {
			dir = "DESC"
		}
		b.orders = append(b.orders, col+" "+dir)
	}
	return b
}

// WithSearch adds one OR-ed group of case-insensitive substring matches.
// It is a no-op when the term or the column list is empty.
func (b *Builder) WithSearch(search *SearchCondition) *Builder {
	if b.err != nil || search == nil || search.Term == "" || len(search.Columns) == 0 {
		return b
	}
	pattern := "%" + strings.ToLower(search.Term) + "%"
	ors := make([]string, 0, len(search.Columns))
	for _, name := range search.Columns {
		col, err := b.table.Resolve(name)
		if err != nil {
			b.err = err
			return b
		}
		ors = append(ors, "LOWER("+col+") LIKE ?")
		b.args = append(b.args, pattern)
	}
	b.preds = append(b.preds, "("+strings.Join(ors, " OR ")+")")
	return b
}

// Where adds a trusted equality predicate on a known column.
func (b *Builder) Where(column string, value any) *Builder {
	if b.err != nil {
		return b
	}
	if !b.table.Has(column) {
		b.err = fmt.Errorf("%w: %q on table %s", ErrColumnNotFound, column, b.table.Name)
		return b
	}
	b.preds = append(b.preds, column+" = ?")
	b.args = append(b.args, value)
	return b
}

// Query returns the compiled suffix or the first error met.
func (b *Builder) Query() (Query, error) {
	if b.err != nil {
		return Query{}, b.err
	}
	return Query{
		Where:   strings.Join(b.preds, " AND "),
		OrderBy: strings.Join(b.orders, ", "),
		Args:    b.args,
	}, nil
}

func (b *Builder) predicate(col string, op Operator, value any) (string, []any, error) {
	if value == nil {
		switch op {
		case OpEq:
			return col + " IS NULL", nil, nil
		case OpNe:
			return col + " IS NOT NULL", nil, nil
		}
		return "", nil, fmt.Errorf("%w: %s with null value on %s", ErrUnsupportedOperator, op, col)
	}
	switch op {
	case OpLike:
		return col + " LIKE ?", []any{fmt.Sprint(value)}, nil
	case OpILike:
		return "LOWER(" + col + ") LIKE LOWER(?)", []any{fmt.Sprint(value)}, nil
	}
	sqlOp, ok := comparisons[op]
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnsupportedOperator, op)
	}
	v, err := b.table.Coerce(col, value)
	if err != nil {
		return "", nil, err
	}
	return col + " " + sqlOp + " ?", []any{v}, nil
}

var comparisons = map[Operator]string{
	OpEq:  "=",
	OpNe:  "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}
