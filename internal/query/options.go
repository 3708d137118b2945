package query

import (
	"fmt"
	"net/url"
	"strings"
)

// Operator is a filter comparison.
type Operator string

const (
	OpEq    Operator = "eq"
	OpNe    Operator = "ne"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpLike  Operator = "like"
	OpILike Operator = "ilike"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// FilterCondition restricts rows to those where column <operator> value holds.
type FilterCondition struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// SortCondition orders rows by a column.
type SortCondition struct {
	Column string `json:"column"`
	Order  Order  `json:"order"`
}

// SearchCondition matches term as a case-insensitive substring of any listed column.
type SearchCondition struct {
	Columns []string `json:"columns"`
	Term    string   `json:"term"`
}

// Options describes filter, sort and search intent against one table.
type Options struct {
	Filter []FilterCondition `json:"filter,omitempty"`
	Sort   []SortCondition   `json:"sort,omitempty"`
	Search *SearchCondition  `json:"search,omitempty"`
}

// Eq is shorthand for an equality filter.
func Eq(column string, value any) FilterCondition {
	return FilterCondition{Column: column, Operator: OpEq, Value: value}
}

// ParseValues reads options from URL query parameters:
//
//	filter=<column>:<op>:<value>   (repeatable)
//	sort=<column>[:asc|desc]       (repeatable, order kept)
//	search=<term>&searchColumns=a,b
func ParseValues(values url.Values) (Options, error) {
	var opts Options
	for _, raw := range values["filter"] {
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) != 3 || strings.TrimSpace(parts[0]) == "" {
			return Options{}, fmt.Errorf("%w: filter %q must be column:op:value", ErrInvalidOptions, raw)
		}
		opts.Filter = append(opts.Filter, FilterCondition{
			Column:   strings.TrimSpace(parts[0]),
			Operator: Operator(strings.ToLower(strings.TrimSpace(parts[1]))),
			Value:    parts[2],
		})
	}
	for _, raw := range values["sort"] {
		column, order, _ := strings.Cut(raw, ":")
		column = strings.TrimSpace(column)
		if column == "" {
			return Options{}, fmt.Errorf("%w: sort %q has no column", ErrInvalidOptions, raw)
		}
		o := Order(strings.ToLower(strings.TrimSpace(order)))
		switch o {
		case "", Asc, Desc:
		default:
			return Options{}, fmt.Errorf("%w: sort order %q", ErrInvalidOptions, order)
		}
		opts.Sort = append(opts.Sort, SortCondition{Column: column, Order: o})
	}
	if term := values.Get("search"); term != "" {
		var columns []string
		for _, c := range strings.Split(values.Get("searchColumns"), ",") {
			if c = strings.TrimSpace(c); c != "" {
				columns = append(columns, c)
			}
		}
		opts.Search = &SearchCondition{Columns: columns, Term: term}
	}
	return opts, nil
}
