package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/reflectx"
)

// Mapper resolves db struct tags the same way sqlx does when scanning rows.
var Mapper = reflectx.NewMapperFunc("db", strings.ToLower)

// Table describes a table and the columns of the record type stored in it.
type Table struct {
	Name    string
	columns []string
	lookup  map[string]string
	types   map[string]reflect.Type
}

// NewTable derives the column set from the db tags of record's top-level fields.
// JSON field names are accepted as aliases when resolving option columns.
func NewTable(name string, record any) *Table {
	t := reflect.TypeOf(record)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	tbl := &Table{
		Name:   name,
		lookup: make(map[string]string),
		types:  make(map[string]reflect.Type),
	}
	for _, fi := range Mapper.TypeMap(t).Index {
		if fi == nil || fi.Name == "" || strings.Contains(fi.Path, ".") {
			continue
		}
		if tag := fi.Field.Tag.Get("db"); tag == "" || tag == "-" {
			continue
		}
		tbl.columns = append(tbl.columns, fi.Name)
		tbl.lookup[fi.Name] = fi.Name
		tbl.types[fi.Name] = fi.Field.Type
		if alias, _, _ := strings.Cut(fi.Field.Tag.Get("json"), ","); alias != "" && alias != "-" {
			if _, taken := tbl.lookup[alias]; !taken {
				tbl.lookup[alias] = fi.Name
			}
		}
	}
	return tbl
}

// Columns returns the column names in struct order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Has reports whether column is a real column (aliases excluded).
func (t *Table) Has(column string) bool {
	_, ok := t.types[column]
	return ok
}

// Resolve maps a column or JSON field name to the column name.
func (t *Table) Resolve(name string) (string, error) {
	if col, ok := t.lookup[strings.TrimSpace(name)]; ok {
		return col, nil
	}
	return "", fmt.Errorf("%w: %q on table %s", ErrColumnNotFound, name, t.Name)
}

// Coerce converts string input to the Go kind of the column so drivers bind it with the right type.
func (t *Table) Coerce(column string, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	typ := t.types[column]
	if typ == nil {
		return value, nil
	}
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == reflect.TypeOf(time.Time{}) {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), nil
			}
		}
		return nil, fmt.Errorf("%w: column %s: %q is not a timestamp", ErrInvalidOptions, column, s)
	}
	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %q is not an integer", ErrInvalidOptions, column, s)
		}
		return n, nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %q is not a number", ErrInvalidOptions, column, s)
		}
		return f, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%w: column %s: %q is not a boolean", ErrInvalidOptions, column, s)
		}
		return b, nil
	}
	return s, nil
}
