package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"cvbuilder-backend/internal/query"
)

var _ Repository[struct{}, struct{}, struct{}] = (*SQL[struct{}, struct{}, struct{}])(nil)


// SQL implements Repository on one table through sqlx.
// Statements are written with `?` and rebound for the driver.
type SQL[S, I, U any] struct {
	db         *sqlx.DB
	table      *query.Table
	insertCols []string
	patchCols  []string
	fixed      map[string]bool
	created    bool
	updated    bool
	now        func() time.Time
}

// NewSQL derives the select list from S, insert columns from I and patch columns from U.
// created_at and updated_at are maintained when S declares them.
func NewSQL[S, I, U any](db *sqlx.DB, table string) *SQL[S, I, U] {
	var (
		row    S
		insert I
		patch  U
	)
	t := query.NewTable(table, row)
	r := &SQL[S, I, U]{
		db:      db,
		table:   t,
		fixed:   map[string]bool{"id": true, "created_at": true, "updated_at": true},
		created: t.Has("created_at"),
		updated: t.Has("updated_at"),
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
	r.insertCols = r.writable(insert)
	r.patchCols = r.writable(patch)
	return r
}

func (r *SQL[S, I, U]) GetAll(ctx context.Context) ([]S, error) {
	return r.FindMany(ctx, query.Options{})
}

func (r *SQL[S, I, U]) FindMany(ctx context.Context, opts query.Options) ([]S, error) {
	q, err := query.NewBuilder(r.table).Build(opts)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, q)
}

func (r *SQL[S, I, U]) GetByID(ctx context.Context, id int64) (*S, error) {
	return r.getOne(ctx, r.db, "id = ?", id)
}

func (r *SQL[S, I, U]) Create(ctx context.Context, data I) (int64, error) {
	return r.insert(ctx, data, nil)
}

func (r *SQL[S, I, U]) Update(ctx context.Context, id int64, patch U) (*S, error) {
	row, err := r.update(ctx, patch, "id = ?", id)
	if err == nil && row == nil {
		err = ErrNoMatch
	}
	if errors.Is(err, ErrNoMatch) {
		return nil, fmt.Errorf("%w: %s %d: %w", ErrUpdateFailed, r.table.Name, id, ErrNoMatch)
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *SQL[S, I, U]) Delete(ctx context.Context, id int64) error {
	_, err := r.delete(ctx, "id = ?", id)
	return err
}

func (r *SQL[S, I, U]) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	stmt := r.db.Rebind("SELECT 1 FROM " + r.table.Name + " WHERE id = ? LIMIT 1")
	err := r.db.QueryRowxContext(ctx, stmt, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.table.Name, err)
	}
	return true, nil
}

func (r *SQL[S, I, U]) selectSQL() string {
	return "SELECT " + strings.Join(r.table.Columns(), ", ") + " FROM " + r.table.Name
}

func (r *SQL[S, I, U]) list(ctx context.Context, q query.Query) ([]S, error) {
	if q.OrderBy == "" {
		q.OrderBy = "id ASC"
	}
	rows := []S{}
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(r.selectSQL()+q.Clause()), q.Args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", r.table.Name, err)
	}
	return rows, nil
}

func (r *SQL[S, I, U]) getOne(ctx context.Context, q sqlx.QueryerContext, where string, args ...any) (*S, error) {
	var row S
	err := sqlx.GetContext(ctx, q, &row, r.db.Rebind(r.selectSQL()+" WHERE "+where), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", r.table.Name, err)
	}
	return &row, nil
}

// insert writes data plus extra columns, which win over same-named fields of data.
func (r *SQL[S, I, U]) insert(ctx context.Context, data I, extra map[string]any) (int64, error) {
	fields := query.Mapper.FieldMap(reflect.ValueOf(data))
	cols := make([]string, 0, len(r.insertCols)+len(extra)+2)
	args := make([]any, 0, cap(cols))
	for _, col := range r.insertCols {
		if _, ok := extra[col]; ok {
			continue
		}
		cols = append(cols, col)
		args = append(args, argValue(fields[col]))
	}
	extraCols := make([]string, 0, len(extra))
	for col := range extra {
		extraCols = append(extraCols, col)
	}
	sort.Strings(extraCols)
	for _, col := range extraCols {
		cols = append(cols, col)
		args = append(args, extra[col])
	}
	now := r.now()
	if r.created {
		cols = append(cols, "created_at")
		args = append(args, now)
	}
	if r.updated {
		cols = append(cols, "updated_at")
		args = append(args, now)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		r.table.Name, strings.Join(cols, ", "), placeholders(len(cols)))
	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(stmt), args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && id == 0) {
		return 0, ErrInsertFailed
	}
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", r.table.Name, err)
	}
	return id, nil
}

// update applies patch to the row matched by where and re-reads it in the same transaction.
// An empty patch only reads. A matched-nothing UPDATE yields ErrNoMatch.
func (r *SQL[S, I, U]) update(ctx context.Context, patch U, where string, args ...any) (*S, error) {
	fields := query.Mapper.FieldMap(reflect.ValueOf(patch))
	var sets []string
	var setArgs []any
	for _, col := range r.patchCols {
		fv := fields[col]
		if fv.Kind() == reflect.Pointer && fv.IsNil() {
			continue
		}
		sets = append(sets, col+" = ?")
		setArgs = append(setArgs, argValue(fv))
	}
	if len(sets) == 0 {
		return r.getOne(ctx, r.db, where, args...)
	}
	if r.updated {
		sets = append(sets, "updated_at = ?")
		setArgs = append(setArgs, r.now())
	}

	var out *S
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		stmt := "UPDATE " + r.table.Name + " SET " + strings.Join(sets, ", ") + " WHERE " + where
		res, err := tx.ExecContext(ctx, tx.Rebind(stmt), append(setArgs, args...)...)
		if err != nil {
			return fmt.Errorf("update %s: %w", r.table.Name, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNoMatch
		}
		row, err := r.getOne(ctx, tx, where, args...)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrUpdateFailed
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQL[S, I, U]) delete(ctx context.Context, where string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM "+r.table.Name+" WHERE "+where), args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", r.table.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", r.table.Name, err)
	}
	return n, nil
}

func (r *SQL[S, I, U]) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", r.table.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// writable lists the db columns of v minus the maintained ones, sorted for stable SQL.
func (r *SQL[S, I, U]) writable(v any) []string {
	var out []string
	for _, col := range query.NewTable("", v).Columns() {
		if !r.fixed[col] {
			out = append(out, col)
		}
	}
	sort.Strings(out)
	return out
}

func argValue(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
