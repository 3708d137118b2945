package optimization

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLRepo stores requests and scores through sqlx; statements work on Postgres and SQLite.
type SQLRepo struct {
	DB  *sqlx.DB
	now func() time.Time
}

func NewSQLRepo(db *sqlx.DB) *SQLRepo {
	return &SQLRepo{DB: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }}
}

const requestColumns = `id, cv_id, user_id, type, status, target_role, industry, prompt_version, error_message, ai_response, created_at, updated_at`

func (r *SQLRepo) CreateRequest(ctx context.Context, req Request) (Request, error) {
	const query = `
INSERT INTO optimization_requests (cv_id, user_id, type, status, target_role, industry, prompt_version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`
	now := r.now()
	var id int64
	err := r.DB.QueryRowxContext(ctx, r.DB.Rebind(query),
		req.CvID, req.UserID, string(req.Type), string(req.Status),
		req.TargetRole, req.Industry, req.PromptVersion, now, now,
	).Scan(&id)
	if err != nil {
		return Request{}, fmt.Errorf("insert optimization request: %w", err)
	}
	req.ID = id
	req.CreatedAt, req.UpdatedAt = now, now
	return req, nil
}

func (r *SQLRepo) FinishRequest(ctx context.Context, id int64, status Status, aiResponse RawJSON, errorMessage *string) (Request, error) {
	var out Request
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		out, err = r.finish(ctx, tx, id, status, aiResponse, errorMessage)
		return err
	})
	return out, err
}

func (r *SQLRepo) CompleteScore(ctx context.Context, score CvScore, aiResponse RawJSON) (Request, CvScore, error) {
	const insert = `
INSERT INTO cv_scores (optimization_request_id, cv_id, overall_score, dimensions, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id`
	var req Request
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		now := r.now()
		if err := tx.QueryRowxContext(ctx, tx.Rebind(insert),
			score.OptimizationRequestID, score.CvID, score.OverallScore, score.Dimensions, now,
		).Scan(&score.ID); err != nil {
			return fmt.Errorf("insert cv score: %w", err)
		}
		score.CreatedAt = now
		var err error
		req, err = r.finish(ctx, tx, score.OptimizationRequestID, StatusDone, aiResponse, nil)
		return err
	})
	if err != nil {
		return Request{}, CvScore{}, err
	}
	return req, score, nil
}

func (r *SQLRepo) finish(ctx context.Context, tx *sqlx.Tx, id int64, status Status, aiResponse RawJSON, errorMessage *string) (Request, error) {
	const update = `
UPDATE optimization_requests
SET status = ?, ai_response = ?, error_message = ?, updated_at = ?
WHERE id = ? AND status IN (?, ?)`
	res, err := tx.ExecContext(ctx, tx.Rebind(update), string(status), aiResponse, errorMessage, r.now(), id,
		string(StatusPending), string(StatusProcessing))
	if err != nil {
		return Request{}, fmt.Errorf("update optimization request: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Request{}, ErrRequestNotFound
	}
	var out Request
	if err := tx.GetContext(ctx, &out, tx.Rebind(`SELECT `+requestColumns+` FROM optimization_requests WHERE id = ?`), id); err != nil {
		return Request{}, fmt.Errorf("reload optimization request: %w", err)
	}
	return out, nil
}

func (r *SQLRepo) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM optimization_requests WHERE user_id = ? AND created_at >= ?`
	var n int
	if err := r.DB.GetContext(ctx, &n, r.DB.Rebind(query), userID, since.UTC().Truncate(time.Microsecond)); err != nil {
		return 0, fmt.Errorf("count optimization requests: %w", err)
	}
	return n, nil
}

func (r *SQLRepo) ListRequests(ctx context.Context, userID string, limit int) ([]Request, error) {
	query := `SELECT ` + requestColumns + ` FROM optimization_requests WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	out := make([]Request, 0)
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), userID, limit); err != nil {
		return nil, fmt.Errorf("list optimization requests: %w", err)
	}
	return out, nil
}

func (r *SQLRepo) ScoresForCV(ctx context.Context, userID string, cvID int64, limit int) ([]CvScore, error) {
	const query = `
SELECT s.id, s.optimization_request_id, s.cv_id, s.overall_score, s.dimensions, s.created_at
FROM cv_scores s
JOIN optimization_requests r ON r.id = s.optimization_request_id
WHERE s.cv_id = ? AND r.user_id = ?
ORDER BY s.created_at DESC, s.id DESC
LIMIT ?`
	out := make([]CvScore, 0)
	if err := r.DB.SelectContext(ctx, &out, r.DB.Rebind(query), cvID, userID, limit); err != nil {
		return nil, fmt.Errorf("list cv scores: %w", err)
	}
	return out, nil
}

func (r *SQLRepo) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
