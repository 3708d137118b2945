package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLRepo stores users through sqlx; statements work on Postgres and SQLite.
type SQLRepo struct {
	DB  *sqlx.DB
	now func() time.Time
}

func NewSQLRepo(db *sqlx.DB) *SQLRepo {
	return &SQLRepo{DB: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }}
}

type userRow struct {
	ID               string         `db:"id"`
	Email            string         `db:"email"`
	FullName         sql.NullString `db:"full_name"`
	PictureURL       sql.NullString `db:"picture_url"`
	SubscriptionTier sql.NullString `db:"subscription_tier"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        sql.NullTime   `db:"updated_at"`
}

func (r *SQLRepo) Upsert(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, full_name, picture_url, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  full_name = EXCLUDED.full_name,
  picture_url = EXCLUDED.picture_url,
  updated_at = EXCLUDED.updated_at`
	now := r.now()
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(query),
		user.ID,
		user.Email,
		nullableString(user.FullName),
		nullableString(user.PictureURL),
		now,
		now,
	)
	return err
}

func (r *SQLRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT id, email, full_name, picture_url, subscription_tier, created_at, updated_at
FROM users
WHERE id = ?
LIMIT 1`
	var row userRow
	if err := r.DB.GetContext(ctx, &row, r.DB.Rebind(query), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user := User{
		ID:               row.ID,
		Email:            row.Email,
		FullName:         row.FullName.String,
		PictureURL:       row.PictureURL.String,
		SubscriptionTier: row.SubscriptionTier.String,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.CreatedAt,
	}
	if row.UpdatedAt.Valid {
		user.UpdatedAt = row.UpdatedAt.Time
	}
	return user, nil
}

func (r *SQLRepo) GetTier(ctx context.Context, userID string) (string, error) {
	var tier sql.NullString
	err := r.DB.GetContext(ctx, &tier, r.DB.Rebind(`SELECT subscription_tier FROM users WHERE id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return tier.String, nil
}

func (r *SQLRepo) SetTier(ctx context.Context, userID, tier string) error {
	const query = `
INSERT INTO users (id, email, subscription_tier, created_at, updated_at)
VALUES (?, '', ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  subscription_tier = EXCLUDED.subscription_tier,
  updated_at = EXCLUDED.updated_at`
	now := r.now()
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(query), userID, nullableString(tier), now, now)
	return err
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
