package optimization

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"cvbuilder-backend/internal/shared/storage/db/dbtest"
)

func TestSQLRepoLifecycle(t *testing.T) {
	database := dbtest.NewSQLite(t)
	cvID := dbtest.InsertCV(t, database, "google:ada", "Ada")
	repo := NewSQLRepo(database)
	ctx := context.Background()
	role := "Analyst"

	req, err := repo.CreateRequest(ctx, Request{CvID: cvID, UserID: "google:ada", Type: TypeScore, Status: StatusProcessing, TargetRole: &role})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if req.ID == 0 {
		t.Fatalf("expected id")
	}

	dims := Dimensions{
		Structure:        Dimension{Score: 80, Rationale: "clear"},
		Measurable:       Dimension{Score: 70},
		KeywordAlignment: Dimension{Score: 90},
	}
	done, score, err := repo.CompleteScore(ctx, CvScore{OptimizationRequestID: req.ID, CvID: cvID, OverallScore: 80, Dimensions: dims}, RawJSON(`{"scores":{}}`))
	if err != nil {
		t.Fatalf("CompleteScore: %v", err)
	}
	if done.Status != StatusDone || string(done.AIResponse) != `{"scores":{}}` || *done.TargetRole != "Analyst" {
		t.Fatalf("unexpected request %+v", done)
	}

	scores, err := repo.ScoresForCV(ctx, "google:ada", cvID, 10)
	if err != nil {
		t.Fatalf("ScoresForCV: %v", err)
	}
	if len(scores) != 1 || scores[0].ID != score.ID || scores[0].Dimensions != dims {
		t.Fatalf("unexpected scores %+v", scores)
	}
	if other, _ := repo.ScoresForCV(ctx, "guest:mallory", cvID, 10); len(other) != 0 {
		t.Fatalf("scores leaked to another user: %+v", other)
	}
}

func TestSQLRepoFinishRequestWithError(t *testing.T) {
	database := dbtest.NewSQLite(t)
	cvID := dbtest.InsertCV(t, database, "google:ada", "Ada")
	repo := NewSQLRepo(database)
	ctx := context.Background()

	req, err := repo.CreateRequest(ctx, Request{CvID: cvID, UserID: "google:ada", Type: TypeSection, Status: StatusProcessing})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	msg := "provider down"
	got, err := repo.FinishRequest(ctx, req.ID, StatusError, nil, &msg)
	if err != nil {
		t.Fatalf("FinishRequest: %v", err)
	}
	if got.Status != StatusError || got.ErrorMessage == nil || *got.ErrorMessage != msg || got.AIResponse != nil {
		t.Fatalf("unexpected request %+v", got)
	}

	if _, err := repo.FinishRequest(ctx, 9999, StatusDone, nil, nil); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestTerminalRequestsAreImmutable(t *testing.T) {
	database := dbtest.NewSQLite(t)
	cvID := dbtest.InsertCV(t, database, "google:ada", "Ada")
	ctx := context.Background()

	for name, repo := range map[string]Repo{"sql": NewSQLRepo(database), "memory": NewMemoryRepo()} {
		t.Run(name, func(t *testing.T) {
			req, err := repo.CreateRequest(ctx, Request{CvID: cvID, UserID: "google:ada", Type: TypeScore, Status: StatusProcessing})
			if err != nil {
				t.Fatalf("CreateRequest: %v", err)
			}
			msg := "provider down"
			if _, err := repo.FinishRequest(ctx, req.ID, StatusError, nil, &msg); err != nil {
				t.Fatalf("FinishRequest: %v", err)
			}
			if _, err := repo.FinishRequest(ctx, req.ID, StatusDone, RawJSON(`{}`), nil); !errors.Is(err, ErrRequestNotFound) {
				t.Fatalf("re-finishing a terminal request: expected ErrRequestNotFound, got %v", err)
			}
			score := CvScore{OptimizationRequestID: req.ID, CvID: cvID, OverallScore: 50}
			if _, _, err := repo.CompleteScore(ctx, score, RawJSON(`{}`)); !errors.Is(err, ErrRequestNotFound) {
				t.Fatalf("scoring a terminal request: expected ErrRequestNotFound, got %v", err)
			}
			latest, err := repo.ScoresForCV(ctx, "google:ada", cvID, 10)
			if err != nil || len(latest) != 0 {
				t.Fatalf("no score may be stored: %+v %v", latest, err)
			}
		})
	}
}

func TestSQLRepoCountSinceAndList(t *testing.T) {
	database := dbtest.NewSQLite(t)
	cvID := dbtest.InsertCV(t, database, "google:ada", "Ada")
	repo := NewSQLRepo(database)
	ctx := context.Background()

	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{now.Add(-8 * 24 * time.Hour), now.Add(-2 * 24 * time.Hour), now.Add(-time.Hour)}
	for _, ts := range stamps {
		at := ts
		repo.now = func() time.Time { return at }
		if _, err := repo.CreateRequest(ctx, Request{CvID: cvID, UserID: "google:ada", Type: TypeSection, Status: StatusDone}); err != nil {
			t.Fatalf("CreateRequest: %v", err)
		}
	}

	n, err := repo.CountSince(ctx, "google:ada", now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 requests in window, got %d", n)
	}

	list, err := repo.ListRequests(ctx, "google:ada", 2)
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(list) != 2 || !list[0].CreatedAt.After(list[1].CreatedAt) {
		t.Fatalf("expected two newest first, got %+v", list)
	}
}

func TestSQLRepoCascadesWithCV(t *testing.T) {
	database := dbtest.NewSQLite(t)
	cvID := dbtest.InsertCV(t, database, "google:ada", "Ada")
	repo := NewSQLRepo(database)
	ctx := context.Background()

	if _, err := repo.CreateRequest(ctx, Request{CvID: cvID, UserID: "google:ada", Type: TypeSection, Status: StatusDone}); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	dbtest.Exec(t, database, "DELETE FROM cvs WHERE id = ?", cvID)
	if list, _ := repo.ListRequests(ctx, "google:ada", 10); len(list) != 0 {
		t.Fatalf("expected requests to cascade, got %d", len(list))
	}
}

func TestSQLRepoPostgresCountShape(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqlDB.Close()
	repo := NewSQLRepo(sqlx.NewDb(sqlDB, "pgx"))
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM optimization_requests WHERE user_id = $1 AND created_at >= $2`)).
		WithArgs("google:ada", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountSince(context.Background(), "google:ada", since)
	if err != nil || n != 4 {
		t.Fatalf("CountSince = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
