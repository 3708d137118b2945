package optimization

import (
	"context"
	"errors"
	"time"
)

// ErrRequestNotFound is returned when a status write matches no in-flight request:
// the id is unknown or the request already reached done or error.
var ErrRequestNotFound = errors.New("optimization request not found")

// Repo persists optimization requests and CV scores.
type Repo interface {
	CreateRequest(ctx context.Context, req Request) (Request, error)
	// FinishRequest moves a request to a terminal status and returns the stored row.
	FinishRequest(ctx context.Context, id int64, status Status, aiResponse RawJSON, errorMessage *string) (Request, error)
	// CompleteScore inserts the score and marks its request done in one transaction.
	CompleteScore(ctx context.Context, score CvScore, aiResponse RawJSON) (Request, CvScore, error)
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
	ListRequests(ctx context.Context, userID string, limit int) ([]Request, error)
	// ScoresForCV returns the newest scores first, scoped to requests owned by userID.
	ScoresForCV(ctx context.Context, userID string, cvID int64, limit int) ([]CvScore, error)
}
