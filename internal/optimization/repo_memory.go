package optimization

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores requests and scores in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu       sync.RWMutex
	requests map[int64]Request
	scores   []CvScore
	nextID   int64
	now      func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		requests: make(map[int64]Request),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) CreateRequest(ctx context.Context, req Request) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	req.ID = r.nextID
	now := r.now()
	req.CreatedAt, req.UpdatedAt = now, now
	r.requests[req.ID] = req
	return req, nil
}

func (r *MemoryRepo) FinishRequest(ctx context.Context, id int64, status Status, aiResponse RawJSON, errorMessage *string) (Request, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishLocked(id, status, aiResponse, errorMessage)
}

func (r *MemoryRepo) CompleteScore(ctx context.Context, score CvScore, aiResponse RawJSON) (Request, CvScore, error) {
	if err := ctx.Err(); err != nil {
		return Request{}, CvScore{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[score.OptimizationRequestID]; !ok || req.Status.Terminal() {
		return Request{}, CvScore{}, ErrRequestNotFound
	}
	r.nextID++
	score.ID = r.nextID
	score.CreatedAt = r.now()
	req, err := r.finishLocked(score.OptimizationRequestID, StatusDone, aiResponse, nil)
	if err != nil {
		return Request{}, CvScore{}, err
	}
	r.scores = append(r.scores, score)
	return req, score, nil
}

func (r *MemoryRepo) finishLocked(id int64, status Status, aiResponse RawJSON, errorMessage *string) (Request, error) {
	req, ok := r.requests[id]
	if !ok || req.Status.Terminal() {
		return Request{}, ErrRequestNotFound
	}
	req.Status = status
	req.AIResponse = aiResponse
	req.ErrorMessage = errorMessage
	req.UpdatedAt = r.now()
	r.requests[id] = req
	return req, nil
}

func (r *MemoryRepo) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, req := range r.requests {
		if req.UserID == userID && !req.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) ListRequests(ctx context.Context, userID string, limit int) ([]Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Request, 0)
	for _, req := range r.requests {
		if req.UserID == userID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) ScoresForCV(ctx context.Context, userID string, cvID int64, limit int) ([]CvScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]CvScore, 0)
	for i := len(r.scores) - 1; i >= 0; i-- {
		s := r.scores[i]
		if s.CvID != cvID || r.requests[s.OptimizationRequestID].UserID != userID {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
