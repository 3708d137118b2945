package optimization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"cvbuilder-backend/internal/cvs"
	"cvbuilder-backend/internal/llm"
	"cvbuilder-backend/internal/shared/apperr"
	"cvbuilder-backend/internal/shared/metrics"
	"cvbuilder-backend/internal/shared/telemetry"
	"cvbuilder-backend/internal/usage"
)

const (
	defaultTimeout      = 60 * time.Second
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
	finalizeTimeout     = 5 * time.Second
	generalContext      = "General"
)

// CVSource resolves CVs owned by a user.
type CVSource interface {
	Owned(ctx context.Context, userID string, cvID int64) (*cvs.CV, error)
	Snapshot(ctx context.Context, userID string, cvID int64) (*cvs.Snapshot, error)
}

// QuotaChecker enforces the weekly AI allowance.
type QuotaChecker interface {
	Require(ctx context.Context, userID string) (usage.Limits, error)
}

// Service runs AI optimization requests through quota, provider and persistence.
type Service struct {
	Repo          Repo
	Quota         QuotaChecker
	CVs           CVSource
	LLM           llm.Provider
	PromptVersion string
	Timeout       time.Duration
}

// NewService constructs a Service with the default provider timeout.
func NewService(repo Repo, quota QuotaChecker, cvSource CVSource, provider llm.Provider, promptVersion string) *Service {
	resolved, known := llm.ResolvePromptVersion(promptVersion)
	if !known && strings.TrimSpace(promptVersion) != "" {
		telemetry.Warn("optimization.prompt_version_unknown", map[string]any{
			"prompt_version": promptVersion,
			"using":          resolved,
		})
	}
	return &Service{
		Repo:          repo,
		Quota:         quota,
		CVs:           cvSource,
		LLM:           provider,
		PromptVersion: resolved,
		Timeout:       defaultTimeout,
	}
}

// ImproveSection rewrites one CV section. The quota is checked before any request is recorded.
func (s *Service) ImproveSection(ctx context.Context, userID string, in ImproveSectionInput) (SectionResult, error) {
	if err := s.require(ctx, userID); err != nil {
		return SectionResult{}, err
	}
	if _, err := s.CVs.Owned(ctx, userID, in.CvID); err != nil {
		return SectionResult{}, err
	}

	role, industry := orGeneral(in.TargetRole), orGeneral(in.Industry)
	req, err := s.start(ctx, userID, in.CvID, TypeSection, role, industry)
	if err != nil {
		return SectionResult{}, err
	}
	payload := map[string]string{
		"section_type":  in.SectionType,
		"original_text": in.OriginalText,
		"target_role":   role,
		"industry":      industry,
	}

	started := time.Now()
	raw, err := s.generate(ctx, llm.KindSection, payload)
	var suggestion SectionSuggestion
	if err == nil {
		suggestion, err = parseSection(raw)
	}
	if err != nil {
		s.fail(ctx, req, err, started)
		return SectionResult{}, err
	}

	done, err := s.Repo.FinishRequest(ctx, req.ID, StatusDone, RawJSON(raw), nil)
	if err != nil {
		err = fmt.Errorf("store section result: %w", err)
		s.fail(ctx, req, err, started)
		return SectionResult{}, err
	}
	s.succeed(ctx, done, started)
	return SectionResult{OptimizationRequest: done, AIResponse: suggestion}, nil
}

// ScoreCv scores a whole CV and appends a CvScore. An empty CvText scores the stored CV.
func (s *Service) ScoreCv(ctx context.Context, userID string, in ScoreCvInput) (ScoreCvResult, error) {
	if err := s.require(ctx, userID); err != nil {
		return ScoreCvResult{}, err
	}
	cvText, err := s.cvText(ctx, userID, in)
	if err != nil {
		return ScoreCvResult{}, err
	}

	role, industry := orGeneral(in.TargetRole), orGeneral(in.Industry)
	req, err := s.start(ctx, userID, in.CvID, TypeScore, role, industry)
	if err != nil {
		return ScoreCvResult{}, err
	}
	payload := map[string]string{
		"cv_text":     cvText,
		"target_role": role,
		"industry":    industry,
	}

	started := time.Now()
	raw, err := s.generate(ctx, llm.KindScore, payload)
	var result ScoreResult
	if err == nil {
		result, err = parseScore(raw)
	}
	if err != nil {
		s.fail(ctx, req, err, started)
		return ScoreCvResult{}, err
	}

	score := CvScore{
		OptimizationRequestID: req.ID,
		CvID:                  in.CvID,
		OverallScore:          OverallScore(result.Scores),
		Dimensions:            result.Scores,
	}
	done, score, err := s.Repo.CompleteScore(ctx, score, RawJSON(raw))
	if err != nil {
		err = fmt.Errorf("store cv score: %w", err)
		s.fail(ctx, req, err, started)
		return ScoreCvResult{}, err
	}
	s.succeed(ctx, done, started)
	return ScoreCvResult{OptimizationRequest: done, AIResponse: result, CvScore: score}, nil
}

// GetLatestCvScore returns the newest score for a CV owned by userID.
func (s *Service) GetLatestCvScore(ctx context.Context, userID string, cvID int64) (CvScore, error) {
	scores, err := s.Repo.ScoresForCV(ctx, userID, cvID, 1)
	if err != nil {
		return CvScore{}, err
	}
	if len(scores) == 0 {
		return CvScore{}, apperr.NotFound("no score for cv %d", cvID)
	}
	return scores[0], nil
}

// GetCvScoreHistory returns up to limit scores, newest first. limit <= 0 means 10.
func (s *Service) GetCvScoreHistory(ctx context.Context, userID string, cvID int64, limit int) ([]CvScore, error) {
	return s.Repo.ScoresForCV(ctx, userID, cvID, clampLimit(limit))
}

// ListRequests returns the user's requests, newest first.
func (s *Service) ListRequests(ctx context.Context, userID string, limit int) ([]Request, error) {
	return s.Repo.ListRequests(ctx, userID, clampLimit(limit))
}

// OverallScore is the rounded mean of the three dimension scores.
func OverallScore(d Dimensions) int {
	mean := (d.Structure.Score + d.Measurable.Score + d.KeywordAlignment.Score) / 3
	return int(math.Round(mean))
}

func (s *Service) require(ctx context.Context, userID string) error {
	if _, err := s.Quota.Require(ctx, userID); err != nil {
		if errors.Is(err, usage.ErrQuotaExceeded) {
			metrics.IncQuotaRejected()
			telemetry.Warn("optimization.quota_exceeded", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"user_id":    userID,
				"error":      err,
			})
		}
		return err
	}
	return nil
}

func (s *Service) cvText(ctx context.Context, userID string, in ScoreCvInput) (string, error) {
	if strings.TrimSpace(in.CvText) != "" {
		if _, err := s.CVs.Owned(ctx, userID, in.CvID); err != nil {
			return "", err
		}
		return in.CvText, nil
	}
	snap, err := s.CVs.Snapshot(ctx, userID, in.CvID)
	if err != nil {
		return "", err
	}
	text := snap.Text()
	if strings.TrimSpace(text) == "" {
		return "", apperr.BadRequest(ErrNoCVText, "cv %d has no content to score", in.CvID)
	}
	return text, nil
}

func (s *Service) start(ctx context.Context, userID string, cvID int64, kind Type, role, industry string) (Request, error) {
	version, _ := llm.ResolvePromptVersion(s.PromptVersion)
	req, err := s.Repo.CreateRequest(ctx, Request{
		CvID:          cvID,
		UserID:        userID,
		Type:          kind,
		Status:        StatusProcessing,
		TargetRole:    &role,
		Industry:      &industry,
		PromptVersion: &version,
	})
	if err != nil {
		return Request{}, err
	}
	telemetry.Info("optimization.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           userID,
		"cv_id":             cvID,
		"optimization_id":   req.ID,
		"type":              kind,
		"status":            StatusProcessing,
		"status_transition": "pending->processing",
	})
	return req, nil
}

func (s *Service) generate(ctx context.Context, kind string, payload any) (json.RawMessage, error) {
	if s.LLM == nil {
		return nil, llm.ErrNotImplemented
	}
	template, _ := llm.PromptTemplate(kind, s.PromptVersion)
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.LLM.GenerateText(callCtx, template, payload)
}

func (s *Service) succeed(ctx context.Context, req Request, started time.Time) {
	took := time.Since(started)
	metrics.ObserveOptimization(string(req.Type), string(StatusDone), took)
	telemetry.Info("optimization.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           req.UserID,
		"cv_id":             req.CvID,
		"optimization_id":   req.ID,
		"type":              req.Type,
		"status":            StatusDone,
		"status_transition": "processing->done",
		"duration_ms":       took.Milliseconds(),
	})
}

// fail records the error state on a context detached from the caller so an expired
// request deadline cannot skip the write. A failed write is logged on its own.
func (s *Service) fail(ctx context.Context, req Request, cause error, started time.Time) {
	took := time.Since(started)
	msg := sanitizeError(cause)
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if _, err := s.Repo.FinishRequest(writeCtx, req.ID, StatusError, nil, &msg); err != nil {
		telemetry.Error("optimization.finalize_failed", map[string]any{
			"request_id":      requestIDFromContext(ctx),
			"optimization_id": req.ID,
			"error":           err,
			"cause":           msg,
		})
	}
	metrics.ObserveOptimization(string(req.Type), string(StatusError), took)
	telemetry.Info("optimization.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           req.UserID,
		"cv_id":             req.CvID,
		"optimization_id":   req.ID,
		"type":              req.Type,
		"status":            StatusError,
		"status_transition": "processing->error",
		"duration_ms":       took.Milliseconds(),
		"error":             msg,
	})
}

func parseSection(raw json.RawMessage) (SectionSuggestion, error) {
	var out SectionSuggestion
	if err := json.Unmarshal(raw, &out); err != nil {
		return SectionSuggestion{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if strings.TrimSpace(out.Improved) == "" {
		return SectionSuggestion{}, fmt.Errorf("%w: improved text is empty", ErrInvalidResponse)
	}
	if out.KeywordsDetected == nil {
		out.KeywordsDetected = []string{}
	}
	if out.VerbsReplaced == nil {
		out.VerbsReplaced = []VerbReplacement{}
	}
	if out.MetricsSuggestions == nil {
		out.MetricsSuggestions = []string{}
	}
	return out, nil
}

func parseScore(raw json.RawMessage) (ScoreResult, error) {
	var probe struct {
		Scores map[string]json.RawMessage `json:"scores"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ScoreResult{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	for _, key := range []string{"structure", "measurable", "keyword_alignment"} {
		if _, ok := probe.Scores[key]; !ok {
			return ScoreResult{}, fmt.Errorf("%w: missing %s score", ErrInvalidResponse, key)
		}
	}
	var out ScoreResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return ScoreResult{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	for key, d := range map[string]Dimension{
		"structure":         out.Scores.Structure,
		"measurable":        out.Scores.Measurable,
		"keyword_alignment": out.Scores.KeywordAlignment,
	} {
		if d.Score < 0 || d.Score > 100 || math.IsNaN(d.Score) {
			return ScoreResult{}, fmt.Errorf("%w: %s score %v out of range", ErrInvalidResponse, key, d.Score)
		}
	}
	return out, nil
}

func orGeneral(v string) string {
	if strings.TrimSpace(v) == "" {
		return generalContext
	}
	return strings.TrimSpace(v)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	return llm.Truncate(msg, 500)
}
