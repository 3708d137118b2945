package optimization

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Type is the kind of AI work a request performs.
type Type string

const (
	TypeSection Type = "section"
	TypeScore   Type = "score"
	TypeFullCV  Type = "full_cv"
)

// Status is the lifecycle state of a request. pending and processing are only
// observed while the call is in flight; done and error are terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Request is one tracked unit of AI work.
type Request struct {
	ID            int64     `db:"id" json:"id"`
	CvID          int64     `db:"cv_id" json:"cvId"`
	UserID        string    `db:"user_id" json:"userId"`
	Type          Type      `db:"type" json:"type"`
	Status        Status    `db:"status" json:"status"`
	TargetRole    *string   `db:"target_role" json:"targetRole,omitempty"`
	Industry      *string   `db:"industry" json:"industry,omitempty"`
	PromptVersion *string   `db:"prompt_version" json:"promptVersion,omitempty"`
	ErrorMessage  *string   `db:"error_message" json:"errorMessage,omitempty"`
	AIResponse    RawJSON   `db:"ai_response" json:"aiResponse,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// Dimension is one scored aspect of a CV.
type Dimension struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// Dimensions holds the three scored aspects. Stored as a JSON column.
type Dimensions struct {
	Structure        Dimension `json:"structure"`
	Measurable       Dimension `json:"measurable"`
	KeywordAlignment Dimension `json:"keyword_alignment"`
}

func (d Dimensions) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *Dimensions) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = Dimensions{}
		return nil
	default:
		return fmt.Errorf("dimensions: unsupported type %T", src)
	}
}

// CvScore is one scoring result. History per CV is append-only.
type CvScore struct {
	ID                    int64      `db:"id" json:"id"`
	OptimizationRequestID int64      `db:"optimization_request_id" json:"optimizationRequestId"`
	CvID                  int64      `db:"cv_id" json:"cvId"`
	OverallScore          int        `db:"overall_score" json:"overallScore"`
	Dimensions            Dimensions `db:"dimensions" json:"dimensions"`
	CreatedAt             time.Time  `db:"created_at" json:"createdAt"`
}

// RawJSON is a nullable JSON column.
type RawJSON json.RawMessage

func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return string(r), nil
}

func (r *RawJSON) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		*r = append((*r)[:0], v...)
	case string:
		*r = RawJSON(v)
	case nil:
		*r = nil
	default:
		return fmt.Errorf("raw json: unsupported type %T", src)
	}
	return nil
}

func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *RawJSON) UnmarshalJSON(data []byte) error {
	if r == nil {
		return errors.New("raw json: nil pointer")
	}
	*r = append((*r)[:0], data...)
	return nil
}

// SectionSuggestion is the provider answer for a section rewrite.
type SectionSuggestion struct {
	Improved           string            `json:"improved"`
	KeywordsDetected   []string          `json:"keywords_detected"`
	VerbsReplaced      []VerbReplacement `json:"verbs_replaced"`
	MetricsSuggestions []string          `json:"metrics_suggestions"`
}

type VerbReplacement struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ScoreResult is the provider answer for CV scoring.
type ScoreResult struct {
	Scores Dimensions `json:"scores"`
}

// ImproveSectionInput is the body of an improve-section call.
type ImproveSectionInput struct {
	CvID         int64  `json:"cvId" binding:"required"`
	SectionType  string `json:"sectionType" binding:"required"`
	OriginalText string `json:"originalText" binding:"required"`
	TargetRole   string `json:"targetRole"`
	Industry     string `json:"industry"`
}

// ScoreCvInput is the body of a score call. An empty CvText scores the stored CV.
type ScoreCvInput struct {
	CvID       int64  `json:"cvId" binding:"required"`
	CvText     string `json:"cvText"`
	TargetRole string `json:"targetRole"`
	Industry   string `json:"industry"`
}

// SectionResult is returned by ImproveSection.
type SectionResult struct {
	OptimizationRequest Request           `json:"optimizationRequest"`
	AIResponse          SectionSuggestion `json:"aiResponse"`
}

// ScoreCvResult is returned by ScoreCv.
type ScoreCvResult struct {
	OptimizationRequest Request     `json:"optimizationRequest"`
	AIResponse          ScoreResult `json:"aiResponse"`
	CvScore             CvScore     `json:"cvScore"`
}
