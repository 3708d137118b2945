package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "plain", in: ` {"a":1} `, want: `{"a":1}`},
		{name: "fenced", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":2}\n```", want: `{"a":2}`},
		{name: "empty", in: "  ", wantErr: ErrEmptyResponse},
		{name: "prose", in: "Sure! here you go", wantErr: ErrInvalidJSON},
		{name: "array", in: `[1,2]`, wantErr: ErrInvalidJSON},
		{name: "truncated", in: `{"a":`, wantErr: ErrInvalidJSON},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.in)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSON: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestBuildMessages(t *testing.T) {
	msgs, err := BuildMessages("system prompt", map[string]string{"original_text": "did things"})
	if err != nil {
		t.Fatalf("BuildMessages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != "system" || msgs[0].Content != "system prompt" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	if msgs[1].Role != "user" || !strings.Contains(msgs[1].Content, `"original_text": "did things"`) {
		t.Fatalf("unexpected user turn %q", msgs[1].Content)
	}
}

func TestPromptTemplate(t *testing.T) {
	section, ok := PromptTemplate(KindSection, "v1")
	if !ok || !strings.Contains(section, "improved") {
		t.Fatalf("section template missing or unknown")
	}
	score, ok := PromptTemplate(KindScore, "v1")
	if !ok || !strings.Contains(score, "keyword_alignment") {
		t.Fatalf("score template missing or unknown")
	}
	fallback, ok := PromptTemplate(KindScore, "v9")
	if ok || fallback != score {
		t.Fatalf("unknown version should fall back to v1")
	}
}

func TestResolvePromptVersion(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		known bool
	}{
		{in: "v1", want: "v1", known: true},
		{in: " V1 ", want: "v1", known: true},
		{in: "v9", want: DefaultPromptVersion},
		{in: "", want: DefaultPromptVersion},
	}
	for _, tc := range cases {
		got, known := ResolvePromptVersion(tc.in)
		if got != tc.want || known != tc.known {
			t.Fatalf("ResolvePromptVersion(%q) = %q, %v", tc.in, got, known)
		}
	}
}

type flaky struct {
	errs  []error
	calls int
}

func (f *flaky) GenerateText(ctx context.Context, promptTemplate string, payload any) (json.RawMessage, error) {
	f.calls++
	if f.calls <= len(f.errs) {
		return nil, f.errs[f.calls-1]
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func TestWithRetryRetriesTransientErrors(t *testing.T) {
	base := &flaky{errs: []error{&StatusError{Provider: "openai", Code: 503}}}
	p := WithRetry(base, 2).(retrying)
	p.delay = 0

	out, err := p.GenerateText(context.Background(), "t", nil)
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if string(out) != `{"ok":true}` || base.calls != 2 {
		t.Fatalf("unexpected result %s after %d calls", out, base.calls)
	}
}

func TestWithRetryStopsOnPermanentErrors(t *testing.T) {
	base := &flaky{errs: []error{&StatusError{Provider: "openai", Code: 401}}}
	p := WithRetry(base, 3).(retrying)
	p.delay = 0

	_, err := p.GenerateText(context.Background(), "t", nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != 401 {
		t.Fatalf("expected 401 to surface, got %v", err)
	}
	if base.calls != 1 {
		t.Fatalf("expected a single call, got %d", base.calls)
	}
}

func TestShouldRetry(t *testing.T) {
	if ShouldRetry(context.DeadlineExceeded) {
		t.Fatalf("deadline should be final")
	}
	if !ShouldRetry(&StatusError{Code: 429}) {
		t.Fatalf("429 should retry")
	}
	if !ShouldRetry(errors.New("read: connection reset by peer")) {
		t.Fatalf("connection reset should retry")
	}
	if ShouldRetry(ErrNotImplemented) {
		t.Fatalf("placeholder error should not retry")
	}
}

func TestPlaceholderClient(t *testing.T) {
	if _, err := (PlaceholderClient{}).GenerateText(context.Background(), "", nil); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{in: "short", max: 10, want: "short"},
		{in: "abcdef", max: 3, want: "abc"},
		{in: "abé", max: 3, want: "ab"},
		{in: "日本", max: 4, want: "日"},
		{in: "é", max: 1, want: ""},
	}
	for _, tc := range cases {
		got := Truncate(tc.in, tc.max)
		if got != tc.want || !utf8.ValidString(got) {
			t.Fatalf("Truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
