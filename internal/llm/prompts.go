package llm

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/section_v1.txt
	sectionV1 string
	//go:embed prompts/score_v1.txt
	scoreV1 string
)

// Prompt kinds.
const (
	KindSection = "section"
	KindScore   = "score"
)

// DefaultPromptVersion is used when no or an unknown version is configured.
const DefaultPromptVersion = "v1"

var promptVersions = map[string]bool{"v1": true}

// ResolvePromptVersion returns the version whose templates will actually be used
// and whether the requested one was recognized.
func ResolvePromptVersion(version string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(version))
	if promptVersions[v] {
		return v, true
	}
	return DefaultPromptVersion, false
}

// PromptTemplate returns the template for kind under the resolved version and whether the
// requested version was recognized.
func PromptTemplate(kind, version string) (string, bool) {
	_, known := ResolvePromptVersion(version)
	switch kind {
	case KindScore:
		return scoreV1, known
	default:
		return sectionV1, known
	}
}
