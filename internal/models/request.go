package models

// Intent selects which generation pipeline handles a request.
type Intent string

const (
	IntentWellness Intent = "wellness"
	IntentBriefing Intent = "briefing"
	IntentDialogue Intent = "dialogue"
)

// KnownIntent reports whether the intent is one of the three pipelines.
func KnownIntent(i Intent) bool {
	switch i {
	case IntentWellness, IntentBriefing, IntentDialogue:
		return true
	}
	return false
}

// SupportedLanguages are the language tags the generator accepts.
var SupportedLanguages = map[string]bool{
	"fr": true,
	"en": true,
}

// GenerationRequest is a single podcast generation request. It is
// immutable once accepted by the pipeline.
type GenerationRequest struct {
	UserID   string `json:"user_id"`
	Intent   Intent `json:"intent"`
	Message  string `json:"message"`
	Language string `json:"lang"`
}
