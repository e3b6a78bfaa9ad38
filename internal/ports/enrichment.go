package ports

import "context"

// Enricher is the optional AI enrichment service. Both operations are
// best-effort: callers log failures and continue without enrichment.
type Enricher interface {
	Summarize(ctx context.Context, messages []TranscriptMessage) (*ConversationSummary, error)
	ExtractContactAttributes(ctx context.Context, messages []TranscriptMessage) (*ExtractedAttributes, error)
}

type ConversationSummary struct {
	// Text is the summary as returned by the model.
	Text string `json:"text"`
	// ByLanguage maps language code to a translated summary. Always
	// contains at least the original text.
	ByLanguage map[string]string `json:"by_language"`
}

// ExtractedAttributes is the normalized result of schema-constrained
// attribute extraction. Unknown scalars are empty strings, unknown lists
// empty slices.
type ExtractedAttributes struct {
	Name         string   `json:"name"`
	PhoneNumbers []string `json:"phone_numbers"`
	Emails       []string `json:"emails"`
	Addresses    []string `json:"addresses"`
	Locations    []string `json:"locations"`
	Language     string   `json:"language"`
	Age          string   `json:"age"`
	Gender       string   `json:"gender"`
}
