package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"cwbridge/internal/domain/event"
	"cwbridge/internal/ports"
	"cwbridge/pkg/errors"
	"cwbridge/platform/config"
	"cwbridge/platform/logger"
)

const (
	summaryTemperature    = 0.3
	extractionTemperature = 0.2
	maxCompletionTokens   = 600
	requestTimeout        = 30 * time.Second
)

const summaryPrompt = `You are writing a handoff note for a support agent. ` +
	`Summarize the conversation below in a short paragraph: who the contact is, ` +
	`what they asked for, what was agreed, and any open follow-ups. ` +
	`Write plain prose, no headings or bullet points.`

const extractionPrompt = `Extract contact details from the conversation below. ` +
	`Respond with a single JSON object and nothing else, using exactly these keys: ` +
	`"name" (string), "phone_numbers" (array of strings), "emails" (array of strings), ` +
	`"addresses" (array of strings), "locations" (array of strings), ` +
	`"language" (string), "age" (string), "gender" (string). ` +
	`Use an empty string or empty array for anything the conversation does not reveal. ` +
	`Never guess.`

// Enricher implements AI conversation enrichment over an
// OpenAI-compatible chat completion endpoint.
type Enricher struct {
	client    *openai.Client
	logger    *logger.Logger
	model     string
	languages []string
}

// NewEnricher creates an Enricher, or nil when enrichment is disabled.
// Callers treat a nil Enricher as "no AI configured".
func NewEnricher(cfg *config.Config, log *logger.Logger) *Enricher {
	if !cfg.AI.Enabled || cfg.AI.APIKey == "" {
		return nil
	}

	clientCfg := openai.DefaultConfig(cfg.AI.APIKey)
	if cfg.AI.Endpoint != "" {
		clientCfg.BaseURL = cfg.AI.Endpoint
	}

	return &Enricher{
		client:    openai.NewClientWithConfig(clientCfg),
		logger:    log.WithModule("enricher"),
		model:     cfg.AI.Model,
		languages: cfg.AI.Languages,
	}
}

// Summarize produces a handoff-note summary of the transcript, plus a
// translation per configured language. Translation failures drop that
// language rather than failing the summary.
func (e *Enricher) Summarize(ctx context.Context, messages []ports.TranscriptMessage) (*ports.ConversationSummary, error) {
	transcript := BuildTranscript(messages)
	if transcript == "" {
		return nil, errors.ErrAIInvalidResponse
	}

	text, err := e.complete(ctx, summaryPrompt, transcript, summaryTemperature)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.ErrAIInvalidResponse
	}

	summary := &ports.ConversationSummary{
		Text:       text,
		ByLanguage: map[string]string{"original": text},
	}
	for _, lang := range e.languages {
		translated, err := e.complete(ctx,
			fmt.Sprintf("Translate the following text to %s. Respond with the translation only.", lang),
			text, summaryTemperature)
		if err != nil {
			e.logger.WithError(err).WarnWithFields("summary translation failed", map[string]interface{}{
				"language": lang,
			})
			continue
		}
		if translated = strings.TrimSpace(translated); translated != "" {
			summary.ByLanguage[lang] = translated
		}
	}
	return summary, nil
}

// ExtractContactAttributes runs schema-constrained extraction over the
// transcript and normalizes the model's output.
func (e *Enricher) ExtractContactAttributes(ctx context.Context, messages []ports.TranscriptMessage) (*ports.ExtractedAttributes, error) {
	transcript := BuildTranscript(messages)
	if transcript == "" {
		return nil, errors.ErrAIInvalidResponse
	}

	raw, err := e.complete(ctx, extractionPrompt, transcript, extractionTemperature)
	if err != nil {
		return nil, err
	}

	return normalizeExtraction(raw)
}

func (e *Enricher) complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: temperature,
		MaxTokens:   maxCompletionTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrAIUnavailable, err.Error())
	}
	if len(resp.Choices) == 0 {
		return "", errors.ErrAIInvalidResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// BuildTranscript renders messages as one plain-text block for the
// model. Private notes never reach the model; markup is stripped.
func BuildTranscript(messages []ports.TranscriptMessage) string {
	var b strings.Builder
	for _, m := range messages {
		if m.MessageType == ports.MessageTypePrivate {
			continue
		}
		content := strings.TrimSpace(event.StripTags(m.Content))
		if content == "" {
			continue
		}
		ts := time.Unix(m.CreatedAt, 0).UTC().Format("2006-01-02 15:04")
		fmt.Fprintf(&b, "- [%s] %s: %s\n", ts, senderName(m), content)
	}
	return strings.TrimSpace(b.String())
}

func senderName(m ports.TranscriptMessage) string {
	if m.Sender != nil && strings.TrimSpace(m.Sender.Name) != "" {
		return strings.TrimSpace(m.Sender.Name)
	}
	switch m.MessageType {
	case ports.MessageTypeIncoming:
		return "Contact"
	case ports.MessageTypeOutgoing:
		return "Team"
	case ports.MessageTypeBot:
		return "Bot"
	default:
		return "Participant"
	}
}

// normalizeExtraction parses the model's JSON, tolerating a fenced code
// block and loose value types. Scalars that arrive as lists collapse to
// their first element; lists that arrive as scalars become one-element
// lists; numbers become strings.
func normalizeExtraction(raw string) (*ports.ExtractedAttributes, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, errors.ErrAIInvalidResponse
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, errors.Wrap(errors.ErrAIInvalidResponse, err.Error())
	}

	attrs := &ports.ExtractedAttributes{
		Name:         coerceString(parsed["name"]),
		PhoneNumbers: coerceList(parsed["phone_numbers"]),
		Emails:       coerceList(parsed["emails"]),
		Addresses:    coerceList(parsed["addresses"]),
		Locations:    coerceList(parsed["locations"]),
		Language:     coerceString(parsed["language"]),
		Age:          coerceString(parsed["age"]),
		Gender:       coerceString(parsed["gender"]),
	}

	for i, phone := range attrs.PhoneNumbers {
		attrs.PhoneNumbers[i] = event.NormalizePhone(phone)
	}
	attrs.PhoneNumbers = event.CleanValues(attrs.PhoneNumbers)

	return attrs, nil
}

func coerceString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case []interface{}:
		if len(t) > 0 {
			return coerceString(t[0])
		}
	}
	return ""
}

func coerceList(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return event.CleanValues(out)
	case string, float64:
		if s := coerceString(t); s != "" {
			return []string{s}
		}
	}
	return []string{}
}
