package event

import (
	"fmt"

	"cwbridge/internal/ports"
)

// Kind identifies the logical webhook event, matching the chat service's
// event names.
type Kind string

const (
	KindMessageCreated            Kind = "message_created"
	KindConversationUpdated       Kind = "conversation_updated"
	KindConversationStatusChanged Kind = "conversation_status_changed"
	KindMacroExecuted             Kind = "macro.executed"
	KindUnknown                   Kind = "unknown"
)

// ParseKind maps a raw event name onto a Kind.
func ParseKind(raw string) Kind {
	switch raw {
	case "message_created":
		return KindMessageCreated
	case "conversation_updated":
		return KindConversationUpdated
	case "conversation_status_changed":
		return KindConversationStatusChanged
	case "macro.executed":
		return KindMacroExecuted
	default:
		return KindUnknown
	}
}

// ConversationTypeDefault is used for channel strings the mapping table
// does not recognize. It is a valid type, never an error.
const ConversationTypeDefault = "chatwoot"

var conversationTypes = map[string]string{
	"Channel::Email":                  "email",
	"Channel::WebWidget":              "web_chat",
	"Channel::Api":                    "web_chat",
	"Channel::Sms":                    "sms",
	"Channel::FacebookPage":           "facebook",
	"Channel::InstagramDirectMessage": "instagram",
	"Channel::Whatsapp":               "whatsapp",
	"Channel::TelegramBot":            "telegram",
	"Channel::Line":                   "line",
	"Channel::TwitterProfile":         "twitter",
}

// ConversationType maps a remote channel string to a CRM conversation
// type.
func ConversationType(channel string) string {
	if mapped, ok := conversationTypes[channel]; ok {
		return mapped
	}
	return ConversationTypeDefault
}

// MakeHandle builds the deterministic CRM conversation handle for a
// remote (account, conversation) pair. The handle is the idempotency key
// for conversation-record lookup and creation.
func MakeHandle(accountID, conversationID int) string {
	return fmt.Sprintf("chatwoot_%d_%d", accountID, conversationID)
}

// ParseHandle recovers the (account, conversation) pair encoded in a
// CRM conversation handle.
func ParseHandle(handle string) (accountID, conversationID int, err error) {
	if _, err := fmt.Sscanf(handle, "chatwoot_%d_%d", &accountID, &conversationID); err != nil {
		return 0, 0, fmt.Errorf("invalid conversation handle %q", handle)
	}
	return accountID, conversationID, nil
}

// Event is the canonical form of an inbound webhook payload. Identifying
// fields are zero-valued when the payload matched neither recognized
// shape; such events are inert.
type Event struct {
	Kind Kind

	// RawEvent is the event name exactly as delivered. Payloads without
	// an event key are not webhook events and are never dispatched.
	RawEvent string

	SenderID       int
	SenderName     string
	SenderEmail    string
	SenderPhone    string
	SenderFacebook string

	AccountID      int
	InboxID        int
	InboxName      string
	ConversationID int

	Channel          string
	ConversationType string

	// Message is the message carried by the payload, the first element
	// of the messages array.
	Message *ports.TranscriptMessage

	// Correlation identifiers previously written back to the chat
	// service. Non-empty CRMContactID / CRMConversationID short-circuit
	// the corresponding creation step.
	CRMContactID       string
	CRMContactURL      string
	CRMConversationID  string
	CRMConversationURL string

	// Trigger is true only for the macro's explicit webhook sub-action.
	Trigger bool

	Labels []string
}

// Identified reports whether the payload matched a recognized shape.
func (e *Event) Identified() bool {
	return e.AccountID != 0 || e.ConversationID != 0 || e.SenderID != 0
}

// Handle returns the deterministic CRM handle for this event's
// conversation.
func (e *Event) Handle() string {
	return MakeHandle(e.AccountID, e.ConversationID)
}
