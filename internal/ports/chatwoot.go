package ports

import "context"

// Chatwoot message types. Private notes are never synchronized; bot
// messages feed AI context but are not persisted as CRM comments.
const (
	MessageTypeIncoming = 0
	MessageTypeOutgoing = 1
	MessageTypePrivate  = 2
	MessageTypeBot      = 3
)

// ChatwootClient is the outbound surface of the chat service. All calls
// are synchronous with a fixed timeout; implementations report failures
// through the pkg/errors chatwoot sentinels.
type ChatwootClient interface {
	// ResolveAccountID returns the account id of the configured API user,
	// cached in settings unless forceRefresh is set.
	ResolveAccountID(ctx context.Context, forceRefresh bool) (int, error)

	// GetFullTranscript fetches every message of a conversation in
	// chronological order.
	GetFullTranscript(ctx context.Context, accountID, conversationID int) ([]TranscriptMessage, error)

	PatchContactAttributes(ctx context.Context, accountID, contactID int, attrs map[string]interface{}) error
	PatchConversationAttributes(ctx context.Context, accountID, conversationID int, attrs map[string]interface{}) error

	// ListInboxes returns the account's inboxes and refreshes the
	// inbox-name cache as a side effect.
	ListInboxes(ctx context.Context, forceRefresh bool) ([]Inbox, error)

	// GetInboxName resolves an inbox display name, cache first, remote
	// second. Returns "" when the name cannot be resolved.
	GetInboxName(ctx context.Context, accountID, inboxID int) string

	// Provisioning calls are idempotent: a duplicate rejection from the
	// remote is reported as success.
	ProvisionLabel(ctx context.Context, accountID int) error
	ProvisionMacro(ctx context.Context, accountID int, webhookURL string) error
	ProvisionWebhook(ctx context.Context, accountID int, webhookURL string) error
	ProvisionCustomAttribute(ctx context.Context, accountID, model int, key, displayType, displayName string) error
}

// Custom attribute definition models.
const (
	AttributeModelContact      = 0
	AttributeModelConversation = 1
)

type Inbox struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	ChannelType string `json:"channel_type"`
}

// TranscriptMessage is one message of a remote conversation as returned
// by the chat service's messages endpoint.
type TranscriptMessage struct {
	Content     string            `json:"content"`
	CreatedAt   int64             `json:"created_at"`
	MessageType int               `json:"message_type"`
	Sender      *TranscriptSender `json:"sender,omitempty"`
	AccountID   int               `json:"account_id,omitempty"`
}

type TranscriptSender struct {
	Name string `json:"name"`
}
