package ports

import (
	"context"
	"time"
)

// CRM is the contact/conversation store the bridge synchronizes into.
// Contacts deduplicate on the communication fields named at creation
// time; conversation records are addressed by a deterministic handle.
type CRM interface {
	// CreateContact creates a contact, or returns the existing one when
	// the CRM's duplicate detection matches on any of dedupeFields. The
	// two outcomes are indistinguishable to callers on purpose.
	CreateContact(ctx context.Context, fields map[string]interface{}, dedupeFields []string) (*ContactRecord, error)

	AddContactComment(ctx context.Context, contactID int, content string) error

	GetConversation(ctx context.Context, conversationID int) (*ConversationRecord, error)
	FindConversationByHandle(ctx context.Context, handle string) (*ConversationRecord, error)

	// CreateOrUpdateConversation finds or creates the conversation record
	// for handle and associates it with contactID.
	CreateOrUpdateConversation(ctx context.Context, handle string, fields map[string]interface{}, contactID int) (*ConversationRecord, error)

	AddConversationComment(ctx context.Context, conversationID int, comment ConversationComment) error

	// DeleteConversationComments removes every comment on the record and
	// returns how many were deleted.
	DeleteConversationComments(ctx context.Context, conversationID int) (int, error)
}

type ContactRecord struct {
	ID        int    `json:"id"`
	Permalink string `json:"permalink"`
}

type ConversationRecord struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Permalink string `json:"permalink"`
	Type      string `json:"type,omitempty"`
}

// ConversationComment mirrors one chat message onto a CRM conversation
// record, preserving the original author and timestamp.
type ConversationComment struct {
	Content   string
	Type      string
	Author    string
	Timestamp time.Time
}
