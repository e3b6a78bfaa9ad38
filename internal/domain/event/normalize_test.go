package event

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cwbridge/platform/logger"
)

type staticInboxes struct {
	names map[int]string
}

func (s *staticInboxes) GetInboxName(_ context.Context, _, inboxID int) string {
	return s.names[inboxID]
}

func newTestNormalizer(names map[int]string) *Normalizer {
	return NewNormalizer(&staticInboxes{names: names}, logger.New(logger.TestConfig()))
}

const macroPayload = `{
	"event": "macro.executed",
	"id": 42,
	"inbox_id": 4,
	"channel": "Channel::WebWidget",
	"trigger": "true",
	"meta": {
		"sender": {
			"id": 99,
			"name": "Jamie Doe",
			"email": "jamie@example.com",
			"phone_number": "+1 (555) 123-4567",
			"additional_attributes": {
				"social_profiles": {"facebook": "jamie.doe"}
			},
			"custom_attributes": {"crm_contact_id": 12, "crm_contact_url": "https://crm.example.com/contacts/12"}
		}
	},
	"messages": [
		{"content": "hi", "created_at": 1700000000, "message_type": 0, "account_id": 7},
		{"content": "hello", "created_at": 1700000100, "message_type": 1, "account_id": 7}
	],
	"custom_attributes": {"crm_conversation_id": "321"}
}`

const eventPayload = `{
	"event": "message_created",
	"account": {"id": 7},
	"inbox": {"id": 4, "name": "Website"},
	"conversation": {
		"id": 42,
		"inbox_id": 4,
		"channel": "Channel::WebWidget",
		"meta": {
			"sender": {
				"id": 99,
				"name": "Jamie Doe",
				"email": "jamie@example.com",
				"phone_number": "+1 (555) 123-4567",
				"additional_attributes": {
					"social_profiles": {"facebook": "jamie.doe"}
				},
				"custom_attributes": {"crm_contact_id": 12, "crm_contact_url": "https://crm.example.com/contacts/12"}
			}
		},
		"messages": [
			{"content": "hi", "created_at": 1700000000, "message_type": 0, "account_id": 7},
			{"content": "hello", "created_at": 1700000100, "message_type": 1, "account_id": 7}
		],
		"custom_attributes": {"crm_conversation_id": "321"},
		"labels": ["crm-sync"]
	}
}`

func TestNormalizeMacroShape(t *testing.T) {
	n := newTestNormalizer(map[int]string{4: "Website"})

	ev := n.Normalize(context.Background(), []byte(macroPayload))
	require.True(t, ev.Identified())

	assert.Equal(t, KindMacroExecuted, ev.Kind)
	assert.Equal(t, "macro.executed", ev.RawEvent)
	assert.True(t, ev.Trigger)
	assert.Equal(t, 7, ev.AccountID)
	assert.Equal(t, 42, ev.ConversationID)
	assert.Equal(t, 4, ev.InboxID)
	assert.Equal(t, "Website", ev.InboxName)
	assert.Equal(t, "web_chat", ev.ConversationType)
	assert.Equal(t, "chatwoot_7_42", ev.Handle())
}

func TestNormalizeEventShape(t *testing.T) {
	n := newTestNormalizer(nil)

	ev := n.Normalize(context.Background(), []byte(eventPayload))
	require.True(t, ev.Identified())

	assert.Equal(t, KindMessageCreated, ev.Kind)
	assert.False(t, ev.Trigger)
	assert.Equal(t, "Website", ev.InboxName)
	assert.Equal(t, []string{"crm-sync"}, ev.Labels)

	// The payload's message is the first element of the array
	require.NotNil(t, ev.Message)
	assert.Equal(t, "hi", ev.Message.Content)
	assert.Equal(t, 0, ev.Message.MessageType)
}

// A conversation posted without an event name parses but carries no
// event, so dispatch treats it as a non-delivery.
func TestNormalizeEventlessConversationPayload(t *testing.T) {
	n := newTestNormalizer(nil)

	ev := n.Normalize(context.Background(), []byte(`{
		"id": 42,
		"inbox_id": 4,
		"channel": "Channel::WebWidget",
		"meta": {"sender": {"id": 99, "name": "Jamie Doe"}},
		"messages": [{"content": "hi", "created_at": 1700000000, "message_type": 0, "account_id": 7}]
	}`))

	assert.Equal(t, KindUnknown, ev.Kind)
	assert.Equal(t, "", ev.RawEvent)
	assert.True(t, ev.Identified())
}

// Both shapes must agree on every identifying field.
func TestNormalizeShapeEquivalence(t *testing.T) {
	n := newTestNormalizer(map[int]string{4: "Website"})

	a := n.Normalize(context.Background(), []byte(macroPayload))
	b := n.Normalize(context.Background(), []byte(eventPayload))

	assert.Equal(t, a.AccountID, b.AccountID)
	assert.Equal(t, a.ConversationID, b.ConversationID)
	assert.Equal(t, a.InboxID, b.InboxID)
	assert.Equal(t, a.SenderID, b.SenderID)
	assert.Equal(t, a.SenderName, b.SenderName)
	assert.Equal(t, a.SenderEmail, b.SenderEmail)
	assert.Equal(t, a.SenderPhone, b.SenderPhone)
	assert.Equal(t, a.SenderFacebook, b.SenderFacebook)
	assert.Equal(t, a.ConversationType, b.ConversationType)
	assert.Equal(t, a.CRMContactID, b.CRMContactID)
	assert.Equal(t, a.CRMContactURL, b.CRMContactURL)
	assert.Equal(t, a.CRMConversationID, b.CRMConversationID)
	assert.Equal(t, a.Handle(), b.Handle())
}

func TestNormalizeCorrelationCoercion(t *testing.T) {
	n := newTestNormalizer(nil)

	ev := n.Normalize(context.Background(), []byte(macroPayload))

	// Numeric attribute values coerce to strings
	assert.Equal(t, "12", ev.CRMContactID)
	assert.Equal(t, "https://crm.example.com/contacts/12", ev.CRMContactURL)
	assert.Equal(t, "321", ev.CRMConversationID)
	assert.Equal(t, "", ev.CRMConversationURL)
}

func TestNormalizeSenderPhone(t *testing.T) {
	n := newTestNormalizer(nil)

	ev := n.Normalize(context.Background(), []byte(macroPayload))
	assert.Equal(t, "+15551234567", ev.SenderPhone)
}

func TestNormalizeUnrecognizedPayload(t *testing.T) {
	n := newTestNormalizer(nil)

	tests := []string{
		`{"event": "conversation_typing_on"}`,
		`{"ping": true}`,
		`{}`,
		`not json at all`,
		`{"event": "message_created", "conversation": {"id": 42}}`,
	}

	for _, payload := range tests {
		ev := n.Normalize(context.Background(), []byte(payload))
		assert.False(t, ev.Identified(), "payload %q must be inert", payload)
	}
}

func TestNormalizeKnownEventKindSurvivesUnrecognizedShape(t *testing.T) {
	n := newTestNormalizer(nil)

	ev := n.Normalize(context.Background(), []byte(`{"event": "conversation_updated"}`))
	assert.Equal(t, KindConversationUpdated, ev.Kind)
	assert.False(t, ev.Identified())
}
