package sync

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cwbridge/internal/domain/event"
	"cwbridge/internal/ports"
	"cwbridge/pkg/errors"
	"cwbridge/platform/logger"
)

// ============================================================================
// FAKES
// ============================================================================

type fakeChatwoot struct {
	transcript      []ports.TranscriptMessage
	transcriptCalls int

	contactPatches      map[int]map[string]interface{}
	conversationPatches map[int]map[string]interface{}
}

func newFakeChatwoot(transcript []ports.TranscriptMessage) *fakeChatwoot {
	return &fakeChatwoot{
		transcript:          transcript,
		contactPatches:      map[int]map[string]interface{}{},
		conversationPatches: map[int]map[string]interface{}{},
	}
}

func (f *fakeChatwoot) ResolveAccountID(context.Context, bool) (int, error) { return 7, nil }

func (f *fakeChatwoot) GetFullTranscript(_ context.Context, _, _ int) ([]ports.TranscriptMessage, error) {
	f.transcriptCalls++
	return f.transcript, nil
}

func (f *fakeChatwoot) PatchContactAttributes(_ context.Context, _, contactID int, attrs map[string]interface{}) error {
	f.contactPatches[contactID] = attrs
	return nil
}

func (f *fakeChatwoot) PatchConversationAttributes(_ context.Context, _, conversationID int, attrs map[string]interface{}) error {
	f.conversationPatches[conversationID] = attrs
	return nil
}

func (f *fakeChatwoot) ListInboxes(context.Context, bool) ([]ports.Inbox, error) {
	return []ports.Inbox{{ID: 4, Name: "Website"}}, nil
}

func (f *fakeChatwoot) GetInboxName(_ context.Context, _, inboxID int) string {
	if inboxID == 4 {
		return "Website"
	}
	return ""
}

func (f *fakeChatwoot) ProvisionLabel(context.Context, int) error             { return nil }
func (f *fakeChatwoot) ProvisionMacro(context.Context, int, string) error     { return nil }
func (f *fakeChatwoot) ProvisionWebhook(context.Context, int, string) error   { return nil }
func (f *fakeChatwoot) ProvisionCustomAttribute(context.Context, int, int, string, string, string) error {
	return nil
}

type fakeCRM struct {
	contactsCreated      []map[string]interface{}
	contactDedupeFields  [][]string
	conversationsCreated []string
	conversationFields   []map[string]interface{}

	records            map[string]*ports.ConversationRecord
	recordsByID        map[int]*ports.ConversationRecord
	comments           map[int][]ports.ConversationComment
	contactNotes       map[int][]string
	existingOnWipe     int
	failCommentContent string
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		records:      map[string]*ports.ConversationRecord{},
		recordsByID:  map[int]*ports.ConversationRecord{},
		comments:     map[int][]ports.ConversationComment{},
		contactNotes: map[int][]string{},
	}
}

func (f *fakeCRM) CreateContact(_ context.Context, fields map[string]interface{}, dedupeFields []string) (*ports.ContactRecord, error) {
	f.contactsCreated = append(f.contactsCreated, fields)
	f.contactDedupeFields = append(f.contactDedupeFields, dedupeFields)
	return &ports.ContactRecord{ID: 12, Permalink: "https://crm.example.com/contacts/12"}, nil
}

func (f *fakeCRM) AddContactComment(_ context.Context, contactID int, content string) error {
	f.contactNotes[contactID] = append(f.contactNotes[contactID], content)
	return nil
}

func (f *fakeCRM) GetConversation(_ context.Context, conversationID int) (*ports.ConversationRecord, error) {
	if record, ok := f.recordsByID[conversationID]; ok {
		return record, nil
	}
	return nil, errors.ErrCRMNotFound
}

func (f *fakeCRM) FindConversationByHandle(_ context.Context, handle string) (*ports.ConversationRecord, error) {
	if record, ok := f.records[handle]; ok {
		return record, nil
	}
	return nil, errors.ErrCRMNotFound
}

func (f *fakeCRM) CreateOrUpdateConversation(_ context.Context, handle string, fields map[string]interface{}, _ int) (*ports.ConversationRecord, error) {
	f.conversationsCreated = append(f.conversationsCreated, handle)
	f.conversationFields = append(f.conversationFields, fields)
	record := &ports.ConversationRecord{
		ID:        321,
		Name:      handle,
		Permalink: "https://crm.example.com/conversations/321",
	}
	f.records[handle] = record
	f.recordsByID[record.ID] = record
	return record, nil
}

func (f *fakeCRM) AddConversationComment(_ context.Context, conversationID int, comment ports.ConversationComment) error {
	if f.failCommentContent != "" && comment.Content == f.failCommentContent {
		return fmt.Errorf("comment rejected")
	}
	f.comments[conversationID] = append(f.comments[conversationID], comment)
	return nil
}

func (f *fakeCRM) DeleteConversationComments(_ context.Context, conversationID int) (int, error) {
	deleted := f.existingOnWipe + len(f.comments[conversationID])
	f.comments[conversationID] = nil
	return deleted, nil
}

type fakeSettings struct {
	settings ports.Settings
}

func (f *fakeSettings) Get(context.Context) (*ports.Settings, error) {
	s := f.settings
	return &s, nil
}

func (f *fakeSettings) Save(_ context.Context, s *ports.Settings) error {
	f.settings = *s
	return nil
}

type fakeEnricher struct {
	attributes *ports.ExtractedAttributes
	summary    string
}

func (f *fakeEnricher) Summarize(context.Context, []ports.TranscriptMessage) (*ports.ConversationSummary, error) {
	if f.summary == "" {
		return nil, errors.ErrAIUnavailable
	}
	return &ports.ConversationSummary{
		Text:       f.summary,
		ByLanguage: map[string]string{"original": f.summary},
	}, nil
}

func (f *fakeEnricher) ExtractContactAttributes(context.Context, []ports.TranscriptMessage) (*ports.ExtractedAttributes, error) {
	if f.attributes == nil {
		return nil, errors.ErrAIUnavailable
	}
	return f.attributes, nil
}

// ============================================================================
// FIXTURES
// ============================================================================

func sampleTranscript() []ports.TranscriptMessage {
	return []ports.TranscriptMessage{
		{Content: "hello, I need help", CreatedAt: 1700000000, MessageType: 0, Sender: &ports.TranscriptSender{Name: "Jamie Doe"}, AccountID: 7},
		{Content: "sure, what do you need?", CreatedAt: 1700000100, MessageType: 1, Sender: &ports.TranscriptSender{Name: "Agent"}, AccountID: 7},
		{Content: "internal note", CreatedAt: 1700000200, MessageType: 2, AccountID: 7},
		{Content: "automated reply", CreatedAt: 1700000300, MessageType: 3, AccountID: 7},
		{Content: "a new mattress", CreatedAt: 1700000400, MessageType: 0, Sender: &ports.TranscriptSender{Name: "Jamie Doe"}, AccountID: 7},
	}
}

func macroPayload(contactAttrs, convAttrs string) []byte {
	return []byte(fmt.Sprintf(`{
		"event": "macro.executed",
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
				"custom_attributes": %s
			}
		},
		"messages": [
			{"content": "hello, I need help", "created_at": 1700000000, "message_type": 0, "account_id": 7}
		],
		"custom_attributes": %s
	}`, contactAttrs, convAttrs))
}

func messageCreatedPayload(convAttrs, lastMessage string) []byte {
	return []byte(fmt.Sprintf(`{
		"event": "message_created",
		"account": {"id": 7},
		"inbox": {"id": 4, "name": "Website"},
		"conversation": {
			"id": 42,
			"inbox_id": 4,
			"channel": "Channel::WebWidget",
			"meta": {"sender": {"id": 99, "name": "Jamie Doe"}},
			"messages": [%s],
			"custom_attributes": %s
		}
	}`, lastMessage, convAttrs))
}

type fixture struct {
	chatwoot *fakeChatwoot
	crm      *fakeCRM
	settings *fakeSettings
	useCase  UseCase
}

func newFixture(t *testing.T, enricher ports.Enricher) *fixture {
	t.Helper()

	log := logger.New(logger.TestConfig())
	cw := newFakeChatwoot(sampleTranscript())
	crm := newFakeCRM()
	settings := &fakeSettings{settings: ports.Settings{
		URL:    "https://chat.example.com",
		APIKey: "token",
	}}
	normalizer := event.NewNormalizer(cw, log)

	return &fixture{
		chatwoot: cw,
		crm:      crm,
		settings: settings,
		useCase:  NewUseCase(cw, crm, enricher, settings, normalizer, log),
	}
}

// ============================================================================
// FULL SYNC
// ============================================================================

func TestFullSyncCreatesContactAndConversation(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.useCase.ProcessWebhook(context.Background(), macroPayload("{}", "{}"), true)
	require.True(t, resp.Success)
	assert.Equal(t, string(event.KindMacroExecuted), resp.Event)

	// Contact created with explicit sender data
	require.Len(t, f.crm.contactsCreated, 1)
	fields := f.crm.contactsCreated[0]
	assert.Equal(t, "Jamie Doe", fields["name"])
	assert.Equal(t, "unassigned", fields["overall_status"])
	assert.Contains(t, fields, "contact_phone")
	assert.Contains(t, fields, "contact_email")
	assert.Contains(t, fields, "contact_facebook")

	// All three identity fields participate in duplicate detection
	require.Len(t, f.crm.contactDedupeFields, 1)
	assert.Equal(t, []string{"contact_phone", "contact_email", "contact_facebook"}, f.crm.contactDedupeFields[0])

	// Conversation record created under the deterministic handle
	assert.Equal(t, []string{"chatwoot_7_42"}, f.crm.conversationsCreated)

	// Only incoming and outgoing messages are mirrored, in order
	comments := f.crm.comments[321]
	require.Len(t, comments, 3)
	assert.Equal(t, "hello, I need help", comments[0].Content)
	assert.Equal(t, "sure, what do you need?", comments[1].Content)
	assert.Equal(t, "a new mattress", comments[2].Content)
	for _, c := range comments {
		assert.Equal(t, CommentType, c.Type)
	}

	// Correlation attributes written back to both records
	require.Contains(t, f.chatwoot.contactPatches, 99)
	assert.Equal(t, 12, f.chatwoot.contactPatches[99]["crm_contact_id"])
	require.Contains(t, f.chatwoot.conversationPatches, 42)
	assert.Equal(t, 321, f.chatwoot.conversationPatches[42]["crm_conversation_id"])

	// Contact note mentions the inbox
	require.Len(t, f.crm.contactNotes[12], 1)
	assert.Contains(t, f.crm.contactNotes[12][0], "New conversation from Website.")
}

// A rerun of the macro after both writebacks landed must be a no-op.
func TestFullSyncIdempotentWhenFencesClosed(t *testing.T) {
	f := newFixture(t, nil)

	payload := macroPayload(
		`{"crm_contact_id": 12, "crm_contact_url": "https://crm.example.com/contacts/12"}`,
		`{"crm_conversation_id": 321, "crm_conversation_url": "https://crm.example.com/conversations/321"}`,
	)
	resp := f.useCase.ProcessWebhook(context.Background(), payload, true)

	require.True(t, resp.Success)
	assert.Empty(t, f.crm.contactsCreated)
	assert.Empty(t, f.crm.conversationsCreated)
	assert.Empty(t, f.crm.comments[321])
	assert.Empty(t, f.chatwoot.contactPatches)
	assert.Empty(t, f.chatwoot.conversationPatches)

	// With both fences closed there is nothing to build, so the
	// transcript is never fetched.
	assert.Zero(t, f.chatwoot.transcriptCalls)
}

// The two fences are independent: a synced contact must not suppress
// conversation creation.
func TestFullSyncContactFenceOnly(t *testing.T) {
	f := newFixture(t, nil)

	payload := macroPayload(`{"crm_contact_id": 12}`, "{}")
	resp := f.useCase.ProcessWebhook(context.Background(), payload, true)

	require.True(t, resp.Success)
	assert.Empty(t, f.crm.contactsCreated)
	assert.Equal(t, []string{"chatwoot_7_42"}, f.crm.conversationsCreated)
	require.Len(t, f.crm.comments[321], 3)
}

func TestFullSyncConversationFenceOnly(t *testing.T) {
	f := newFixture(t, nil)

	payload := macroPayload("{}", `{"crm_conversation_id": 321}`)
	resp := f.useCase.ProcessWebhook(context.Background(), payload, true)

	require.True(t, resp.Success)
	require.Len(t, f.crm.contactsCreated, 1)
	assert.Empty(t, f.crm.conversationsCreated)
	assert.Empty(t, f.crm.comments[321])
}

func TestMacroWithoutTriggerFlagIsSkipped(t *testing.T) {
	f := newFixture(t, nil)

	resp := f.useCase.ProcessWebhook(context.Background(), macroPayload("{}", "{}"), false)

	require.True(t, resp.Success)
	assert.Empty(t, f.crm.contactsCreated)
	assert.Empty(t, f.crm.conversationsCreated)
}

func TestFullSyncWithEnrichment(t *testing.T) {
	enricher := &fakeEnricher{
		summary: "Jamie asked about mattress sizing.",
		attributes: &ports.ExtractedAttributes{
			Name:         "J. Doe",
			PhoneNumbers: []string{"+1 555 987 6543"},
			Emails:       []string{"jamie.doe@work.example"},
			Age:          "25 years old",
			Gender:       "female",
		},
	}
	f := newFixture(t, enricher)

	resp := f.useCase.ProcessWebhook(context.Background(), macroPayload("{}", "{}"), true)
	require.True(t, resp.Success)

	require.Len(t, f.crm.contactsCreated, 1)
	fields := f.crm.contactsCreated[0]

	// A non-empty extracted name replaces the sender's
	assert.Equal(t, "J. Doe", fields["name"])
	assert.Equal(t, "<26", fields["age"])
	assert.Equal(t, "female", fields["gender"])

	// Extraction extends the multi-value fields
	phones := fields["contact_phone"].(map[string]interface{})["values"].([]map[string]interface{})
	require.Len(t, phones, 2)
	assert.Equal(t, "+15551234567", phones[0]["value"])
	assert.Equal(t, "+15559876543", phones[1]["value"])

	// Summary lands on the contact note
	require.Len(t, f.crm.contactNotes[12], 1)
	assert.Contains(t, f.crm.contactNotes[12][0], "Summary: Jamie asked about mattress sizing.")
}

func TestFullSyncKeepsSenderNameWithoutExtractedOne(t *testing.T) {
	enricher := &fakeEnricher{
		summary:    "short chat",
		attributes: &ports.ExtractedAttributes{Emails: []string{"jamie.doe@work.example"}},
	}
	f := newFixture(t, enricher)

	resp := f.useCase.ProcessWebhook(context.Background(), macroPayload("{}", "{}"), true)
	require.True(t, resp.Success)

	require.Len(t, f.crm.contactsCreated, 1)
	assert.Equal(t, "Jamie Doe", f.crm.contactsCreated[0]["name"])
}

func TestFullSyncAssignsDefaultUserToContact(t *testing.T) {
	f := newFixture(t, nil)
	f.settings.settings.DefaultAssignedUser = "sales@example.com"

	resp := f.useCase.ProcessWebhook(context.Background(), macroPayload("{}", "{}"), true)
	require.True(t, resp.Success)

	require.Len(t, f.crm.contactsCreated, 1)
	assert.Equal(t, "sales@example.com", f.crm.contactsCreated[0]["assigned_to"])
	assert.Equal(t, "unassigned", f.crm.contactsCreated[0]["overall_status"])

	// Assignment lives on the contact, not the conversation record
	require.Len(t, f.crm.conversationFields, 1)
	assert.NotContains(t, f.crm.conversationFields[0], "assigned_to")
}

func TestFullSyncSkipsConversationRecordOnEmptyTranscript(t *testing.T) {
	f := newFixture(t, nil)
	f.chatwoot.transcript = nil

	resp := f.useCase.ProcessWebhook(context.Background(), macroPayload("{}", "{}"), true)
	require.True(t, resp.Success)

	require.Len(t, f.crm.contactsCreated, 1)
	assert.Empty(t, f.crm.conversationsCreated)
}

// ============================================================================
// MESSAGE APPEND
// ============================================================================

func TestMessageCreatedAppendsToSyncedConversation(t *testing.T) {
	f := newFixture(t, nil)
	f.crm.records["chatwoot_7_42"] = &ports.ConversationRecord{ID: 321, Name: "chatwoot_7_42"}

	payload := messageCreatedPayload(
		`{"crm_conversation_id": 321}`,
		`{"content": "one more thing", "created_at": 1700000500, "message_type": 0, "account_id": 7}`,
	)
	resp := f.useCase.ProcessWebhook(context.Background(), payload, false)

	require.True(t, resp.Success)
	require.Len(t, f.crm.comments[321], 1)
	assert.Equal(t, "one more thing", f.crm.comments[321][0].Content)
}

// The webhook's payload message is messages[0]; any trailing elements
// are history, not the delivery.
func TestMessageCreatedAppendsFirstMessage(t *testing.T) {
	f := newFixture(t, nil)
	f.crm.records["chatwoot_7_42"] = &ports.ConversationRecord{ID: 321, Name: "chatwoot_7_42"}

	payload := messageCreatedPayload(
		`{"crm_conversation_id": 321}`,
		`{"content": "the new message", "created_at": 1700000500, "message_type": 0, "account_id": 7},
		 {"content": "older history", "created_at": 1700000400, "message_type": 0, "account_id": 7}`,
	)
	resp := f.useCase.ProcessWebhook(context.Background(), payload, false)

	require.True(t, resp.Success)
	require.Len(t, f.crm.comments[321], 1)
	assert.Equal(t, "the new message", f.crm.comments[321][0].Content)
}

func TestMessageCreatedSkipsUntrackedConversation(t *testing.T) {
	f := newFixture(t, nil)

	payload := messageCreatedPayload(
		"{}",
		`{"content": "hello?", "created_at": 1700000500, "message_type": 0, "account_id": 7}`,
	)
	resp := f.useCase.ProcessWebhook(context.Background(), payload, false)

	require.True(t, resp.Success)
	assert.Empty(t, f.crm.comments)
}

func TestMessageCreatedSkipsPrivateNotes(t *testing.T) {
	f := newFixture(t, nil)
	f.crm.records["chatwoot_7_42"] = &ports.ConversationRecord{ID: 321, Name: "chatwoot_7_42"}

	payload := messageCreatedPayload(
		`{"crm_conversation_id": 321}`,
		`{"content": "internal note", "created_at": 1700000500, "message_type": 2, "account_id": 7}`,
	)
	resp := f.useCase.ProcessWebhook(context.Background(), payload, false)

	require.True(t, resp.Success)
	assert.Empty(t, f.crm.comments[321])
}

func TestMessageCreatedSkipsStaleCorrelation(t *testing.T) {
	f := newFixture(t, nil)
	// The handle resolves to a different record than the stored id
	f.crm.records["chatwoot_7_42"] = &ports.ConversationRecord{ID: 999, Name: "chatwoot_7_42"}

	payload := messageCreatedPayload(
		`{"crm_conversation_id": 321}`,
		`{"content": "hello?", "created_at": 1700000500, "message_type": 0, "account_id": 7}`,
	)
	resp := f.useCase.ProcessWebhook(context.Background(), payload, false)

	require.True(t, resp.Success)
	assert.Empty(t, f.crm.comments[321])
	assert.Empty(t, f.crm.comments[999])
}

// ============================================================================
// RESYNC
// ============================================================================

func TestResyncRebuildsComments(t *testing.T) {
	f := newFixture(t, nil)
	record := &ports.ConversationRecord{ID: 321, Name: "chatwoot_7_42"}
	f.crm.records["chatwoot_7_42"] = record
	f.crm.recordsByID[321] = record
	f.crm.existingOnWipe = 3

	resp, err := f.useCase.Resync(context.Background(), &ResyncRequest{
		ConversationID: 321, AccountID: 7, ChatwootConversationID: 42,
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, "resynced 3 messages (removed 3)", resp.Message)
	assert.Equal(t, "https://chat.example.com/app/accounts/7/conversations/42", resp.ChatURL)
	require.Len(t, f.crm.comments[321], 3)
	assert.Equal(t, "hello, I need help", f.crm.comments[321][0].Content)
}

// Rejected inserts are skipped, not fatal, and the count reflects
// only the comments that landed.
func TestResyncReportsPartialInsert(t *testing.T) {
	f := newFixture(t, nil)
	record := &ports.ConversationRecord{ID: 321, Name: "chatwoot_7_42"}
	f.crm.recordsByID[321] = record
	f.crm.failCommentContent = "sure, what do you need?"

	resp, err := f.useCase.Resync(context.Background(), &ResyncRequest{
		ConversationID: 321, AccountID: 7, ChatwootConversationID: 42,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Count)
	require.Len(t, f.crm.comments[321], 2)
	assert.Equal(t, "hello, I need help", f.crm.comments[321][0].Content)
	assert.Equal(t, "a new mattress", f.crm.comments[321][1].Content)
}

func TestResyncUnknownRecord(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.useCase.Resync(context.Background(), &ResyncRequest{
		ConversationID: 404, AccountID: 7, ChatwootConversationID: 42,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCRMNotFound))
}

func TestResyncRejectsForeignRecord(t *testing.T) {
	f := newFixture(t, nil)
	f.crm.recordsByID[55] = &ports.ConversationRecord{ID: 55, Name: "manually created"}

	_, err := f.useCase.Resync(context.Background(), &ResyncRequest{
		ConversationID: 55, AccountID: 7, ChatwootConversationID: 42,
	})
	require.Error(t, err)
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrBadRequest.Code, appErr.Code)
}

func TestResyncRejectsMismatchedCoordinates(t *testing.T) {
	f := newFixture(t, nil)
	f.crm.recordsByID[321] = &ports.ConversationRecord{ID: 321, Name: "chatwoot_7_42"}

	_, err := f.useCase.Resync(context.Background(), &ResyncRequest{
		ConversationID: 321, AccountID: 7, ChatwootConversationID: 99,
	})
	require.Error(t, err)
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrBadRequest.Code, appErr.Code)
}

// ============================================================================
// DISPATCH
// ============================================================================

func TestWebhookNeverFails(t *testing.T) {
	f := newFixture(t, nil)

	for _, payload := range []string{
		`{"event": "conversation_typing_on"}`,
		`{"event": "message_created", "conversation": {"id": 42}}`,
	} {
		resp := f.useCase.ProcessWebhook(context.Background(), []byte(payload), false)
		require.NotNil(t, resp, "payload %q", payload)
		require.True(t, resp.Success, "payload %q", payload)
		assert.Empty(t, f.crm.contactsCreated)
	}
}

// Deliveries without an event name are not webhook events; even a
// complete conversation body with the trigger flag set builds nothing.
func TestWebhookIgnoresEventlessDeliveries(t *testing.T) {
	f := newFixture(t, nil)

	eventless := `{
		"id": 42,
		"inbox_id": 4,
		"channel": "Channel::WebWidget",
		"meta": {"sender": {"id": 99, "name": "Jamie Doe"}},
		"messages": [{"content": "hello, I need help", "created_at": 1700000000, "message_type": 0, "account_id": 7}]
	}`
	for _, payload := range []string{`not json`, `{}`, eventless} {
		resp := f.useCase.ProcessWebhook(context.Background(), []byte(payload), true)
		assert.Nil(t, resp, "payload %q", payload)
	}

	assert.Empty(t, f.crm.contactsCreated)
	assert.Empty(t, f.crm.conversationsCreated)
}

func TestConversationLifecycleEventsAreInert(t *testing.T) {
	f := newFixture(t, nil)

	payload := []byte(`{
		"event": "conversation_status_changed",
		"account": {"id": 7},
		"conversation": {
			"id": 42,
			"channel": "Channel::WebWidget",
			"meta": {"sender": {"id": 99, "name": "Jamie Doe"}},
			"messages": [{"content": "hi", "created_at": 1700000000, "message_type": 0, "account_id": 7}],
			"custom_attributes": {"crm_conversation_id": 321}
		}
	}`)
	resp := f.useCase.ProcessWebhook(context.Background(), payload, false)

	require.True(t, resp.Success)
	assert.Equal(t, string(event.KindConversationStatusChanged), resp.Event)
	assert.Empty(t, f.crm.comments)
	assert.Empty(t, f.crm.contactsCreated)
}
