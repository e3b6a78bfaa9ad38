package sync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cwbridge/internal/domain/event"
	"cwbridge/internal/ports"
	"cwbridge/pkg/errors"
	"cwbridge/platform/logger"
)

// CommentType tags every comment the bridge writes so CRM users can
// tell mirrored chat messages apart from manual notes.
const CommentType = "chatwoot"

// SourceDefault is the CRM source recorded when no inbox mapping exists.
const SourceDefault = "chatwoot"

type UseCase interface {
	// ProcessWebhook normalizes and dispatches one webhook delivery.
	// It never fails: the chat service disables webhooks with repeated
	// non-2xx responses, so errors are logged and swallowed. Deliveries
	// without an event name return nil and are answered with an empty
	// 200.
	ProcessWebhook(ctx context.Context, payload []byte, trigger bool) *WebhookResponse

	// Resync rebuilds the comment mirror of one CRM conversation record
	// from the live transcript.
	Resync(ctx context.Context, req *ResyncRequest) (*ResyncResponse, error)
}

type useCaseImpl struct {
	chatwoot   ports.ChatwootClient
	crm        ports.CRM
	enricher   ports.Enricher
	settings   ports.SettingsStore
	normalizer *event.Normalizer
	logger     *logger.Logger

	titler cases.Caser
}

// NewUseCase wires the sync orchestrator. enricher may be nil when AI
// enrichment is disabled.
func NewUseCase(
	chatwootClient ports.ChatwootClient,
	crm ports.CRM,
	enricher ports.Enricher,
	settings ports.SettingsStore,
	normalizer *event.Normalizer,
	appLogger *logger.Logger,
) UseCase {
	return &useCaseImpl{
		chatwoot:   chatwootClient,
		crm:        crm,
		enricher:   enricher,
		settings:   settings,
		normalizer: normalizer,
		logger:     appLogger.WithModule("sync"),
		titler:     cases.Title(language.English),
	}
}

// ============================================================================
// WEBHOOK DISPATCH
// ============================================================================

func (uc *useCaseImpl) ProcessWebhook(ctx context.Context, payload []byte, trigger bool) *WebhookResponse {
	ev := uc.normalizer.Normalize(ctx, payload)
	if ev.RawEvent == "" {
		return nil
	}
	ev.Trigger = ev.Trigger || trigger

	if !ev.Identified() {
		return &WebhookResponse{Success: true}
	}

	switch ev.Kind {
	case event.KindMacroExecuted:
		if !ev.Trigger {
			uc.logger.DebugWithFields("macro payload without trigger flag, skipping", map[string]interface{}{
				"conversation_id": ev.ConversationID,
			})
			break
		}
		if err := uc.fullSync(ctx, ev); err != nil {
			uc.logger.WithError(err).ErrorWithFields("full sync failed", map[string]interface{}{
				"account_id":      ev.AccountID,
				"conversation_id": ev.ConversationID,
			})
		}

	case event.KindMessageCreated:
		if err := uc.appendMessage(ctx, ev); err != nil {
			uc.logger.WithError(err).ErrorWithFields("message append failed", map[string]interface{}{
				"account_id":      ev.AccountID,
				"conversation_id": ev.ConversationID,
			})
		}

	case event.KindConversationUpdated, event.KindConversationStatusChanged:
		// Received for observability only. Correlation attributes ride
		// along on these payloads but nothing is written.
	}

	resp := &WebhookResponse{Success: true}
	if ev.Kind != event.KindUnknown {
		resp.Event = string(ev.Kind)
	}
	return resp
}

// ============================================================================
// FULL SYNC (macro trigger)
// ============================================================================

// fullSync creates the CRM contact and conversation record for an event
// and mirrors the transcript. The contact and conversation fences are
// independent: whichever correlation id is already present on the
// payload skips its creation step, the other still runs.
func (uc *useCaseImpl) fullSync(ctx context.Context, ev *event.Event) error {
	if ev.AccountID == 0 || ev.ConversationID == 0 {
		return fmt.Errorf("payload carries no account or conversation id")
	}

	if ev.CRMContactID != "" && ev.CRMConversationID != "" {
		uc.logger.DebugWithFields("contact and conversation already synced", map[string]interface{}{
			"crm_contact_id":      ev.CRMContactID,
			"crm_conversation_id": ev.CRMConversationID,
		})
		return nil
	}

	transcript, err := uc.chatwoot.GetFullTranscript(ctx, ev.AccountID, ev.ConversationID)
	if err != nil {
		return fmt.Errorf("failed to fetch transcript: %w", err)
	}

	contactID, err := uc.syncContact(ctx, ev, transcript)
	if err != nil {
		return err
	}

	return uc.syncConversation(ctx, ev, contactID, transcript)
}

// syncContact resolves the CRM contact for the event's sender, creating
// it when the contact fence is open. Returns the CRM contact id.
func (uc *useCaseImpl) syncContact(ctx context.Context, ev *event.Event, transcript []ports.TranscriptMessage) (int, error) {
	if ev.CRMContactID != "" {
		id, err := strconv.Atoi(ev.CRMContactID)
		if err != nil {
			return 0, fmt.Errorf("malformed contact correlation id %q", ev.CRMContactID)
		}
		uc.logger.DebugWithFields("contact already synced", map[string]interface{}{
			"crm_contact_id": id,
		})
		return id, nil
	}

	extracted := uc.extractAttributes(ctx, transcript)

	assignedUser := ""
	if s, err := uc.settings.Get(ctx); err == nil {
		assignedUser = s.DefaultAssignedUser
	}
	fields, dedupeFields := uc.buildContactFields(ev, extracted, uc.sourceFor(ctx, ev), assignedUser)

	record, err := uc.crm.CreateContact(ctx, fields, dedupeFields)
	if err != nil {
		return 0, fmt.Errorf("failed to create CRM contact: %w", err)
	}

	uc.logger.InfoWithFields("contact synced", map[string]interface{}{
		"sender_id":      ev.SenderID,
		"crm_contact_id": record.ID,
	})

	if ev.SenderID != 0 {
		err := uc.chatwoot.PatchContactAttributes(ctx, ev.AccountID, ev.SenderID, map[string]interface{}{
			"crm_contact_id":  record.ID,
			"crm_contact_url": record.Permalink,
		})
		if err != nil {
			// The record exists; a failed writeback means the next macro
			// run re-runs creation and relies on CRM deduplication.
			uc.logger.WithError(err).WarnWithFields("contact attribute writeback failed", map[string]interface{}{
				"sender_id": ev.SenderID,
			})
		}
	}

	return record.ID, nil
}

// buildContactFields merges explicit sender data with AI-extracted
// attributes. Explicit values win, with one exception: a non-empty
// extracted name replaces the sender name, since chat senders often
// register under placeholders. Extraction otherwise fills gaps and
// extends the multi-value fields.
func (uc *useCaseImpl) buildContactFields(ev *event.Event, extracted *ports.ExtractedAttributes, source, assignedUser string) (map[string]interface{}, []string) {
	if extracted == nil {
		extracted = &ports.ExtractedAttributes{}
	}

	name := strings.TrimSpace(extracted.Name)
	if name == "" {
		name = strings.TrimSpace(ev.SenderName)
	}
	if name == "" {
		name = fmt.Sprintf("Chat contact %d", ev.SenderID)
	}

	phones := []string{ev.SenderPhone}
	for _, phone := range extracted.PhoneNumbers {
		phones = append(phones, event.NormalizePhone(phone))
	}

	emails := []string{ev.SenderEmail}
	emails = append(emails, extracted.Emails...)

	addresses := append([]string{}, extracted.Addresses...)
	addresses = append(addresses, extracted.Locations...)

	fields := map[string]interface{}{
		"name":           name,
		"overall_status": "unassigned",
	}
	if assignedUser != "" {
		fields["assigned_to"] = assignedUser
	}
	dedupeFields := make([]string, 0, 3)

	if f := event.ValuesField(phones); f != nil {
		fields["contact_phone"] = f
		dedupeFields = append(dedupeFields, "contact_phone")
	}
	if f := event.ValuesField(emails); f != nil {
		fields["contact_email"] = f
		dedupeFields = append(dedupeFields, "contact_email")
	}
	if f := event.ValuesField(addresses); f != nil {
		fields["contact_address"] = f
	}
	if f := event.ValuesField([]string{ev.SenderFacebook}); f != nil {
		fields["contact_facebook"] = f
		dedupeFields = append(dedupeFields, "contact_facebook")
	}
	if age := event.MapAgeValue(extracted.Age); age != "" {
		fields["age"] = age
	}
	if gender := event.MapGenderValue(extracted.Gender); gender != "" {
		fields["gender"] = gender
	}
	if f := event.ValuesField([]string{extracted.Language}); f != nil {
		fields["languages"] = f
	}

	fields["sources"] = event.ValuesField([]string{source})

	return fields, dedupeFields
}

// syncConversation resolves the CRM conversation record, creating it
// and mirroring the transcript when the conversation fence is open.
func (uc *useCaseImpl) syncConversation(ctx context.Context, ev *event.Event, contactID int, transcript []ports.TranscriptMessage) error {
	if ev.CRMConversationID != "" {
		uc.logger.DebugWithFields("conversation already synced", map[string]interface{}{
			"crm_conversation_id": ev.CRMConversationID,
		})
		return nil
	}
	if len(transcript) == 0 {
		uc.logger.DebugWithFields("empty transcript, skipping conversation record", map[string]interface{}{
			"conversation_id": ev.ConversationID,
		})
		return nil
	}

	fields := map[string]interface{}{
		"type":   ev.ConversationType,
		"title":  uc.conversationTitle(ev),
		"status": "verified",
	}
	fields["sources"] = event.ValuesField([]string{uc.sourceFor(ctx, ev)})

	record, err := uc.crm.CreateOrUpdateConversation(ctx, ev.Handle(), fields, contactID)
	if err != nil {
		return fmt.Errorf("failed to create CRM conversation: %w", err)
	}

	uc.logger.InfoWithFields("conversation synced", map[string]interface{}{
		"handle":              ev.Handle(),
		"crm_conversation_id": record.ID,
	})

	inserted := uc.mirrorTranscript(ctx, record.ID, transcript)
	uc.logger.InfoWithFields("transcript mirrored", map[string]interface{}{
		"crm_conversation_id": record.ID,
		"comments":            inserted,
	})

	uc.addContactNote(ctx, ev, contactID, transcript)

	err = uc.chatwoot.PatchConversationAttributes(ctx, ev.AccountID, ev.ConversationID, map[string]interface{}{
		"crm_conversation_id":  record.ID,
		"crm_conversation_url": record.Permalink,
	})
	if err != nil {
		uc.logger.WithError(err).WarnWithFields("conversation attribute writeback failed", map[string]interface{}{
			"conversation_id": ev.ConversationID,
		})
	}
	return nil
}

// addContactNote records the new conversation on the contact's activity
// feed, with an AI summary when enrichment is available.
func (uc *useCaseImpl) addContactNote(ctx context.Context, ev *event.Event, contactID int, transcript []ports.TranscriptMessage) {
	if contactID == 0 {
		return
	}

	inbox := ev.InboxName
	if inbox == "" {
		inbox = uc.titler.String(strings.ReplaceAll(ev.ConversationType, "_", " "))
	}
	note := fmt.Sprintf("New conversation from %s.", inbox)

	if uc.enricher != nil {
		summary, err := uc.enricher.Summarize(ctx, transcript)
		if err != nil {
			uc.logger.WithError(err).Warn("conversation summary failed")
		} else {
			note += "\n\n Summary: " + summary.Text
		}
	}

	if err := uc.crm.AddContactComment(ctx, contactID, note); err != nil {
		uc.logger.WithError(err).WarnWithFields("contact note failed", map[string]interface{}{
			"crm_contact_id": contactID,
		})
	}
}

// ============================================================================
// MESSAGE APPEND (message_created)
// ============================================================================

// appendMessage mirrors a single new message onto an already-synced
// conversation record. Conversations without a correlation id are
// untracked and skipped.
func (uc *useCaseImpl) appendMessage(ctx context.Context, ev *event.Event) error {
	if ev.CRMConversationID == "" {
		return nil
	}
	if ev.Message == nil || !isMirrored(ev.Message.MessageType) {
		return nil
	}

	recordID, err := strconv.Atoi(ev.CRMConversationID)
	if err != nil {
		return fmt.Errorf("malformed conversation correlation id %q", ev.CRMConversationID)
	}

	// Correlation attributes survive record deletion on the CRM side;
	// verify the handle still resolves to the same record before
	// writing.
	record, err := uc.crm.FindConversationByHandle(ctx, ev.Handle())
	if err != nil {
		if errors.Is(err, errors.ErrCRMNotFound) {
			uc.logger.WarnWithFields("correlated conversation record is gone, skipping append", map[string]interface{}{
				"handle":              ev.Handle(),
				"crm_conversation_id": recordID,
			})
			return nil
		}
		return err
	}
	if record.ID != recordID {
		uc.logger.WarnWithFields("stale conversation correlation id, skipping append", map[string]interface{}{
			"handle":   ev.Handle(),
			"expected": recordID,
			"actual":   record.ID,
		})
		return nil
	}

	return uc.crm.AddConversationComment(ctx, recordID, toComment(*ev.Message))
}

// ============================================================================
// RESYNC
// ============================================================================

// Resync wipes and rebuilds the comment mirror of a CRM conversation
// record from the chat service's live transcript.
func (uc *useCaseImpl) Resync(ctx context.Context, req *ResyncRequest) (*ResyncResponse, error) {
	recordID := req.ConversationID

	record, err := uc.crm.GetConversation(ctx, recordID)
	if err != nil {
		return nil, err
	}

	accountID, conversationID, err := event.ParseHandle(record.Name)
	if err != nil {
		return nil, errors.NewWithDetails(errors.ErrBadRequest.Code,
			"record is not a synchronized conversation", err.Error())
	}
	if accountID != req.AccountID || conversationID != req.ChatwootConversationID {
		return nil, errors.New(errors.ErrBadRequest.Code,
			"record does not belong to the requested conversation")
	}

	transcript, err := uc.chatwoot.GetFullTranscript(ctx, accountID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}

	deleted, err := uc.crm.DeleteConversationComments(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear comments: %w", err)
	}

	// Skipped inserts must not abort the rebuild; the count reflects
	// only what actually landed.
	inserted := uc.mirrorTranscript(ctx, recordID, transcript)

	uc.logger.InfoWithFields("conversation resynced", map[string]interface{}{
		"record_id": recordID,
		"deleted":   deleted,
		"inserted":  inserted,
	})

	resp := &ResyncResponse{
		Success: true,
		Message: fmt.Sprintf("resynced %d messages (removed %d)", inserted, deleted),
		Count:   inserted,
	}
	if s, err := uc.settings.Get(ctx); err == nil && s.URL != "" {
		resp.ChatURL = fmt.Sprintf("%s/app/accounts/%d/conversations/%d",
			strings.TrimRight(s.URL, "/"), accountID, conversationID)
	}
	return resp, nil
}

// ============================================================================
// HELPERS
// ============================================================================

// mirrorTranscript inserts one comment per mirrored message, in
// transcript order. Individual failures are logged and skipped so a
// single bad message does not abort the sync.
func (uc *useCaseImpl) mirrorTranscript(ctx context.Context, recordID int, transcript []ports.TranscriptMessage) int {
	inserted := 0
	for _, m := range transcript {
		if !isMirrored(m.MessageType) {
			continue
		}
		comment := toComment(m)
		if comment.Content == "" {
			continue
		}
		if err := uc.crm.AddConversationComment(ctx, recordID, comment); err != nil {
			uc.logger.WithError(err).WarnWithFields("comment insert failed", map[string]interface{}{
				"crm_conversation_id": recordID,
			})
			continue
		}
		inserted++
	}
	return inserted
}

func (uc *useCaseImpl) extractAttributes(ctx context.Context, transcript []ports.TranscriptMessage) *ports.ExtractedAttributes {
	if uc.enricher == nil {
		return nil
	}
	extracted, err := uc.enricher.ExtractContactAttributes(ctx, transcript)
	if err != nil {
		uc.logger.WithError(err).Warn("attribute extraction failed")
		return nil
	}
	return extracted
}

func (uc *useCaseImpl) sourceFor(ctx context.Context, ev *event.Event) string {
	if s, err := uc.settings.Get(ctx); err == nil {
		if src := s.InboxSource(ev.InboxID); src != "" {
			return src
		}
	}
	return SourceDefault
}

func (uc *useCaseImpl) conversationTitle(ev *event.Event) string {
	kind := uc.titler.String(strings.ReplaceAll(ev.ConversationType, "_", " "))
	name := strings.TrimSpace(ev.SenderName)
	if name == "" {
		return kind + " conversation"
	}
	return fmt.Sprintf("%s conversation with %s", kind, name)
}

// isMirrored reports whether a message type is written to the CRM as a
// comment. Incoming and outgoing messages are; private notes and bot
// responses are not.
func isMirrored(messageType int) bool {
	return messageType == ports.MessageTypeIncoming || messageType == ports.MessageTypeOutgoing
}

func toComment(m ports.TranscriptMessage) ports.ConversationComment {
	author := "Contact"
	if m.MessageType == ports.MessageTypeOutgoing {
		author = "Team"
	}
	if m.Sender != nil && strings.TrimSpace(m.Sender.Name) != "" {
		author = strings.TrimSpace(m.Sender.Name)
	}

	return ports.ConversationComment{
		Content:   strings.TrimSpace(event.StripTags(m.Content)),
		Type:      CommentType,
		Author:    author,
		Timestamp: time.Unix(m.CreatedAt, 0).UTC(),
	}
}
