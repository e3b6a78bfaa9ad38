package event

import (
	"context"
	"encoding/json"
	"fmt"

	"cwbridge/internal/ports"
	"cwbridge/platform/logger"
)

// InboxNameResolver supplies a display name for an inbox when the
// payload itself does not carry one. Resolution failures degrade to an
// empty name, never to an error.
type InboxNameResolver interface {
	GetInboxName(ctx context.Context, accountID, inboxID int) string
}

// Normalizer parses raw webhook payloads into canonical events. Two
// payload shapes exist: the macro sub-action posts the conversation
// object at the top level (shape A), while regular event webhooks nest
// it under "conversation" (shape B). Shape A is probed first.
type Normalizer struct {
	inboxes InboxNameResolver
	logger  *logger.Logger
}

func NewNormalizer(inboxes InboxNameResolver, log *logger.Logger) *Normalizer {
	return &Normalizer{
		inboxes: inboxes,
		logger:  log.WithModule("normalizer"),
	}
}

type rawSender struct {
	ID                   int    `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	PhoneNumber          string `json:"phone_number"`
	AdditionalAttributes struct {
		SocialProfiles struct {
			Facebook string `json:"facebook"`
		} `json:"social_profiles"`
	} `json:"additional_attributes"`
	CustomAttributes map[string]interface{} `json:"custom_attributes"`
}

type rawShapeA struct {
	Event   string `json:"event"`
	ID      int    `json:"id"`
	InboxID int    `json:"inbox_id"`
	Channel string `json:"channel"`
	Meta    *struct {
		Sender *rawSender `json:"sender"`
	} `json:"meta"`
	Messages         []ports.TranscriptMessage `json:"messages"`
	CustomAttributes map[string]interface{}    `json:"custom_attributes"`
	Labels           []string                  `json:"labels"`
	Trigger          interface{}               `json:"trigger"`
}

type rawShapeB struct {
	Event   string `json:"event"`
	Account *struct {
		ID int `json:"id"`
	} `json:"account"`
	Inbox *struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"inbox"`
	Conversation *struct {
		ID      int    `json:"id"`
		InboxID int    `json:"inbox_id"`
		Channel string `json:"channel"`
		Meta    *struct {
			Sender *rawSender `json:"sender"`
		} `json:"meta"`
		Messages         []ports.TranscriptMessage `json:"messages"`
		CustomAttributes map[string]interface{}    `json:"custom_attributes"`
		Labels           []string                  `json:"labels"`
	} `json:"conversation"`
}

// Normalize parses a raw payload into an Event. Unparseable or
// unrecognized payloads yield an unidentified event with the raw event
// kind preserved; callers treat those as no-ops rather than failures.
func (n *Normalizer) Normalize(ctx context.Context, raw []byte) *Event {
	var a rawShapeA
	if err := json.Unmarshal(raw, &a); err == nil && a.Meta != nil && a.Meta.Sender != nil {
		return n.fromShapeA(ctx, &a)
	}

	var b rawShapeB
	if err := json.Unmarshal(raw, &b); err == nil &&
		b.Conversation != nil && b.Conversation.Meta != nil && b.Conversation.Meta.Sender != nil {
		return n.fromShapeB(ctx, &b)
	}

	var probe struct {
		Event string `json:"event"`
	}
	_ = json.Unmarshal(raw, &probe)
	n.logger.DebugWithFields("unrecognized payload shape", map[string]interface{}{
		"event": probe.Event,
	})
	return &Event{Kind: ParseKind(probe.Event), RawEvent: probe.Event}
}

func (n *Normalizer) fromShapeA(ctx context.Context, a *rawShapeA) *Event {
	ev := &Event{
		Kind:             ParseKind(a.Event),
		RawEvent:         a.Event,
		InboxID:          a.InboxID,
		ConversationID:   a.ID,
		Channel:          a.Channel,
		ConversationType: ConversationType(a.Channel),
		Trigger:          truthy(a.Trigger),
		Labels:           a.Labels,
	}
	if len(a.Messages) > 0 {
		ev.AccountID = a.Messages[0].AccountID
		first := a.Messages[0]
		ev.Message = &first
	}
	n.applySender(ev, a.Meta.Sender)
	n.applyCorrelation(ev, a.Meta.Sender.CustomAttributes, a.CustomAttributes)
	ev.InboxName = n.resolveInboxName(ctx, ev, "")
	return ev
}

func (n *Normalizer) fromShapeB(ctx context.Context, b *rawShapeB) *Event {
	conv := b.Conversation
	ev := &Event{
		Kind:             ParseKind(b.Event),
		RawEvent:         b.Event,
		ConversationID:   conv.ID,
		InboxID:          conv.InboxID,
		Channel:          conv.Channel,
		ConversationType: ConversationType(conv.Channel),
		Labels:           conv.Labels,
	}
	if b.Account != nil {
		ev.AccountID = b.Account.ID
	}
	if b.Inbox != nil {
		if ev.InboxID == 0 {
			ev.InboxID = b.Inbox.ID
		}
		ev.InboxName = b.Inbox.Name
	}
	if ev.AccountID == 0 && len(conv.Messages) > 0 {
		ev.AccountID = conv.Messages[0].AccountID
	}
	if len(conv.Messages) > 0 {
		first := conv.Messages[0]
		ev.Message = &first
	}
	n.applySender(ev, conv.Meta.Sender)
	n.applyCorrelation(ev, conv.Meta.Sender.CustomAttributes, conv.CustomAttributes)
	ev.InboxName = n.resolveInboxName(ctx, ev, ev.InboxName)
	return ev
}

func (n *Normalizer) applySender(ev *Event, s *rawSender) {
	ev.SenderID = s.ID
	ev.SenderName = s.Name
	ev.SenderEmail = s.Email
	ev.SenderPhone = NormalizePhone(s.PhoneNumber)
	ev.SenderFacebook = s.AdditionalAttributes.SocialProfiles.Facebook
}

// applyCorrelation lifts the CRM correlation attributes off the contact
// and conversation custom-attribute maps. The two sets are independent
// fences; one being present says nothing about the other.
func (n *Normalizer) applyCorrelation(ev *Event, contactAttrs, convAttrs map[string]interface{}) {
	ev.CRMContactID = attrString(contactAttrs, "crm_contact_id")
	ev.CRMContactURL = attrString(contactAttrs, "crm_contact_url")
	ev.CRMConversationID = attrString(convAttrs, "crm_conversation_id")
	ev.CRMConversationURL = attrString(convAttrs, "crm_conversation_url")
}

func (n *Normalizer) resolveInboxName(ctx context.Context, ev *Event, current string) string {
	if current != "" {
		return current
	}
	if n.inboxes == nil || ev.AccountID == 0 || ev.InboxID == 0 {
		return ""
	}
	return n.inboxes.GetInboxName(ctx, ev.AccountID, ev.InboxID)
}

// attrString reads a custom attribute tolerating numeric encodings; the
// chat service stores number-typed attributes as JSON numbers.
func attrString(attrs map[string]interface{}, key string) string {
	if attrs == nil {
		return ""
	}
	switch v := attrs[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	case int:
		return fmt.Sprintf("%d", v)
	default:
		return ""
	}
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1"
	case float64:
		return t != 0
	}
	return false
}
