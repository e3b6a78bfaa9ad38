package ports

import "context"

// SettingsToken keys the single persisted settings document.
const SettingsToken = "cw_bridge"

// Settings is the bridge's persisted configuration document. It is
// read-modify-write without optimistic locking; concurrent admin saves
// can clobber each other (accepted).
type Settings struct {
	URL                 string         `json:"url"`
	APIKey              string         `json:"api_key"`
	AccountID           int            `json:"account_id"`
	IntegrationSetup    bool           `json:"integration_setup"`
	DefaultAssignedUser string         `json:"default_assigned_user"`
	InboxSources        map[int]string `json:"inbox_sources"`
	InboxNames          map[int]string `json:"inbox_names"`
}

type SettingsStore interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, settings *Settings) error
}

// Configured reports whether the chat-service credentials are set.
func (s *Settings) Configured() bool {
	return s != nil && s.URL != "" && s.APIKey != ""
}

// InboxSource returns the CRM source key mapped to an inbox, or "".
func (s *Settings) InboxSource(inboxID int) string {
	if s == nil || s.InboxSources == nil {
		return ""
	}
	return s.InboxSources[inboxID]
}

// InboxName returns the cached display name of an inbox, or "".
func (s *Settings) InboxName(inboxID int) string {
	if s == nil || s.InboxNames == nil {
		return ""
	}
	return s.InboxNames[inboxID]
}
