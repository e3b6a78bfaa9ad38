package chatwoot

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cwbridge/internal/ports"
	"cwbridge/pkg/errors"
	"cwbridge/platform/logger"
)

// Client implements the ChatwootClient interface against the chat
// service's REST API. Credentials come from the settings store so that
// admin edits take effect without a restart; config values only seed
// the store on first run.
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	settings   ports.SettingsStore
}

// NewClient creates a new chat-service API client.
func NewClient(settings ports.SettingsStore, log *logger.Logger) *Client {
	return &Client{
		settings: settings,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.WithModule("chatwoot"),
	}
}

// apiError carries the HTTP status and raw body so callers can tell
// duplicate-record rejections apart from real failures.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.Status, e.Body)
}

// isDuplicate reports whether err is the validation rejection the chat
// service returns for records that already exist.
func isDuplicate(err error) bool {
	var apiErr *apiError
	if !stderrors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnprocessableEntity &&
		strings.Contains(apiErr.Body, "already been taken")
}

// ============================================================================
// ACCOUNT OPERATIONS
// ============================================================================

// ResolveAccountID returns the account bound to the configured API key,
// resolving and caching it on first use. forceRefresh bypasses the
// cached value.
func (c *Client) ResolveAccountID(ctx context.Context, forceRefresh bool) (int, error) {
	s, err := c.settings.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load settings: %w", err)
	}
	if !s.Configured() {
		return 0, errors.ErrChatwootNotConfigured
	}
	if s.AccountID != 0 && !forceRefresh {
		return s.AccountID, nil
	}

	var profile struct {
		Accounts []struct {
			ID int `json:"id"`
		} `json:"accounts"`
	}
	if err := c.makeRequest(ctx, "GET", "/api/v1/profile", nil, &profile); err != nil {
		return 0, fmt.Errorf("failed to resolve account: %w", err)
	}
	if len(profile.Accounts) == 0 {
		return 0, errors.New(errors.ErrChatwootRejected.Code, "API key grants access to no accounts")
	}

	s.AccountID = profile.Accounts[0].ID
	if err := c.settings.Save(ctx, s); err != nil {
		c.logger.WithError(err).Warn("failed to persist resolved account id")
	}
	return s.AccountID, nil
}

// ============================================================================
// TRANSCRIPT OPERATIONS
// ============================================================================

// GetFullTranscript fetches every message of a conversation. The chat
// service returns messages under "payload" in chronological order.
func (c *Client) GetFullTranscript(ctx context.Context, accountID, conversationID int) ([]ports.TranscriptMessage, error) {
	var response struct {
		Payload []ports.TranscriptMessage `json:"payload"`
	}

	path := fmt.Sprintf("/api/v1/accounts/%d/conversations/%d/messages", accountID, conversationID)
	if err := c.makeRequest(ctx, "GET", path, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return response.Payload, nil
}

// ============================================================================
// ATTRIBUTE WRITEBACK
// ============================================================================

// PatchContactAttributes merges custom attributes onto a contact.
func (c *Client) PatchContactAttributes(ctx context.Context, accountID, contactID int, attrs map[string]interface{}) error {
	payload := map[string]interface{}{
		"custom_attributes": attrs,
	}

	path := fmt.Sprintf("/api/v1/accounts/%d/contacts/%d", accountID, contactID)
	if err := c.makeRequest(ctx, "PATCH", path, payload, nil); err != nil {
		return fmt.Errorf("failed to patch contact attributes: %w", err)
	}
	return nil
}

// PatchConversationAttributes merges custom attributes onto a
// conversation.
func (c *Client) PatchConversationAttributes(ctx context.Context, accountID, conversationID int, attrs map[string]interface{}) error {
	payload := map[string]interface{}{
		"custom_attributes": attrs,
	}

	path := fmt.Sprintf("/api/v1/accounts/%d/conversations/%d/custom_attributes", accountID, conversationID)
	if err := c.makeRequest(ctx, "POST", path, payload, nil); err != nil {
		return fmt.Errorf("failed to patch conversation attributes: %w", err)
	}
	return nil
}

// ============================================================================
// INBOX OPERATIONS
// ============================================================================

// ListInboxes lists the account's inboxes, refreshing the cached
// id-to-name map as a side effect.
func (c *Client) ListInboxes(ctx context.Context, forceRefresh bool) ([]ports.Inbox, error) {
	s, err := c.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	accountID, err := c.ResolveAccountID(ctx, false)
	if err != nil {
		return nil, err
	}

	if !forceRefresh && len(s.InboxNames) > 0 {
		inboxes := make([]ports.Inbox, 0, len(s.InboxNames))
		for id, name := range s.InboxNames {
			inboxes = append(inboxes, ports.Inbox{ID: id, Name: name})
		}
		return inboxes, nil
	}

	var response struct {
		Payload []ports.Inbox `json:"payload"`
	}
	path := fmt.Sprintf("/api/v1/accounts/%d/inboxes", accountID)
	if err := c.makeRequest(ctx, "GET", path, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to list inboxes: %w", err)
	}

	s.InboxNames = make(map[int]string, len(response.Payload))
	for _, inbox := range response.Payload {
		s.InboxNames[inbox.ID] = inbox.Name
	}
	if err := c.settings.Save(ctx, s); err != nil {
		c.logger.WithError(err).Warn("failed to persist inbox name cache")
	}

	return response.Payload, nil
}

// GetInboxName returns a display name for an inbox, cache first, then
// one live refresh. Failures degrade to an empty name.
func (c *Client) GetInboxName(ctx context.Context, accountID, inboxID int) string {
	s, err := c.settings.Get(ctx)
	if err == nil {
		if name := s.InboxName(inboxID); name != "" {
			return name
		}
	}

	inboxes, err := c.ListInboxes(ctx, true)
	if err != nil {
		c.logger.WithError(err).DebugWithFields("inbox name lookup failed", map[string]interface{}{
			"inbox_id": inboxID,
		})
		return ""
	}
	for _, inbox := range inboxes {
		if inbox.ID == inboxID {
			return inbox.Name
		}
	}
	return ""
}

// ============================================================================
// HTTP CLIENT UTILITIES
// ============================================================================

// makeRequest makes an HTTP request to the chat service API.
func (c *Client) makeRequest(ctx context.Context, method, path string, payload interface{}, result interface{}) error {
	s, err := c.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !s.Configured() {
		return errors.ErrChatwootNotConfigured
	}

	url := strings.TrimRight(s.URL, "/") + path

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api_access_token", s.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrChatwootTransport, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return &apiError{Status: resp.StatusCode}
		}
		return &apiError{Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return errors.Wrap(errors.ErrChatwootDecode, err.Error())
		}
	}

	return nil
}
