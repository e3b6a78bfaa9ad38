package crm

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cwbridge/internal/ports"
	"cwbridge/pkg/errors"
	"cwbridge/platform/config"
	"cwbridge/platform/logger"
)

// Client implements the CRM interface against the CRM's REST API.
// Contacts and conversation records live under separate collections;
// comments are sub-resources of both.
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates a new CRM API client.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.CRM.URL, "/"),
		apiKey:  cfg.CRM.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.WithModule("crm"),
	}
}

// ============================================================================
// CONTACT OPERATIONS
// ============================================================================

// CreateContact creates a contact. When the CRM's duplicate detection
// matches an existing record on one of dedupeFields it returns that
// record instead; callers cannot tell the two apart.
func (c *Client) CreateContact(ctx context.Context, fields map[string]interface{}, dedupeFields []string) (*ports.ContactRecord, error) {
	path := "/contacts"
	if len(dedupeFields) > 0 {
		path += "?dedupe_fields=" + url.QueryEscape(strings.Join(dedupeFields, ","))
	}

	var record ports.ContactRecord
	if err := c.makeRequest(ctx, "POST", path, fields, &record); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	c.logger.InfoWithFields("CRM contact resolved", map[string]interface{}{
		"contact_id": record.ID,
	})
	return &record, nil
}

// AddContactComment appends a note to a contact's activity feed.
func (c *Client) AddContactComment(ctx context.Context, contactID int, content string) error {
	payload := map[string]interface{}{
		"comment": content,
	}

	path := fmt.Sprintf("/contacts/%d/comments", contactID)
	if err := c.makeRequest(ctx, "POST", path, payload, nil); err != nil {
		return fmt.Errorf("failed to add contact comment: %w", err)
	}
	return nil
}

// ============================================================================
// CONVERSATION OPERATIONS
// ============================================================================

// GetConversation fetches a conversation record by id.
func (c *Client) GetConversation(ctx context.Context, conversationID int) (*ports.ConversationRecord, error) {
	var record ports.ConversationRecord
	err := c.makeRequest(ctx, "GET", fmt.Sprintf("/conversations/%d", conversationID), nil, &record)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.ErrCRMNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &record, nil
}

// FindConversationByHandle looks a conversation record up by its
// deterministic handle. A missing record is ErrCRMNotFound, not a
// transport failure.
func (c *Client) FindConversationByHandle(ctx context.Context, handle string) (*ports.ConversationRecord, error) {
	var response struct {
		Posts []ports.ConversationRecord `json:"posts"`
	}

	path := "/conversations?name=" + url.QueryEscape(handle)
	if err := c.makeRequest(ctx, "GET", path, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to search conversations: %w", err)
	}
	if len(response.Posts) == 0 {
		return nil, errors.ErrCRMNotFound
	}
	return &response.Posts[0], nil
}

// CreateOrUpdateConversation finds or creates the conversation record
// for handle, updates its fields and ties it to contactID.
func (c *Client) CreateOrUpdateConversation(ctx context.Context, handle string, fields map[string]interface{}, contactID int) (*ports.ConversationRecord, error) {
	payload := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		payload[k] = v
	}
	payload["name"] = handle
	if contactID != 0 {
		payload["contacts"] = map[string]interface{}{
			"values": []map[string]interface{}{{"value": contactID}},
		}
	}

	existing, err := c.FindConversationByHandle(ctx, handle)
	switch {
	case err == nil:
		var record ports.ConversationRecord
		path := fmt.Sprintf("/conversations/%d", existing.ID)
		if err := c.makeRequest(ctx, "POST", path, payload, &record); err != nil {
			return nil, fmt.Errorf("failed to update conversation: %w", err)
		}
		return &record, nil
	case errors.Is(err, errors.ErrCRMNotFound):
		var record ports.ConversationRecord
		if err := c.makeRequest(ctx, "POST", "/conversations", payload, &record); err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		c.logger.InfoWithFields("CRM conversation created", map[string]interface{}{
			"conversation_id": record.ID,
			"handle":          handle,
		})
		return &record, nil
	default:
		return nil, err
	}
}

// AddConversationComment mirrors one chat message onto a conversation
// record, preserving author and original timestamp.
func (c *Client) AddConversationComment(ctx context.Context, conversationID int, comment ports.ConversationComment) error {
	payload := map[string]interface{}{
		"comment":      comment.Content,
		"comment_type": comment.Type,
		"author":       comment.Author,
	}
	if !comment.Timestamp.IsZero() {
		payload["date"] = comment.Timestamp.UTC().Format(time.RFC3339)
	}

	path := fmt.Sprintf("/conversations/%d/comments", conversationID)
	if err := c.makeRequest(ctx, "POST", path, payload, nil); err != nil {
		return fmt.Errorf("failed to add conversation comment: %w", err)
	}
	return nil
}

// DeleteConversationComments removes every comment on the record and
// returns how many were deleted.
func (c *Client) DeleteConversationComments(ctx context.Context, conversationID int) (int, error) {
	var response struct {
		Comments []struct {
			ID int `json:"id"`
		} `json:"comments"`
	}

	path := fmt.Sprintf("/conversations/%d/comments", conversationID)
	if err := c.makeRequest(ctx, "GET", path, nil, &response); err != nil {
		return 0, fmt.Errorf("failed to list conversation comments: %w", err)
	}

	deleted := 0
	for _, comment := range response.Comments {
		commentPath := fmt.Sprintf("/conversations/%d/comments/%d", conversationID, comment.ID)
		if err := c.makeRequest(ctx, "DELETE", commentPath, nil, nil); err != nil {
			return deleted, fmt.Errorf("failed to delete comment %d: %w", comment.ID, err)
		}
		deleted++
	}
	return deleted, nil
}

// ============================================================================
// HTTP CLIENT UTILITIES
// ============================================================================

type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("CRM request failed with status %d: %s", e.Status, e.Body)
}

func isNotFound(err error) bool {
	var apiErr *apiError
	if !stderrors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusNotFound
}

// makeRequest makes an HTTP request to the CRM API.
func (c *Client) makeRequest(ctx context.Context, method, path string, payload interface{}, result interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCRMTransport, err.Error())
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
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
