package chatwoot

import (
	"context"
	"fmt"

	"cwbridge/pkg/errors"
)

// Names of the artifacts the bridge installs into the chat service.
const (
	SyncLabel      = "crm-sync"
	SyncLabelColor = "#1F7EC8"
	SyncMacroName  = "Sync with CRM"
)

// ============================================================================
// PROVISIONING
// ============================================================================

// ProvisionLabel installs the sync label. An existing label is success.
func (c *Client) ProvisionLabel(ctx context.Context, accountID int) error {
	payload := map[string]interface{}{
		"title":           SyncLabel,
		"description":     "Conversation is synchronized with the CRM",
		"color":           SyncLabelColor,
		"show_on_sidebar": true,
	}

	path := fmt.Sprintf("/api/v1/accounts/%d/labels", accountID)
	err := c.makeRequest(ctx, "POST", path, payload, nil)
	if err != nil && !isDuplicate(err) {
		return errors.Wrap(err, "failed to provision label")
	}
	return nil
}

type macroAction struct {
	ActionName   string        `json:"action_name"`
	ActionParams []interface{} `json:"action_params"`
}

type macro struct {
	ID      int           `json:"id"`
	Name    string        `json:"name"`
	Actions []macroAction `json:"actions"`
}

// ProvisionMacro installs the one-click sync macro: it tags the
// conversation and fires the webhook with the trigger flag set. The
// existing-macro check is structural, an add_label action carrying the
// sync label, so renamed macros still count.
func (c *Client) ProvisionMacro(ctx context.Context, accountID int, webhookURL string) error {
	var existing struct {
		Payload []macro `json:"payload"`
	}

	path := fmt.Sprintf("/api/v1/accounts/%d/macros", accountID)
	if err := c.makeRequest(ctx, "GET", path, nil, &existing); err != nil {
		return errors.Wrap(err, "failed to list macros")
	}
	for _, m := range existing.Payload {
		if macroAddsSyncLabel(m) {
			c.logger.DebugWithFields("sync macro already installed", map[string]interface{}{
				"macro_id": m.ID,
				"name":     m.Name,
			})
			return nil
		}
	}

	payload := map[string]interface{}{
		"name":       SyncMacroName,
		"visibility": "global",
		"actions": []macroAction{
			{ActionName: "add_label", ActionParams: []interface{}{SyncLabel}},
			{ActionName: "send_webhook_event", ActionParams: []interface{}{webhookURL + "?trigger=true"}},
		},
	}
	if err := c.makeRequest(ctx, "POST", path, payload, nil); err != nil && !isDuplicate(err) {
		return errors.Wrap(err, "failed to provision macro")
	}
	return nil
}

func macroAddsSyncLabel(m macro) bool {
	for _, action := range m.Actions {
		if action.ActionName != "add_label" {
			continue
		}
		for _, param := range action.ActionParams {
			if s, ok := param.(string); ok && s == SyncLabel {
				return true
			}
		}
	}
	return false
}

// ProvisionWebhook subscribes the bridge to message_created events.
func (c *Client) ProvisionWebhook(ctx context.Context, accountID int, webhookURL string) error {
	payload := map[string]interface{}{
		"webhook": map[string]interface{}{
			"url":           webhookURL,
			"subscriptions": []string{"message_created"},
		},
	}

	path := fmt.Sprintf("/api/v1/accounts/%d/webhooks", accountID)
	err := c.makeRequest(ctx, "POST", path, payload, nil)
	if err != nil && !isDuplicate(err) {
		return errors.Wrap(err, "failed to provision webhook")
	}
	return nil
}

// ProvisionCustomAttribute installs a custom attribute definition on the
// given model (contact or conversation).
func (c *Client) ProvisionCustomAttribute(ctx context.Context, accountID, model int, key, displayType, displayName string) error {
	payload := map[string]interface{}{
		"attribute_model":        model,
		"attribute_key":          key,
		"attribute_display_name": displayName,
		"attribute_display_type": displayType,
		"attribute_description":  displayName,
	}

	path := fmt.Sprintf("/api/v1/accounts/%d/custom_attribute_definitions", accountID)
	err := c.makeRequest(ctx, "POST", path, payload, nil)
	if err != nil && !isDuplicate(err) {
		return errors.Wrap(err, fmt.Sprintf("failed to provision custom attribute %s", key))
	}
	return nil
}
