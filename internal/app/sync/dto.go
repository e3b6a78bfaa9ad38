package sync

// WebhookResponse is returned with HTTP 200 for every delivery that
// carries an event name. The chat service disables webhooks that fail
// repeatedly, so processing failures are logged but never surfaced as
// errors.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Event   string `json:"event,omitempty"`
} // @name WebhookResponse

type ResyncRequest struct {
	ConversationID         int `json:"conversation_id" validate:"required,min=1" example:"321"`
	AccountID              int `json:"account_id" validate:"required,min=1" example:"7"`
	ChatwootConversationID int `json:"chatwoot_conversation_id" validate:"required,min=1" example:"42"`
} // @name ResyncRequest

type ResyncResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"resynced 5 messages (removed 3)"`
	Count   int    `json:"count" example:"5"`
	ChatURL string `json:"chat_url,omitempty" example:"https://chat.example.com/app/accounts/7/conversations/42"`
} // @name ResyncResponse
