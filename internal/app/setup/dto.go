package setup

type SettingsResponse struct {
	URL                 string         `json:"url" example:"https://chat.example.com"`
	APIKeySet           bool           `json:"apiKeySet" example:"true"`
	AccountID           int            `json:"accountId" example:"3"`
	IntegrationSetup    bool           `json:"integrationSetup" example:"true"`
	DefaultAssignedUser string         `json:"defaultAssignedUser,omitempty" example:"jdoe"`
	InboxSources        map[int]string `json:"inboxSources"`
} // @name SettingsResponse

type UpdateSettingsRequest struct {
	URL                 *string `json:"url,omitempty" validate:"omitempty,url" example:"https://chat.example.com"`
	APIKey              *string `json:"apiKey,omitempty" example:"WAF6y4K5s6sdR9uVpsdE7BCt"`
	DefaultAssignedUser *string `json:"defaultAssignedUser,omitempty" example:"jdoe"`
} // @name UpdateSettingsRequest

type InboxResponse struct {
	ID          int    `json:"id" example:"4"`
	Name        string `json:"name" example:"Website"`
	ChannelType string `json:"channelType,omitempty" example:"Channel::WebWidget"`
	Source      string `json:"source,omitempty" example:"website"`
} // @name InboxResponse

type UpdateInboxSourcesRequest struct {
	Sources map[int]string `json:"sources" validate:"required"`
} // @name UpdateInboxSourcesRequest

// SetupStepResult reports one provisioning step. Failed steps carry the
// error message; the remaining steps still run.
type SetupStepResult struct {
	Step    string `json:"step" example:"label"`
	Success bool   `json:"success" example:"true"`
	Error   string `json:"error,omitempty"`
} // @name SetupStepResult

type SetupResponse struct {
	AccountID int               `json:"accountId" example:"3"`
	Completed bool              `json:"completed" example:"true"`
	Steps     []SetupStepResult `json:"steps"`
} // @name SetupResponse
