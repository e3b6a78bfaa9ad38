package setup

import (
	"context"
	"fmt"

	"cwbridge/internal/ports"
	"cwbridge/platform/logger"
)

type UseCase interface {
	GetSettings(ctx context.Context) (*SettingsResponse, error)
	UpdateSettings(ctx context.Context, req *UpdateSettingsRequest) (*SettingsResponse, error)
	ListInboxes(ctx context.Context, refresh bool) ([]InboxResponse, error)
	UpdateInboxSources(ctx context.Context, req *UpdateInboxSourcesRequest) error

	// RunSetup provisions the chat-service side of the integration:
	// label, macro, webhook and the correlation attribute definitions.
	// Every step runs even when earlier ones fail.
	RunSetup(ctx context.Context, webhookURL string) (*SetupResponse, error)
}

type useCaseImpl struct {
	chatwoot ports.ChatwootClient
	settings ports.SettingsStore
	logger   *logger.Logger
}

func NewUseCase(chatwootClient ports.ChatwootClient, settings ports.SettingsStore, appLogger *logger.Logger) UseCase {
	return &useCaseImpl{
		chatwoot: chatwootClient,
		settings: settings,
		logger:   appLogger.WithModule("setup"),
	}
}

func (uc *useCaseImpl) GetSettings(ctx context.Context) (*SettingsResponse, error) {
	s, err := uc.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return toResponse(s), nil
}

func (uc *useCaseImpl) UpdateSettings(ctx context.Context, req *UpdateSettingsRequest) (*SettingsResponse, error) {
	s, err := uc.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	credentialsChanged := false
	if req.URL != nil && *req.URL != s.URL {
		s.URL = *req.URL
		credentialsChanged = true
	}
	if req.APIKey != nil && *req.APIKey != s.APIKey {
		s.APIKey = *req.APIKey
		credentialsChanged = true
	}
	if req.DefaultAssignedUser != nil {
		s.DefaultAssignedUser = *req.DefaultAssignedUser
	}

	// New credentials may point at a different account; stale caches
	// would silently mix accounts.
	if credentialsChanged {
		s.AccountID = 0
		s.IntegrationSetup = false
		s.InboxNames = map[int]string{}
	}

	if err := uc.settings.Save(ctx, s); err != nil {
		return nil, err
	}

	uc.logger.InfoWithFields("settings updated", map[string]interface{}{
		"credentials_changed": credentialsChanged,
	})
	return toResponse(s), nil
}

func (uc *useCaseImpl) ListInboxes(ctx context.Context, refresh bool) ([]InboxResponse, error) {
	inboxes, err := uc.chatwoot.ListInboxes(ctx, refresh)
	if err != nil {
		return nil, err
	}

	s, err := uc.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]InboxResponse, 0, len(inboxes))
	for _, inbox := range inboxes {
		out = append(out, InboxResponse{
			ID:          inbox.ID,
			Name:        inbox.Name,
			ChannelType: inbox.ChannelType,
			Source:      s.InboxSource(inbox.ID),
		})
	}
	return out, nil
}

func (uc *useCaseImpl) UpdateInboxSources(ctx context.Context, req *UpdateInboxSourcesRequest) error {
	s, err := uc.settings.Get(ctx)
	if err != nil {
		return err
	}
	if s.InboxSources == nil {
		s.InboxSources = map[int]string{}
	}
	for inboxID, source := range req.Sources {
		if source == "" {
			delete(s.InboxSources, inboxID)
			continue
		}
		s.InboxSources[inboxID] = source
	}
	return uc.settings.Save(ctx, s)
}

// correlationAttributes are the custom attribute definitions the bridge
// installs. IDs are numbers, permalinks are links.
var correlationAttributes = []struct {
	Model       int
	Key         string
	DisplayType string
	DisplayName string
}{
	{ports.AttributeModelContact, "crm_contact_id", "number", "CRM Contact ID"},
	{ports.AttributeModelContact, "crm_contact_url", "link", "CRM Contact"},
	{ports.AttributeModelConversation, "crm_conversation_id", "number", "CRM Conversation ID"},
	{ports.AttributeModelConversation, "crm_conversation_url", "link", "CRM Conversation"},
}

func (uc *useCaseImpl) RunSetup(ctx context.Context, webhookURL string) (*SetupResponse, error) {
	accountID, err := uc.chatwoot.ResolveAccountID(ctx, true)
	if err != nil {
		return nil, err
	}

	resp := &SetupResponse{AccountID: accountID, Completed: true}
	record := func(step string, err error) {
		result := SetupStepResult{Step: step, Success: err == nil}
		if err != nil {
			result.Error = err.Error()
			resp.Completed = false
			uc.logger.WithError(err).ErrorWithFields("setup step failed", map[string]interface{}{
				"step": step,
			})
		}
		resp.Steps = append(resp.Steps, result)
	}

	record("label", uc.chatwoot.ProvisionLabel(ctx, accountID))
	record("macro", uc.chatwoot.ProvisionMacro(ctx, accountID, webhookURL))
	record("webhook", uc.chatwoot.ProvisionWebhook(ctx, accountID, webhookURL))
	for _, attr := range correlationAttributes {
		record(fmt.Sprintf("attribute:%s", attr.Key),
			uc.chatwoot.ProvisionCustomAttribute(ctx, accountID, attr.Model, attr.Key, attr.DisplayType, attr.DisplayName))
	}

	if resp.Completed {
		s, err := uc.settings.Get(ctx)
		if err != nil {
			return nil, err
		}
		s.IntegrationSetup = true
		if err := uc.settings.Save(ctx, s); err != nil {
			return nil, err
		}
	}

	uc.logger.InfoWithFields("integration setup finished", map[string]interface{}{
		"account_id": accountID,
		"completed":  resp.Completed,
	})
	return resp, nil
}

func toResponse(s *ports.Settings) *SettingsResponse {
	sources := s.InboxSources
	if sources == nil {
		sources = map[int]string{}
	}
	return &SettingsResponse{
		URL:                 s.URL,
		APIKeySet:           s.APIKey != "",
		AccountID:           s.AccountID,
		IntegrationSetup:    s.IntegrationSetup,
		DefaultAssignedUser: s.DefaultAssignedUser,
		InboxSources:        sources,
	}
}
