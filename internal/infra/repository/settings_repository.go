package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"cwbridge/internal/ports"
	"cwbridge/platform/logger"
)

type settingsRepository struct {
	db     *sqlx.DB
	logger *logger.Logger

	// Seed values applied when no row exists yet.
	seedURL    string
	seedAPIKey string
}

// NewSettingsRepository creates the persisted settings store. seedURL
// and seedAPIKey pre-fill the settings row on first access so a
// fully-env-configured deployment works without touching the admin API.
func NewSettingsRepository(db *sqlx.DB, log *logger.Logger, seedURL, seedAPIKey string) ports.SettingsStore {
	return &settingsRepository{
		db:         db,
		logger:     log.WithModule("settings"),
		seedURL:    seedURL,
		seedAPIKey: seedAPIKey,
	}
}

type settingsModel struct {
	UpdatedAt           time.Time `db:"updatedAt"`
	CreatedAt           time.Time `db:"createdAt"`
	Token               string    `db:"token"`
	URL                 string    `db:"url"`
	APIKey              string    `db:"apiKey"`
	DefaultAssignedUser string    `db:"defaultAssignedUser"`
	InboxSources        []byte    `db:"inboxSources"`
	InboxNames          []byte    `db:"inboxNames"`
	AccountID           int       `db:"accountId"`
	IntegrationSetup    bool      `db:"integrationSetup"`
}

func (r *settingsRepository) Get(ctx context.Context) (*ports.Settings, error) {
	var model settingsModel
	query := `SELECT * FROM "cwSettings" WHERE "token" = $1`

	err := r.db.GetContext(ctx, &model, query, ports.SettingsToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.seed(ctx)
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return r.fromModel(&model)
}

func (r *settingsRepository) Save(ctx context.Context, settings *ports.Settings) error {
	model, err := r.toModel(settings)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO "cwSettings" (
			"token", "url", "apiKey", "accountId", "integrationSetup",
			"defaultAssignedUser", "inboxSources", "inboxNames", "updatedAt"
		) VALUES (
			:token, :url, :apiKey, :accountId, :integrationSetup,
			:defaultAssignedUser, :inboxSources, :inboxNames, NOW()
		)
		ON CONFLICT ("token") DO UPDATE SET
			"url" = EXCLUDED."url",
			"apiKey" = EXCLUDED."apiKey",
			"accountId" = EXCLUDED."accountId",
			"integrationSetup" = EXCLUDED."integrationSetup",
			"defaultAssignedUser" = EXCLUDED."defaultAssignedUser",
			"inboxSources" = EXCLUDED."inboxSources",
			"inboxNames" = EXCLUDED."inboxNames",
			"updatedAt" = NOW()
	`

	if _, err := r.db.NamedExecContext(ctx, query, model); err != nil {
		r.logger.ErrorWithFields("Failed to save settings", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// seed inserts the initial row from env-provided credentials.
func (r *settingsRepository) seed(ctx context.Context) (*ports.Settings, error) {
	settings := &ports.Settings{
		URL:          r.seedURL,
		APIKey:       r.seedAPIKey,
		InboxSources: map[int]string{},
		InboxNames:   map[int]string{},
	}
	if err := r.Save(ctx, settings); err != nil {
		return nil, err
	}
	r.logger.Info("Seeded initial settings row")
	return settings, nil
}

func (r *settingsRepository) toModel(settings *ports.Settings) (*settingsModel, error) {
	sources, err := json.Marshal(orEmpty(settings.InboxSources))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inbox sources: %w", err)
	}
	names, err := json.Marshal(orEmpty(settings.InboxNames))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inbox names: %w", err)
	}

	return &settingsModel{
		Token:               ports.SettingsToken,
		URL:                 settings.URL,
		APIKey:              settings.APIKey,
		AccountID:           settings.AccountID,
		IntegrationSetup:    settings.IntegrationSetup,
		DefaultAssignedUser: settings.DefaultAssignedUser,
		InboxSources:        sources,
		InboxNames:          names,
	}, nil
}

func (r *settingsRepository) fromModel(model *settingsModel) (*ports.Settings, error) {
	settings := &ports.Settings{
		URL:                 model.URL,
		APIKey:              model.APIKey,
		AccountID:           model.AccountID,
		IntegrationSetup:    model.IntegrationSetup,
		DefaultAssignedUser: model.DefaultAssignedUser,
		InboxSources:        map[int]string{},
		InboxNames:          map[int]string{},
	}
	if len(model.InboxSources) > 0 {
		if err := json.Unmarshal(model.InboxSources, &settings.InboxSources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal inbox sources: %w", err)
		}
	}
	if len(model.InboxNames) > 0 {
		if err := json.Unmarshal(model.InboxNames, &settings.InboxNames); err != nil {
			return nil, fmt.Errorf("failed to unmarshal inbox names: %w", err)
		}
	}
	return settings, nil
}

func orEmpty(m map[int]string) map[int]string {
	if m == nil {
		return map[int]string{}
	}
	return m
}
