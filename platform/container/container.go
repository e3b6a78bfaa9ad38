package container

import (
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"cwbridge/internal/app/setup"
	appsync "cwbridge/internal/app/sync"
	"cwbridge/internal/domain/event"
	"cwbridge/internal/infra/integrations/chatwoot"
	"cwbridge/internal/infra/integrations/crm"
	"cwbridge/internal/infra/integrations/openai"
	"cwbridge/internal/infra/repository"
	"cwbridge/internal/ports"
	"cwbridge/platform/config"
	"cwbridge/platform/database"
	"cwbridge/platform/logger"
)

// Container is the dependency injection container. Everything is wired
// once at startup; the HTTP layer only sees the use cases.
type Container struct {
	config   *config.Config
	logger   *logger.Logger
	database *database.Database

	settingsStore  ports.SettingsStore
	chatwootClient ports.ChatwootClient
	crmClient      ports.CRM
	enricher       ports.Enricher
	normalizer     *event.Normalizer

	syncUseCase  appsync.UseCase
	setupUseCase setup.UseCase
}

type Config struct {
	AppConfig *config.Config
	Logger    *logger.Logger
	Database  *database.Database
}

func New(cfg *Config) (*Container, error) {
	container := &Container{
		config:   cfg.AppConfig,
		logger:   cfg.Logger,
		database: cfg.Database,
	}

	if err := container.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}

	cfg.Logger.Info("Dependency injection container initialized successfully")
	return container, nil
}

func (c *Container) initialize() error {
	c.logger.Debug("Initializing container...")

	// 1. Persisted settings, seeded from the environment on first run
	c.settingsStore = repository.NewSettingsRepository(
		c.database.DB,
		c.logger,
		c.config.Chatwoot.URL,
		c.config.Chatwoot.APIKey,
	)

	// 2. External clients
	chatwootClient := chatwoot.NewClient(c.settingsStore, c.logger)
	c.chatwootClient = chatwootClient
	c.crmClient = crm.NewClient(c.config, c.logger)

	// 3. AI enrichment, optional
	if enricher := openai.NewEnricher(c.config, c.logger); enricher != nil {
		c.enricher = enricher
		c.logger.Info("AI enrichment enabled")
	} else {
		c.logger.Info("AI enrichment disabled")
	}

	// 4. Payload normalizer, resolving inbox names through the client
	c.normalizer = event.NewNormalizer(chatwootClient, c.logger)

	// 5. Use cases
	c.syncUseCase = appsync.NewUseCase(
		c.chatwootClient,
		c.crmClient,
		c.enricher,
		c.settingsStore,
		c.normalizer,
		c.logger,
	)
	c.setupUseCase = setup.NewUseCase(
		c.chatwootClient,
		c.settingsStore,
		c.logger,
	)

	return nil
}

func (c *Container) GetDatabase() *database.Database {
	return c.database
}

func (c *Container) GetSettingsStore() ports.SettingsStore {
	return c.settingsStore
}

func (c *Container) GetSyncUseCase() appsync.UseCase {
	return c.syncUseCase
}

func (c *Container) GetSetupUseCase() setup.UseCase {
	return c.setupUseCase
}
