package backend

import (
	"fmt"
	"os"

	"keuangan/internal/amqp"
	"keuangan/internal/config"
	"keuangan/internal/gateway/memory"
	"keuangan/internal/log"
	"keuangan/internal/storage"
)

type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	return &Factory{logger: logger}
}

// Create builds the gateway selected by DATA_BACKEND.
func (f *Factory) Create(cfg *config.Config) (*Result, error) {
	backendType := Type(cfg.DataBackend)
	if !backendType.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch backendType {
	case SQLiteBackend:
		return f.createSQLite(cfg)
	case MemoryBackend:
		return f.createMemory(cfg)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", backendType)
	}
}

func (f *Factory) createSQLite(cfg *config.Config) (*Result, error) {
	repo, err := storage.NewRepository(cfg.SQLiteDBPath, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("initialize SQLite repository: %w", err)
	}

	var amqpClient *amqp.Client
	if cfg.SyncEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync",
				log.FieldError, err.Error())
			amqpClient = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	result := &Result{Gateway: repo}
	if amqpClient != nil {
		result.Gateway = newSyncingGateway(repo, amqpClient)
	}
	result.Cleanup = func() error {
		if amqpClient != nil {
			amqpClient.Close()
		}
		return repo.Close()
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)
	return result, nil
}

func (f *Factory) createMemory(cfg *config.Config) (*Result, error) {
	store := memory.New(cfg.SessionTTL)

	// The memory backend starts empty, so seed one account for local use.
	email := os.Getenv("SEED_USER_EMAIL")
	if email == "" {
		email = "demo@keuangan.local"
	}
	password := os.Getenv("SEED_USER_PASSWORD")
	if password == "" {
		password = "demo12345"
	}
	if _, err := store.AddUser(email, password); err != nil {
		return nil, fmt.Errorf("seed memory backend user: %w", err)
	}

	f.logger.Info("Initialized memory backend", log.FieldEmail, email)
	return &Result{Gateway: store}, nil
}
