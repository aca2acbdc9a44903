package backend

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"vendas/internal/source/api"
	"vendas/internal/source/memory"
	"vendas/internal/source/sheets"
	"vendas/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case APIBackend:
		return f.createAPIBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, errors.Newf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) apiClient(config Config) (*api.Client, error) {
	client, err := api.New(config.APIURL, config.HTTPTimeout, api.WithLogger(f.logger))
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize products API client")
	}
	return client, nil
}

func (f *DefaultFactory) createAPIBackend(config Config) (*BackendResult, error) {
	client, err := f.apiClient(config)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Initialized products API backend", "url", config.APIURL, "timeout", config.HTTPTimeout)

	return &BackendResult{Source: client}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	client, err := f.apiClient(config)
	if err != nil {
		return nil, err
	}

	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize SQLite repository")
	}

	dbPath := config.SQLiteDBPath
	if dbPath == "" {
		dbPath = storage.MemoryDSN
	}
	f.logger.Info("Initialized SQLite snapshot backend", "db_path", dbPath, "upstream", config.APIURL)

	return &BackendResult{
		Source:      sqliteRepo,
		Upstream:    client,
		Snapshot:    sqliteRepo,
		Ping:        sqliteRepo.Ping,
		LastRefresh: sqliteRepo.LastRefresh,
		Cleanup:     sqliteRepo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Google Sheets client")
	}

	f.logger.Info("Initialized Google Sheets backend",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"sheet", config.GoogleSheetName)

	return &BackendResult{Source: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.DataFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load memory backend data")
	}

	f.logger.Info("Initialized memory backend", "data_file", config.DataFile, "records", store.Len())

	return &BackendResult{Source: store}, nil
}
