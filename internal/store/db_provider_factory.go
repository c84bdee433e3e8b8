package store

import (
	"encoding/json"
	"fmt"

	"github.com/shaibs3/groupdir/internal/store/mongodb"
	"github.com/shaibs3/groupdir/internal/store/mysql"
	"github.com/shaibs3/groupdir/internal/store/postgres"
	"github.com/shaibs3/groupdir/internal/store/shared"
	"github.com/shaibs3/groupdir/internal/telemetry"
	"go.uber.org/zap"
)

// ProviderFactory defines the interface for creating database providers
type ProviderFactory interface {
	CreateProvider(configJSON string) (DbProvider, error)
}

// DbProviderFactory implements ProviderFactory for creating database providers
type DbProviderFactory struct {
	logger    *zap.Logger
	telemetry *telemetry.Telemetry
}

func NewDbProviderFactory(logger *zap.Logger, tel *telemetry.Telemetry) *DbProviderFactory {
	return &DbProviderFactory{
		logger:    logger.Named("factory"),
		telemetry: tel,
	}
}

// CreateProvider builds the backend named by configJSON. An empty string
// selects the in-memory provider. When telemetry is configured the provider
// comes back wrapped by Instrument.
func (f *DbProviderFactory) CreateProvider(configJSON string) (DbProvider, error) {
	config := shared.DbProviderConfig{DbType: shared.DbTypeMemory}
	if configJSON != "" {
		if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
			return nil, fmt.Errorf("failed to parse database configuration JSON: %w", err)
		}
	}

	f.logger.Info("creating database provider", zap.String("db_type", config.DbType.String()))

	if !config.DbType.IsValid() {
		return nil, fmt.Errorf("unsupported database type: %s", config.DbType)
	}

	provider, err := f.create(config)
	if err != nil {
		return nil, err
	}
	if f.telemetry == nil {
		return provider, nil
	}
	instrumented, err := Instrument(provider, f.telemetry.Meter)
	if err != nil {
		_ = provider.Close()
		return nil, err
	}
	return instrumented, nil
}

func (f *DbProviderFactory) create(config shared.DbProviderConfig) (DbProvider, error) {
	// Concrete constructors return typed nil pointers on failure, so the
	// error is checked before converting to the interface
	switch config.DbType {
	case shared.DbTypePostgres:
		p, err := postgres.NewPostgresProvider(config, f.logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case shared.DbTypeMySQL:
		p, err := mysql.NewMySQLProvider(config, f.logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case shared.DbTypeMongo:
		p, err := mongodb.NewMongoProvider(config, f.logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case shared.DbTypeMemory:
		f.logger.Info("Using InMemoryProvider for DB")
		return NewInMemoryProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.DbType)
	}
}
