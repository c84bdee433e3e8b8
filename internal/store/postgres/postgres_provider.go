package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shaibs3/groupdir/internal/db"
	"github.com/shaibs3/groupdir/internal/store/shared"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

type PostgresProvider struct {
	db     *sql.DB
	logger *zap.Logger
	cb     *gobreaker.CircuitBreaker
	now    func() time.Time
}

func NewPostgresProvider(config shared.DbProviderConfig, logger *zap.Logger) (*PostgresProvider, error) {
	pgLogger := logger.Named("postgres")

	connStr, err := config.StringDetail("conn_str")
	if err != nil {
		return nil, err
	}
	pgLogger.Info("initializing Postgres provider")

	dbConn, err := sql.Open("postgres", connStr)
	if err != nil {
		pgLogger.Error("failed to open Postgres connection", zap.Error(err))
		return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DurationDetail("connect_timeout_seconds", 10*time.Second))
	defer cancel()

	if err := dbConn.PingContext(ctx); err != nil {
		pgLogger.Error("failed to ping Postgres", zap.Error(err))
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	// Automatically create tables if they do not exist
	if _, err := dbConn.ExecContext(ctx, db.Schema); err != nil {
		pgLogger.Error("failed to create initial tables", zap.Error(err))
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to create initial tables: %w", err)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "PostgresDB",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
	})

	pgLogger.Info("Postgres provider initialized successfully")
	return &PostgresProvider{
		db:     dbConn,
		logger: pgLogger,
		cb:     cb,
		now:    time.Now,
	}, nil
}

// exec runs a write through the circuit breaker without retrying, so a write
// whose acknowledgement was lost is never applied twice
func (p *PostgresProvider) exec(fn func() error) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// read runs a query through the circuit breaker and retries it with backoff
func (p *PostgresProvider) read(ctx context.Context, name string, fn func() (interface{}, error)) (interface{}, error) {
	var result interface{}
	var opErr error
	_ = retry.Do(
		func() error {
			res, err := p.cb.Execute(fn)
			if err == nil {
				result = res
			}
			opErr = err
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Warn("retrying "+name, zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	return result, opErr
}

func (p *PostgresProvider) readGroups(ctx context.Context, name string, fn func() ([]db.Group, error)) ([]db.Group, error) {
	res, err := p.read(ctx, name, func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", name, err)
	}
	return res.([]db.Group), nil
}

func (p *PostgresProvider) CreateGroup(ctx context.Context, in db.GroupInput) (*db.Group, error) {
	g := db.NewGroup(uuid.NewString(), in, p.now().UTC().Truncate(time.Microsecond))
	if err := p.exec(func() error { return db.InsertGroup(ctx, p.db, g) }); err != nil {
		return nil, fmt.Errorf("failed to insert group: %w", err)
	}
	return g, nil
}

func (p *PostgresProvider) GetGroup(ctx context.Context, id string) (*db.Group, error) {
	res, err := p.read(ctx, "get group", func() (interface{}, error) {
		return db.GetGroupByID(ctx, p.db, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return res.(*db.Group), nil
}

func (p *PostgresProvider) ListGroups(ctx context.Context) ([]db.Group, error) {
	return p.readGroups(ctx, "list groups", func() ([]db.Group, error) {
		return db.ListGroups(ctx, p.db)
	})
}

func (p *PostgresProvider) ListGroupsByCategory(ctx context.Context, category string) ([]db.Group, error) {
	return p.readGroups(ctx, "list groups by category", func() ([]db.Group, error) {
		return db.ListGroupsByCategory(ctx, p.db, category)
	})
}

func (p *PostgresProvider) ListGroupsByCountry(ctx context.Context, country string) ([]db.Group, error) {
	return p.readGroups(ctx, "list groups by country", func() ([]db.Group, error) {
		return db.ListGroupsByCountry(ctx, p.db, country)
	})
}

func (p *PostgresProvider) SearchGroups(ctx context.Context, query string) ([]db.Group, error) {
	return p.readGroups(ctx, "search groups", func() ([]db.Group, error) {
		return db.SearchGroups(ctx, p.db, query)
	})
}

func (p *PostgresProvider) IncrementViewCount(ctx context.Context, id string) error {
	if err := p.exec(func() error { return db.IncrementViewCount(ctx, p.db, id) }); err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

func (p *PostgresProvider) CreateUser(ctx context.Context, in db.UserInput) (*db.User, error) {
	hash, err := db.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u := &db.User{ID: uuid.NewString(), Username: in.Username, Password: hash}
	err = p.exec(func() error { return db.InsertUser(ctx, p.db, u) })
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return nil, shared.ErrDuplicateUsername
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

func (p *PostgresProvider) GetUser(ctx context.Context, id string) (*db.User, error) {
	return p.getUserBy(ctx, "id", id)
}

func (p *PostgresProvider) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	return p.getUserBy(ctx, "username", username)
}

func (p *PostgresProvider) getUserBy(ctx context.Context, column, value string) (*db.User, error) {
	res, err := p.read(ctx, "get user", func() (interface{}, error) {
		return db.GetUserBy(ctx, p.db, column, value)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return res.(*db.User), nil
}

func (p *PostgresProvider) Close() error {
	return p.db.Close()
}
