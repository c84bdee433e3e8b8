package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaibs3/groupdir/internal/db"
	"github.com/shaibs3/groupdir/internal/store/shared"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const newestFirst = "created_at DESC, id DESC"

type MySQLProvider struct {
	gormDB *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewMySQLProvider(config shared.DbProviderConfig, logger *zap.Logger) (*MySQLProvider, error) {
	myLogger := logger.Named("mysql")

	connStr, err := config.StringDetail("conn_str")
	if err != nil {
		return nil, err
	}
	myLogger.Info("initializing MySQL provider")

	gormDB, err := gorm.Open(mysql.Open(connStr), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open GORM connection: %w", err)
	}
	if err := gormDB.AutoMigrate(&GormGroup{}, &GormUser{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate: %w", err)
	}

	myLogger.Info("MySQL provider initialized successfully")
	return &MySQLProvider{
		gormDB: gormDB,
		logger: myLogger,
		now:    time.Now,
	}, nil
}

func (p *MySQLProvider) CreateGroup(ctx context.Context, in db.GroupInput) (*db.Group, error) {
	g := db.NewGroup(uuid.NewString(), in, p.now().UTC().Truncate(time.Millisecond))
	row := fromModel(g)
	if err := p.gormDB.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to insert group: %w", err)
	}
	return g, nil
}

func (p *MySQLProvider) GetGroup(ctx context.Context, id string) (*db.Group, error) {
	var row GormGroup
	err := p.gormDB.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	g := row.toModel()
	return &g, nil
}

func (p *MySQLProvider) ListGroups(ctx context.Context) ([]db.Group, error) {
	return p.find(p.gormDB.WithContext(ctx))
}

func (p *MySQLProvider) ListGroupsByCategory(ctx context.Context, category string) ([]db.Group, error) {
	return p.find(p.gormDB.WithContext(ctx).Where("category = ?", category))
}

func (p *MySQLProvider) ListGroupsByCountry(ctx context.Context, country string) ([]db.Group, error) {
	return p.find(p.gormDB.WithContext(ctx).Where("country = ?", country))
}

// SearchGroups uses LOCATE so that % and _ in the query are literal
func (p *MySQLProvider) SearchGroups(ctx context.Context, query string) ([]db.Group, error) {
	return p.find(p.gormDB.WithContext(ctx).
		Where("LOCATE(LOWER(?), LOWER(title)) > 0 OR LOCATE(LOWER(?), LOWER(description)) > 0", query, query))
}

// IncrementViewCount uses UpdateColumn + gorm.Expr for an atomic increment
func (p *MySQLProvider) IncrementViewCount(ctx context.Context, id string) error {
	err := p.gormDB.WithContext(ctx).Model(&GormGroup{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

func (p *MySQLProvider) CreateUser(ctx context.Context, in db.UserInput) (*db.User, error) {
	hash, err := db.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	row := GormUser{ID: uuid.NewString(), Username: in.Username, Password: hash}
	err = p.gormDB.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, shared.ErrDuplicateUsername
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &db.User{ID: row.ID, Username: row.Username, Password: row.Password}, nil
}

func (p *MySQLProvider) GetUser(ctx context.Context, id string) (*db.User, error) {
	return p.firstUser(ctx, "id = ?", id)
}

func (p *MySQLProvider) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	return p.firstUser(ctx, "username = ?", username)
}

func (p *MySQLProvider) Close() error {
	sqlDB, err := p.gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *MySQLProvider) find(q *gorm.DB) ([]db.Group, error) {
	var rows []GormGroup
	if err := q.Order(newestFirst).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	groups := make([]db.Group, len(rows))
	for i, row := range rows {
		groups[i] = row.toModel()
	}
	return groups, nil
}

func (p *MySQLProvider) firstUser(ctx context.Context, cond string, value string) (*db.User, error) {
	var row GormUser
	err := p.gormDB.WithContext(ctx).First(&row, cond, value).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &db.User{ID: row.ID, Username: row.Username, Password: row.Password}, nil
}
