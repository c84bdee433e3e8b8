package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shaibs3/groupdir/internal/db"
	"github.com/shaibs3/groupdir/internal/store/shared"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const defaultDatabase = "groupdir"

type MongoProvider struct {
	client *mongo.Client
	groups *mongo.Collection
	users  *mongo.Collection
	logger *zap.Logger
	now    func() time.Time
}

func NewMongoProvider(config shared.DbProviderConfig, logger *zap.Logger) (*MongoProvider, error) {
	mgLogger := logger.Named("mongo")

	uri, err := config.StringDetail("uri")
	if err != nil {
		return nil, err
	}
	database, ok := config.ExtraDetails["database"].(string)
	if !ok || database == "" {
		database = defaultDatabase
	}
	mgLogger.Info("initializing Mongo provider", zap.String("database", database))

	ctx, cancel := context.WithTimeout(context.Background(), config.DurationDetail("connect_timeout_seconds", 10*time.Second))
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping Mongo: %w", err)
	}

	p := &MongoProvider{
		client: client,
		groups: client.Database(database).Collection(groupsCollection),
		users:  client.Database(database).Collection(usersCollection),
		logger: mgLogger,
		now:    time.Now,
	}
	if err := p.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	mgLogger.Info("Mongo provider initialized successfully")
	return p, nil
}

func (p *MongoProvider) ensureIndexes(ctx context.Context) error {
	collections := map[*mongo.Collection][]mongo.IndexModel{
		p.groups: {
			{Keys: bson.D{{Key: fieldCategory, Value: 1}}, Options: options.Index().SetName("ix_category")},
			{Keys: bson.D{{Key: fieldCountry, Value: 1}}, Options: options.Index().SetName("ix_country")},
			{Keys: bson.D{{Key: fieldCreatedAt, Value: -1}}, Options: options.Index().SetName("ix_created_at")},
		},
		p.users: {
			{Keys: bson.D{{Key: fieldUsername, Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_username")},
		},
	}
	for coll, indexes := range collections {
		if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (p *MongoProvider) CreateGroup(ctx context.Context, in db.GroupInput) (*db.Group, error) {
	// Truncated so the returned value matches what a later read decodes
	g := db.NewGroup(uuid.NewString(), in, p.now().UTC().Truncate(time.Millisecond))
	if _, err := p.groups.InsertOne(ctx, fromModel(g)); err != nil {
		return nil, fmt.Errorf("failed to insert group: %w", err)
	}
	return g, nil
}

func (p *MongoProvider) GetGroup(ctx context.Context, id string) (*db.Group, error) {
	var doc groupDoc
	err := p.groups.FindOne(ctx, bson.M{fieldID: id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	g := doc.toModel()
	return &g, nil
}

func (p *MongoProvider) ListGroups(ctx context.Context) ([]db.Group, error) {
	return p.find(ctx, bson.M{})
}

func (p *MongoProvider) ListGroupsByCategory(ctx context.Context, category string) ([]db.Group, error) {
	return p.find(ctx, bson.M{fieldCategory: category})
}

func (p *MongoProvider) ListGroupsByCountry(ctx context.Context, country string) ([]db.Group, error) {
	return p.find(ctx, bson.M{fieldCountry: country})
}

func (p *MongoProvider) SearchGroups(ctx context.Context, query string) ([]db.Group, error) {
	pattern := bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
	return p.find(ctx, bson.M{"$or": bson.A{
		bson.M{fieldTitle: pattern},
		bson.M{fieldDesc: pattern},
	}})
}

func (p *MongoProvider) IncrementViewCount(ctx context.Context, id string) error {
	_, err := p.groups.UpdateOne(ctx, bson.M{fieldID: id}, bson.M{"$inc": bson.M{fieldViewCount: 1}})
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

func (p *MongoProvider) CreateUser(ctx context.Context, in db.UserInput) (*db.User, error) {
	hash, err := db.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	doc := userDoc{ID: uuid.NewString(), Username: in.Username, Password: hash}
	_, err = p.users.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil, shared.ErrDuplicateUsername
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return doc.toModel(), nil
}

func (p *MongoProvider) GetUser(ctx context.Context, id string) (*db.User, error) {
	return p.findUser(ctx, bson.M{fieldID: id})
}

func (p *MongoProvider) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	return p.findUser(ctx, bson.M{fieldUsername: username})
}

func (p *MongoProvider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.client.Disconnect(ctx)
}

func (p *MongoProvider) find(ctx context.Context, filter bson.M) ([]db.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: fieldCreatedAt, Value: -1}, {Key: fieldID, Value: -1}})
	cur, err := p.groups.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer cur.Close(ctx)

	var docs []groupDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode groups: %w", err)
	}
	groups := make([]db.Group, len(docs))
	for i, d := range docs {
		groups[i] = d.toModel()
	}
	return groups, nil
}

func (p *MongoProvider) findUser(ctx context.Context, filter bson.M) (*db.User, error) {
	var doc userDoc
	err := p.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toModel(), nil
}
