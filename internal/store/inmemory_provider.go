package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaibs3/groupdir/internal/db"
	"github.com/shaibs3/groupdir/internal/store/shared"
)

type memGroup struct {
	group db.Group
	seq   int64
}

type InMemoryProvider struct {
	mu      sync.RWMutex
	groups  map[string]*memGroup
	users   map[string]db.User
	nextSeq int64
	now     func() time.Time
}

// InMemoryOption configures an InMemoryProvider
type InMemoryOption func(*InMemoryProvider)

// WithClock replaces time.Now as the source of CreatedAt
func WithClock(now func() time.Time) InMemoryOption {
	return func(m *InMemoryProvider) {
		m.now = now
	}
}

func NewInMemoryProvider(opts ...InMemoryOption) *InMemoryProvider {
	m := &InMemoryProvider{
		groups: make(map[string]*memGroup),
		users:  make(map[string]db.User),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *InMemoryProvider) CreateGroup(ctx context.Context, in db.GroupInput) (*db.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := db.NewGroup(uuid.NewString(), in, m.now().UTC())
	m.nextSeq++
	m.groups[g.ID] = &memGroup{group: *g, seq: m.nextSeq}
	return g, nil
}

func (m *InMemoryProvider) GetGroup(ctx context.Context, id string) (*db.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.groups[id]
	if !ok {
		return nil, nil
	}
	g := copyGroup(rec.group)
	return &g, nil
}

func (m *InMemoryProvider) ListGroups(ctx context.Context) ([]db.Group, error) {
	return m.filter(func(db.Group) bool { return true }), nil
}

func (m *InMemoryProvider) ListGroupsByCategory(ctx context.Context, category string) ([]db.Group, error) {
	return m.filter(func(g db.Group) bool { return g.Category == category }), nil
}

func (m *InMemoryProvider) ListGroupsByCountry(ctx context.Context, country string) ([]db.Group, error) {
	return m.filter(func(g db.Group) bool { return g.Country == country }), nil
}

func (m *InMemoryProvider) SearchGroups(ctx context.Context, query string) ([]db.Group, error) {
	q := strings.ToLower(query)
	return m.filter(func(g db.Group) bool {
		return strings.Contains(strings.ToLower(g.Title), q) ||
			strings.Contains(strings.ToLower(g.Description), q)
	}), nil
}

func (m *InMemoryProvider) IncrementViewCount(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.groups[id]; ok {
		rec.group.ViewCount++
	}
	return nil
}

func (m *InMemoryProvider) CreateUser(ctx context.Context, in db.UserInput) (*db.User, error) {
	hash, err := db.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == in.Username {
			return nil, shared.ErrDuplicateUsername
		}
	}
	u := db.User{ID: uuid.NewString(), Username: in.Username, Password: hash}
	m.users[u.ID] = u
	return &u, nil
}

func (m *InMemoryProvider) GetUser(ctx context.Context, id string) (*db.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *InMemoryProvider) GetUserByUsername(ctx context.Context, username string) (*db.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *InMemoryProvider) Close() error {
	return nil
}

// filter returns copies of the matching groups, newest first. Equal
// timestamps fall back to insertion order, latest first.
func (m *InMemoryProvider) filter(keep func(db.Group) bool) []db.Group {
	m.mu.RLock()
	matched := make([]*memGroup, 0, len(m.groups))
	for _, rec := range m.groups {
		if keep(rec.group) {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.group.CreatedAt.Equal(b.group.CreatedAt) {
			return a.group.CreatedAt.After(b.group.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]db.Group, len(matched))
	for i, rec := range matched {
		out[i] = copyGroup(rec.group)
	}
	m.mu.RUnlock()
	return out
}

func copyGroup(g db.Group) db.Group {
	if g.ImageURL != nil {
		v := *g.ImageURL
		g.ImageURL = &v
	}
	return g
}
