package mongodb

import (
	"time"

	"github.com/shaibs3/groupdir/internal/db"
)

const (
	groupsCollection = "whatsapp_groups"
	usersCollection  = "users"

	fieldID        = "_id"
	fieldTitle     = "title"
	fieldDesc      = "description"
	fieldCategory  = "category"
	fieldCountry   = "country"
	fieldViewCount = "view_count"
	fieldCreatedAt = "created_at"
	fieldUsername  = "username"
)

type groupDoc struct {
	ID           string    `bson:"_id"`
	Title        string    `bson:"title"`
	Description  string    `bson:"description"`
	WhatsappLink string    `bson:"whatsapp_link"`
	Category     string    `bson:"category"`
	Country      string    `bson:"country"`
	ImageURL     *string   `bson:"image_url,omitempty"`
	ViewCount    int64     `bson:"view_count"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (d groupDoc) toModel() db.Group {
	return db.Group{
		ID:           d.ID,
		Title:        d.Title,
		Description:  d.Description,
		WhatsappLink: d.WhatsappLink,
		Category:     d.Category,
		Country:      d.Country,
		ImageURL:     d.ImageURL,
		ViewCount:    d.ViewCount,
		// Mongo keeps milliseconds in UTC
		CreatedAt: d.CreatedAt.UTC(),
	}
}

func fromModel(g *db.Group) groupDoc {
	return groupDoc{
		ID:           g.ID,
		Title:        g.Title,
		Description:  g.Description,
		WhatsappLink: g.WhatsappLink,
		Category:     g.Category,
		Country:      g.Country,
		ImageURL:     g.ImageURL,
		ViewCount:    g.ViewCount,
		CreatedAt:    g.CreatedAt,
	}
}

type userDoc struct {
	ID       string `bson:"_id"`
	Username string `bson:"username"`
	Password string `bson:"password"`
}

func (d userDoc) toModel() *db.User {
	return &db.User{ID: d.ID, Username: d.Username, Password: d.Password}
}
