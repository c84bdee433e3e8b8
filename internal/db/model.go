package db

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Group is a listed WhatsApp group invite
type Group struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	WhatsappLink string    `db:"whatsapp_link" json:"whatsappLink"`
	Category     string    `db:"category" json:"category"`
	Country      string    `db:"country" json:"country"`
	ImageURL     *string   `db:"image_url" json:"imageUrl"`
	ViewCount    int64     `db:"view_count" json:"viewCount"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// GroupInput holds the client supplied fields of a new group
type GroupInput struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	WhatsappLink string  `json:"whatsappLink"`
	Category     string  `json:"category"`
	Country      string  `json:"country"`
	ImageURL     *string `json:"imageUrl,omitempty"`
}

// NewGroup builds a fresh group record from input. An empty image URL is stored as null.
func NewGroup(id string, in GroupInput, now time.Time) *Group {
	var image *string
	if in.ImageURL != nil && *in.ImageURL != "" {
		v := *in.ImageURL
		image = &v
	}
	return &Group{
		ID:           id,
		Title:        in.Title,
		Description:  in.Description,
		WhatsappLink: in.WhatsappLink,
		Category:     in.Category,
		Country:      in.Country,
		ImageURL:     image,
		ViewCount:    0,
		CreatedAt:    now,
	}
}

// User is an account record
type User struct {
	ID       string `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"-"`
}

// UserInput holds the fields of a new user; Password is plaintext
type UserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HashPassword returns the bcrypt hash stored in User.Password
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plaintext matches the stored hash
func (u *User) CheckPassword(plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plaintext)) == nil
}

// Schema is the SQL schema for the whatsapp_groups and users tables
const Schema = `
CREATE TABLE IF NOT EXISTS whatsapp_groups (
    id VARCHAR(36) PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    whatsapp_link TEXT NOT NULL,
    category TEXT NOT NULL,
    country TEXT NOT NULL,
    image_url TEXT,
    view_count BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS whatsapp_groups_category_idx ON whatsapp_groups (category);
CREATE INDEX IF NOT EXISTS whatsapp_groups_country_idx ON whatsapp_groups (country);
CREATE INDEX IF NOT EXISTS whatsapp_groups_created_at_idx ON whatsapp_groups (created_at DESC);

CREATE TABLE IF NOT EXISTS users (
    id VARCHAR(36) PRIMARY KEY,
    username TEXT UNIQUE NOT NULL,
    password TEXT NOT NULL
);
`
