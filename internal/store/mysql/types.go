package mysql

import (
	"time"

	"github.com/shaibs3/groupdir/internal/db"
)

type GormGroup struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	Title        string    `gorm:"type:varchar(255);not null"`
	Description  string    `gorm:"type:text;not null"`
	WhatsappLink string    `gorm:"type:varchar(512);not null"`
	Category     string    `gorm:"type:varchar(32);index;not null"`
	Country      string    `gorm:"type:varchar(8);index;not null"`
	ImageURL     *string   `gorm:"type:varchar(1024)"`
	ViewCount    int64     `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"index;not null"`
}

func (GormGroup) TableName() string {
	return "whatsapp_groups"
}

func (g GormGroup) toModel() db.Group {
	return db.Group{
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

func fromModel(g *db.Group) GormGroup {
	return GormGroup{
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

type GormUser struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	Username string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Password string `gorm:"type:varchar(100);not null"`
}

func (GormUser) TableName() string {
	return "users"
}
