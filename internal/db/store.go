package db

import (
	"context"
	"database/sql"
	"errors"
)

// Queryer is satisfied by both *sql.DB and *sql.Tx
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const groupColumns = `id, title, description, whatsapp_link, category, country, image_url, view_count, created_at`

// InsertGroup inserts a new group row
func InsertGroup(ctx context.Context, q Queryer, g *Group) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO whatsapp_groups (`+groupColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		g.ID, g.Title, g.Description, g.WhatsappLink, g.Category, g.Country, g.ImageURL, g.ViewCount, g.CreatedAt,
	)
	return err
}

// GetGroupByID returns the group with the given id, or nil if there is none
func GetGroupByID(ctx context.Context, q Queryer, id string) (*Group, error) {
	row := q.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM whatsapp_groups WHERE id = $1`, id)
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ListGroups returns all groups, newest first
func ListGroups(ctx context.Context, q Queryer) ([]Group, error) {
	return queryGroups(ctx, q, `SELECT `+groupColumns+` FROM whatsapp_groups
		ORDER BY created_at DESC, id DESC`)
}

// ListGroupsByCategory returns groups in one category, newest first
func ListGroupsByCategory(ctx context.Context, q Queryer, category string) ([]Group, error) {
	return queryGroups(ctx, q, `SELECT `+groupColumns+` FROM whatsapp_groups
		WHERE category = $1
		ORDER BY created_at DESC, id DESC`, category)
}

// ListGroupsByCountry returns groups from one country, newest first
func ListGroupsByCountry(ctx context.Context, q Queryer, country string) ([]Group, error) {
	return queryGroups(ctx, q, `SELECT `+groupColumns+` FROM whatsapp_groups
		WHERE country = $1
		ORDER BY created_at DESC, id DESC`, country)
}

// SearchGroups matches query as a case-insensitive substring of title or description.
// strpos is used instead of ILIKE so that % and _ in the query are literal.
func SearchGroups(ctx context.Context, q Queryer, query string) ([]Group, error) {
	return queryGroups(ctx, q, `SELECT `+groupColumns+` FROM whatsapp_groups
		WHERE strpos(lower(title), lower($1)) > 0 OR strpos(lower(description), lower($1)) > 0
		ORDER BY created_at DESC, id DESC`, query)
}

// IncrementViewCount adds one to the view counter; unknown ids affect no rows
func IncrementViewCount(ctx context.Context, q Queryer, id string) error {
	_, err := q.ExecContext(ctx, `UPDATE whatsapp_groups SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

// InsertUser inserts a new user row
func InsertUser(ctx context.Context, q Queryer, u *User) error {
	_, err := q.ExecContext(ctx, `INSERT INTO users (id, username, password) VALUES ($1, $2, $3)`,
		u.ID, u.Username, u.Password)
	return err
}

// GetUserBy returns the user whose column matches value, or nil if there is none.
// column must be a trusted identifier.
func GetUserBy(ctx context.Context, q Queryer, column, value string) (*User, error) {
	var u User
	err := q.QueryRowContext(ctx, `SELECT id, username, password FROM users WHERE `+column+` = $1`, value).
		Scan(&u.ID, &u.Username, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*Group, error) {
	var g Group
	var image sql.NullString
	if err := row.Scan(&g.ID, &g.Title, &g.Description, &g.WhatsappLink, &g.Category, &g.Country,
		&image, &g.ViewCount, &g.CreatedAt); err != nil {
		return nil, err
	}
	if image.Valid {
		v := image.String
		g.ImageURL = &v
	}
	return &g, nil
}

func queryGroups(ctx context.Context, q Queryer, query string, args ...any) ([]Group, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *g)
	}
	return records, rows.Err()
}
