package shared

import (
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateUsername is returned by CreateUser when the username is taken
var ErrDuplicateUsername = errors.New("a user with this username already exists")

// DbType names a storage backend
type DbType string

const (
	DbTypeMemory   DbType = "memory"
	DbTypePostgres DbType = "postgres"
	DbTypeMySQL    DbType = "mysql"
	DbTypeMongo    DbType = "mongo"
)

func (t DbType) String() string {
	return string(t)
}

// IsValid reports whether t is a supported backend
func (t DbType) IsValid() bool {
	switch t {
	case DbTypeMemory, DbTypePostgres, DbTypeMySQL, DbTypeMongo:
		return true
	}
	return false
}

// DbProviderConfig is the JSON document selecting and configuring a backend
type DbProviderConfig struct {
	DbType       DbType                 `json:"db_type"`
	ExtraDetails map[string]interface{} `json:"extra_details"`
}

// StringDetail returns a required string entry from ExtraDetails
func (c DbProviderConfig) StringDetail(key string) (string, error) {
	v, ok := c.ExtraDetails[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s is required for %s provider", key, c.DbType)
	}
	return v, nil
}

// DurationDetail reads a number of seconds from ExtraDetails, falling back to def
func (c DbProviderConfig) DurationDetail(key string, def time.Duration) time.Duration {
	// encoding/json decodes numbers into float64
	if v, ok := c.ExtraDetails[key].(float64); ok && v > 0 {
		return time.Duration(v * float64(time.Second))
	}
	return def
}
