package store

import "github.com/shaibs3/groupdir/internal/store/shared"

// Re-export shared types for convenience
type DbType = shared.DbType
type DbProviderConfig = shared.DbProviderConfig

// Re-export constants
const (
	DbTypeMemory   = shared.DbTypeMemory
	DbTypePostgres = shared.DbTypePostgres
	DbTypeMySQL    = shared.DbTypeMySQL
	DbTypeMongo    = shared.DbTypeMongo
)
