package config

import "path/filepath"

// StorageConfig describes the two persistence tiers: PostgreSQL as the
// primary store and a local SQLite file as the secondary fallback.
type StorageConfig interface {
	GetDatabaseURL() string
	GetSQLitePath() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}

func (Storage) GetSQLitePath() string {
	path := GetEnv("SQLITE_PATH", "")
	if path != "" {
		return path
	}
	return filepath.Join(EnvVars{}.GetDataFolder(), "epass.db")
}
