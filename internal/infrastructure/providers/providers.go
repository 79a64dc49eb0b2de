package providers

import (
	"github.com/bradfitz/gomemcache/memcache"
	"gorm.io/gorm"

	"github.com/nesafe/yatri/internal/config"
	"github.com/nesafe/yatri/internal/infrastructure/database"
	"github.com/nesafe/yatri/internal/infrastructure/repository"
	"github.com/nesafe/yatri/internal/usecase"
)

// NewDatabase opens a Postgres connection using the configured DSN.
func NewDatabase(conf config.Server) (*gorm.DB, error) {
	return database.NewPostgres(conf.PostgresDsn)
}

// MigrateDatabase applies migrations for the application models.
func MigrateDatabase(db *gorm.DB) error {
	return database.MigratePostgres(db)
}

// NewMemcache creates a memcache client.
func NewMemcache(addr string) *memcache.Client {
	return database.NewMemcached(addr)
}

// NewIssuanceLog selects the durable log when a DSN is configured and the
// in-process log otherwise. db may be nil in the latter case.
func NewIssuanceLog(conf config.Config, db *gorm.DB) usecase.IssuanceLog {
	if conf.Server.PostgresDsn != "" {
		return repository.NewPostgresIssuanceLog(db, conf.Issuer.IDPrefix, conf.Issuer.ConfirmDelayDuration)
	}
	return repository.NewMemoryIssuanceLog(conf.Issuer.IDPrefix, conf.Issuer.ConfirmDelayDuration)
}
