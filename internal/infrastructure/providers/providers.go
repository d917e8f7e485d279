package providers

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/one-zero-eight/omnidesk-portal/internal/config"
	"github.com/one-zero-eight/omnidesk-portal/internal/infrastructure/accounts"
	"github.com/one-zero-eight/omnidesk-portal/internal/infrastructure/database"
	"github.com/one-zero-eight/omnidesk-portal/internal/infrastructure/omnidesk"
	"github.com/one-zero-eight/omnidesk-portal/internal/service"
)

// NewDatabase opens a Postgres connection using the configured DSN.
func NewDatabase(conf config.Server) (*gorm.DB, error) {
	return database.NewPostgres(conf.PostgresDsn)
}

// MigrateDatabase applies migrations for the application models.
func MigrateDatabase(db *gorm.DB) error {
	return database.MigratePostgres(db)
}

// NewRedis connects the client used for realtime events.
func NewRedis(ctx context.Context, conf config.Server) (*redis.Client, error) {
	return database.NewRedis(ctx, conf.RedisAddr, conf.RedisPassword, conf.RedisDB)
}

// NewOmnidesk constructs the staff-authenticated Omnidesk client.
func NewOmnidesk(conf config.Config) *omnidesk.Client {
	return omnidesk.New(omnidesk.Options{
		BaseURL:       conf.Omnidesk.APIBaseURL(),
		StaffEmail:    conf.Omnidesk.StaffEmail,
		APIKey:        conf.Omnidesk.APIKey,
		Timeout:       conf.Server.RequestTimeout.Std(),
		UploadTimeout: conf.Server.UploadTimeout.Std(),
	})
}

// NewAccounts constructs the InNoHassle Accounts client.
func NewAccounts(conf config.Config) *accounts.Client {
	return accounts.New(conf.Accounts.APIURL, conf.Accounts.APIJWTToken, conf.Server.RequestTimeout.Std())
}

// NewSSO constructs the Omnidesk sign-in link issuer.
func NewSSO(conf config.Config) *service.SSOService {
	return service.NewSSOService(service.SSOConfig{
		JWTMarker:         conf.Omnidesk.JWTMarker,
		JWTAccessBaseURL:  conf.Omnidesk.JWTAccessBaseURL,
		DefaultRedirectTo: conf.Omnidesk.DefaultRedirectTo,
		Timeout:           conf.Server.RequestTimeout.Std(),
	})
}
