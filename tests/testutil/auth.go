package testutil

import (
	"time"

	"github.com/storehub/backend/internal/infrastructure/auth"
	"github.com/storehub/backend/internal/infrastructure/config"
)

// NewJWTService returns a JWT service with distinct test secrets
func NewJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-access-secret-with-32-characters",
		RefreshSecret:          "test-refresh-secret-with-32-characters",
		CatalogSecret:          "test-catalog-secret-with-32-characters",
		Issuer:                 "storehub-test",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		CatalogTokenExpiration: time.Hour,
	})
}
