package providers

import (
	"encoding/hex"

	"github.com/samber/do/v2"

	"github.com/boxofficeapp/boxoffice-server/internal/auth"
	"github.com/boxofficeapp/boxoffice-server/internal/config"
	"github.com/boxofficeapp/boxoffice-server/internal/logger"
)

// AuthKey is the symmetric token key, distinct from []byte so the
// injector can resolve it by type.
type AuthKey []byte

// ProvideAuthKey loads the token key from the data directory, creating
// one on first start, and publishes it into the config for anything
// that reads cfg.Auth directly.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}
	cfg.Auth.AccessTokenKey = key

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
		"refresh_token_duration", cfg.Auth.RefreshTokenDuration,
	)
	return AuthKey(key), nil
}

// ProvideTokenService builds the PASETO token service from the loaded
// key and the configured token lifetimes.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(hex.EncodeToString(key), cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
}
