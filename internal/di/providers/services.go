package providers

import (
	"github.com/samber/do/v2"

	"github.com/boxofficeapp/boxoffice-server/internal/auth"
	"github.com/boxofficeapp/boxoffice-server/internal/config"
	"github.com/boxofficeapp/boxoffice-server/internal/logger"
	"github.com/boxofficeapp/boxoffice-server/internal/service"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log), nil
}

// ProvidePresaleService provides the login page gateway service.
func ProvidePresaleService(i do.Injector) (*service.PresaleService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessions := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewPresaleService(storeHandle.Store, sessions, cfg.Presale.GlobalRegistration, log), nil
}

// ProvideCatalogService provides the shop catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	catalogHandle := do.MustInvoke[*CatalogStoreHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(catalogHandle.Store, storeHandle.Store, log), nil
}
