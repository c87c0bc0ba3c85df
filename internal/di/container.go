// Package di wires the BoxOffice server together with samber/do.
// Providers are lazy; Bootstrap forces construction in dependency
// order so startup failures surface before the process reports ready.
package di

import (
	"github.com/samber/do/v2"

	"github.com/boxofficeapp/boxoffice-server/internal/auth"
	"github.com/boxofficeapp/boxoffice-server/internal/config"
	"github.com/boxofficeapp/boxoffice-server/internal/di/providers"
	"github.com/boxofficeapp/boxoffice-server/internal/logger"
	"github.com/boxofficeapp/boxoffice-server/internal/service"
)

// NewContainer registers every provider on a fresh injector.
func NewContainer() *do.RootScope {
	injector := do.New()

	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCatalogStore)

	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	do.Provide(injector, providers.ProvideTokenService)

	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvidePresaleService)
	do.Provide(injector, providers.ProvideCatalogService)

	do.Provide(injector, providers.ProvideSessionCleanupJob)

	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap invokes every registered service. The HTTP server comes
// last so it never accepts a request before the stores and services
// behind it exist.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.CatalogStoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.PresaleService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.SearchService](injector)

	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
