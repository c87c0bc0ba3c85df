package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/boxofficeapp/boxoffice-server/internal/api"
	"github.com/boxofficeapp/boxoffice-server/internal/config"
	"github.com/boxofficeapp/boxoffice-server/internal/logger"
	"github.com/boxofficeapp/boxoffice-server/internal/service"
)

// HTTPServerHandle wraps http.Server so the injector can drain it
// during shutdown, before the stores it serves from are closed.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer assembles the router from the registered services
// and starts listening in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Catalog: do.MustInvoke[*service.CatalogService](i),
		Presale: do.MustInvoke[*service.PresaleService](i),
		Session: do.MustInvoke[*service.SessionService](i),
		Search:  do.MustInvoke[*service.SearchService](i),
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewServer(cfg, storeHandle.Store, services, log.Logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
