package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/boxofficeapp/boxoffice-server/internal/config"
	"github.com/boxofficeapp/boxoffice-server/internal/logger"
	"github.com/boxofficeapp/boxoffice-server/internal/store"
	"github.com/boxofficeapp/boxoffice-server/internal/store/sqlite"
)

// StoreHandle wraps the badger store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the user and session store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "db")
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("User store initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// CatalogStoreHandle wraps the sqlite catalog store with shutdown capability.
type CatalogStoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *CatalogStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideCatalogStore provides the sqlite catalog store holding
// organizers, events, items, and quotas.
func ProvideCatalogStore(i do.Injector) (*CatalogStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Data.BasePath, "catalog.db")
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Catalog store initialized", "path", dbPath)

	return &CatalogStoreHandle{Store: db}, nil
}
