package api

import "github.com/boxofficeapp/boxoffice-server/internal/service"

// Services groups the service dependencies for the API server.
// This reduces the parameter count of NewServer and makes it easy to
// add services without changing signatures.
type Services struct {
	Catalog *service.CatalogService
	Presale *service.PresaleService
	Session *service.SessionService
	Search  *service.SearchService
}
