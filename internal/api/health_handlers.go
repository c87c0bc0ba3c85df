package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// HealthOutput wraps the health check response for Huma.
type HealthOutput struct {
	Body struct {
		Status string    `json:"status" doc:"Always ok when the server is up"`
		Name   string    `json:"name" doc:"Configured server name"`
		Time   time.Time `json:"time" doc:"Server time"`
	}
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{}
	out.Body.Status = "ok"
	out.Body.Name = s.config.Server.Name
	out.Body.Time = time.Now()
	return out, nil
}
