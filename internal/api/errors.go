package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/boxofficeapp/boxoffice-server/internal/errors"
	"github.com/boxofficeapp/boxoffice-server/internal/store"
)

// APIError carries a domain error over HTTP. It implements
// huma.StatusError so handlers can return domain errors directly and
// get a consistent response shape.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

func (e *APIError) Error() string { return e.Message }

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int { return e.status }

// ContentType pins error responses to plain JSON regardless of what
// content type the request negotiated.
func (e *APIError) ContentType(_ string) string { return "application/json" }

// RegisterErrorHandler replaces huma's error constructor so that domain
// and store errors surface with their own status and code instead of
// the generic 500. Call it once, before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}

			if isNotFoundError(err) {
				return &APIError{
					status:  http.StatusNotFound,
					Code:    string(domainerrors.CodeNotFound),
					Message: err.Error(),
				}
			}
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
	}
}

// isNotFoundError reports whether err is a "not found" from the store.
// Any store.Error carrying a 404 counts, wrapped or not, plus the
// plain sentinels the session and cart paths return.
func isNotFoundError(err error) bool {
	var storeErr *store.Error
	if errors.As(err, &storeErr) && storeErr.HTTPCode() == http.StatusNotFound {
		return true
	}

	return errors.Is(err, store.ErrUserNotFound) ||
		errors.Is(err, store.ErrSessionNotFound) ||
		errors.Is(err, store.ErrCartNotFound)
}

// statusToCode picks the domain error code for a bare HTTP status.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusForbidden:
		return string(domainerrors.CodeForbidden)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	default:
		return string(domainerrors.CodeInternal)
	}
}
