package middleware

import (
	"errors"
	"net/http"

	goIdentity "github.com/MrEthical07/goIdentity"
)

// Status maps an engine error to an HTTP status. denyStatus is used for
// [goIdentity.ErrUnauthorized]; zero means 403.
func Status(err error, denyStatus int) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, goIdentity.ErrInvalidToken),
		errors.Is(err, goIdentity.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, goIdentity.ErrUnauthorized):
		if denyStatus == 0 {
			return http.StatusForbidden
		}
		return denyStatus
	case errors.Is(err, goIdentity.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, goIdentity.ErrLoginThrottled):
		return http.StatusTooManyRequests
	case errors.Is(err, goIdentity.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes the status for err with a fixed body. Error details never reach
// the client.
func WriteError(w http.ResponseWriter, err error, denyStatus int) {
	status := Status(err, denyStatus)
	http.Error(w, http.StatusText(status), status)
}
