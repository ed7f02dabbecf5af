package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pactorhq/pactor/internal/httputil"
	"github.com/pactorhq/pactor/internal/metrics"
	"github.com/pactorhq/pactor/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeNotFound        = "not_found"
	ErrCodeInternalError   = "internal_error"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeForbidden       = "forbidden"
	ErrCodeConflict        = "conflict"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeValidationError = "validation_error"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps a service-layer error onto an HTTP response.
// Unknown errors are logged and surfaced as opaque 500s.
func respondServiceError(c *gin.Context, log *logrus.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrForbidden):
		respondError(c, http.StatusForbidden, ErrCodeForbidden, "missing required permission")
	case errors.Is(err, models.ErrContractNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "contract not found")
	case errors.Is(err, models.ErrVersionNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, "version not found")
	case errors.Is(err, models.ErrVersionConflict):
		respondError(c, http.StatusConflict, ErrCodeConflict, "contract was modified concurrently, refresh and retry")
	case errors.Is(err, models.ErrNoPendingApproval):
		respondError(c, http.StatusConflict, ErrCodeConflict, "no pending approval of the expected type")
	case errors.Is(err, models.ErrDuplicateKey):
		respondError(c, http.StatusConflict, ErrCodeConflict, "resource already exists")
	default:
		if ite, ok := models.IsInvalidTransition(err); ok {
			respondError(c, http.StatusConflict, ErrCodeConflict, ite.Error())
			return
		}

		log.WithError(err).Error("unhandled service error")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
