package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/logger"
)

// Messages the catalog front-end matches on. Validation messages come from
// the catalog service.
const (
	msgNoBook        = "no book exists"
	msgDeleted       = "delete successful"
	msgAllDeleted    = "complete delete successful"
	msgInternalError = "internal server error"
)

// ErrorResponse is the error format of the JSON management endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// respondCatalogError answers a failed catalog operation with a plain-text
// body and the status of the error's kind. Validation errors carry their own
// message, not-found errors the front-end's "no book exists".
func respondCatalogError(c *gin.Context, log *logger.Logger, err error, op string) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Storage(op, err)
	}

	status := appErr.Kind.HTTPStatus()
	switch appErr.Kind {
	case apperr.KindValidation:
		c.String(status, appErr.Message)
	case apperr.KindNotFound:
		c.String(status, msgNoBook)
	default:
		log.Error("Internal error", "op", op, "error", err)
		c.String(status, msgInternalError)
	}
}

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, log *logger.Logger, err error, context string) {
	log.Error("Internal error", "op", context, "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternalError, Code: string(apperr.KindOf(err))})
}
