package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/sandpad/internal/domain/boundary"
	"github.com/GriffinCanCode/sandpad/internal/domain/workspace"
	"github.com/GriffinCanCode/sandpad/internal/shared/types"
	"github.com/GriffinCanCode/sandpad/internal/templates"
)

// Kinds that exist only at the transport layer
const (
	kindErrored     types.ErrorKind = "errored"
	kindTooLarge    types.ErrorKind = "too_large"
	kindBadRequest  types.ErrorKind = "bad_request"
	kindNoWorkspace types.ErrorKind = "workspace_not_found"
	kindBadTemplate types.ErrorKind = "invalid_template"
	kindUnsupported types.ErrorKind = "unsupported_format"
)

var errTooLarge = errors.New("content exceeds the file size limit")

// classify maps err onto a status code and kind
func classify(err error) (int, types.ErrorKind) {
	switch {
	case errors.Is(err, boundary.ErrErrored):
		return http.StatusConflict, kindErrored
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge, kindTooLarge
	case errors.Is(err, templates.ErrUnsupportedFormat):
		return http.StatusBadRequest, kindUnsupported
	case errors.Is(err, templates.ErrInvalidTemplate):
		return http.StatusBadRequest, kindBadTemplate
	}

	switch kind := workspace.KindOf(err); kind {
	case types.KindInvalidPath:
		return http.StatusBadRequest, kind
	case types.KindNotFound:
		return http.StatusNotFound, kind
	default:
		return http.StatusInternalServerError, types.KindInternal
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "kind": kind})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "kind": kindBadRequest})
}
