package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/poiesic/tradmap"
	"github.com/poiesic/tradmap/core"
	"github.com/poiesic/tradmap/engine"
	"github.com/poiesic/tradmap/search"
	"github.com/poiesic/tradmap/storage"
)

// errBadRequest marks request decoding and parameter failures.
var errBadRequest = errors.New("bad request")

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

// statusFor maps service errors onto HTTP statuses and error codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrInvalidConcept),
		errors.Is(err, core.ErrInvalidSystem),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, search.ErrEmptyQuery):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, engine.ErrNoCandidates):
		return http.StatusNotFound, "no_mapping"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict, "conflict"
	case errors.Is(err, tradmap.ErrMappingsUnavailable), errors.Is(err, tradmap.ErrKnowledgeUnavailable):
		return http.StatusNotImplemented, "not_configured"
	case engine.IsTransient(err):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		s.logger.Error("request failed", "path", c.FullPath(), keyRequestID, c.GetString(keyRequestID), "err", err)
		msg = "internal error"
	case http.StatusNotFound:
		if code == "no_mapping" {
			msg = engine.ErrNoCandidates.Error()
		}
	}
	c.AbortWithStatusJSON(status, errorEnvelope{Error: apiError{Message: msg, Code: code}})
}
