package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poiesic/tradmap/batch"
	"github.com/poiesic/tradmap/core"
)

const (
	defaultListLimit = 50
	defaultRecent    = 10
	maxBatchRequests = 100
)

// mapRequest is a concept with its optional context data.
type mapRequest struct {
	core.Concept
	Context map[string]any `json:"context,omitempty"`
}

type createMappingResponse struct {
	Mapping *core.MappingResult `json:"mapping"`
	Wire    core.WireResult     `json:"wire"`
}

type batchRequest struct {
	Requests []mapRequest `json:"requests"`
	Save     bool         `json:"save"`
}

type batchItem struct {
	Index   int                 `json:"index"`
	Mapping *core.MappingResult `json:"mapping,omitempty"`
	Error   *apiError           `json:"error,omitempty"`
}

type statusRequest struct {
	Status      core.Status `json:"status"`
	ValidatedBy string      `json:"validatedBy"`
}

type saveConceptsRequest struct {
	Concepts []core.Concept `json:"concepts"`
}

type conceptHit struct {
	Concept core.Concept `json:"concept"`
	Score   float64      `json:"score"`
}

// bindConcept decodes a map request and canonicalizes its system name.
func bindConcept(c *gin.Context) (mapRequest, error) {
	var req mapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if err := canonicalSystem(&req.Concept); err != nil {
		return req, err
	}
	return req, nil
}

func canonicalSystem(concept *core.Concept) error {
	system, err := core.ParseSystem(string(concept.System))
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidConcept, err)
	}
	concept.System = system
	return nil
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMap(c *gin.Context) {
	req, err := bindConcept(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	result, err := s.svc.MapConcept(c.Request.Context(), req.Concept, req.Context)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result.Wire())
}

func (s *Server) handleCreateMapping(c *gin.Context) {
	req, err := bindConcept(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	result, err := s.svc.MapAndSave(c.Request.Context(), req.Concept, req.Context)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createMappingResponse{Mapping: result, Wire: result.Wire()})
}

func (s *Server) handleBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	if len(req.Requests) > maxBatchRequests {
		s.respondError(c, fmt.Errorf("%w: at most %d requests per batch", errBadRequest, maxBatchRequests))
		return
	}

	requests := make([]batch.Request, len(req.Requests))
	for i, r := range req.Requests {
		// an unknown system fails that request alone, in the engine
		if system, err := core.ParseSystem(string(r.System)); err == nil {
			r.System = system
		}
		requests[i] = batch.Request{Concept: r.Concept, Context: r.Context}
	}

	outcomes, err := s.svc.MapBatch(c.Request.Context(), requests, req.Save)
	if outcomes == nil && err != nil {
		s.respondError(c, err)
		return
	}

	items := make([]batchItem, len(outcomes))
	for i, o := range outcomes {
		items[i] = batchItem{Index: o.Index, Mapping: o.Result}
		if o.Err != nil {
			status, code := statusFor(o.Err)
			msg := o.Err.Error()
			if status == http.StatusInternalServerError {
				msg = "internal error"
			}
			items[i].Error = &apiError{Message: msg, Code: code}
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

func (s *Server) handleGetMapping(c *gin.Context) {
	result, err := s.svc.GetMapping(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	status := core.Status(strings.ToLower(strings.TrimSpace(string(req.Status))))
	result, err := s.svc.UpdateStatus(c.Request.Context(), c.Param("id"), status, req.ValidatedBy)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleUserMappings(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	mappings, err := s.svc.UserMappings(c.Request.Context(), c.Param("user"), limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if mappings == nil {
		mappings = []*core.MappingResult{}
	}
	c.JSON(http.StatusOK, gin.H{"mappings": mappings})
}

func (s *Server) handleUserAnalytics(c *gin.Context) {
	recent, err := queryInt(c, "recent", defaultRecent)
	if err != nil {
		s.respondError(c, err)
		return
	}
	summary, err := s.svc.UserAnalytics(c.Request.Context(), c.Param("user"), recent)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleSaveConcepts(c *gin.Context) {
	var req saveConceptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	if len(req.Concepts) == 0 {
		s.respondError(c, fmt.Errorf("%w: no concepts given", errBadRequest))
		return
	}
	for i := range req.Concepts {
		if err := canonicalSystem(&req.Concepts[i]); err != nil {
			s.respondError(c, err)
			return
		}
	}

	entries, err := s.svc.SaveConcepts(c.Request.Context(), req.Concepts...)
	if err != nil {
		s.respondError(c, err)
		return
	}
	saved := make([]core.Concept, len(entries))
	for i, entry := range entries {
		saved[i] = entry.Concept
	}
	c.JSON(http.StatusCreated, gin.H{"concepts": saved})
}

func (s *Server) handleSearchConcepts(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		s.respondError(c, err)
		return
	}
	var system core.System
	if raw := strings.TrimSpace(c.Query("system")); raw != "" {
		if system, err = core.ParseSystem(raw); err != nil {
			s.respondError(c, err)
			return
		}
	}

	matches, err := s.svc.SearchConcepts(c.Request.Context(), c.Query("q"), system, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	hits := make([]conceptHit, len(matches))
	for i, m := range matches {
		hits[i] = conceptHit{Concept: m.Entry.Concept, Score: m.Score}
	}
	c.JSON(http.StatusOK, gin.H{"results": hits})
}
