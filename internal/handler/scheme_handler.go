package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"agsa-server/internal/repository"
	"agsa-server/internal/service"
	"agsa-server/pkg/response"
)

// SchemeHandler handles scheme browsing and eligibility endpoints.
// Scheme data is public; these routes sit behind auth only so usage is
// attributable.
type SchemeHandler struct {
	schemeService *service.SchemeService
}

// NewSchemeHandler creates a SchemeHandler.
func NewSchemeHandler(schemeService *service.SchemeService) *SchemeHandler {
	return &SchemeHandler{schemeService: schemeService}
}

// List returns a filtered, paginated scheme listing.
// @Router /api/v1/schemes [get]
func (h *SchemeHandler) List(c *gin.Context) {
	filter := repository.SchemeFilter{
		Level:    c.Query("level"),
		Category: c.Query("category"),
		State:    c.Query("state"),
		Search:   c.Query("search"),
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.schemeService.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		internalError(c, err)
		return
	}
	response.Success(c, result)
}

// Detail returns one scheme by slug.
// @Router /api/v1/schemes/:slug [get]
func (h *SchemeHandler) Detail(c *gin.Context) {
	scheme, err := h.schemeService.Detail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrSchemeNotFound) {
			response.ErrorWithCode(c, 404, response.CodeSchemeNotFound, err.Error())
		} else {
			internalError(c, err)
		}
		return
	}
	response.Success(c, scheme)
}

// Documents returns the document checklist of a scheme.
// @Router /api/v1/schemes/:slug/documents [get]
func (h *SchemeHandler) Documents(c *gin.Context) {
	docs, err := h.schemeService.Documents(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrSchemeNotFound) {
			response.ErrorWithCode(c, 404, response.CodeSchemeNotFound, err.Error())
		} else {
			internalError(c, err)
		}
		return
	}
	response.Success(c, docs)
}

// ByCategory returns the schemes of one category, paginated.
// @Router /api/v1/schemes/categories/:category [get]
func (h *SchemeHandler) ByCategory(c *gin.Context) {
	filter := repository.SchemeFilter{
		Category: c.Param("category"),
		Level:    c.Query("level"),
		State:    c.Query("state"),
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.schemeService.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		internalError(c, err)
		return
	}
	response.Success(c, result)
}

// CheckEligibility scores schemes against self-reported criteria.
// @Router /api/v1/schemes/eligibility [post]
func (h *SchemeHandler) CheckEligibility(c *gin.Context) {
	var req service.EligibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.schemeService.CheckEligibility(c.Request.Context(), &req)
	if err != nil {
		internalError(c, err)
		return
	}
	response.Success(c, result)
}

// Stats returns the scheme statistics overview.
// @Router /api/v1/schemes/stats [get]
func (h *SchemeHandler) Stats(c *gin.Context) {
	stats, err := h.schemeService.Stats(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	response.Success(c, stats)
}

// Filters returns the filter metadata for scheme search.
// @Router /api/v1/schemes/filters [get]
func (h *SchemeHandler) Filters(c *gin.Context) {
	filters, err := h.schemeService.Filters(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	response.Success(c, filters)
}
