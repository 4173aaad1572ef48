package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agencysite.io/cms/pkg/util"
	"agencysite.io/cms/services/content-service/internal/domain"
	"agencysite.io/cms/services/content-service/internal/model"
)

// ServiceHandler serves the services catalogue.
type ServiceHandler struct {
	Service domain.CatalogService
}

func NewServiceHandler(service domain.CatalogService) *ServiceHandler {
	return &ServiceHandler{Service: service}
}

// ListActive handles GET /services.
func (h *ServiceHandler) ListActive(c *gin.Context) {
	h.list(c, domain.ServiceStatusActive)
}

// ListAll handles GET /services/admin/all.
func (h *ServiceHandler) ListAll(c *gin.Context) {
	h.list(c, domain.StatusAll)
}

func (h *ServiceHandler) list(c *gin.Context, defaultStatus string) {
	services, page, err := h.Service.ListServices(c.Request.Context(), listQuery(c, defaultStatus))
	if err != nil {
		respondError(c, err)
		return
	}
	if services == nil {
		services = []*domain.Service{}
	}
	c.JSON(http.StatusOK, model.ServiceListResponse{Success: true, Services: services, Pagination: page})
}

func (h *ServiceHandler) GetBySlug(c *gin.Context) {
	svc, err := h.Service.GetActiveBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ServiceResponse{Success: true, Service: svc})
}

func (h *ServiceHandler) GetByID(c *gin.Context) {
	id, ok := util.ParseID(c, "id")
	if !ok {
		badRequest(c, "invalid id", nil)
		return
	}
	svc, err := h.Service.GetService(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ServiceResponse{Success: true, Service: svc})
}

func (h *ServiceHandler) Create(c *gin.Context) {
	var req domain.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	svc, err := h.Service.CreateService(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.ServiceResponse{Success: true, Message: "service created", Service: svc})
}

func (h *ServiceHandler) Update(c *gin.Context) {
	id, ok := util.ParseID(c, "id")
	if !ok {
		badRequest(c, "invalid id", nil)
		return
	}
	var req domain.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	svc, err := h.Service.UpdateService(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ServiceResponse{Success: true, Message: "service updated", Service: svc})
}

func (h *ServiceHandler) Delete(c *gin.Context) {
	id, ok := util.ParseID(c, "id")
	if !ok {
		badRequest(c, "invalid id", nil)
		return
	}
	if err := h.Service.DeleteService(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.MessageResponse{Success: true, Message: "service deleted"})
}

// BulkUpdate handles PUT /services/bulk/update.
func (h *ServiceHandler) BulkUpdate(c *gin.Context) {
	var req domain.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	n, err := h.Service.BulkUpdate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.BulkUpdateResponse{Success: true, Message: "services updated", ModifiedCount: n})
}

// Inquiry handles POST /services/:slug/inquiry.
func (h *ServiceHandler) Inquiry(c *gin.Context) {
	if err := h.Service.RecordInquiry(c.Request.Context(), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.MessageResponse{Success: true, Message: "inquiry received, we will be in touch"})
}

func (h *ServiceHandler) Stats(c *gin.Context) {
	stats, err := h.Service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatsResponse{Success: true, Stats: stats})
}

func (h *ServiceHandler) Taxonomy(c *gin.Context) {
	tax, err := h.Service.Taxonomy(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TaxonomyResponse{Success: true, Taxonomy: tax})
}
