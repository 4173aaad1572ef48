package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agencysite.io/cms/pkg/util"
	"agencysite.io/cms/services/content-service/internal/domain"
	"agencysite.io/cms/services/content-service/internal/model"
)

// BlogHandler handles HTTP requests for blog posts.
type BlogHandler struct {
	Service domain.BlogService
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(service domain.BlogService) *BlogHandler {
	return &BlogHandler{Service: service}
}

// ListPublished handles GET /blog.
func (h *BlogHandler) ListPublished(c *gin.Context) {
	h.list(c, domain.BlogStatusPublished)
}

// ListAll handles GET /blog/admin/all.
func (h *BlogHandler) ListAll(c *gin.Context) {
	h.list(c, domain.StatusAll)
}

func (h *BlogHandler) list(c *gin.Context, defaultStatus string) {
	posts, page, err := h.Service.ListBlogs(c.Request.Context(), listQuery(c, defaultStatus))
	if err != nil {
		respondError(c, err)
		return
	}
	if posts == nil {
		posts = []*domain.BlogPost{}
	}
	c.JSON(http.StatusOK, model.BlogListResponse{Success: true, Blogs: posts, Pagination: page})
}

// GetBySlug handles GET /blog/:slug and counts a view.
func (h *BlogHandler) GetBySlug(c *gin.Context) {
	post, err := h.Service.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.BlogResponse{Success: true, Blog: post})
}

// GetByID handles GET /blog/admin/:id.
func (h *BlogHandler) GetByID(c *gin.Context) {
	id, ok := util.ParseID(c, "id")
	if !ok {
		badRequest(c, "invalid id", nil)
		return
	}
	post, err := h.Service.GetBlog(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.BlogResponse{Success: true, Blog: post})
}

// Create handles POST /blog.
func (h *BlogHandler) Create(c *gin.Context) {
	var req domain.CreateBlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	userID, ok := util.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Success: false, Message: "unauthorized"})
		return
	}
	username, _ := util.GetUsername(c)
	post, err := h.Service.CreateBlog(c.Request.Context(), req, userID, username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, model.BlogResponse{Success: true, Message: "blog post created", Blog: post})
}

// Update handles PUT /blog/:id.
func (h *BlogHandler) Update(c *gin.Context) {
	id, ok := util.ParseID(c, "id")
	if !ok {
		badRequest(c, "invalid id", nil)
		return
	}
	var req domain.UpdateBlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}
	post, err := h.Service.UpdateBlog(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.BlogResponse{Success: true, Message: "blog post updated", Blog: post})
}

// Delete handles DELETE /blog/:id.
func (h *BlogHandler) Delete(c *gin.Context) {
	id, ok := util.ParseID(c, "id")
	if !ok {
		badRequest(c, "invalid id", nil)
		return
	}
	if err := h.Service.DeleteBlog(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.MessageResponse{Success: true, Message: "blog post deleted"})
}

func (h *BlogHandler) Stats(c *gin.Context) {
	stats, err := h.Service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatsResponse{Success: true, Stats: stats})
}

// Taxonomy handles GET /blog/categories-tags.
func (h *BlogHandler) Taxonomy(c *gin.Context) {
	tax, err := h.Service.Taxonomy(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TaxonomyResponse{Success: true, Taxonomy: tax})
}
