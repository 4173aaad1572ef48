package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"agencysite.io/cms/pkg/slug"
	"agencysite.io/cms/services/content-service/internal/domain"
	"agencysite.io/cms/services/content-service/internal/model"
)

// respondError maps service errors onto HTTP status codes. Internal errors
// are attached to the gin context for the request logger and not echoed.
func respondError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "internal server error"
	switch {
	case slug.IsValidation(err):
		status, msg = http.StatusBadRequest, "title does not produce a usable slug"
	case errors.Is(err, domain.ErrBadRequest):
		status, msg = http.StatusBadRequest, "invalid request"
	case errors.Is(err, domain.ErrSlugTaken):
		status, msg = http.StatusConflict, "slug already in use, please retry"
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	}
	resp := model.ErrorResponse{Success: false, Message: msg}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	} else {
		resp.Error = err.Error()
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, msg string, err error) {
	resp := model.ErrorResponse{Success: false, Message: msg}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

// listQuery reads the shared list parameters. Unparseable numbers fall back
// to the defaults applied by ListQuery.Normalize.
func listQuery(c *gin.Context, defaultStatus string) domain.ListQuery {
	q := domain.ListQuery{
		Status:   c.DefaultQuery("status", defaultStatus),
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Search:   c.Query("search"),
		SortBy:   c.Query("sortBy"),
		Desc:     !strings.EqualFold(c.Query("sortOrder"), "asc"),
	}
	if q.Status == "" {
		q.Status = defaultStatus
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		q.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		q.Limit = limit
	}
	if f := c.Query("featured"); f != "" {
		if featured, err := strconv.ParseBool(f); err == nil {
			q.Featured = &featured
		}
	}
	return q
}
