package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/academia/internal/app/models/dto"
	"github.com/yigit/academia/internal/app/services"
	"github.com/yigit/academia/internal/middleware"
	"github.com/yigit/academia/internal/pkg/apperrors"
	"github.com/yigit/academia/internal/pkg/helpers"
)

// EntityService defines the operations the HTTP layer needs for one record type
type EntityService[T any] interface {
	Create(ctx context.Context, input services.Input) (*T, error)
	Update(ctx context.Context, id string, patch services.Input) (*T, error)
	Delete(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, field, value string, page, size int) ([]*T, error)
	List(ctx context.Context, filter map[string]string, page, size int) ([]*T, error)
	GetByID(ctx context.Context, id string) (*T, error)
	GetByEmail(ctx context.Context, email string) (*T, error)
	GetByDNI(ctx context.Context, dni string) (*T, error)
	GetByName(ctx context.Context, name string, page, size int) ([]*T, error)
}

// filterParams lists the accepted query parameters and the filter key each
// sets. Canonical names come first and win over their aliases.
var filterParams = []struct{ param, key string }{
	{"name", "name"},
	{"career", "career"},
	{"faculty", "faculty"},
	{"subject", "subject"},
	{"kind", "kind"},
	{"carrera", "career"},
	{"facultad", "faculty"},
	{"materia", "subject"},
	{"tipo", "kind"},
}

// EntityController handles the CRUD endpoints of one record type
type EntityController[T any] struct {
	service EntityService[T]
}

// NewEntityController creates a new EntityController
func NewEntityController[T any](service EntityService[T]) *EntityController[T] {
	return &EntityController[T]{
		service: service,
	}
}

// RegisterRoutes mounts the endpoints on rg. Static segments are registered
// before /:id.
func (c *EntityController[T]) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", c.List)
	rg.GET("/search", c.Search)
	rg.GET("/email/:email", c.GetByEmail)
	rg.GET("/dni/:dni", c.GetByDNI)
	rg.GET("/name/:name", c.GetByName)
	rg.GET("/:id", c.GetByID)
	rg.POST("", c.Create)
	rg.PUT("/:id", c.Update)
	rg.DELETE("/:id", c.Delete)
}

func ok(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, dto.NewAPIResponse(data))
}

// readInput decodes the request body as a JSON object. An empty body is a bad request.
func readInput(ctx *gin.Context) (services.Input, error) {
	body, err := ctx.GetRawData()
	if err != nil {
		return nil, apperrors.NewBadRequestError("Could not read request body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, apperrors.NewBadRequestError("Request body is empty")
	}

	var input services.Input
	if err := json.Unmarshal(body, &input); err != nil || input == nil {
		return nil, apperrors.NewBadRequestError("Request body must be a JSON object")
	}
	return input, nil
}

// List handles GET / with optional filters and pagination
func (c *EntityController[T]) List(ctx *gin.Context) {
	filter := map[string]string{}
	for _, fp := range filterParams {
		if _, set := filter[fp.key]; set {
			continue
		}
		if v := ctx.Query(fp.param); v != "" {
			filter[fp.key] = v
		}
	}
	page, size := helpers.ParsePaginationParams(ctx)

	recs, err := c.service.List(ctx.Request.Context(), filter, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, http.StatusOK, recs)
}

// GetByID handles GET /:id
func (c *EntityController[T]) GetByID(ctx *gin.Context) {
	rec, err := c.service.GetByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, http.StatusOK, rec)
}

// GetByEmail handles GET /email/:email
func (c *EntityController[T]) GetByEmail(ctx *gin.Context) {
	rec, err := c.service.GetByEmail(ctx.Request.Context(), ctx.Param("email"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, http.StatusOK, rec)
}

// GetByDNI handles GET /dni/:dni
func (c *EntityController[T]) GetByDNI(ctx *gin.Context) {
	rec, err := c.service.GetByDNI(ctx.Request.Context(), ctx.Param("dni"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, http.StatusOK, rec)
}

// GetByName handles GET /name/:name
func (c *EntityController[T]) GetByName(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	recs, err := c.service.GetByName(ctx.Request.Context(), ctx.Param("name"), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, http.StatusOK, recs)
}

// Search handles GET /search?field=&value=
func (c *EntityController[T]) Search(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	recs, err := c.service.Search(ctx.Request.Context(), ctx.Query("field"), ctx.Query("value"), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, http.StatusOK, recs)
}

// Create handles POST /
func (c *EntityController[T]) Create(ctx *gin.Context) {
	input, err := readInput(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	rec, err := c.service.Create(ctx.Request.Context(), input)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, http.StatusCreated, rec)
}

// Update handles PUT /:id with a partial body
func (c *EntityController[T]) Update(ctx *gin.Context) {
	patch, err := readInput(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	rec, err := c.service.Update(ctx.Request.Context(), ctx.Param("id"), patch)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, http.StatusOK, rec)
}

// Delete handles DELETE /:id and answers {"success": bool}. Deleting a
// missing record still answers 200 with success=false.
func (c *EntityController[T]) Delete(ctx *gin.Context) {
	removed, err := c.service.Delete(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.DeleteResponse{Success: removed})
}
