package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/metrics"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/invoicer/backend/internal/resource"
)

// Resource is a described entity whose operations can be mounted.
// *resource.Descriptor satisfies it for every entity type.
type Resource interface {
	Name() string
	Nested() bool
	Operations() resource.Operation
	List(ctx context.Context, tenant uuid.UUID, params resource.PathParams, filter shared.Filter) (shared.Paginated[any], error)
	Create(ctx context.Context, tenant uuid.UUID, params resource.PathParams, bind resource.Binder) (any, error)
	Read(ctx context.Context, tenant uuid.UUID, params resource.PathParams) (any, error)
	Update(ctx context.Context, tenant uuid.UUID, params resource.PathParams, bind resource.Binder) (any, error)
	Delete(ctx context.Context, tenant uuid.UUID, params resource.PathParams) error
}

// ResourceHandler serves the composed operations of resources
type ResourceHandler struct {
	BaseHandler
	metrics *metrics.Registry
}

// NewResourceHandler creates a resource handler. registry may be nil.
func NewResourceHandler(registry *metrics.Registry) *ResourceHandler {
	return &ResourceHandler{metrics: registry}
}

// MountResource mounts the operations of r on group without metrics
func MountResource(group *gin.RouterGroup, r Resource) {
	NewResourceHandler(nil).Mount(group, r)
}

// Mount registers the exposed operations of r on group. A nested resource
// is expected on a group whose path already ends in its parent's :id, its
// own id is :children.
func (h *ResourceHandler) Mount(group *gin.RouterGroup, r Resource) {
	ops := r.Operations()
	item := "/:" + resource.ParentParam
	if r.Nested() {
		item = "/:" + resource.ChildParam
	}

	if ops.Has(resource.OpList) {
		group.GET("", h.list(r))
	}
	if ops.Has(resource.OpCreate) {
		group.PUT("", h.create(r))
	}
	if ops.Has(resource.OpRead) {
		group.GET(item, h.read(r))
	}
	if ops.Has(resource.OpUpdate) {
		group.PATCH(item, h.update(r))
	}
	if ops.Has(resource.OpDelete) {
		group.DELETE(item, h.delete(r))
	}
}

func (h *ResourceHandler) list(r Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := dto.DefaultListRequest()
		if err := c.ShouldBindQuery(&req); err != nil {
			h.observe(r, "list", err)
			h.HandleBindError(c, err)
			return
		}

		page, err := r.List(c.Request.Context(), middleware.GetTenantID(c), c, shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
		})
		h.observe(r, "list", err)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
	}
}

func (h *ResourceHandler) create(r Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := r.Create(c.Request.Context(), middleware.GetTenantID(c), c, bindJSON(c))
		h.observe(r, "create", err)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Created(c, out)
	}
}

func (h *ResourceHandler) read(r Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := r.Read(c.Request.Context(), middleware.GetTenantID(c), c)
		h.observe(r, "read", err)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, out)
	}
}

func (h *ResourceHandler) update(r Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := r.Update(c.Request.Context(), middleware.GetTenantID(c), c, bindJSON(c))
		h.observe(r, "update", err)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, out)
	}
}

func (h *ResourceHandler) delete(r Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := r.Delete(c.Request.Context(), middleware.GetTenantID(c), c)
		h.observe(r, "delete", err)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.NoContent(c)
	}
}

func (h *ResourceHandler) observe(r Resource, op string, err error) {
	if h.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = shared.KindOf(err).String()
	}
	h.metrics.ResourceOperation(r.Name(), op, outcome)
}

// bindJSON decodes and validates the JSON body of c
func bindJSON(c *gin.Context) resource.Binder {
	return func(obj any) error {
		return c.ShouldBindJSON(obj)
	}
}
