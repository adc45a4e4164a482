package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fakturan-dev/catalog-service/internal/domain"
	"github.com/fakturan-dev/catalog-service/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
	logger         *zap.Logger
}

func NewProductHandler(productService *service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes mounts the catalog surface on the given router group.
func (h *ProductHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.POST("/products", h.CreateProduct)
	r.PUT("/products/:id", h.UpdateProduct)
	r.PATCH("/products/:id", h.UpdateProduct)
	r.DELETE("/products/:id", h.DeleteProduct)
	r.GET("/health", h.Health)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	q := service.ListQuery{
		ArticleNo: c.Query("articleNo"),
		Name:      c.Query("product"),
		Search:    c.Query("search"),
	}

	var ok bool
	if q.Page, ok = parseQueryInt(c, "page", 1); !ok {
		return
	}
	if q.Offset, ok = parseQueryInt(c, "offset", 0); !ok {
		return
	}
	if q.Limit, ok = parseQueryInt(c, "limit", 1); !ok {
		return
	}

	list, err := h.productService.List(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get product", id)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req domain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to create product", 0)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var cs domain.ChangeSet
	if err := c.ShouldBindJSON(&cs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, cs)
	if err != nil {
		h.respondError(c, err, "Failed to update product", id)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete product", id)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) Health(c *gin.Context) {
	if err := h.productService.Ping(c.Request.Context()); err != nil {
		h.logger.Error("Storage ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *ProductHandler) respondError(c *gin.Context, err error, logMsg string, id int64) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(logMsg, zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// parseID rejects only malformed ids; a well-formed id with no record is
// the storage layer's NotFound.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return 0, false
	}
	return id, true
}

// parseQueryInt parses an optional numeric query parameter, rejecting the
// request when the value is malformed or below min.
func parseQueryInt(c *gin.Context, name string, min int64) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < min {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " parameter"})
		return 0, false
	}
	return v, true
}
