package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"catalog-service/internal/domain"
	"catalog-service/internal/service"
)

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type productRequest struct {
	CategoryID  string `json:"categoryId" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	Stock       int    `json:"stock"`
}

type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type ProductResponse struct {
	ID          string `json:"id"`
	CategoryID  string `json:"categoryId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	Stock       int    `json:"stock"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func (h *Handler) listCategories(c *gin.Context) {
	page, size, ok := pageQuery(c)
	if !ok {
		badRequest(c, "invalid page or size")
		return
	}

	result, err := h.catalog.ListCategories(c.Request.Context(), page, size)
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]CategoryResponse, len(result.Items))
	for i := range result.Items {
		items[i] = categoryToResponse(result.Items[i])
	}
	c.JSON(http.StatusOK, service.Page[CategoryResponse]{Items: items, Page: result.Page, Size: result.Size, Total: result.Total})
}

func (h *Handler) getCategory(c *gin.Context) {
	category, err := h.catalog.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, categoryToResponse(*category))
}

func (h *Handler) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	category, err := h.catalog.CreateCategory(c.Request.Context(), service.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, categoryToResponse(*category))
}

func (h *Handler) updateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	category, err := h.catalog.UpdateCategory(c.Request.Context(), c.Param("id"), service.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, categoryToResponse(*category))
}

func (h *Handler) deleteCategory(c *gin.Context) {
	if err := h.catalog.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listProducts(c *gin.Context) {
	page, size, ok := pageQuery(c)
	if !ok {
		badRequest(c, "invalid page or size")
		return
	}

	result, err := h.catalog.ListProducts(c.Request.Context(), c.Query("categoryId"), page, size)
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]ProductResponse, len(result.Items))
	for i := range result.Items {
		items[i] = productToResponse(result.Items[i])
	}
	c.JSON(http.StatusOK, service.Page[ProductResponse]{Items: items, Page: result.Page, Size: result.Size, Total: result.Total})
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, productToResponse(*product))
}

func (h *Handler) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, productToResponse(*product))
}

func (h *Handler) updateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, productToResponse(*product))
}

func (h *Handler) deleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r productRequest) input() service.ProductInput {
	return service.ProductInput{
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		Description: r.Description,
		PriceCents:  r.PriceCents,
		Stock:       r.Stock,
	}
}

func categoryToResponse(category domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		CreatedAt:   category.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   category.UpdatedAt.Format(time.RFC3339),
	}
}

func productToResponse(product domain.Product) ProductResponse {
	return ProductResponse{
		ID:          product.ID,
		CategoryID:  product.CategoryID,
		Name:        product.Name,
		Description: product.Description,
		PriceCents:  product.PriceCents,
		Stock:       product.Stock,
		CreatedAt:   product.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   product.UpdatedAt.Format(time.RFC3339),
	}
}
