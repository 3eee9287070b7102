package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"akwaabamarket.com/app/internal/http/middleware"
	"akwaabamarket.com/app/internal/http/validation"
	"akwaabamarket.com/app/internal/modules/products"
	"akwaabamarket.com/app/internal/shared/apperr"
)

type ProductsHandler struct {
	Logger *slog.Logger
	Repo   *products.Repo
}

func NewProductsHandler(logger *slog.Logger, db *gorm.DB) *ProductsHandler {
	return &ProductsHandler{Logger: logger, Repo: products.NewRepo(db)}
}

// GET /products
func (h *ProductsHandler) List(c *gin.Context) {
	items, err := h.Repo.List(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": items})
}

// GET /products/:id
func (h *ProductsHandler) Detail(c *gin.Context) {
	p, err := h.Repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.Fail(c, apperr.NotFoundErr("Product not found."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, p)
}

type createProductInput struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" binding:"required,min=1"`
	Currency    string `json:"currency" binding:"required,len=3"`
	Stock       int    `json:"stock" binding:"min=0"`
}

// POST /api/admin/products
func (h *ProductsHandler) Create(c *gin.Context) {
	var in createProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Product is invalid.", validation.FromBindError(err, &in)))
		return
	}

	p, err := h.Repo.Create(c.Request.Context(), in.Name, in.Slug, in.Description, in.PriceCents, in.Currency, in.Stock)
	if err != nil {
		if products.IsDuplicateKey(err) {
			middleware.Fail(c, apperr.ConflictErr("A product with this slug already exists."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusCreated, p)
}
