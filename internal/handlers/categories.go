package handlers

import (
	"context"
	"net/http"

	"taskify/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

// CategoryStore is the minimal surface the category endpoints need. The
// engine only ever checks existence; these handlers add create/list so the
// system is usable end to end.
type CategoryStore interface {
	Create(ctx context.Context, category *models.Category) error
	FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Category, error)
}

type CategoryHandler struct {
	categories CategoryStore
}

func NewCategoryHandler(categories CategoryStore) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Name  string `json:"name" binding:"required,max=100"`
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := uuid.NewV4()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate category ID"})
		return
	}

	category := models.Category{
		ID:     id,
		UserID: userID,
		Name:   req.Name,
		Color:  req.Color,
	}
	if err := h.categories.Create(c.Request.Context(), &category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create category"})
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	categories, err := h.categories.FindByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
