package recipe

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"foodcost/internal/catalog"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// scopeFromContext reads what the auth middleware attached.
func scopeFromContext(c *gin.Context) (Scope, bool) {
	orgID := c.GetString("orgID")
	if orgID == "" {
		return Scope{}, false
	}
	return Scope{OrganizationID: orgID, OutletIDs: c.GetStringSlice("outletIDs")}, true
}

func recipeID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return "", false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to evaluate recipe"})
}

// --------------------------------------------------
// GET /recipes/:id/cost
// --------------------------------------------------
func (h *Handler) GetCost(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	scope, ok := scopeFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetRecipeCost(c.Request.Context(), id, scope)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// --------------------------------------------------
// GET /recipes/:id/allergens
// --------------------------------------------------
func (h *Handler) GetAllergens(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	scope, ok := scopeFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	summary, err := h.service.GetRecipeAllergens(c.Request.Context(), id, scope)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
