package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/freshmeal/matcher-service/internal/catalog"
	"github.com/freshmeal/matcher-service/internal/platform"
)

// CatalogHandler exposes read-only catalog lookups for debugging matches
type CatalogHandler struct {
	reader catalog.Reader
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(reader catalog.Reader) *CatalogHandler {
	return &CatalogHandler{reader: reader}
}

// SearchCatalogResponse represents a catalog search response
type SearchCatalogResponse struct {
	Query    string            `json:"query"`
	Count    int               `json:"count"`
	Products []catalog.Product `json:"products"`
}

// SearchCatalog runs one raw catalog query the way the matching engine does
// GET /internal/catalog/search?q=...&limit=...&platforms=a,b&includeOutOfStock=true
func (h *CatalogHandler) SearchCatalog(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer in [1,200]"})
			return
		}
		limit = parsed
	}

	filter := catalog.Filter{
		Limit:             limit,
		IncludeOutOfStock: c.Query("includeOutOfStock") == "true",
	}

	if raw := c.Query("platforms"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id := platform.ID(strings.TrimSpace(part))
			if !platform.Valid(id) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform: " + string(id)})
				return
			}
			filter.Platforms = append(filter.Platforms, id)
		}
	}

	products, err := h.reader.Search(c.Request.Context(), query, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Catalog search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, SearchCatalogResponse{
		Query:    query,
		Count:    len(products),
		Products: products,
	})
}

// RegisterCatalogRoutes registers catalog routes with the Gin router
func RegisterCatalogRoutes(r *gin.RouterGroup, reader catalog.Reader) {
	handler := NewCatalogHandler(reader)

	r.GET("/catalog/search", handler.SearchCatalog)
}
