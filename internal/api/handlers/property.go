package handlers

import (
	"net/http"
	"strconv"

	"propsync/internal/logger"
	"propsync/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PropertyHandler exposes the read surface of the catalog. Writes only
// happen through the sync engine.
type PropertyHandler struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewPropertyHandler(db *gorm.DB, logger *logger.Logger) *PropertyHandler {
	return &PropertyHandler{
		db:     db,
		logger: logger,
	}
}

func (h *PropertyHandler) List(c *gin.Context) {
	var properties []models.Property

	// Pagination
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	// Filters
	status := c.Query("status")
	listingType := c.Query("listing_type")
	category := c.Query("category")
	search := c.Query("search")

	query := h.db.Model(&models.Property{})

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if listingType != "" {
		query = query.Where("listing_type = ?", listingType)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if search != "" {
		query = query.Where("title_en ILIKE ? OR external_reference ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	if err := query.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&properties).Error; err != nil {
		h.logger.Error("Failed to list properties: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch properties"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": properties,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *PropertyHandler) Get(c *gin.Context) {
	id := c.Param("id")

	var property models.Property
	if err := h.db.First(&property, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
			return
		}
		h.logger.Error("Failed to fetch property %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch property"})
		return
	}

	c.JSON(http.StatusOK, property)
}
