package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/es"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/util"
)

const relatedLimit = 5

type CatalogHandler struct {
	DB      *gorm.DB
	ES      *elasticsearch.Client
	Index   string
	BaseURL string
}

// productSummary is the listing projection: display fields plus the first
// image resolved to a public URL.
type productSummary struct {
	ID           uint     `json:"id"`
	Name         string   `json:"name"`
	Slug         string   `json:"slug"`
	RatingCount  uint     `json:"rating_count"`
	RatingNumber float64  `json:"rating_number"`
	Price        float64  `json:"price"`
	SalePrice    *float64 `json:"sale_price"`
	Image        string   `json:"image"`
}

func (h *CatalogHandler) summarize(p *models.Product, truncateName bool) productSummary {
	name := p.Name
	if truncateName {
		name = util.Truncate(name, 45)
	}
	return productSummary{
		ID:           p.ID,
		Name:         name,
		Slug:         p.Slug,
		RatingCount:  p.RatingCount,
		RatingNumber: p.RatingNumber,
		Price:        p.Price,
		SalePrice:    p.SalePrice,
		Image:        util.ImageURL(h.BaseURL, cart.ProductImageDir, util.FirstImage(p.Images)),
	}
}

type categorySummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *CatalogHandler) categories() ([]categorySummary, error) {
	var cats []models.Category
	if err := h.DB.Order("id ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	out := make([]categorySummary, 0, len(cats))
	for _, cat := range cats {
		out = append(out, categorySummary{ID: cat.ID, Name: cat.Name, Slug: cat.Slug})
	}
	return out, nil
}

// GetProducts lists active products, defaulting to the first category
// unless all=1 is passed. Categories ride along for the storefront nav.
func (h *CatalogHandler) GetProducts(c echo.Context) error {
	limit := parseIntDefault(c.QueryParam("limit"), 20)
	offset := parseIntDefault(c.QueryParam("offset"), 0)
	all := parseIntDefault(c.QueryParam("all"), 0) != 0

	cats, err := h.categories()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	q := h.DB.Where("status = ?", models.ProductStatusActive)
	if !all && len(cats) > 0 {
		q = q.Where("category_id = ?", cats[0].ID)
	}

	var products []models.Product
	if err := q.Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	out := make([]productSummary, 0, len(products))
	for i := range products {
		out = append(out, h.summarize(&products[i], false))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"products":   out,
		"categories": cats,
	})
}

// GetProductsByCategory lists active products of the category named by slug.
func (h *CatalogHandler) GetProductsByCategory(c echo.Context) error {
	limit := parseIntDefault(c.QueryParam("limit"), 20)
	offset := parseIntDefault(c.QueryParam("offset"), 0)

	var category models.Category
	if err := h.DB.Where("slug = ?", c.Param("slug")).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorMessage(c, http.StatusNotFound, "Category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var products []models.Product
	if err := h.DB.
		Where("category_id = ? AND status = ?", category.ID, models.ProductStatusActive).
		Limit(limit).Offset(offset).
		Find(&products).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	out := make([]productSummary, 0, len(products))
	for i := range products {
		out = append(out, h.summarize(&products[i], true))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"products": out})
}

func (h *CatalogHandler) GetCategories(c echo.Context) error {
	cats, err := h.categories()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cats)
}

// GetProductBySlug returns the full product plus its reviews.
func (h *CatalogHandler) GetProductBySlug(c echo.Context) error {
	var product models.Product
	if err := h.DB.Where("slug = ?", c.Param("slug")).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorMessage(c, http.StatusNotFound, "Product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	for i, img := range product.Images {
		product.Images[i] = util.ImageURL(h.BaseURL, cart.ProductImageDir, img)
	}

	var reviews []models.Review
	if err := h.DB.Preload("User").Where("product_id = ?", product.ID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	for i := range reviews {
		for j, img := range reviews[i].Images {
			reviews[i].Images[j] = util.ImageURL(h.BaseURL, ReviewImageDir, img)
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"product": product,
		"reviews": reviews,
	})
}

// GetRelatedProducts finds up to 5 active products sharing the category,
// tags or a similar name.
func (h *CatalogHandler) GetRelatedProducts(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return errorMessage(c, http.StatusBadRequest, "invalid product id")
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorMessage(c, http.StatusNotFound, "Product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var related []models.Product
	q := h.DB.
		Where("id != ? AND status = ?", product.ID, models.ProductStatusActive).
		Where(
			h.DB.Where("category_id = ?", product.CategoryID).
				Or("tags LIKE ?", "%"+product.Tags+"%").
				Or("name LIKE ?", "%"+product.Name+"%"),
		)
	if err := q.Limit(relatedLimit).Find(&related).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	out := make([]productSummary, 0, len(related))
	for i := range related {
		out = append(out, h.summarize(&related[i], false))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"related_products": out})
}

// Search queries the product index when elasticsearch is configured and
// falls back to a LIKE scan otherwise.
func (h *CatalogHandler) Search(c echo.Context) error {
	query := c.QueryParam("query")
	limit := parseIntDefault(c.QueryParam("limit"), 20)
	offset := parseIntDefault(c.QueryParam("offset"), 0)

	var products []models.Product

	if h.ES != nil {
		ids, err := es.SearchProductIDs(c.Request().Context(), h.ES, h.Index, query, offset, limit)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if len(ids) > 0 {
			if err := h.DB.
				Where("id IN ? AND status = ?", ids, models.ProductStatusActive).
				Find(&products).Error; err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
		}
	} else {
		pattern := "%" + query + "%"
		if err := h.DB.
			Where("status = ?", models.ProductStatusActive).
			Where(h.DB.Where("name LIKE ?", pattern).Or("slug LIKE ?", pattern)).
			Limit(limit).Offset(offset).
			Find(&products).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	out := make([]productSummary, 0, len(products))
	for i := range products {
		out = append(out, h.summarize(&products[i], false))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"products": out})
}
